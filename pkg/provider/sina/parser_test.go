package sina

import (
	"testing"
	"time"

	"astock/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSONP = `var__sh600000_240([{"day":"2024-06-03","open":"8.00","high":"8.30","low":"7.90","close":"8.10","volume":"25000000"},{"day":"2024-06-04","open":"8.10","high":"8.50","low":"8.02","close":"8.42","volume":"31000000"},{"day":"2024-06-05","open":"8.42","high":"8.48","low":"8.20","close":"8.25","volume":"21000000"}])`

func TestParseKlineJSONP(t *testing.T) {
	t.Run("正常解析", func(t *testing.T) {
		bars, err := parseKlineJSONP(sampleJSONP)
		require.NoError(t, err)
		require.Len(t, bars, 3)

		first := bars[0]
		assert.Equal(t, "2024-06-03", first.Date.Format(core.DateFormat))
		assert.Equal(t, 8.00, first.Open)
		assert.Equal(t, 8.10, first.Close)
		assert.Equal(t, int64(250000), first.Volume)
		// 首行无前收，推算列保持为零
		assert.Equal(t, 0.0, first.ChangePercent)

		second := bars[1]
		assert.InDelta(t, 0.32, second.ChangeAmount, 0.001)
		assert.InDelta(t, 3.95, second.ChangePercent, 0.01)
		assert.InDelta(t, 5.93, second.Amplitude, 0.01)

		third := bars[2]
		assert.InDelta(t, -0.17, third.ChangeAmount, 0.001)
		assert.InDelta(t, -2.02, third.ChangePercent, 0.01)
	})

	t.Run("无括号包装", func(t *testing.T) {
		_, err := parseKlineJSONP("garbage without parens")
		assert.ErrorIs(t, err, core.ErrEmptyData)
	})

	t.Run("空数组", func(t *testing.T) {
		_, err := parseKlineJSONP("var__x([])")
		assert.ErrorIs(t, err, core.ErrEmptyData)
	})
}

func TestParseQuoteName(t *testing.T) {
	t.Run("UTF8内容直接返回", func(t *testing.T) {
		name := parseQuoteName(`var hq_str_sh600000="PuFa,10.20,10.30";`)
		assert.Equal(t, "PuFa", name)
	})

	t.Run("无等号", func(t *testing.T) {
		assert.Equal(t, "", parseQuoteName("no assignment here"))
	})

	t.Run("空字段", func(t *testing.T) {
		assert.Equal(t, "", parseQuoteName(`var hq_str_sh600000="";`))
	})
}

func TestClipRange(t *testing.T) {
	bars, err := parseKlineJSONP(sampleJSONP)
	require.NoError(t, err)

	start, _ := time.Parse(core.DateFormat, "2024-06-04")
	end, _ := time.Parse(core.DateFormat, "2024-06-05")

	clipped := clipRange(bars, start, end)
	require.Len(t, clipped, 2)
	assert.Equal(t, "2024-06-04", clipped[0].Date.Format(core.DateFormat))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.95, round2(3.9506))
	assert.Equal(t, -2.02, round2(-2.0199))
	assert.Equal(t, 0.0, round2(0))
}
