package eastmoney

import (
	"testing"

	"astock/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKlineBody = `{"rc":0,"rt":17,"svr":177617717,"lt":1,"full":0,"data":{"code":"000001","market":0,"name":"平安银行","decimal":2,"dktotal":780,"klines":["2022-01-04,16.48,17.15,17.20,16.20,2135258,3616000000.00,6.07,4.07,0.67,10.98","2022-01-05,17.20,17.77,18.17,17.07,2669849,4731000000.00,6.41,3.62,0.62,13.73"]}}`

const sampleListBody = `{"rc":0,"rt":6,"svr":181212835,"lt":1,"full":1,"data":{"total":3,"diff":[{"f12":"000001","f14":"平安银行"},{"f12":"600519","f14":"贵州茅台"},{"f12":"300750","f14":"宁德时代"}]}}`

const sampleFundFlowBody = `{"rc":0,"rt":21,"data":{"klines":["2024-06-03,-125000000.0,30000000.0,95000000.0,-80000000.0,-45000000.0,-5.12,1.23,3.89,-3.28,-1.84","2024-06-04,210000000.0,-60000000.0,-150000000.0,120000000.0,90000000.0,8.31,-2.37,-5.94,4.75,3.56"]}}`

func TestParseKlines(t *testing.T) {
	t.Run("正常解析", func(t *testing.T) {
		bars, err := parseKlines([]byte(sampleKlineBody))
		require.NoError(t, err)
		require.Len(t, bars, 2)

		bar := bars[0]
		assert.Equal(t, "2022-01-04", bar.Date.Format(core.DateFormat))
		assert.Equal(t, 16.48, bar.Open)
		assert.Equal(t, 17.15, bar.Close)
		assert.Equal(t, 17.20, bar.High)
		assert.Equal(t, 16.20, bar.Low)
		assert.Equal(t, int64(2135258), bar.Volume)
		assert.Equal(t, 6.07, bar.Amplitude)
		assert.Equal(t, 4.07, bar.ChangePercent)
		assert.Equal(t, 0.67, bar.ChangeAmount)
		assert.Equal(t, 10.98, bar.TurnoverRate)
	})

	t.Run("空数据", func(t *testing.T) {
		_, err := parseKlines([]byte(`{"data":{"klines":[]}}`))
		assert.ErrorIs(t, err, core.ErrEmptyData)
	})

	t.Run("非法JSON", func(t *testing.T) {
		_, err := parseKlines([]byte(`not json`))
		assert.Error(t, err)
	})

	t.Run("字段不足的行被忽略", func(t *testing.T) {
		body := `{"data":{"klines":["2022-01-04,16.48,17.15","2022-01-05,17.20,17.77,18.17,17.07,2669849,4731000000.00,6.41,3.62,0.62,13.73"]}}`
		bars, err := parseKlines([]byte(body))
		require.NoError(t, err)
		assert.Len(t, bars, 1)
	})
}

func TestParseStockList(t *testing.T) {
	t.Run("正常解析", func(t *testing.T) {
		stocks, err := parseStockList([]byte(sampleListBody))
		require.NoError(t, err)
		require.Len(t, stocks, 3)

		assert.Equal(t, "000001", stocks[0].Code)
		assert.Equal(t, "平安银行", stocks[0].Name)
		assert.Equal(t, "SZ", stocks[0].Market)
		assert.Equal(t, "SH", stocks[1].Market)
	})

	t.Run("空列表", func(t *testing.T) {
		_, err := parseStockList([]byte(`{"data":{"total":0,"diff":[]}}`))
		assert.ErrorIs(t, err, core.ErrEmptyData)
	})
}

func TestParseFundFlow(t *testing.T) {
	flows, err := parseFundFlow([]byte(sampleFundFlowBody))
	require.NoError(t, err)
	require.Len(t, flows, 2)

	assert.Equal(t, -125000000.0, flows[0].MainNetInflow)
	assert.Equal(t, -80000000.0, flows[0].BigNetInflow)
	assert.Equal(t, -5.12, flows[0].MainNetRatio)
	assert.Equal(t, -3.28, flows[0].BigNetRatio)
	assert.Equal(t, 210000000.0, flows[1].MainNetInflow)
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"0", 0.0},
		{"", 0.0},
		{"-", 0.0},
		{"invalid", 0.0},
		{"-3.28", -3.28},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseFloat(tt.input))
		})
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, int64(2135258), parseInt("2135258"))
	assert.Equal(t, int64(0), parseInt("-"))
	assert.Equal(t, int64(2135258), parseInt("2135258.0"))
}
