package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astock/pkg/core"
)

func TestMA(t *testing.T) {
	t.Run("窗口期内为NaN", func(t *testing.T) {
		values := []float64{1, 2, 3, 4, 5}
		result := MA(values, 3)

		require.Len(t, result, 5)
		assert.True(t, math.IsNaN(result[0]))
		assert.True(t, math.IsNaN(result[1]))
		assert.InDelta(t, 2.0, result[2], 1e-9)
		assert.InDelta(t, 3.0, result[3], 1e-9)
		assert.InDelta(t, 4.0, result[4], 1e-9)
	})

	t.Run("数据少于窗口", func(t *testing.T) {
		result := MA([]float64{1, 2}, 5)
		require.Len(t, result, 2)
		assert.True(t, math.IsNaN(result[0]))
		assert.True(t, math.IsNaN(result[1]))
	})
}

func TestMATrend(t *testing.T) {
	t.Run("夹角扩大判定为上升趋势", func(t *testing.T) {
		// 加速上涨的收盘价序列，MA5末三点夹角递增
		closes := []float64{10, 10, 10, 10, 10, 10.2, 10.6, 11.4}
		result, err := MATrend(closes, 5)

		require.NoError(t, err)
		require.Len(t, result.Angles, 2)
		assert.True(t, result.Expanding)
		assert.Greater(t, result.Angles[1], result.Angles[0])
	})

	t.Run("均线走平不是上升趋势", func(t *testing.T) {
		closes := []float64{10, 10, 10, 10, 10, 10, 10, 10}
		result, err := MATrend(closes, 5)

		require.NoError(t, err)
		assert.False(t, result.Expanding)
	})

	t.Run("数据不足返回错误", func(t *testing.T) {
		_, err := MATrend([]float64{10, 10, 10}, 5)
		assert.ErrorIs(t, err, core.ErrInsufficientData)
	})
}

func TestCloses(t *testing.T) {
	bars := []core.DailyBar{
		{Close: 10.5},
		{Close: 10.8},
	}
	assert.Equal(t, []float64{10.5, 10.8}, Closes(bars))
}
