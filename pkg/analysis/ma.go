package analysis

import (
	"fmt"
	"math"

	"astock/pkg/core"
)

// MA 计算滑动均线，返回与输入等长的序列
// 前window-1个位置没有完整窗口，置为NaN
func MA(values []float64, window int) []float64 {
	result := make([]float64, len(values))
	if window <= 0 || window > len(values) {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			result[i] = sum / float64(window)
		} else {
			result[i] = math.NaN()
		}
	}

	return result
}

// Closes 提取收盘价序列
func Closes(bars []core.DailyBar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

// TrendResult 均线角度趋势分析结果
type TrendResult struct {
	LastMA    []float64 `json:"last_ma"`   // 最后三个均线值
	Angles    []float64 `json:"angles"`    // 相邻均线值的角度(度)
	Expanding bool      `json:"expanding"` // 角度是否逐步扩大
}

// MATrend 均线角度趋势分析
// 取均线的最后三个点，计算两段角度(以1为横轴单位的atan角度)，
// 角度逐段增大说明上升趋势在加速
func MATrend(closes []float64, window int) (TrendResult, error) {
	// 均线至少需要window天数据，再加2天才有3个均线点
	if len(closes) < window+2 {
		return TrendResult{}, fmt.Errorf("%w: 至少需要 %d 天收盘价", core.ErrInsufficientData, window+2)
	}

	ma := MA(closes, window)
	lastThree := ma[len(ma)-3:]

	angles := make([]float64, 0, 2)
	for i := 0; i < len(lastThree)-1; i++ {
		diff := lastThree[i+1] - lastThree[i]
		angles = append(angles, math.Atan(diff)*180/math.Pi)
	}

	expanding := true
	for i := 0; i < len(angles)-1; i++ {
		if angles[i+1] <= angles[i] {
			expanding = false
			break
		}
	}

	return TrendResult{
		LastMA:    lastThree,
		Angles:    angles,
		Expanding: expanding,
	}, nil
}
