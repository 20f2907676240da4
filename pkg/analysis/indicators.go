package analysis

import (
	"astock/pkg/core"
)

// MACDResult MACD指标的最新值
type MACDResult struct {
	DIF  float64 `json:"dif"`
	DEA  float64 `json:"dea"`
	Hist float64 `json:"hist"` // MACD柱，(DIF-DEA)*2
}

// KDJResult KDJ指标的最新值
type KDJResult struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
	J float64 `json:"j"`
}

// ema 指数移动平均序列
func ema(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}

	alpha := 2.0 / float64(period+1)
	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}

	return result
}

// MACD 计算MACD(12,26,9)指标，返回最新值
func MACD(closes []float64) (MACDResult, error) {
	if len(closes) < 26 {
		return MACDResult{}, core.ErrInsufficientData
	}

	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)

	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = ema12[i] - ema26[i]
	}

	dea := ema(dif, 9)
	last := len(closes) - 1

	return MACDResult{
		DIF:  dif[last],
		DEA:  dea[last],
		Hist: (dif[last] - dea[last]) * 2,
	}, nil
}

// KDJ 计算KDJ(9,3,3)指标，返回最新值
func KDJ(bars []core.DailyBar) (KDJResult, error) {
	const period = 9
	if len(bars) < period {
		return KDJResult{}, core.ErrInsufficientData
	}

	k, d := 50.0, 50.0
	for i := period - 1; i < len(bars); i++ {
		high := bars[i].High
		low := bars[i].Low
		for j := i - period + 1; j <= i; j++ {
			if bars[j].High > high {
				high = bars[j].High
			}
			if bars[j].Low < low {
				low = bars[j].Low
			}
		}

		rsv := 50.0
		if high != low {
			rsv = (bars[i].Close - low) / (high - low) * 100
		}

		k = k*2/3 + rsv/3
		d = d*2/3 + k/3
	}

	return KDJResult{K: k, D: d, J: 3*k - 2*d}, nil
}

// RSI 计算RSI指标的最新值
func RSI(closes []float64, period int) (float64, error) {
	if len(closes) < period+1 {
		return 0, core.ErrInsufficientData
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			gain += diff
		} else {
			loss -= diff
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if diff > 0 {
			g = diff
		} else {
			l = -diff
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// slope 最小二乘拟合直线的斜率
func slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
