package analysis

import (
	"fmt"
	"math"

	"astock/pkg/core"
)

// 涨停概率各评分项权重
const (
	weightPrice    = 0.25
	weightTurnover = 0.20
	weightFund     = 0.30
	weightTech     = 0.25
)

// LimitUpScore 涨停概率评估结果
type LimitUpScore struct {
	Probability   float64 `json:"probability"`    // 综合概率(0-100)
	PriceScore    float64 `json:"price_score"`    // 价格变动评分
	TurnoverScore float64 `json:"turnover_score"` // 换手率评分
	FundScore     float64 `json:"fund_score"`     // 资金流向评分
	TechScore     float64 `json:"tech_score"`     // 技术指标评分
	Status        string  `json:"status"`
}

// EvaluateLimitUp 评估一只股票次日涨停的可能性
// 基于最近30天K线与资金流向的加权评分，flows可为空(取中性分)
func EvaluateLimitUp(bars []core.DailyBar, flows []core.FundFlowBar) (LimitUpScore, error) {
	if len(bars) < 3 {
		return LimitUpScore{Status: "数据不足"}, fmt.Errorf("%w: 至少需要3天K线", core.ErrInsufficientData)
	}

	if len(bars) > 30 {
		bars = bars[len(bars)-30:]
	}
	if len(flows) > 30 {
		flows = flows[len(flows)-30:]
	}

	thisDay := bars[len(bars)-1]
	lastDay := bars[len(bars)-2]

	// 价格变动评分：涨幅越接近3%得分越高，非线性衰减
	priceChange := thisDay.ChangePercent
	if priceChange == 0 && lastDay.Close != 0 {
		priceChange = (thisDay.Close - lastDay.Close) / lastDay.Close * 100
	}
	priceScore := nonLinearScore(priceChange, 3)

	// 换手率评分：3%左右的换手最健康
	turnoverScore := nonLinearScore(thisDay.TurnoverRate, 3)

	fundScore := fundFlowScore(flows)
	techScore := technicalScore(bars)

	probability := priceScore*weightPrice + turnoverScore*weightTurnover +
		fundScore*weightFund + techScore*weightTech

	return LimitUpScore{
		Probability:   probability,
		PriceScore:    priceScore,
		TurnoverScore: turnoverScore,
		FundScore:     fundScore,
		TechScore:     techScore,
		Status:        "ok",
	}, nil
}

// nonLinearScore 非线性评分，离target越远分越低
func nonLinearScore(value, target float64) float64 {
	return 100 / (1 + math.Abs(value-target))
}

// fundFlowScore 资金流向综合评分
// 主力净流入40%，大单净占比30%，流向趋势30%；无数据时取中性分50
func fundFlowScore(flows []core.FundFlowBar) float64 {
	if len(flows) == 0 {
		return 50
	}

	last := flows[len(flows)-1]

	mainScore := 50.0
	switch {
	case len(flows) >= 2 && last.MainNetInflow > 0 && last.MainNetInflow > flows[len(flows)-2].MainNetInflow:
		mainScore = 100
	case last.MainNetInflow > 0:
		mainScore = 80
	}

	bigScore := 50.0
	switch {
	case last.BigNetRatio > 20:
		bigScore = 100
	case last.BigNetRatio >= 10:
		bigScore = 80
	}

	inflows := make([]float64, len(flows))
	for i, f := range flows {
		inflows[i] = f.MainNetInflow
	}
	trendScore := 50.0
	if slope(inflows) > 0 {
		trendScore = 100
	}

	return mainScore*0.4 + bigScore*0.3 + trendScore*0.3
}

// technicalScore 技术指标综合评分，MACD与KDJ各占一半
// 数据不足以计算的指标取中性分50
func technicalScore(bars []core.DailyBar) float64 {
	closes := Closes(bars)

	macdScore := 50.0
	if macd, err := MACD(closes); err == nil {
		if macd.DIF > macd.DEA && macd.Hist > 0 {
			macdScore = 100
		}
	}

	kdjScore := 50.0
	if kdj, err := KDJ(bars); err == nil {
		switch {
		case kdj.K > kdj.D && kdj.J > 80:
			kdjScore = 100
		case kdj.K > kdj.D:
			kdjScore = 80
		}
	}

	return (macdScore + kdjScore) / 2
}
