package core

import (
	"strings"
	"time"
)

// Period K线周期
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Adjust 复权方式
type Adjust string

const (
	AdjustNone Adjust = ""    // 不复权
	AdjustQFQ  Adjust = "qfq" // 前复权
	AdjustHFQ  Adjust = "hfq" // 后复权
)

// Stock A股股票基础信息
type Stock struct {
	Code   string `json:"code"`   // 6位股票代码
	Name   string `json:"name"`   // 股票名称
	Market string `json:"market"` // SH / SZ / BJ
}

// DailyBar 单根K线数据
// 对应每只股票CSV文件中的一行，按交易日期为键
type DailyBar struct {
	Date          time.Time `json:"date"`           // 交易日期
	Open          float64   `json:"open"`           // 开盘价
	Close         float64   `json:"close"`          // 收盘价
	High          float64   `json:"high"`           // 最高价
	Low           float64   `json:"low"`            // 最低价
	Volume        int64     `json:"volume"`         // 成交量(手)
	Amount        float64   `json:"amount"`         // 成交额(元)
	Amplitude     float64   `json:"amplitude"`      // 振幅(%)
	ChangePercent float64   `json:"change_percent"` // 涨跌幅(%)
	ChangeAmount  float64   `json:"change_amount"`  // 涨跌额
	TurnoverRate  float64   `json:"turnover_rate"`  // 换手率(%)
}

// FundFlowBar 单日个股资金流向数据
type FundFlowBar struct {
	Date          time.Time `json:"date"`            // 交易日期
	MainNetInflow float64   `json:"main_net_inflow"` // 主力净流入(元)
	MainNetRatio  float64   `json:"main_net_ratio"`  // 主力净占比(%)
	BigNetInflow  float64   `json:"big_net_inflow"`  // 大单净流入(元)
	BigNetRatio   float64   `json:"big_net_ratio"`   // 大单净占比(%)
}

// DateFormat CSV及文件名中使用的日期格式
const DateFormat = "2006-01-02"

// CompactDateFormat 接口请求及文件名中使用的紧凑日期格式
const CompactDateFormat = "20060102"

// IsSkippableName 判断股票按名称是否应跳过下载
// ST股和退市股不纳入数据集
func IsSkippableName(name string) bool {
	return strings.Contains(name, "ST") || strings.Contains(name, "退")
}

// MarketOf 根据股票代码推断市场
func MarketOf(code string) string {
	switch {
	case strings.HasPrefix(code, "6") || strings.HasPrefix(code, "5"):
		return "SH"
	case strings.HasPrefix(code, "0") || strings.HasPrefix(code, "3"):
		return "SZ"
	case strings.HasPrefix(code, "4") || strings.HasPrefix(code, "8") || strings.HasPrefix(code, "9"):
		return "BJ"
	default:
		return "SH"
	}
}
