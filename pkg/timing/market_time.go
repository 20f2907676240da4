package timing

import (
	"time"

	"astock/pkg/core"
)

// TimeService 提供当前时间接口，用于mock测试
type TimeService interface {
	Now() time.Time
}

// SystemTimeService 使用系统实际时间
type SystemTimeService struct{}

func (s *SystemTimeService) Now() time.Time {
	return time.Now()
}

// MarketTime 提供A股市场交易时间判断
type MarketTime struct {
	timeService TimeService
}

// NewMarketTime 创建新的市场时间检测器
func NewMarketTime(timeService TimeService) *MarketTime {
	return &MarketTime{
		timeService: timeService,
	}
}

// DefaultMarketTime 使用系统时间的默认市场时间检测器
func DefaultMarketTime() *MarketTime {
	return NewMarketTime(&SystemTimeService{})
}

// Now 返回当前时间
func (m *MarketTime) Now() time.Time {
	return m.timeService.Now()
}

// IsTradingDay 判断是否是交易日（周一到周五，不含法定节假日）
func (m *MarketTime) IsTradingDay(t time.Time) bool {
	weekday := t.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsTradingTime 判断当前是否在交易时段
// 上午 09:30-11:30，下午 13:00-15:00
func (m *MarketTime) IsTradingTime() bool {
	now := m.timeService.Now()

	if !m.IsTradingDay(now) {
		return false
	}

	currentTime := now.Format("15:04:05")
	return (currentTime >= "09:30:00" && currentTime <= "11:30:00") ||
		(currentTime >= "13:00:00" && currentTime <= "15:00:00")
}

// IsAfterClose 判断当前是否已收盘
func (m *MarketTime) IsAfterClose() bool {
	now := m.timeService.Now()
	return now.Format("15:04:05") > "15:00:00"
}

// PrevTradingDay 返回t之前最近的交易日
func (m *MarketTime) PrevTradingDay(t time.Time) time.Time {
	day := t.AddDate(0, 0, -1)
	for !m.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// LatestCompleteTradingDay 返回最近一个数据完整的交易日
// 当天收盘前下载会拿到不完整的日K，此时退回前一个交易日
func (m *MarketTime) LatestCompleteTradingDay() time.Time {
	now := m.timeService.Now()
	if m.IsTradingDay(now) && m.IsAfterClose() {
		return now
	}
	return m.PrevTradingDay(now)
}

// DefaultEndDate 返回下载默认截止日期（紧凑格式 20060102）
func (m *MarketTime) DefaultEndDate() string {
	return m.LatestCompleteTradingDay().Format(core.CompactDateFormat)
}

// NextTradingDayOpen 返回下一个交易日的开盘时间
func (m *MarketTime) NextTradingDayOpen() time.Time {
	now := m.timeService.Now()
	day := now
	if !m.IsTradingDay(now) || now.Format("15:04:05") >= "09:30:00" {
		day = day.AddDate(0, 0, 1)
		for !m.IsTradingDay(day) {
			day = day.AddDate(0, 0, 1)
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, now.Location())
}
