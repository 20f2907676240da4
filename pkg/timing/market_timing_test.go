package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// MockTimeService 模拟时间服务
type MockTimeService struct {
	current time.Time
}

func (m *MockTimeService) Now() time.Time {
	return m.current
}

func newMockMarketTime(mockTime string) *MarketTime {
	t, _ := time.Parse("2006-01-02 15:04:05", mockTime)
	return NewMarketTime(&MockTimeService{current: t})
}

func TestMarketTime_IsTradingTime(t *testing.T) {
	tests := []struct {
		name     string
		mockTime string
		expected bool
	}{
		// 上午时段边界测试
		{"开盘前-09:29:59", "2025-08-21 09:29:59", false},
		{"开盘-09:30:00", "2025-08-21 09:30:00", true},
		{"正常交易-10:00:00", "2025-08-21 10:00:00", true},
		{"上午收盘-11:30:00", "2025-08-21 11:30:00", true},
		{"午休-11:30:01", "2025-08-21 11:30:01", false},

		// 下午时段边界测试
		{"午休-12:59:59", "2025-08-21 12:59:59", false},
		{"下午开盘-13:00:00", "2025-08-21 13:00:00", true},
		{"下午正常-14:00:00", "2025-08-21 14:00:00", true},
		{"收盘-15:00:00", "2025-08-21 15:00:00", true},
		{"收盘后-15:00:01", "2025-08-21 15:00:01", false},

		// 非交易日测试
		{"周六-休市", "2025-08-23 10:00:00", false},
		{"周日-休市", "2025-08-24 10:00:00", false},

		// 边沿时间测试
		{"凌晨-08:59:59", "2025-08-21 08:59:59", false},
		{"深夜-22:00:00", "2025-08-21 22:00:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := newMockMarketTime(tt.mockTime)
			assert.Equal(t, tt.expected, mt.IsTradingTime(), "时间 %s 的交易状态应匹配预期", tt.mockTime)
		})
	}
}

func TestMarketTime_IsTradingDay(t *testing.T) {
	tests := []struct {
		name     string
		mockTime string
		expected bool
	}{
		{"周一-交易日", "2025-08-25", true},
		{"周二-交易日", "2025-08-26", true},
		{"周三-交易日", "2025-08-27", true},
		{"周四-交易日", "2025-08-28", true},
		{"周五-交易日", "2025-08-29", true},
		{"周六-休市", "2025-08-23", false},
		{"周日-休市", "2025-08-24", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, _ := time.Parse("2006-01-02", tt.mockTime)
			mt := NewMarketTime(&MockTimeService{current: day})

			assert.Equal(t, tt.expected, mt.IsTradingDay(day), "日期 %s 的交易日状态应匹配预期", tt.mockTime)
		})
	}
}

func TestMarketTime_PrevTradingDay(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		expected string
	}{
		{"周二的前一交易日是周一", "2025-08-26", "2025-08-25"},
		{"周一的前一交易日是上周五", "2025-08-25", "2025-08-22"},
		{"周日的前一交易日是周五", "2025-08-24", "2025-08-22"},
		{"周六的前一交易日是周五", "2025-08-23", "2025-08-22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, _ := time.Parse("2006-01-02", tt.from)
			mt := DefaultMarketTime()

			actual := mt.PrevTradingDay(from)
			assert.Equal(t, tt.expected, actual.Format("2006-01-02"))
		})
	}
}

func TestMarketTime_LatestCompleteTradingDay(t *testing.T) {
	tests := []struct {
		name     string
		mockTime string
		expected string
	}{
		{"交易日收盘后取当天", "2025-08-21 16:00:00", "2025-08-21"},
		{"交易日盘中取前一交易日", "2025-08-21 10:00:00", "2025-08-20"},
		{"交易日开盘前取前一交易日", "2025-08-21 08:00:00", "2025-08-20"},
		{"周一盘中取上周五", "2025-08-25 10:00:00", "2025-08-22"},
		{"周六取周五", "2025-08-23 10:00:00", "2025-08-22"},
		{"周日取周五", "2025-08-24 20:00:00", "2025-08-22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := newMockMarketTime(tt.mockTime)
			assert.Equal(t, tt.expected, mt.LatestCompleteTradingDay().Format("2006-01-02"))
		})
	}
}

func TestMarketTime_DefaultEndDate(t *testing.T) {
	mt := newMockMarketTime("2025-08-21 16:00:00")
	assert.Equal(t, "20250821", mt.DefaultEndDate())
}

func TestMarketTime_NextTradingDayOpen(t *testing.T) {
	location := time.FixedZone("CST", 8*3600) // 中国时区

	tests := []struct {
		name         string
		mockTime     string
		expectedTime string
	}{
		{"工作日开盘前", "2025-08-21 09:00:00", "2025-08-21 09:30:00"},
		{"工作日收盘后", "2025-08-21 16:00:00", "2025-08-22 09:30:00"},
		{"周五收盘后跳到下周一", "2025-08-22 16:00:00", "2025-08-25 09:30:00"},
		{"周六跳到下周一", "2025-08-23 10:00:00", "2025-08-25 09:30:00"},
		{"周日跳到下周一", "2025-08-24 10:00:00", "2025-08-25 09:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTime, _ := time.ParseInLocation("2006-01-02 15:04:05", tt.mockTime, location)
			expected, _ := time.ParseInLocation("2006-01-02 15:04:05", tt.expectedTime, location)

			mt := NewMarketTime(&MockTimeService{current: mockTime})

			assert.WithinDuration(t, expected, mt.NextTradingDayOpen(), time.Second)
		})
	}
}
