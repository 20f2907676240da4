package core

import (
	"context"
	"time"
)

// Provider 数据提供商基础接口
// 所有数据提供商都必须实现此接口
type Provider interface {
	// Name 返回提供商名称，用于标识和日志记录
	Name() string

	// GetRateLimit 获取两次请求之间的最小间隔时间
	GetRateLimit() time.Duration

	// IsHealthy 检查提供商健康状态
	IsHealthy() bool
}

// ListProvider 股票列表提供商接口
type ListProvider interface {
	Provider

	// FetchStockList 获取全部A股股票列表
	FetchStockList(ctx context.Context) ([]Stock, error)
}

// HistoryProvider 历史K线数据提供商接口
type HistoryProvider interface {
	Provider

	// FetchHistory 获取单只股票的历史K线
	// symbol: 6位股票代码
	// start/end: 日期区间（闭区间）
	// period: 时间周期
	// adjust: 复权方式
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, period Period, adjust Adjust) ([]DailyBar, error)

	// GetSupportedPeriods 获取支持的时间周期列表
	GetSupportedPeriods() []Period

	// IsSymbolSupported 检查是否支持该股票代码
	IsSymbolSupported(symbol string) bool
}

// FundFlowProvider 个股资金流向提供商接口
type FundFlowProvider interface {
	Provider

	// FetchFundFlow 获取单只股票的日度资金流向
	FetchFundFlow(ctx context.Context, symbol string) ([]FundFlowBar, error)
}

// Configurable 可配置接口
type Configurable interface {
	// SetRateLimit 设置请求频率限制
	SetRateLimit(limit time.Duration)

	// SetTimeout 设置请求超时时间
	SetTimeout(timeout time.Duration)

	// SetMaxRetries 设置最大重试次数
	SetMaxRetries(retries int)
}

// Closable 可关闭接口
// 需要清理资源的提供商应实现此接口
type Closable interface {
	Close() error
}
