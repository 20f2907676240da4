package decorators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"astock/pkg/core"

	"github.com/sony/gobreaker"
)

// CircuitBreakerProvider 熔断器装饰器
// 使用 sony/gobreaker 为K线提供商提供熔断功能
type CircuitBreakerProvider struct {
	base   core.HistoryProvider
	cb     *gobreaker.CircuitBreaker
	config *CircuitBreakerConfig

	mu    sync.RWMutex
	stats CircuitBreakerStats
}

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	Name        string        `mapstructure:"name"`          // 熔断器名称
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半开状态下的最大请求数
	Interval    time.Duration `mapstructure:"interval"`      // 统计窗口时间
	Timeout     time.Duration `mapstructure:"timeout"`       // 熔断器打开后的超时时间
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 触发熔断的连续失败次数阈值
	Enabled     bool          `mapstructure:"enabled"`       // 是否启用熔断器
}

// CircuitBreakerStats 熔断器统计信息
type CircuitBreakerStats struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	LastFailure        time.Time `json:"last_failure"`
}

// DefaultCircuitBreakerConfig 默认熔断器配置
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:        "HistoryProvider",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: 5,
		Enabled:     true,
	}
}

// NewCircuitBreakerProvider 创建熔断器装饰器
func NewCircuitBreakerProvider(base core.HistoryProvider, config *CircuitBreakerConfig) *CircuitBreakerProvider {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ReadyToTrip
		},
	}

	return &CircuitBreakerProvider{
		base:   base,
		cb:     gobreaker.NewCircuitBreaker(settings),
		config: config,
	}
}

// Name 返回装饰器名称
func (c *CircuitBreakerProvider) Name() string {
	return fmt.Sprintf("CircuitBreaker(%s)", c.base.Name())
}

// GetRateLimit 获取请求频率限制
func (c *CircuitBreakerProvider) GetRateLimit() time.Duration {
	return c.base.GetRateLimit()
}

// IsHealthy 检查健康状态，熔断器打开视为不健康
func (c *CircuitBreakerProvider) IsHealthy() bool {
	if !c.config.Enabled {
		return c.base.IsHealthy()
	}
	return c.cb.State() != gobreaker.StateOpen && c.base.IsHealthy()
}

// GetSupportedPeriods 获取支持的时间周期列表
func (c *CircuitBreakerProvider) GetSupportedPeriods() []core.Period {
	return c.base.GetSupportedPeriods()
}

// IsSymbolSupported 检查是否支持该股票代码
func (c *CircuitBreakerProvider) IsSymbolSupported(symbol string) bool {
	return c.base.IsSymbolSupported(symbol)
}

// FetchHistory 实现带熔断器的历史K线获取
func (c *CircuitBreakerProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, period core.Period, adjust core.Adjust) ([]core.DailyBar, error) {
	if !c.config.Enabled {
		return c.base.FetchHistory(ctx, symbol, start, end, period, adjust)
	}

	c.mu.Lock()
	c.stats.TotalRequests++
	c.mu.Unlock()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.base.FetchHistory(ctx, symbol, start, end, period, adjust)
	})

	c.handleResult(err)

	if err != nil {
		return nil, err
	}

	bars, ok := result.([]core.DailyBar)
	if !ok {
		err := fmt.Errorf("熔断器返回数据类型错误")
		c.handleResult(err)
		return nil, err
	}

	return bars, nil
}

// handleResult 处理请求结果并更新统计信息
func (c *CircuitBreakerProvider) handleResult(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.stats.FailedRequests++
		c.stats.LastFailure = time.Now()
	} else {
		c.stats.SuccessfulRequests++
	}
}

// GetState 获取熔断器当前状态
func (c *CircuitBreakerProvider) GetState() gobreaker.State {
	return c.cb.State()
}

// GetStats 获取统计信息快照
func (c *CircuitBreakerProvider) GetStats() CircuitBreakerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// IsOpen 检查熔断器是否处于打开状态
func (c *CircuitBreakerProvider) IsOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}
