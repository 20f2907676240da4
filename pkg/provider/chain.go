package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"astock/pkg/core"
	"astock/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Chain 多数据源K线提供商
// 按注册顺序逐个尝试，第一个成功的结果即被采用
type Chain struct {
	providers []core.HistoryProvider
	log       *logrus.Entry
}

// NewChain 创建多数据源提供商
func NewChain(providers ...core.HistoryProvider) *Chain {
	return &Chain{
		providers: providers,
		log:       logger.WithComponent("ProviderChain"),
	}
}

// Name 返回提供商名称
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// GetRateLimit 获取请求频率限制，取首个提供商的值
func (c *Chain) GetRateLimit() time.Duration {
	if len(c.providers) == 0 {
		return 0
	}
	return c.providers[0].GetRateLimit()
}

// IsHealthy 只要有一个提供商健康即为健康
func (c *Chain) IsHealthy() bool {
	for _, p := range c.providers {
		if p.IsHealthy() {
			return true
		}
	}
	return false
}

// GetSupportedPeriods 获取支持的时间周期列表
func (c *Chain) GetSupportedPeriods() []core.Period {
	seen := map[core.Period]bool{}
	var periods []core.Period
	for _, p := range c.providers {
		for _, period := range p.GetSupportedPeriods() {
			if !seen[period] {
				seen[period] = true
				periods = append(periods, period)
			}
		}
	}
	return periods
}

// IsSymbolSupported 检查是否有提供商支持该股票代码
func (c *Chain) IsSymbolSupported(symbol string) bool {
	for _, p := range c.providers {
		if p.IsSymbolSupported(symbol) {
			return true
		}
	}
	return false
}

// FetchHistory 依次尝试各数据源获取历史K线
func (c *Chain) FetchHistory(ctx context.Context, symbol string, start, end time.Time, period core.Period, adjust core.Adjust) ([]core.DailyBar, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("没有可用的数据提供商")
	}

	var lastErr error
	for _, p := range c.providers {
		if !p.IsSymbolSupported(symbol) {
			continue
		}

		bars, err := p.FetchHistory(ctx, symbol, start, end, period, adjust)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}

		lastErr = err
		c.log.Warnf("数据源 %s 获取 %s 失败: %v，尝试下一个", p.Name(), symbol, err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSymbolNotSupported, symbol)
	}
	return nil, fmt.Errorf("所有数据源均失败: %w", lastErr)
}
