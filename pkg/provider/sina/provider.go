package sina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"astock/pkg/core"
	"astock/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	defaultKlineURL = "https://quotes.sina.cn/cn/api/jsonp_v2.php"
	defaultQuoteURL = "http://hq.sinajs.cn/list="

	// 单次请求的最大K线条数，新浪接口的上限
	maxDataLen = 1023
)

// Provider 新浪数据提供商
// 作为东方财富的备用K线数据源；新浪K线缺少成交额、振幅和
// 换手率字段，涨跌相关列由相邻收盘价推算，换手率置零
type Provider struct {
	httpClient  *http.Client
	lastRequest time.Time
	requestMu   sync.Mutex
	rateLimit   time.Duration
	maxRetries  int
	userAgent   string
	log         *logrus.Entry

	klineURL string
	quoteURL string
}

// NewProvider 创建新浪数据提供商
func NewProvider() *Provider {
	return &Provider{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		rateLimit:  300 * time.Millisecond,
		maxRetries: 3,
		userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		log:        logger.WithComponent("SinaProvider"),
		klineURL:   defaultKlineURL,
		quoteURL:   defaultQuoteURL,
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "sina"
}

// GetRateLimit 获取请求频率限制
func (p *Provider) GetRateLimit() time.Duration {
	return p.rateLimit
}

// IsHealthy 检查提供商健康状态
func (p *Provider) IsHealthy() bool {
	return true
}

// SetRateLimit 设置请求频率限制
func (p *Provider) SetRateLimit(limit time.Duration) {
	p.rateLimit = limit
}

// SetTimeout 设置请求超时时间
func (p *Provider) SetTimeout(timeout time.Duration) {
	p.httpClient.Timeout = timeout
}

// SetMaxRetries 设置最大重试次数
func (p *Provider) SetMaxRetries(retries int) {
	p.maxRetries = retries
}

// SetBaseURLs 覆盖接口地址，测试用
func (p *Provider) SetBaseURLs(kline, quote string) {
	if kline != "" {
		p.klineURL = kline
	}
	if quote != "" {
		p.quoteURL = quote
	}
}

// GetSupportedPeriods 获取支持的时间周期列表
func (p *Provider) GetSupportedPeriods() []core.Period {
	return []core.Period{core.PeriodDaily, core.PeriodWeekly, core.PeriodMonthly}
}

// IsSymbolSupported 检查是否支持该股票代码
// 新浪接口只覆盖沪深两市
func (p *Provider) IsSymbolSupported(symbol string) bool {
	if len(symbol) != 6 {
		return false
	}
	return strings.HasPrefix(symbol, "6") || strings.HasPrefix(symbol, "0") ||
		strings.HasPrefix(symbol, "3")
}

// FetchHistory 获取单只股票的历史K线
// 新浪接口不接受日期区间，固定取最近maxDataLen条(日线约4年)后在
// 本地按区间截取；起始日期早于该窗口的部分会被静默截断
func (p *Provider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, period core.Period, adjust core.Adjust) ([]core.DailyBar, error) {
	if !p.IsSymbolSupported(symbol) {
		return nil, fmt.Errorf("%w: %s", core.ErrSymbolNotSupported, symbol)
	}

	scale, ok := periodToScale(period)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrPeriodNotSupported, period)
	}

	marketSymbol := marketPrefix(symbol) + symbol
	reqURL := fmt.Sprintf("%s/var__%s_%s/CN_MarketDataService.getKLineData?symbol=%s&scale=%s&ma=no&datalen=%d",
		p.klineURL, marketSymbol, scale, marketSymbol, scale, maxDataLen)

	body, err := p.doRequest(ctx, reqURL, "https://finance.sina.com.cn")
	if err != nil {
		return nil, fmt.Errorf("请求新浪K线失败: %w", err)
	}

	bars, err := parseKlineJSONP(string(body))
	if err != nil {
		return nil, fmt.Errorf("解析新浪K线失败: %w", err)
	}

	bars = clipRange(bars, start, end)
	if len(bars) == 0 {
		return nil, core.ErrEmptyData
	}

	return bars, nil
}

// FetchStockName 通过行情接口获取股票名称
func (p *Provider) FetchStockName(ctx context.Context, symbol string) (string, error) {
	if !p.IsSymbolSupported(symbol) {
		return "", fmt.Errorf("%w: %s", core.ErrSymbolNotSupported, symbol)
	}

	reqURL := p.quoteURL + marketPrefix(symbol) + symbol

	body, err := p.doRequest(ctx, reqURL, "https://finance.sina.com.cn/")
	if err != nil {
		return "", fmt.Errorf("请求新浪行情失败: %w", err)
	}

	name := parseQuoteName(string(body))
	if name == "" {
		return "", core.ErrEmptyData
	}

	return name, nil
}

// doRequest 执行带限流和重试的GET请求
func (p *Provider) doRequest(ctx context.Context, reqURL, referer string) ([]byte, error) {
	if err := p.enforceRateLimit(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		if i > 0 {
			p.log.Debugf("第 %d/%d 次重试", i+1, p.maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			lastErr = fmt.Errorf("创建请求失败: %w", err)
			continue
		}

		req.Header.Set("User-Agent", p.userAgent)
		req.Header.Set("Referer", referer)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP请求失败: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("读取响应失败: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("HTTP状态错误: %d", resp.StatusCode)
			continue
		}

		return body, nil
	}

	return nil, fmt.Errorf("重试 %d 次后仍然失败: %w", p.maxRetries, lastErr)
}

// enforceRateLimit 执行频率限制
func (p *Provider) enforceRateLimit(ctx context.Context) error {
	p.requestMu.Lock()
	defer p.requestMu.Unlock()

	elapsed := time.Since(p.lastRequest)
	if elapsed < p.rateLimit && !p.lastRequest.IsZero() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.rateLimit - elapsed):
		}
	}
	p.lastRequest = time.Now()

	return nil
}

// clipRange 截取日期区间内的K线
func clipRange(bars []core.DailyBar, start, end time.Time) []core.DailyBar {
	result := make([]core.DailyBar, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		result = append(result, bar)
	}
	return result
}

// marketPrefix 根据股票代码获取市场前缀
func marketPrefix(symbol string) string {
	if strings.HasPrefix(symbol, "6") {
		return "sh"
	}
	return "sz"
}

// periodToScale 周期映射到新浪scale参数（分钟数）
func periodToScale(period core.Period) (string, bool) {
	switch period {
	case core.PeriodDaily:
		return "240", true
	case core.PeriodWeekly:
		return "1680", true
	case core.PeriodMonthly:
		return "7200", true
	default:
		return "", false
	}
}
