package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"astock/pkg/core"
	"astock/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	defaultKlineURL    = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	defaultListURL     = "https://push2.eastmoney.com/api/qt/clist/get"
	defaultFundFlowURL = "https://push2.eastmoney.com/api/qt/stock/fflow/daykline/get"

	// 东财clist接口的板块筛选串：沪市主板、深市主板、创业板、科创板
	listFilter = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"
)

// Provider 东方财富数据提供商
// 提供A股股票列表、历史K线和个股资金流向数据
type Provider struct {
	httpClient  *http.Client
	lastRequest time.Time
	requestMu   sync.Mutex
	rateLimit   time.Duration
	maxRetries  int
	userAgent   string
	log         *logrus.Entry

	klineURL    string
	listURL     string
	fundFlowURL string
}

// NewProvider 创建东方财富数据提供商
func NewProvider() *Provider {
	return &Provider{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				MaxConnsPerHost:     10,
			},
			Timeout: 15 * time.Second,
		},
		rateLimit:   200 * time.Millisecond,
		maxRetries:  3,
		userAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		log:         logger.WithComponent("EastmoneyProvider"),
		klineURL:    defaultKlineURL,
		listURL:     defaultListURL,
		fundFlowURL: defaultFundFlowURL,
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "eastmoney"
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
func (p *Provider) SetBaseURLs(kline, list, fundFlow string) {
	if kline != "" {
		p.klineURL = kline
	}
	if list != "" {
		p.listURL = list
	}
	if fundFlow != "" {
		p.fundFlowURL = fundFlow
	}
}

// Close 关闭提供商，清理空闲连接
func (p *Provider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// GetSupportedPeriods 获取支持的时间周期列表
func (p *Provider) GetSupportedPeriods() []core.Period {
	return []core.Period{core.PeriodDaily, core.PeriodWeekly, core.PeriodMonthly}
}

// IsSymbolSupported 检查是否支持该股票代码
func (p *Provider) IsSymbolSupported(symbol string) bool {
	if len(symbol) != 6 {
		return false
	}

	// A股上证
	if strings.HasPrefix(symbol, "6") {
		return true
	}

	// A股深证，创业板含301/302新段
	if strings.HasPrefix(symbol, "0") || strings.HasPrefix(symbol, "30") {
		return true
	}

	// A股北交所
	if strings.HasPrefix(symbol, "43") || strings.HasPrefix(symbol, "82") ||
		strings.HasPrefix(symbol, "83") || strings.HasPrefix(symbol, "87") ||
		strings.HasPrefix(symbol, "920") {
		return true
	}

	return false
}

// FetchStockList 获取全部A股股票列表
func (p *Provider) FetchStockList(ctx context.Context) ([]core.Stock, error) {
	q := url.Values{}
	q.Set("pn", "1")
	q.Set("pz", "10000")
	q.Set("po", "1")
	q.Set("np", "1")
	q.Set("fltt", "2")
	q.Set("invt", "2")
	q.Set("fid", "f12")
	q.Set("fs", listFilter)
	q.Set("fields", "f12,f14")

	body, err := p.doRequest(ctx, p.listURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("请求股票列表失败: %w", err)
	}

	stocks, err := parseStockList(body)
	if err != nil {
		return nil, fmt.Errorf("解析股票列表失败: %w", err)
	}

	p.log.Debugf("获取到 %d 只股票", len(stocks))
	return stocks, nil
}

// FetchHistory 获取单只股票的历史K线
func (p *Provider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, period core.Period, adjust core.Adjust) ([]core.DailyBar, error) {
	if !p.IsSymbolSupported(symbol) {
		return nil, fmt.Errorf("%w: %s", core.ErrSymbolNotSupported, symbol)
	}

	klt, ok := periodToKlt(period)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrPeriodNotSupported, period)
	}

	q := url.Values{}
	q.Set("secid", secID(symbol))
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	q.Set("klt", klt)
	q.Set("fqt", adjustToFqt(adjust))
	q.Set("beg", start.Format(core.CompactDateFormat))
	q.Set("end", end.Format(core.CompactDateFormat))

	body, err := p.doRequest(ctx, p.klineURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("请求K线数据失败: %w", err)
	}

	bars, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("解析K线数据失败: %w", err)
	}

	return bars, nil
}

// FetchFundFlow 获取单只股票的日度资金流向
func (p *Provider) FetchFundFlow(ctx context.Context, symbol string) ([]core.FundFlowBar, error) {
	if !p.IsSymbolSupported(symbol) {
		return nil, fmt.Errorf("%w: %s", core.ErrSymbolNotSupported, symbol)
	}

	q := url.Values{}
	q.Set("lmt", "0")
	q.Set("klt", "101")
	q.Set("secid", secID(symbol))
	q.Set("fields1", "f1,f2,f3,f7")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")

	body, err := p.doRequest(ctx, p.fundFlowURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("请求资金流向失败: %w", err)
	}

	flows, err := parseFundFlow(body)
	if err != nil {
		return nil, fmt.Errorf("解析资金流向失败: %w", err)
	}

	return flows, nil
}

// doRequest 执行带限流和重试的GET请求
func (p *Provider) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
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
		req.Header.Set("Referer", "https://quote.eastmoney.com")

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

		if len(body) == 0 {
			lastErr = core.ErrEmptyData
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

// secID 东财接口的市场前缀：沪市1.，深市/北交所0.
func secID(symbol string) string {
	if strings.HasPrefix(symbol, "6") || strings.HasPrefix(symbol, "5") {
		return "1." + symbol
	}
	return "0." + symbol
}

// periodToKlt 周期映射到东财klt参数
func periodToKlt(period core.Period) (string, bool) {
	switch period {
	case core.PeriodDaily:
		return "101", true
	case core.PeriodWeekly:
		return "102", true
	case core.PeriodMonthly:
		return "103", true
	default:
		return "", false
	}
}

// adjustToFqt 复权方式映射到东财fqt参数
func adjustToFqt(adjust core.Adjust) string {
	switch adjust {
	case core.AdjustQFQ:
		return "1"
	case core.AdjustHFQ:
		return "2"
	default:
		return "0"
	}
}
