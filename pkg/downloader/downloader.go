package downloader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"astock/pkg/cache"
	"astock/pkg/core"
	"astock/pkg/logger"
	"astock/pkg/storage"

	"github.com/sirupsen/logrus"
)

const stockListCacheKey = "stock_list"

// Config 下载配置
type Config struct {
	Start      time.Time     // 起始日期
	End        time.Time     // 结束日期
	Period     core.Period   // K线周期
	Adjust     core.Adjust   // 复权方式
	MaxWorkers int           // 并发下载数
	ListTTL    time.Duration // 股票列表缓存时长
}

// DefaultConfig 默认下载配置
// 日线前复权，从2022-01-01到当天，10个并发
func DefaultConfig() Config {
	start, _ := time.Parse(core.CompactDateFormat, "20220101")
	return Config{
		Start:      start,
		End:        time.Now(),
		Period:     core.PeriodDaily,
		Adjust:     core.AdjustQFQ,
		MaxWorkers: 10,
		ListTTL:    24 * time.Hour,
	}
}

// Progress 下载进度回调
// done为已处理数，total为总数，err为该股票的处理结果
type Progress func(done, total int, stock core.Stock, err error)

// Result 批量下载结果汇总
type Result struct {
	Total      int              `json:"total"`      // 处理的股票总数
	Downloaded int              `json:"downloaded"` // 成功落盘数
	Skipped    int              `json:"skipped"`    // 按名称跳过数(ST/退市)
	Failed     int              `json:"failed"`     // 失败数
	Errors     map[string]error `json:"-"`          // 失败明细，按代码索引
	Elapsed    time.Duration    `json:"elapsed"`    // 总耗时
}

// Downloader A股历史数据下载器
// 按股票列表并发拉取K线并逐只落盘为CSV文件
type Downloader struct {
	history core.HistoryProvider
	list    core.ListProvider
	store   *storage.CSVStore
	cache   cache.Cache
	config  Config
	log     *logrus.Entry

	mu     sync.RWMutex
	stocks map[string]core.Stock
}

// New 创建下载器
func New(history core.HistoryProvider, list core.ListProvider, store *storage.CSVStore, c cache.Cache, config Config) *Downloader {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultConfig().MaxWorkers
	}
	if c == nil {
		c = cache.NewMemoryCache()
	}

	return &Downloader{
		history: history,
		list:    list,
		store:   store,
		cache:   c,
		config:  config,
		log:     logger.WithComponent("Downloader"),
	}
}

// Stocks 获取全部A股股票列表
// 结果缓存ListTTL，避免每次批量下载都打列表接口
func (d *Downloader) Stocks(ctx context.Context) ([]core.Stock, error) {
	var cached []core.Stock
	if err := d.cache.Get(ctx, stockListCacheKey, &cached); err == nil && len(cached) > 0 {
		d.indexStocks(cached)
		return cached, nil
	}

	stocks, err := d.list.FetchStockList(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取股票列表失败: %w", err)
	}

	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Code < stocks[j].Code })

	if err := d.cache.Set(ctx, stockListCacheKey, stocks, d.config.ListTTL); err != nil {
		d.log.Warnf("缓存股票列表失败: %v", err)
	}

	d.indexStocks(stocks)
	return stocks, nil
}

// Store 返回底层CSV存储
func (d *Downloader) Store() *storage.CSVStore {
	return d.store
}

// Lookup 按代码查找股票基础信息
func (d *Downloader) Lookup(ctx context.Context, code string) (core.Stock, error) {
	d.mu.RLock()
	stock, ok := d.stocks[code]
	d.mu.RUnlock()
	if ok {
		return stock, nil
	}

	if _, err := d.Stocks(ctx); err != nil {
		return core.Stock{}, err
	}

	d.mu.RLock()
	stock, ok = d.stocks[code]
	d.mu.RUnlock()
	if !ok {
		return core.Stock{}, fmt.Errorf("%w: %s", core.ErrSymbolNotSupported, code)
	}

	return stock, nil
}

// DownloadAll 并发下载全部股票的历史K线
// 单只股票的失败不会中断整个批次
func (d *Downloader) DownloadAll(ctx context.Context, progress Progress) (Result, error) {
	stocks, err := d.Stocks(ctx)
	if err != nil {
		return Result{}, err
	}

	return d.DownloadBatch(ctx, stocks, progress)
}

// DownloadBatch 并发下载指定股票集合的历史K线
func (d *Downloader) DownloadBatch(ctx context.Context, stocks []core.Stock, progress Progress) (Result, error) {
	started := time.Now()
	result := Result{
		Total:  len(stocks),
		Errors: make(map[string]error),
	}

	jobs := make(chan core.Stock)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	report := func(stock core.Stock, err error) {
		mu.Lock()
		done++
		switch {
		case err == nil:
			result.Downloaded++
		case err == errSkipped:
			result.Skipped++
			err = nil
		default:
			result.Failed++
			result.Errors[stock.Code] = err
		}
		current := done
		mu.Unlock()

		if progress != nil {
			progress(current, len(stocks), stock, err)
		}
	}

	for i := 0; i < d.config.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stock := range jobs {
				report(stock, d.downloadOne(ctx, stock))
			}
		}()
	}

	for _, stock := range stocks {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			result.Elapsed = time.Since(started)
			return result, ctx.Err()
		case jobs <- stock:
		}
	}
	close(jobs)
	wg.Wait()

	result.Elapsed = time.Since(started)
	d.log.Infof("批量下载完成: 成功 %d, 跳过 %d, 失败 %d, 耗时 %v",
		result.Downloaded, result.Skipped, result.Failed, result.Elapsed)

	return result, nil
}

// DownloadOne 下载单只股票的历史K线并落盘
// 返回写入的文件路径
func (d *Downloader) DownloadOne(ctx context.Context, code string) (string, error) {
	stock, err := d.Lookup(ctx, code)
	if err != nil {
		return "", err
	}

	if core.IsSkippableName(stock.Name) {
		return "", fmt.Errorf("已跳过 %s(%s): ST或退市股", stock.Name, stock.Code)
	}

	bars, err := d.history.FetchHistory(ctx, stock.Code, d.config.Start, d.config.End, d.config.Period, d.config.Adjust)
	if err != nil {
		return "", fmt.Errorf("下载 %s 失败: %w", stock.Code, err)
	}

	path, err := d.store.Save(stock, bars, d.config.Start, d.config.End)
	if err != nil {
		return "", fmt.Errorf("保存 %s 失败: %w", stock.Code, err)
	}

	return path, nil
}

// errSkipped 标记按名称跳过的股票，仅在包内用于计数
var errSkipped = errors.New("skipped")

// downloadOne 批量下载中的单股处理
func (d *Downloader) downloadOne(ctx context.Context, stock core.Stock) error {
	if core.IsSkippableName(stock.Name) {
		return errSkipped
	}

	bars, err := d.history.FetchHistory(ctx, stock.Code, d.config.Start, d.config.End, d.config.Period, d.config.Adjust)
	if err != nil {
		return fmt.Errorf("下载失败: %w", err)
	}

	if _, err := d.store.Save(stock, bars, d.config.Start, d.config.End); err != nil {
		return fmt.Errorf("保存失败: %w", err)
	}

	return nil
}

// indexStocks 建立代码到股票的索引
func (d *Downloader) indexStocks(stocks []core.Stock) {
	index := make(map[string]core.Stock, len(stocks))
	for _, stock := range stocks {
		index[stock.Code] = stock
	}

	d.mu.Lock()
	d.stocks = index
	d.mu.Unlock()
}
