package main

import (
	"fmt"
	"time"

	"astock/pkg/cache"
	"astock/pkg/config"
	"astock/pkg/core"
	"astock/pkg/downloader"
	"astock/pkg/logger"
	"astock/pkg/provider"
	"astock/pkg/provider/decorators"
	"astock/pkg/provider/eastmoney"
	"astock/pkg/provider/sina"
	"astock/pkg/storage"
	"astock/pkg/timing"
)

// app 按配置组装好的运行环境，供各子命令使用
type app struct {
	cfg        *config.Config
	eastmoney  *eastmoney.Provider
	history    core.HistoryProvider
	store      *storage.CSVStore
	cache      cache.Cache
	downloader *downloader.Downloader
}

// newApp 根据配置文件构建运行环境
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logger)

	c, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	em := eastmoney.NewProvider()
	em.SetTimeout(cfg.Provider.Timeout)
	em.SetMaxRetries(cfg.Provider.MaxRetries)
	em.SetRateLimit(cfg.Provider.RateLimit)

	history := buildHistoryProvider(cfg, em)

	store, err := storage.NewCSVStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	dlConfig, err := buildDownloadConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		eastmoney:  em,
		history:    history,
		store:      store,
		cache:      c,
		downloader: downloader.New(history, em, store, c, dlConfig),
	}, nil
}

// buildHistoryProvider 组装历史数据源：熔断器包装主源，新浪为备用
func buildHistoryProvider(cfg *config.Config, em *eastmoney.Provider) core.HistoryProvider {
	var primary core.HistoryProvider = em
	if cfg.Provider.CircuitBreaker.Enabled {
		primary = decorators.NewCircuitBreakerProvider(em, &cfg.Provider.CircuitBreaker)
	}

	if cfg.Provider.Fallback != "sina" {
		return primary
	}

	fallback := sina.NewProvider()
	fallback.SetTimeout(cfg.Provider.Timeout)
	fallback.SetMaxRetries(cfg.Provider.MaxRetries)
	fallback.SetRateLimit(cfg.Provider.RateLimit)

	return provider.NewChain(primary, fallback)
}

func buildCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cfg.Cache.Redis)
	}
	return cache.NewMemoryCache(), nil
}

// buildDownloadConfig 解析日期范围，结束日期缺省取最近完整交易日
func buildDownloadConfig(cfg *config.Config) (downloader.Config, error) {
	start, err := time.Parse(core.CompactDateFormat, cfg.Download.Start)
	if err != nil {
		return downloader.Config{}, fmt.Errorf("无效的起始日期 %q: %w", cfg.Download.Start, err)
	}

	endStr := cfg.Download.End
	if endStr == "" {
		endStr = timing.DefaultMarketTime().DefaultEndDate()
	}
	end, err := time.Parse(core.CompactDateFormat, endStr)
	if err != nil {
		return downloader.Config{}, fmt.Errorf("无效的结束日期 %q: %w", endStr, err)
	}

	return downloader.Config{
		Start:      start,
		End:        end,
		Period:     core.Period(cfg.Download.Period),
		Adjust:     core.Adjust(cfg.Download.Adjust),
		MaxWorkers: cfg.Download.MaxWorkers,
		ListTTL:    cfg.Download.ListTTL,
	}, nil
}

// close 释放缓存等资源
func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
}
