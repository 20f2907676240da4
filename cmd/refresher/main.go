package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"astock/pkg/cache"
	"astock/pkg/chart"
	"astock/pkg/config"
	"astock/pkg/core"
	"astock/pkg/downloader"
	"astock/pkg/logger"
	"astock/pkg/provider"
	"astock/pkg/provider/decorators"
	"astock/pkg/provider/eastmoney"
	"astock/pkg/provider/sina"
	"astock/pkg/scheduler"
	"astock/pkg/storage"
	"astock/pkg/timing"
)

var (
	configPath = flag.String("config", "", "配置文件路径")
	jobsPath   = flag.String("jobs", "config/jobs.yaml", "任务配置文件路径")
	logLevel   = flag.String("log-level", "", "覆盖配置中的日志级别")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	logger.Init(cfg.Logger)

	log := logger.WithComponent("refresher")
	log.Info("启动 Refresher")
	log.Debugf("配置参数: config=%s, jobs=%s", *configPath, *jobsPath)

	// 缓存后端
	var c cache.Cache
	if cfg.Cache.Backend == "redis" {
		c, err = cache.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			log.Errorf("无法连接到 Redis: %v", err)
			os.Exit(1)
		}
		log.Info("Redis 连接成功")
	} else {
		c = cache.NewMemoryCache()
	}
	defer c.Close()

	// 数据源：东方财富为主，新浪为备用
	log.Debug("初始化数据提供商")
	em := eastmoney.NewProvider()
	em.SetTimeout(cfg.Provider.Timeout)
	em.SetMaxRetries(cfg.Provider.MaxRetries)
	em.SetRateLimit(cfg.Provider.RateLimit)

	var history core.HistoryProvider = em
	if cfg.Provider.CircuitBreaker.Enabled {
		history = decorators.NewCircuitBreakerProvider(em, &cfg.Provider.CircuitBreaker)
		log.Debug("熔断器装饰器应用成功")
	}
	if cfg.Provider.Fallback == "sina" {
		fallback := sina.NewProvider()
		fallback.SetTimeout(cfg.Provider.Timeout)
		fallback.SetMaxRetries(cfg.Provider.MaxRetries)
		fallback.SetRateLimit(cfg.Provider.RateLimit)
		history = provider.NewChain(history, fallback)
		log.Debug("新浪备用数据源注册成功")
	}

	store, err := storage.NewCSVStore(cfg.Storage.DataDir)
	if err != nil {
		log.Errorf("初始化存储失败: %v", err)
		os.Exit(1)
	}

	start, err := time.Parse(core.CompactDateFormat, cfg.Download.Start)
	if err != nil {
		log.Errorf("无效的起始日期 %q: %v", cfg.Download.Start, err)
		os.Exit(1)
	}

	dl := downloader.New(history, em, store, c, downloader.Config{
		Start:      start,
		End:        timing.DefaultMarketTime().LatestCompleteTradingDay(),
		Period:     core.Period(cfg.Download.Period),
		Adjust:     core.Adjust(cfg.Download.Adjust),
		MaxWorkers: cfg.Download.MaxWorkers,
		ListTTL:    cfg.Download.ListTTL,
	})

	renderer := chart.NewRenderer(cfg.Chart.OutputDir)
	renderer.SetMAWindows(cfg.Chart.MAWindows)

	// 任务执行器与调度器
	log.Debug("创建任务执行器")
	executor := NewRefreshExecutor(dl, renderer, log)

	jobScheduler := scheduler.NewJobScheduler()
	jobScheduler.SetExecutor(executor)

	log.Debugf("加载任务配置文件: %s", *jobsPath)
	if err := jobScheduler.LoadConfig(*jobsPath); err != nil {
		log.Errorf("加载任务配置失败: %v", err)
		os.Exit(1)
	}

	if err := jobScheduler.Start(); err != nil {
		log.Errorf("启动任务调度器失败: %v", err)
		os.Exit(1)
	}

	jobs := jobScheduler.GetAllJobs()
	log.Infof("已加载 %d 个任务", len(jobs))
	for _, job := range jobs {
		status := "启用"
		if !job.Config.Enabled {
			status = "禁用"
		}
		log.Debugf("任务详情: %s (%s): %s", job.Config.Name, status, job.Config.Schedule)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Refresher 运行中，按 Ctrl+C 停止...")
	<-sigChan

	log.Info("收到停止信号，正在优雅关闭...")
	if err := jobScheduler.Stop(); err != nil {
		log.Errorf("停止任务调度器失败: %v", err)
	}

	log.Info("Refresher 已停止")
}
