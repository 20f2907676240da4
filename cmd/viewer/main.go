package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"astock/pkg/analysis"
	"astock/pkg/chart"
	"astock/pkg/config"
	"astock/pkg/core"
	"astock/pkg/logger"
	"astock/pkg/storage"
)

var (
	configPath = flag.String("config", "", "配置文件路径")
	addr       = flag.String("addr", ":8090", "监听地址")
	logLevel   = flag.String("log-level", "", "覆盖配置中的日志级别")
)

// ViewerServer 本地数据浏览服务，读本地CSV按需出图
type ViewerServer struct {
	store    *storage.CSVStore
	renderer *chart.Renderer
	server   *http.Server
	log      *logger.Entry
}

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

	log := logger.WithComponent("viewer")

	store, err := storage.NewCSVStore(cfg.Storage.DataDir)
	if err != nil {
		log.Errorf("初始化存储失败: %v", err)
		os.Exit(1)
	}

	renderer := chart.NewRenderer(cfg.Chart.OutputDir)
	renderer.SetMAWindows(cfg.Chart.MAWindows)

	s := &ViewerServer{
		store:    store,
		renderer: renderer,
		log:      log,
	}

	if err := s.Start(*addr); err != nil {
		log.Errorf("启动服务失败: %v", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("Viewer 运行中: http://localhost%s", *addr)
	<-sigChan

	log.Info("收到停止信号，正在优雅关闭...")
	s.Stop()
	log.Info("Viewer 已停止")
}

func (s *ViewerServer) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.index)
	router.GET("/health", s.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stocks", s.getStocks)
		v1.GET("/stocks/:code/bars", s.getBars)
		v1.GET("/stocks/:code/analysis", s.getAnalysis)
		v1.GET("/size", s.getSize)
	}

	router.GET("/charts/:code/kline", s.getKlineChart)
	router.GET("/charts/:code/trend", s.getTrendChart)

	s.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP服务异常退出")
		}
	}()

	return nil
}

func (s *ViewerServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("关闭HTTP服务失败")
	}
}

func (s *ViewerServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// index 简单的股票索引页，链接到图表
func (s *ViewerServer) index(c *gin.Context) {
	stocks, err := s.store.List()
	if err != nil {
		c.String(http.StatusInternalServerError, "读取数据目录失败: %v", err)
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>A股本地数据</title></head><body>")
	b.WriteString(fmt.Sprintf("<h1>本地数据 (%d 只股票)</h1><table border=\"1\" cellpadding=\"4\">", len(stocks)))
	b.WriteString("<tr><th>代码</th><th>名称</th><th>区间</th><th>图表</th></tr>")
	for _, stock := range stocks {
		b.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%s</td><td>%s ~ %s</td>"+
				"<td><a href=\"/charts/%s/kline\">K线</a> <a href=\"/charts/%s/trend\">走势</a></td></tr>",
			stock.Code, stock.Name,
			stock.Start.Format(core.DateFormat), stock.End.Format(core.DateFormat),
			stock.Code, stock.Code))
	}
	b.WriteString("</table></body></html>")

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
}

func (s *ViewerServer) getStocks(c *gin.Context) {
	stocks, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(stocks), "stocks": stocks})
}

func (s *ViewerServer) getBars(c *gin.Context) {
	stored, bars, err := s.loadStock(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":  stored.Code,
		"name":  stored.Name,
		"count": len(bars),
		"bars":  bars,
	})
}

// getAnalysis 返回基于本地数据的指标分析，不访问外部接口
func (s *ViewerServer) getAnalysis(c *gin.Context) {
	stored, bars, err := s.loadStock(c)
	if err != nil {
		return
	}

	result := gin.H{"code": stored.Code, "name": stored.Name}

	closes := analysis.Closes(bars)
	if trend, err := analysis.MATrend(closes, 5); err == nil {
		result["ma_trend"] = trend
	}
	if macd, err := analysis.MACD(closes); err == nil {
		result["macd"] = macd
	}
	if kdj, err := analysis.KDJ(bars); err == nil {
		result["kdj"] = kdj
	}
	if score, err := analysis.EvaluateLimitUp(bars, nil); err == nil {
		result["limit_up"] = score
	}

	c.JSON(http.StatusOK, result)
}

func (s *ViewerServer) getSize(c *gin.Context) {
	size, err := s.store.TotalSize()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, size)
}

func (s *ViewerServer) getKlineChart(c *gin.Context) {
	s.serveChart(c, s.renderer.RenderKline)
}

func (s *ViewerServer) getTrendChart(c *gin.Context) {
	s.serveChart(c, s.renderer.RenderTrend)
}

// serveChart 按需渲染并返回HTML图表
func (s *ViewerServer) serveChart(c *gin.Context, render func(core.Stock, []core.DailyBar) (string, error)) {
	stored, bars, err := s.loadStock(c)
	if err != nil {
		return
	}

	stock := core.Stock{Code: stored.Code, Name: stored.Name, Market: core.MarketOf(stored.Code)}
	path, err := render(stock, bars)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.File(path)
}

func (s *ViewerServer) loadStock(c *gin.Context) (storage.StoredStock, []core.DailyBar, error) {
	code := c.Param("code")
	stored, bars, err := s.store.Load(code)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return storage.StoredStock{}, nil, err
	}
	return stored, bars, nil
}
