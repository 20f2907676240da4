package main

import (
	"context"
	"fmt"
	"time"

	"astock/pkg/chart"
	"astock/pkg/core"
	"astock/pkg/downloader"
	"astock/pkg/logger"
	"astock/pkg/scheduler"
)

// RefreshExecutor 任务执行器，按任务类型刷新本地数据或重绘图表
type RefreshExecutor struct {
	downloader *downloader.Downloader
	renderer   *chart.Renderer
	log        *logger.Entry
}

// NewRefreshExecutor 创建新的 RefreshExecutor 实例
func NewRefreshExecutor(dl *downloader.Downloader, renderer *chart.Renderer, baseLog *logger.Entry) *RefreshExecutor {
	return &RefreshExecutor{
		downloader: dl,
		renderer:   renderer,
		log:        baseLog.WithField("executor", "refresh"),
	}
}

// Execute 实现 JobExecutor 接口
func (e *RefreshExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	log := e.log.WithFields(map[string]interface{}{
		"job":   job.Config.Name,
		"jobID": job.ID,
		"type":  job.Config.Task.Type,
	})

	log.Info("开始执行任务")
	start := time.Now()

	var err error
	switch job.Config.Task.Type {
	case scheduler.TaskRefreshAll:
		err = e.refreshAll(ctx, log)
	case scheduler.TaskRefresh:
		err = e.refresh(ctx, log, job.Config.Task.Codes)
	case scheduler.TaskChart:
		err = e.renderCharts(ctx, log, job.Config.Task.Codes)
	default:
		err = fmt.Errorf("不支持的任务类型: %s", job.Config.Task.Type)
	}
	if err != nil {
		return err
	}

	log.Infof("任务完成，耗时 %v", time.Since(start).Round(time.Second))
	return nil
}

// refreshAll 重新下载全市场历史数据
func (e *RefreshExecutor) refreshAll(ctx context.Context, log *logger.Entry) error {
	result, err := e.downloader.DownloadAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("全市场刷新失败: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"downloaded": result.Downloaded,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
	}).Info("全市场刷新完成")

	if result.Failed > 0 {
		for code, ferr := range result.Errors {
			log.Warnf("刷新失败 %s: %v", code, ferr)
		}
	}
	return nil
}

// refresh 刷新指定股票
func (e *RefreshExecutor) refresh(ctx context.Context, log *logger.Entry, codes []string) error {
	for _, code := range codes {
		if _, err := e.downloader.DownloadOne(ctx, code); err != nil {
			return fmt.Errorf("刷新 %s 失败: %w", code, err)
		}
		log.Debugf("已刷新 %s", code)
	}
	return nil
}

// renderCharts 刷新数据后重绘指定股票的图表
func (e *RefreshExecutor) renderCharts(ctx context.Context, log *logger.Entry, codes []string) error {
	for _, code := range codes {
		if _, err := e.downloader.DownloadOne(ctx, code); err != nil {
			return fmt.Errorf("刷新 %s 失败: %w", code, err)
		}

		stock, bars, err := e.loadBars(ctx, code)
		if err != nil {
			return err
		}

		if _, err := e.renderer.RenderKline(stock, bars); err != nil {
			return fmt.Errorf("绘制 %s K线图失败: %w", code, err)
		}
		if _, err := e.renderer.RenderTrend(stock, bars); err != nil {
			return fmt.Errorf("绘制 %s 走势图失败: %w", code, err)
		}
		log.Debugf("已重绘 %s", code)
	}
	return nil
}

func (e *RefreshExecutor) loadBars(ctx context.Context, code string) (core.Stock, []core.DailyBar, error) {
	stock, err := e.downloader.Lookup(ctx, code)
	if err != nil {
		return core.Stock{}, nil, err
	}

	_, bars, err := e.downloader.Store().Load(code)
	if err != nil {
		return core.Stock{}, nil, fmt.Errorf("读取 %s 数据失败: %w", code, err)
	}
	return stock, bars, nil
}
