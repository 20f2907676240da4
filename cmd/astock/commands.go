package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"

	"astock/pkg/analysis"
	"astock/pkg/chart"
	"astock/pkg/core"
	"astock/pkg/downloader"
	"astock/pkg/storage"
)

// cmdList 打印全部A股股票列表
func cmdList(ctx context.Context, a *app, args []string) error {
	stocks, err := a.downloader.Stocks(ctx)
	if err != nil {
		return fmt.Errorf("获取股票列表失败: %w", err)
	}

	for _, stock := range stocks {
		fmt.Printf("%s  %s  %s\n", stock.Code, stock.Market, stock.Name)
	}
	fmt.Printf("共 %d 只股票\n", len(stocks))
	return nil
}

// cmdDownload 下载历史数据，无参数时全市场，有参数时只下载指定代码
func cmdDownload(ctx context.Context, a *app, codes []string) error {
	var (
		result downloader.Result
		err    error
	)

	if len(codes) == 0 {
		stocks, listErr := a.downloader.Stocks(ctx)
		if listErr != nil {
			return fmt.Errorf("获取股票列表失败: %w", listErr)
		}
		result, err = downloadWithProgress(ctx, a, stocks)
	} else {
		stocks := make([]core.Stock, 0, len(codes))
		for _, code := range codes {
			stock, lookupErr := a.downloader.Lookup(ctx, code)
			if lookupErr != nil {
				return lookupErr
			}
			stocks = append(stocks, stock)
		}
		result, err = downloadWithProgress(ctx, a, stocks)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n下载完成: 成功 %d, 跳过 %d, 失败 %d, 耗时 %s\n",
		result.Downloaded, result.Skipped, result.Failed, result.Elapsed.Round(1e9))
	for code, ferr := range result.Errors {
		fmt.Printf("  失败 %s: %v\n", code, ferr)
	}

	return printDataSize(a.store)
}

func downloadWithProgress(ctx context.Context, a *app, stocks []core.Stock) (downloader.Result, error) {
	bar := progressbar.NewOptions(len(stocks),
		progressbar.OptionSetDescription("下载进度"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("只"),
	)

	progress := func(done, total int, stock core.Stock, err error) {
		_ = bar.Add(1)
	}
	return a.downloader.DownloadBatch(ctx, stocks, progress)
}

// cmdChart 为指定股票绘制K线图与走势图，数据缺失时先下载
func cmdChart(ctx context.Context, a *app, codes []string) error {
	if len(codes) == 0 {
		return errors.New("用法: astock chart <代码> [代码..]")
	}

	renderer := chart.NewRenderer(a.cfg.Chart.OutputDir)
	renderer.SetMAWindows(a.cfg.Chart.MAWindows)

	for _, code := range codes {
		stock, bars, err := loadOrDownload(ctx, a, code)
		if err != nil {
			return err
		}

		klinePath, err := renderer.RenderKline(stock, bars)
		if err != nil {
			return fmt.Errorf("绘制 %s K线图失败: %w", code, err)
		}
		trendPath, err := renderer.RenderTrend(stock, bars)
		if err != nil {
			return fmt.Errorf("绘制 %s 走势图失败: %w", code, err)
		}

		fmt.Printf("%s %s:\n  %s\n  %s\n", stock.Code, stock.Name, klinePath, trendPath)
	}
	return nil
}

// cmdAnalyze 输出均线趋势、常用指标与涨停概率
func cmdAnalyze(ctx context.Context, a *app, codes []string) error {
	if len(codes) == 0 {
		return errors.New("用法: astock analyze <代码> [代码..]")
	}

	for _, code := range codes {
		stock, bars, err := loadOrDownload(ctx, a, code)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s (%d 天数据)\n", stock.Code, stock.Name, len(bars))

		closes := analysis.Closes(bars)
		if trend, err := analysis.MATrend(closes, 5); err == nil {
			state := "否"
			if trend.Expanding {
				state = "是"
			}
			fmt.Printf("  MA5: %.2f  角度: %.1f° -> %.1f°  加速上升: %s\n",
				trend.LastMA, trend.Angles[0], trend.Angles[1], state)
		}

		if macd, err := analysis.MACD(closes); err == nil {
			fmt.Printf("  MACD: DIF %.3f  DEA %.3f  柱 %.3f\n", macd.DIF, macd.DEA, macd.Hist)
		}
		if kdj, err := analysis.KDJ(bars); err == nil {
			fmt.Printf("  KDJ:  K %.1f  D %.1f  J %.1f\n", kdj.K, kdj.D, kdj.J)
		}
		if rsi, err := analysis.RSI(closes, 14); err == nil {
			fmt.Printf("  RSI14: %.1f\n", rsi)
		}

		// 资金流向拿不到时按中性处理
		flows, err := a.eastmoney.FetchFundFlow(ctx, code)
		if err != nil {
			flows = nil
		}
		score, err := analysis.EvaluateLimitUp(bars, flows)
		if err != nil {
			return fmt.Errorf("评估 %s 失败: %w", code, err)
		}
		fmt.Printf("  涨停概率: %.1f (价格 %.1f 换手 %.1f 资金 %.1f 技术 %.1f)\n",
			score.Probability, score.PriceScore, score.TurnoverScore, score.FundScore, score.TechScore)
	}
	return nil
}

// cmdSize 统计本地CSV文件的总大小
func cmdSize(a *app) error {
	return printDataSize(a.store)
}

// cmdExport 将本地CSV数据导出到InfluxDB
func cmdExport(a *app, codes []string) error {
	if !a.cfg.Storage.Influx.Enabled {
		return errors.New("config中未启用InfluxDB导出 (storage.influx.enabled)")
	}

	sink, err := storage.NewInfluxSink(storage.InfluxConfig{
		URL:    a.cfg.Storage.Influx.URL,
		Token:  a.cfg.Storage.Influx.Token,
		Org:    a.cfg.Storage.Influx.Org,
		Bucket: a.cfg.Storage.Influx.Bucket,
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	if len(codes) == 0 {
		stored, err := a.store.List()
		if err != nil {
			return err
		}
		for _, item := range stored {
			codes = append(codes, item.Code)
		}
	}

	exported := 0
	for _, code := range codes {
		stored, bars, err := a.store.Load(code)
		if err != nil {
			fmt.Printf("跳过 %s: %v\n", code, err)
			continue
		}
		sink.WriteBars(core.Stock{Code: stored.Code, Name: stored.Name, Market: core.MarketOf(stored.Code)}, bars)
		exported++
	}
	sink.Flush()

	fmt.Printf("已导出 %d 只股票到 %s\n", exported, a.cfg.Storage.Influx.Bucket)
	return nil
}

// loadOrDownload 优先读本地CSV，没有时现场下载一次
func loadOrDownload(ctx context.Context, a *app, code string) (core.Stock, []core.DailyBar, error) {
	stored, bars, err := a.store.Load(code)
	if err == nil {
		return core.Stock{Code: stored.Code, Name: stored.Name, Market: core.MarketOf(stored.Code)}, bars, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.Stock{}, nil, err
	}

	if _, err := a.downloader.DownloadOne(ctx, code); err != nil {
		return core.Stock{}, nil, fmt.Errorf("下载 %s 失败: %w", code, err)
	}

	stored, bars, err = a.store.Load(code)
	if err != nil {
		return core.Stock{}, nil, err
	}
	return core.Stock{Code: stored.Code, Name: stored.Name, Market: core.MarketOf(stored.Code)}, bars, nil
}

func printDataSize(store *storage.CSVStore) error {
	size, err := store.TotalSize()
	if err != nil {
		return err
	}
	fmt.Printf("本地数据: %d 个文件, %s\n", size.Files, size.Human())
	return nil
}
