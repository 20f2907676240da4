// Package chart 基于go-echarts渲染K线图与趋势图
//
// 输出为自包含的HTML文件，红涨绿跌，附带常用均线
package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"astock/pkg/analysis"
	"astock/pkg/core"
	"astock/pkg/logger"
)

// 涨跌配色，沿用A股习惯
const (
	colorUp   = "#ef232a"
	colorDown = "#14b143"
)

// 默认均线窗口
var defaultMAWindows = []int{5, 10, 20}

// Renderer 图表渲染器
type Renderer struct {
	outputDir string
	maWindows []int
	log       *logger.Entry
}

// NewRenderer 创建渲染器，图表写入outputDir
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{
		outputDir: outputDir,
		maWindows: defaultMAWindows,
		log:       logger.WithComponent("chart"),
	}
}

// SetMAWindows 设置均线窗口
func (r *Renderer) SetMAWindows(windows []int) {
	if len(windows) > 0 {
		r.maWindows = windows
	}
}

// RenderKline 渲染K线图，返回生成的HTML路径
func (r *Renderer) RenderKline(stock core.Stock, bars []core.DailyBar) (string, error) {
	if len(bars) == 0 {
		return "", core.ErrEmptyData
	}

	title := fmt.Sprintf("%s %s K线图", stock.Code, stock.Name)
	kline := charts.NewKLine()
	kline.SetGlobalOptions(r.globalOptions(title)...)

	dates := make([]string, len(bars))
	data := make([]opts.KlineData, len(bars))
	for i, bar := range bars {
		dates[i] = bar.Date.Format(core.DateFormat)
		data[i] = opts.KlineData{Value: [4]float64{bar.Open, bar.Close, bar.Low, bar.High}}
	}

	kline.SetXAxis(dates).AddSeries("日K", data).
		SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorUp,
			Color0:       colorDown,
			BorderColor:  colorUp,
			BorderColor0: colorDown,
		}))

	for _, window := range r.maWindows {
		kline.Overlap(r.maLine(dates, bars, window))
	}

	return r.render(kline, fmt.Sprintf("%s_%s_kline.html", stock.Code, stock.Name))
}

// RenderTrend 渲染收盘价与均线的趋势图
func (r *Renderer) RenderTrend(stock core.Stock, bars []core.DailyBar) (string, error) {
	if len(bars) == 0 {
		return "", core.ErrEmptyData
	}

	title := fmt.Sprintf("%s %s 走势图", stock.Code, stock.Name)
	line := charts.NewLine()
	line.SetGlobalOptions(r.globalOptions(title)...)

	dates := make([]string, len(bars))
	closeData := make([]opts.LineData, len(bars))
	for i, bar := range bars {
		dates[i] = bar.Date.Format(core.DateFormat)
		closeData[i] = opts.LineData{Value: bar.Close}
	}

	line.SetXAxis(dates).AddSeries("收盘价", closeData)
	for _, window := range r.maWindows {
		line.Overlap(r.maLine(dates, bars, window))
	}

	return r.render(line, fmt.Sprintf("%s_%s_trend.html", stock.Code, stock.Name))
}

// maLine 构造单条均线的叠加图层，窗口期内的NaN段留空
func (r *Renderer) maLine(dates []string, bars []core.DailyBar, window int) *charts.Line {
	ma := analysis.MA(analysis.Closes(bars), window)

	data := make([]opts.LineData, len(ma))
	for i, v := range ma {
		if i < window-1 {
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: round2(v)}
	}

	line := charts.NewLine()
	line.SetXAxis(dates).AddSeries(fmt.Sprintf("MA%d", window), data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// globalOptions 统一的图表全局配置
func (r *Renderer) globalOptions(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1400px",
			Height:    "700px",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "slider",
			Start:      50,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	}
}

type renderable interface {
	Render(w io.Writer) error
}

// render 将图表写入输出目录
func (r *Renderer) render(chart renderable, name string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("创建图表目录失败: %w", err)
	}

	path := filepath.Join(r.outputDir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建图表文件失败: %w", err)
	}
	defer file.Close()

	if err := chart.Render(file); err != nil {
		return "", fmt.Errorf("渲染图表失败: %w", err)
	}

	r.log.Infof("图表已生成: %s", path)
	return path, nil
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
