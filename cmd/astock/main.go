package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"astock/pkg/logger"
)

const usage = `astock - A股历史数据下载与图表工具

用法:
  astock [-config path] <command> [参数]

命令:
  list              列出全部A股股票
  download [代码..] 下载历史数据，不带参数时下载全市场
  chart <代码>      从本地CSV绘制K线图与走势图
  analyze <代码>    均线趋势与涨停概率分析
  size              统计本地数据文件大小
  export [代码..]   将本地数据导出到InfluxDB，不带参数时导出全部
`

var (
	configPath = flag.String("config", "", "配置文件路径，留空时查找./config.yaml与config/config.yaml")
	logLevel   = flag.String("log-level", "", "覆盖配置中的日志级别")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	a, err := newApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	if *logLevel != "" {
		logger.SetLevel(*logLevel)
	}

	// Ctrl+C 中断批量下载
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command, rest := args[0], args[1:]
	switch command {
	case "list":
		err = cmdList(ctx, a, rest)
	case "download":
		err = cmdDownload(ctx, a, rest)
	case "chart":
		err = cmdChart(ctx, a, rest)
	case "analyze":
		err = cmdAnalyze(ctx, a, rest)
	case "size":
		err = cmdSize(a)
	case "export":
		err = cmdExport(a, rest)
	default:
		fmt.Fprintf(os.Stderr, "未知命令: %s\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
