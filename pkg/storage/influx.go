package storage

import (
	"fmt"

	"astock/pkg/core"
	"astock/pkg/logger"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"
)

// InfluxConfig InfluxDB连接配置
type InfluxConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

// InfluxSink 将K线数据导出为InfluxDB数据点
// 可选功能，供后续在Grafana等工具中查看历史行情
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      *logrus.Entry
}

// NewInfluxSink 创建InfluxDB导出器
func NewInfluxSink(config InfluxConfig) (*InfluxSink, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("influxdb url 不能为空")
	}

	client := influxdb2.NewClient(config.URL, config.Token)
	writeAPI := client.WriteAPI(config.Org, config.Bucket)

	sink := &InfluxSink{
		client:   client,
		writeAPI: writeAPI,
		log:      logger.WithComponent("InfluxSink"),
	}

	// 异步写入的错误只能通过错误通道拿到
	go func() {
		for err := range writeAPI.Errors() {
			sink.log.Errorf("写入InfluxDB失败: %v", err)
		}
	}()

	return sink, nil
}

// WriteBars 将一只股票的K线写为数据点
func (s *InfluxSink) WriteBars(stock core.Stock, bars []core.DailyBar) {
	for _, bar := range bars {
		point := influxdb2.NewPointWithMeasurement("stock_daily").
			AddTag("code", stock.Code).
			AddTag("name", stock.Name).
			AddTag("market", stock.Market).
			AddField("open", bar.Open).
			AddField("close", bar.Close).
			AddField("high", bar.High).
			AddField("low", bar.Low).
			AddField("volume", bar.Volume).
			AddField("amount", bar.Amount).
			AddField("amplitude", bar.Amplitude).
			AddField("change_percent", bar.ChangePercent).
			AddField("change_amount", bar.ChangeAmount).
			AddField("turnover_rate", bar.TurnoverRate).
			SetTime(bar.Date)

		s.writeAPI.WritePoint(point)
	}

	s.log.Debugf("已提交 %s(%s) 的 %d 个数据点", stock.Name, stock.Code, len(bars))
}

// Flush 等待缓冲的数据点全部写出
func (s *InfluxSink) Flush() {
	s.writeAPI.Flush()
}

// Close 关闭InfluxDB连接
func (s *InfluxSink) Close() error {
	s.writeAPI.Flush()
	s.client.Close()
	return nil
}
