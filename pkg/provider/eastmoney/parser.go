package eastmoney

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"astock/pkg/core"
)

// klineResponse 东财K线接口响应结构
type klineResponse struct {
	Data struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// listResponse 东财clist接口响应结构
type listResponse struct {
	Data struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		} `json:"diff"`
	} `json:"data"`
}

// fundFlowResponse 东财资金流向接口响应结构
type fundFlowResponse struct {
	Data struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

// parseKlines 解析K线响应
// 每条kline为逗号分隔的11个字段:
// 日期,开盘,收盘,最高,最低,成交量,成交额,振幅,涨跌幅,涨跌额,换手率
func parseKlines(body []byte) ([]core.DailyBar, error) {
	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data.Klines) == 0 {
		return nil, core.ErrEmptyData
	}

	bars := make([]core.DailyBar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		fields := strings.Split(line, ",")
		if len(fields) < 11 {
			continue
		}

		date, err := time.Parse(core.DateFormat, fields[0])
		if err != nil {
			continue
		}

		bars = append(bars, core.DailyBar{
			Date:          date,
			Open:          parseFloat(fields[1]),
			Close:         parseFloat(fields[2]),
			High:          parseFloat(fields[3]),
			Low:           parseFloat(fields[4]),
			Volume:        parseInt(fields[5]),
			Amount:        parseFloat(fields[6]),
			Amplitude:     parseFloat(fields[7]),
			ChangePercent: parseFloat(fields[8]),
			ChangeAmount:  parseFloat(fields[9]),
			TurnoverRate:  parseFloat(fields[10]),
		})
	}

	if len(bars) == 0 {
		return nil, core.ErrEmptyData
	}

	return bars, nil
}

// parseStockList 解析股票列表响应
func parseStockList(body []byte) ([]core.Stock, error) {
	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data.Diff) == 0 {
		return nil, core.ErrEmptyData
	}

	stocks := make([]core.Stock, 0, len(resp.Data.Diff))
	for _, item := range resp.Data.Diff {
		if item.Code == "" || item.Name == "" {
			continue
		}
		stocks = append(stocks, core.Stock{
			Code:   item.Code,
			Name:   item.Name,
			Market: core.MarketOf(item.Code),
		})
	}

	return stocks, nil
}

// parseFundFlow 解析资金流向响应
// 每条kline为逗号分隔字段:
// 日期,主力净流入,小单净流入,中单净流入,大单净流入,超大单净流入,主力净占比,小单净占比,中单净占比,大单净占比,超大单净占比
func parseFundFlow(body []byte) ([]core.FundFlowBar, error) {
	var resp fundFlowResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data.Klines) == 0 {
		return nil, core.ErrEmptyData
	}

	flows := make([]core.FundFlowBar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		fields := strings.Split(line, ",")
		if len(fields) < 11 {
			continue
		}

		date, err := time.Parse(core.DateFormat, fields[0])
		if err != nil {
			continue
		}

		flows = append(flows, core.FundFlowBar{
			Date:          date,
			MainNetInflow: parseFloat(fields[1]),
			BigNetInflow:  parseFloat(fields[4]),
			MainNetRatio:  parseFloat(fields[6]),
			BigNetRatio:   parseFloat(fields[9]),
		})
	}

	return flows, nil
}

// parseFloat 解析浮点数，空值和"-"返回0
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseInt 解析整数，空值和"-"返回0
func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// 接口偶尔以浮点形式返回成交量
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return v
}
