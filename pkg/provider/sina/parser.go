package sina

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"astock/pkg/core"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// gbkToUtf8 将GBK编码转换为UTF-8
func gbkToUtf8(gbkStr string) string {
	if gbkStr == "" {
		return ""
	}
	reader := transform.NewReader(strings.NewReader(gbkStr), simplifiedchinese.GBK.NewDecoder())
	data, err := io.ReadAll(reader)
	if err != nil {
		return gbkStr
	}
	return string(data)
}

// rawKline 新浪K线接口的单条记录
type rawKline struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Volume string `json:"volume"`
}

// parseKlineJSONP 解析新浪JSONP包装的K线数据
// 响应形如 var__sh600000_240(...JSON数组...)
func parseKlineJSONP(text string) ([]core.DailyBar, error) {
	start := strings.Index(text, "(")
	end := strings.LastIndex(text, ")")
	if start < 0 || end <= start {
		return nil, core.ErrEmptyData
	}

	var raw []rawKline
	if err := json.Unmarshal([]byte(text[start+1:end]), &raw); err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, core.ErrEmptyData
	}

	bars := make([]core.DailyBar, 0, len(raw))
	var prevClose float64

	for i, item := range raw {
		date, err := time.Parse(core.DateFormat, item.Day)
		if err != nil {
			continue
		}

		bar := core.DailyBar{
			Date:   date,
			Open:   parseFloat(item.Open),
			Close:  parseFloat(item.Close),
			High:   parseFloat(item.High),
			Low:    parseFloat(item.Low),
			Volume: parseInt(item.Volume) / 100, // 单位是股，转换为手
		}

		// 新浪不返回涨跌相关列，由前收推算，首行无前收保持为零
		if i > 0 && prevClose != 0 {
			bar.ChangeAmount = round2(bar.Close - prevClose)
			bar.ChangePercent = round2((bar.Close - prevClose) / prevClose * 100)
			bar.Amplitude = round2((bar.High - bar.Low) / prevClose * 100)
		}
		prevClose = bar.Close

		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, core.ErrEmptyData
	}

	return bars, nil
}

// parseQuoteName 从hq行情响应中提取股票名称
// 响应形如 var hq_str_sh600000="浦发银行,10.20,..."，GBK编码
func parseQuoteName(text string) string {
	eq := strings.Index(text, "=")
	if eq < 0 {
		return ""
	}

	dataPart := strings.Trim(strings.TrimSpace(text[eq+1:]), `";`)
	fields := strings.Split(dataPart, ",")
	if len(fields) == 0 || fields[0] == "" {
		return ""
	}

	return gbkToUtf8(fields[0])
}

// parseFloat 解析浮点数，失败返回0
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseInt 解析整数，失败返回0
func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return v
}

// round2 保留两位小数
func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
