package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"astock/pkg/core"
	"astock/pkg/logger"

	"github.com/sirupsen/logrus"
)

// csvHeader CSV文件表头，与东财历史行情的11列一致
var csvHeader = []string{
	"日期", "开盘", "收盘", "最高", "最低",
	"成交量", "成交额", "振幅", "涨跌幅", "涨跌额", "换手率",
}

// CSVStore 每只股票一个CSV文件的本地存储
// 文件名为 {代码}_{名称}_{起始日}_{结束日}.csv，重新下载时整体覆盖
type CSVStore struct {
	dir string
	log *logrus.Entry
}

// StoredStock 一个已落盘的股票数据文件
type StoredStock struct {
	Code  string    `json:"code"`
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Path  string    `json:"path"`
	Size  int64     `json:"size"`
}

// DataSize 数据目录的体积统计
type DataSize struct {
	Files int     `json:"files"`
	Bytes int64   `json:"bytes"`
	KB    float64 `json:"kb"`
	MB    float64 `json:"mb"`
	GB    float64 `json:"gb"`
}

// Human 返回合适单位下的可读体积
func (d DataSize) Human() string {
	switch {
	case d.GB >= 1:
		return fmt.Sprintf("%.2f GB", d.GB)
	case d.MB >= 1:
		return fmt.Sprintf("%.2f MB", d.MB)
	case d.KB >= 1:
		return fmt.Sprintf("%.2f KB", d.KB)
	default:
		return fmt.Sprintf("%d B", d.Bytes)
	}
}

// NewCSVStore 创建CSV存储，目录不存在时自动创建
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	return &CSVStore{
		dir: dir,
		log: logger.WithComponent("CSVStore"),
	}, nil
}

// Dir 返回存储目录
func (s *CSVStore) Dir() string {
	return s.dir
}

// FileName 生成股票数据文件名
func (s *CSVStore) FileName(stock core.Stock, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv",
		stock.Code, stock.Name,
		start.Format(core.CompactDateFormat), end.Format(core.CompactDateFormat))
}

// Validate 校验K线数据的完整性
// 空数据、缺日期或价格非正的数据整体拒绝
func (s *CSVStore) Validate(bars []core.DailyBar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: 数据为空", ErrInvalidData)
	}

	for i, bar := range bars {
		if bar.Date.IsZero() {
			return fmt.Errorf("%w: 第%d行缺少日期", ErrInvalidData, i+1)
		}
		if bar.Open <= 0 || bar.Close <= 0 || bar.High <= 0 || bar.Low <= 0 {
			return fmt.Errorf("%w: 第%d行价格非法", ErrInvalidData, i+1)
		}
		if bar.High < bar.Low {
			return fmt.Errorf("%w: 第%d行最高价低于最低价", ErrInvalidData, i+1)
		}
	}

	return nil
}

// Save 将一只股票的K线整体写入CSV文件
// 先写临时文件再改名，同名旧文件被覆盖
func (s *CSVStore) Save(stock core.Stock, bars []core.DailyBar, start, end time.Time) (string, error) {
	if err := s.Validate(bars); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, s.FileName(stock, start, end))

	tmp, err := os.CreateTemp(s.dir, stock.Code+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvHeader); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("写入表头失败: %w", err)
	}

	for _, bar := range bars {
		if err := writer.Write(barToRecord(bar)); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return "", fmt.Errorf("写入记录失败: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("刷新CSV失败: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("关闭临时文件失败: %w", err)
	}

	// 同一只股票可能存在旧日期区间的文件，先清掉
	if old, err := filepath.Glob(filepath.Join(s.dir, stock.Code+"_*.csv")); err == nil {
		for _, f := range old {
			os.Remove(f)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("移动数据文件失败: %w", err)
	}

	s.log.Debugf("已保存 %s(%s): %d 条记录", stock.Name, stock.Code, len(bars))
	return path, nil
}

// Load 按股票代码读取全部K线
func (s *CSVStore) Load(code string) (StoredStock, []core.DailyBar, error) {
	stored, err := s.Find(code)
	if err != nil {
		return StoredStock{}, nil, err
	}

	bars, err := s.loadFile(stored.Path)
	if err != nil {
		return StoredStock{}, nil, err
	}

	return stored, bars, nil
}

// Find 按股票代码查找已落盘的数据文件
func (s *CSVStore) Find(code string) (StoredStock, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, code+"_*.csv"))
	if err != nil || len(matches) == 0 {
		return StoredStock{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	stored, ok := parseFileName(matches[0])
	if !ok {
		return StoredStock{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	return stored, nil
}

// List 枚举全部已落盘的股票数据文件
func (s *CSVStore) List() ([]StoredStock, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("枚举数据目录失败: %w", err)
	}

	stocks := make([]StoredStock, 0, len(matches))
	for _, path := range matches {
		if stored, ok := parseFileName(path); ok {
			stocks = append(stocks, stored)
		}
	}

	return stocks, nil
}

// TotalSize 统计数据目录的总体积
func (s *CSVStore) TotalSize() (DataSize, error) {
	stocks, err := s.List()
	if err != nil {
		return DataSize{}, err
	}

	var total int64
	for _, stock := range stocks {
		total += stock.Size
	}

	kb := float64(total) / 1024
	return DataSize{
		Files: len(stocks),
		Bytes: total,
		KB:    kb,
		MB:    kb / 1024,
		GB:    kb / 1024 / 1024,
	}, nil
}

// loadFile 读取单个CSV文件
func (s *CSVStore) loadFile(path string) ([]core.DailyBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开数据文件失败: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取CSV失败: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: 文件无数据行", ErrInvalidData)
	}

	bars := make([]core.DailyBar, 0, len(records)-1)
	for _, record := range records[1:] {
		bar, err := recordToBar(record)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// barToRecord 单根K线转CSV行
func barToRecord(bar core.DailyBar) []string {
	return []string{
		bar.Date.Format(core.DateFormat),
		formatFloat(bar.Open),
		formatFloat(bar.Close),
		formatFloat(bar.High),
		formatFloat(bar.Low),
		strconv.FormatInt(bar.Volume, 10),
		formatFloat(bar.Amount),
		formatFloat(bar.Amplitude),
		formatFloat(bar.ChangePercent),
		formatFloat(bar.ChangeAmount),
		formatFloat(bar.TurnoverRate),
	}
}

// recordToBar CSV行转单根K线
func recordToBar(record []string) (core.DailyBar, error) {
	if len(record) < len(csvHeader) {
		return core.DailyBar{}, fmt.Errorf("列数不足: %d", len(record))
	}

	date, err := time.Parse(core.DateFormat, record[0])
	if err != nil {
		return core.DailyBar{}, fmt.Errorf("日期格式错误: %s", record[0])
	}

	volume, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return core.DailyBar{}, fmt.Errorf("成交量格式错误: %s", record[5])
	}

	floats := make([]float64, len(csvHeader))
	for _, idx := range []int{1, 2, 3, 4, 6, 7, 8, 9, 10} {
		v, err := strconv.ParseFloat(record[idx], 64)
		if err != nil {
			return core.DailyBar{}, fmt.Errorf("%s格式错误: %s", csvHeader[idx], record[idx])
		}
		floats[idx] = v
	}

	return core.DailyBar{
		Date:          date,
		Open:          floats[1],
		Close:         floats[2],
		High:          floats[3],
		Low:           floats[4],
		Volume:        volume,
		Amount:        floats[6],
		Amplitude:     floats[7],
		ChangePercent: floats[8],
		ChangeAmount:  floats[9],
		TurnoverRate:  floats[10],
	}, nil
}

// parseFileName 从文件名还原股票信息
func parseFileName(path string) (StoredStock, bool) {
	base := strings.TrimSuffix(filepath.Base(path), ".csv")
	parts := strings.Split(base, "_")
	if len(parts) != 4 {
		return StoredStock{}, false
	}

	start, err := time.Parse(core.CompactDateFormat, parts[2])
	if err != nil {
		return StoredStock{}, false
	}
	end, err := time.Parse(core.CompactDateFormat, parts[3])
	if err != nil {
		return StoredStock{}, false
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	return StoredStock{
		Code:  parts[0],
		Name:  parts[1],
		Start: start,
		End:   end,
		Path:  path,
		Size:  size,
	}, true
}

// formatFloat 数值格式化，保持最短小数表示
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
