package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"astock/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStock() core.Stock {
	return core.Stock{Code: "600519", Name: "贵州茅台", Market: "SH"}
}

func testBars() []core.DailyBar {
	d1, _ := time.Parse(core.DateFormat, "2024-06-03")
	d2, _ := time.Parse(core.DateFormat, "2024-06-04")
	return []core.DailyBar{
		{
			Date: d1, Open: 1650.5, Close: 1672.0, High: 1680.0, Low: 1645.2,
			Volume: 28456, Amount: 4736000000, Amplitude: 2.11,
			ChangePercent: 1.3, ChangeAmount: 21.5, TurnoverRate: 0.23,
		},
		{
			Date: d2, Open: 1672.0, Close: 1660.8, High: 1675.5, Low: 1655.0,
			Volume: 19872, Amount: 3301000000, Amplitude: 1.23,
			ChangePercent: -0.67, ChangeAmount: -11.2, TurnoverRate: 0.16,
		},
	}
}

func testRange() (time.Time, time.Time) {
	start, _ := time.Parse(core.CompactDateFormat, "20220101")
	end, _ := time.Parse(core.CompactDateFormat, "20240604")
	return start, end
}

func TestCSVStoreSaveLoad(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	start, end := testRange()

	t.Run("保存后读回", func(t *testing.T) {
		path, err := store.Save(testStock(), testBars(), start, end)
		require.NoError(t, err)
		assert.Equal(t, "600519_贵州茅台_20220101_20240604.csv", filepath.Base(path))

		stored, bars, err := store.Load("600519")
		require.NoError(t, err)
		assert.Equal(t, "600519", stored.Code)
		assert.Equal(t, "贵州茅台", stored.Name)
		require.Len(t, bars, 2)
		assert.Equal(t, 1650.5, bars[0].Open)
		assert.Equal(t, int64(28456), bars[0].Volume)
		assert.Equal(t, -0.67, bars[1].ChangePercent)
		assert.Equal(t, 0.16, bars[1].TurnoverRate)
	})

	t.Run("重新下载整体覆盖", func(t *testing.T) {
		newEnd := end.AddDate(0, 0, 1)
		_, err := store.Save(testStock(), testBars()[:1], start, newEnd)
		require.NoError(t, err)

		// 旧日期区间的文件应被清掉
		stocks, err := store.List()
		require.NoError(t, err)
		require.Len(t, stocks, 1)
		assert.Equal(t, newEnd.Format(core.CompactDateFormat), stocks[0].End.Format(core.CompactDateFormat))

		_, bars, err := store.Load("600519")
		require.NoError(t, err)
		assert.Len(t, bars, 1)
	})
}

func TestCSVStoreValidate(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	start, end := testRange()

	t.Run("空数据被拒绝", func(t *testing.T) {
		_, err := store.Save(testStock(), nil, start, end)
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("价格非法被拒绝", func(t *testing.T) {
		bars := testBars()
		bars[1].Close = 0
		_, err := store.Save(testStock(), bars, start, end)
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("高低价倒挂被拒绝", func(t *testing.T) {
		bars := testBars()
		bars[0].High = bars[0].Low - 1
		_, err := store.Save(testStock(), bars, start, end)
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("校验失败不落盘", func(t *testing.T) {
		files, _ := filepath.Glob(filepath.Join(store.Dir(), "*.csv"))
		assert.Empty(t, files)
	})
}

func TestCSVStoreNotFound(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Load("000404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCSVStoreTotalSize(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	start, end := testRange()
	_, err = store.Save(testStock(), testBars(), start, end)
	require.NoError(t, err)
	_, err = store.Save(core.Stock{Code: "000001", Name: "平安银行", Market: "SZ"}, testBars(), start, end)
	require.NoError(t, err)

	size, err := store.TotalSize()
	require.NoError(t, err)
	assert.Equal(t, 2, size.Files)
	assert.Greater(t, size.Bytes, int64(0))
	assert.InDelta(t, float64(size.Bytes)/1024, size.KB, 0.001)
}

func TestCSVStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	require.NoError(t, err)

	// 命名不符合约定的文件不应出现在列表里
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("x"), 0644))

	stocks, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, stocks)
}
