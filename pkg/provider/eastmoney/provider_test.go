package eastmoney

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"astock/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(handler http.HandlerFunc) (*Provider, *httptest.Server) {
	server := httptest.NewServer(handler)
	p := NewProvider()
	p.SetBaseURLs(server.URL+"/kline", server.URL+"/clist", server.URL+"/fflow")
	p.SetRateLimit(0)
	return p, server
}

func TestFetchHistory(t *testing.T) {
	t.Run("正常获取", func(t *testing.T) {
		p, server := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/kline", r.URL.Path)
			assert.Equal(t, "0.000001", r.URL.Query().Get("secid"))
			assert.Equal(t, "101", r.URL.Query().Get("klt"))
			assert.Equal(t, "1", r.URL.Query().Get("fqt"))
			w.Write([]byte(sampleKlineBody))
		})
		defer server.Close()

		start, _ := time.Parse(core.CompactDateFormat, "20220101")
		end, _ := time.Parse(core.CompactDateFormat, "20220131")

		bars, err := p.FetchHistory(context.Background(), "000001", start, end, core.PeriodDaily, core.AdjustQFQ)
		require.NoError(t, err)
		assert.Len(t, bars, 2)
	})

	t.Run("不支持的股票代码", func(t *testing.T) {
		p := NewProvider()
		_, err := p.FetchHistory(context.Background(), "BAD", time.Now(), time.Now(), core.PeriodDaily, core.AdjustQFQ)
		assert.ErrorIs(t, err, core.ErrSymbolNotSupported)
	})

	t.Run("不支持的周期", func(t *testing.T) {
		p := NewProvider()
		_, err := p.FetchHistory(context.Background(), "000001", time.Now(), time.Now(), core.Period("5min"), core.AdjustQFQ)
		assert.ErrorIs(t, err, core.ErrPeriodNotSupported)
	})

	t.Run("服务端错误触发重试", func(t *testing.T) {
		requests := 0
		p, server := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if requests < 2 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(sampleKlineBody))
		})
		defer server.Close()

		bars, err := p.FetchHistory(context.Background(), "000001", time.Now().AddDate(0, -1, 0), time.Now(), core.PeriodDaily, core.AdjustQFQ)
		require.NoError(t, err)
		assert.Len(t, bars, 2)
		assert.Equal(t, 2, requests)
	})

	t.Run("空响应报错", func(t *testing.T) {
		p, server := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"klines":[]}}`))
		})
		defer server.Close()

		_, err := p.FetchHistory(context.Background(), "000001", time.Now().AddDate(0, -1, 0), time.Now(), core.PeriodDaily, core.AdjustQFQ)
		assert.ErrorIs(t, err, core.ErrEmptyData)
	})
}

func TestFetchStockList(t *testing.T) {
	p, server := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/clist", r.URL.Path)
		w.Write([]byte(sampleListBody))
	})
	defer server.Close()

	stocks, err := p.FetchStockList(context.Background())
	require.NoError(t, err)
	assert.Len(t, stocks, 3)
}

func TestFetchFundFlow(t *testing.T) {
	p, server := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fflow", r.URL.Path)
		w.Write([]byte(sampleFundFlowBody))
	})
	defer server.Close()

	flows, err := p.FetchFundFlow(context.Background(), "600519")
	require.NoError(t, err)
	assert.Len(t, flows, 2)
}

func TestIsSymbolSupported(t *testing.T) {
	p := NewProvider()

	assert.True(t, p.IsSymbolSupported("600000"))
	assert.True(t, p.IsSymbolSupported("000001"))
	assert.True(t, p.IsSymbolSupported("300750"))
	assert.True(t, p.IsSymbolSupported("301236"))
	assert.True(t, p.IsSymbolSupported("302132"))
	assert.True(t, p.IsSymbolSupported("430047"))
	assert.False(t, p.IsSymbolSupported(""))
	assert.False(t, p.IsSymbolSupported("60000"))
	assert.False(t, p.IsSymbolSupported("AAPL"))
}

func TestSecID(t *testing.T) {
	assert.Equal(t, "1.600519", secID("600519"))
	assert.Equal(t, "0.000001", secID("000001"))
	assert.Equal(t, "0.300750", secID("300750"))
	assert.Equal(t, "0.301236", secID("301236"))
}
