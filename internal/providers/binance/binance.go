// Package binance implements the Binance spot klines adapter: public
// REST endpoint, no API key, OHLCV with Adj Close defaulted to Close.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/resilience"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

const defaultBaseURL = "https://api.binance.com/api/v3"

// allowedIntervals mirrors Binance's supported kline interval strings.
var allowedIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// Adapter is the Binance provider adapter. baseURL is a field, not a
// constant, so tests can point it at an httptest server.
type Adapter struct {
	baseURL    string
	guard      *resilience.Guard
	httpClient *http.Client
}

// New builds a Binance adapter wrapped in its own resilience guard.
func New(guard *resilience.Guard) *Adapter {
	return &Adapter{
		baseURL:    defaultBaseURL,
		guard:      guard,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *Adapter) Name() string { return "binance" }

// DownloadSymbol fetches klines for symbol over [start, end] at the
// given interval, up to Binance's 1000-candle-per-request cap; callers
// needing longer ranges are expected to page themselves, same as the
// Python source.
func (a *Adapter) DownloadSymbol(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
	effInterval := interval
	if !allowedIntervals[effInterval] {
		log.Warn().Str("source", "binance").Str("symbol", symbol).Str("interval", interval).Msg("unsupported interval, forcing 1h")
		effInterval = "1h"
	}

	endpoint := fmt.Sprintf("%s/klines", a.baseURL)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	q := req.URL.Query()
	q.Set("symbol", symbol)
	q.Set("interval", effInterval)
	q.Set("limit", "1000")
	if start != nil {
		q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if end != nil {
		q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := a.guard.Do(ctx, endpoint, func(ctx context.Context) (*http.Response, error) {
		return a.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, taxonomy.New(taxonomy.KindTemporaryNetwork, "failed reading binance response body", "binance", symbol)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code int `json:"code"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code == -1121 {
			return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "invalid symbol: "+symbol, "binance", symbol)
		}
		return nil, taxonomy.FromHTTP(fmt.Sprintf("binance HTTP %d", resp.StatusCode), taxonomy.HTTPContext{
			Source: "binance", Symbol: symbol, Status: resp.StatusCode, Headers: resp.Header,
			Endpoint: endpoint, Method: http.MethodGet,
		})
	}

	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		// Binance error payloads are a single JSON object, e.g.
		// {"code":-1121,"msg":"Invalid symbol."}
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Msg != "" {
			if apiErr.Code == -1121 {
				return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "invalid symbol: "+symbol, "binance", symbol)
			}
			return nil, taxonomy.New(taxonomy.KindExtraction, apiErr.Msg, "binance", symbol)
		}
		return nil, taxonomy.New(taxonomy.KindExtraction, "unexpected binance response", "binance", symbol)
	}

	if len(raw) == 0 {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "empty kline series for "+symbol, "binance", symbol)
	}

	idx := make([]time.Time, 0, len(raw))
	open := make([]float64, 0, len(raw))
	high := make([]float64, 0, len(raw))
	low := make([]float64, 0, len(raw))
	closeCol := make([]float64, 0, len(raw))
	volume := make([]float64, 0, len(raw))

	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		openTimeMs, _ := k[0].(float64)
		idx = append(idx, time.UnixMilli(int64(openTimeMs)).UTC())
		open = append(open, parseFloat(k[1]))
		high = append(high, parseFloat(k[2]))
		low = append(low, parseFloat(k[3]))
		closeCol = append(closeCol, parseFloat(k[4]))
		volume = append(volume, parseFloat(k[5]))
	}

	frame, err := canon.Canonicalize(canon.RawFrame{
		Index: idx,
		Columns: []canon.RawColumn{
			{Name: "Open", Values: open},
			{Name: "High", Values: high},
			{Name: "Low", Values: low},
			{Name: "Close", Values: closeCol},
			{Name: "Adj Close", Values: closeCol},
			{Name: "Volume", Values: volume},
		},
	}, "binance")
	if err != nil {
		return nil, err
	}

	trimmed := canon.TrimRange(frame, start, end)
	if trimmed.Len() == 0 {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "no data for "+symbol+" in range", "binance", symbol)
	}
	return trimmed, nil
}

func parseFloat(v interface{}) float64 {
	switch val := v.(type) {
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	case float64:
		return val
	}
	return 0
}
