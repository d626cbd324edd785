// Package yahoo implements the Yahoo Finance adapter: a primary chart
// API path and a daily-only fallback, mirroring original_source's
// yfinance-then-pandas_datareader fallback chain (yahoo_adapter.py).
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/resilience"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

const (
	chartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	csvBaseURL   = "https://query1.finance.yahoo.com/v7/finance/download"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchFunc performs one HTTP round trip and returns a canonical frame.
type fetchFunc func(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error)

// Adapter is the Yahoo Finance provider adapter. It tries primaryFetch
// (the chart API, which supports intraday intervals) and, if that
// fails, falls back to fallbackFetch (daily-only), matching the two
// strategies in original_source's YahooAdapter.download_symbol.
type Adapter struct {
	guard         *resilience.Guard
	httpClient    *http.Client
	primaryFetch  fetchFunc
	fallbackFetch fetchFunc
}

// New builds a Yahoo adapter wrapped in its own resilience guard.
func New(guard *resilience.Guard) *Adapter {
	a := &Adapter{
		guard:      guard,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	a.primaryFetch = a.fetchChart
	a.fallbackFetch = a.fetchDailyCSV
	return a
}

func (a *Adapter) Name() string { return "yahoo" }

func (a *Adapter) DownloadSymbol(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
	frame, err := a.primaryFetch(ctx, symbol, start, end, interval)
	if err == nil {
		return frame, nil
	}
	log.Warn().Str("source", "yahoo").Str("symbol", symbol).Err(err).Msg("primary chart fetch failed, falling back to daily CSV")

	if interval != "1d" {
		return nil, taxonomy.New(taxonomy.KindBadRequest, "yahoo fallback path only supports interval=1d, got "+interval, "yahoo", symbol)
	}
	return a.fallbackFetch(ctx, symbol, start, end, interval)
}

func (a *Adapter) fetchChart(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
	endpoint := fmt.Sprintf("%s/%s", chartBaseURL, symbol)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	q := req.URL.Query()
	q.Set("interval", interval)
	if start != nil {
		q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	}
	if end != nil {
		q.Set("period2", fmt.Sprintf("%d", end.Unix()))
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
		return nil, taxonomy.New(taxonomy.KindTemporaryNetwork, "failed reading yahoo response body", "yahoo", symbol)
	}
	if resp.StatusCode >= 400 {
		return nil, taxonomy.FromHTTP(fmt.Sprintf("yahoo HTTP %d", resp.StatusCode), taxonomy.HTTPContext{
			Source: "yahoo/chart", Symbol: symbol, Status: resp.StatusCode, Headers: resp.Header,
			Endpoint: endpoint, Method: http.MethodGet,
		})
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, taxonomy.New(taxonomy.KindExtraction, "unexpected yahoo chart response: "+err.Error(), "yahoo", symbol)
	}
	if cr.Chart.Error != nil {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, cr.Chart.Error.Description, "yahoo/chart", symbol)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Timestamp) == 0 {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "empty series for "+symbol, "yahoo/chart", symbol)
	}

	result := cr.Chart.Result[0]
	idx := make([]time.Time, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		idx[i] = time.Unix(ts, 0).UTC()
	}

	var quote struct {
		Open, High, Low, Close, Volume []float64
	}
	if len(result.Indicators.Quote) > 0 {
		q0 := result.Indicators.Quote[0]
		quote.Open, quote.High, quote.Low, quote.Close, quote.Volume = q0.Open, q0.High, q0.Low, q0.Close, q0.Volume
	}
	adjClose := quote.Close
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	frame, err := canon.Canonicalize(canon.RawFrame{
		Index: idx,
		Columns: []canon.RawColumn{
			{Name: "Open", Values: quote.Open},
			{Name: "High", Values: quote.High},
			{Name: "Low", Values: quote.Low},
			{Name: "Close", Values: quote.Close},
			{Name: "Adj Close", Values: adjClose},
			{Name: "Volume", Values: quote.Volume},
		},
	}, "yahoo")
	if err != nil {
		return nil, err
	}
	return canon.TrimRange(frame, start, end), nil
}

// fetchDailyCSV is the fallback path, a daily-only CSV download
// equivalent to pandas_datareader's get_data_yahoo.
func (a *Adapter) fetchDailyCSV(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
	endpoint := fmt.Sprintf("%s/%s", csvBaseURL, symbol)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	q := req.URL.Query()
	if start != nil {
		q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	}
	if end != nil {
		q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	}
	q.Set("interval", "1d")
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
		return nil, taxonomy.New(taxonomy.KindTemporaryNetwork, "failed reading yahoo csv response", "yahoo", symbol)
	}
	if resp.StatusCode >= 400 {
		return nil, taxonomy.FromHTTP(fmt.Sprintf("yahoo csv HTTP %d", resp.StatusCode), taxonomy.HTTPContext{
			Source: "yahoo/csv", Symbol: symbol, Status: resp.StatusCode, Headers: resp.Header,
			Endpoint: endpoint, Method: http.MethodGet,
		})
	}

	idx, open, high, low, closeCol, adjClose, volume, err := parseCSV(body)
	if err != nil {
		return nil, taxonomy.New(taxonomy.KindExtraction, "failed parsing yahoo csv: "+err.Error(), "yahoo", symbol)
	}
	if len(idx) == 0 {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "empty series for "+symbol, "yahoo/csv", symbol)
	}

	frame, err := canon.Canonicalize(canon.RawFrame{
		Index: idx,
		Columns: []canon.RawColumn{
			{Name: "Open", Values: open},
			{Name: "High", Values: high},
			{Name: "Low", Values: low},
			{Name: "Close", Values: closeCol},
			{Name: "Adj Close", Values: adjClose},
			{Name: "Volume", Values: volume},
		},
	}, "yahoo")
	if err != nil {
		return nil, err
	}
	return canon.TrimRange(frame, start, end), nil
}
