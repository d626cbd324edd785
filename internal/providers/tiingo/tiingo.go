// Package tiingo implements the Tiingo EOD adapter: requires an API
// key, prefers adjusted OHLCV fields, daily interval only on the free
// tier. Grounded on original_source's tiingo_adapter.py.
package tiingo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/resilience"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

const defaultBaseURL = "https://api.tiingo.com/tiingo/daily"

type dailyRow struct {
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	AdjOpen   float64 `json:"adjOpen"`
	AdjHigh   float64 `json:"adjHigh"`
	AdjLow    float64 `json:"adjLow"`
	AdjClose  float64 `json:"adjClose"`
	AdjVolume float64 `json:"adjVolume"`
	HasAdj    bool    `json:"-"`
}

// Adapter is the Tiingo provider adapter. The free tier only serves
// daily bars, so any interval other than "1d" is rejected up front.
// baseURL is a field, not a constant, so tests can point it at an
// httptest server.
type Adapter struct {
	baseURL    string
	apiKey     string
	guard      *resilience.Guard
	httpClient *http.Client
}

// New builds a Tiingo adapter. apiKey must be non-empty; Tiingo has no
// anonymous tier.
func New(apiKey string, guard *resilience.Guard) *Adapter {
	return &Adapter{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		guard:      guard,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *Adapter) Name() string { return "tiingo" }

func (a *Adapter) DownloadSymbol(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
	if interval != "1d" {
		return nil, taxonomy.New(taxonomy.KindBadRequest, "tiingo free tier only supports interval=1d, got "+interval, "tiingo", symbol)
	}
	if a.apiKey == "" {
		return nil, taxonomy.New(taxonomy.KindAuth, "tiingo requires an API key", "tiingo", symbol)
	}

	endpoint := fmt.Sprintf("%s/%s/prices", a.baseURL, symbol)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	q := req.URL.Query()
	if start != nil {
		q.Set("startDate", start.Format("2006-01-02"))
	}
	if end != nil {
		q.Set("endDate", end.Format("2006-01-02"))
	}
	q.Set("format", "json")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Token "+a.apiKey)

	resp, err := a.guard.Do(ctx, endpoint, func(ctx context.Context) (*http.Response, error) {
		return a.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, taxonomy.New(taxonomy.KindTemporaryNetwork, "failed reading tiingo response body", "tiingo", symbol)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "symbol not found in tiingo: "+symbol, "tiingo", symbol)
	}
	if resp.StatusCode >= 400 {
		return nil, taxonomy.FromHTTP(fmt.Sprintf("tiingo HTTP %d", resp.StatusCode), taxonomy.HTTPContext{
			Source: "tiingo", Symbol: symbol, Status: resp.StatusCode, Headers: resp.Header,
			Endpoint: endpoint, Method: http.MethodGet,
			Params: map[string]string{"token": a.apiKey},
		})
	}

	var rows []dailyRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, taxonomy.New(taxonomy.KindExtraction, "unexpected tiingo response: "+err.Error(), "tiingo", symbol)
	}
	if len(rows) == 0 {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "no data returned for "+symbol, "tiingo", symbol)
	}

	hasAdj := rows[0].AdjClose != 0

	idx := make([]time.Time, 0, len(rows))
	open := make([]float64, 0, len(rows))
	high := make([]float64, 0, len(rows))
	low := make([]float64, 0, len(rows))
	closeCol := make([]float64, 0, len(rows))
	volume := make([]float64, 0, len(rows))

	for _, r := range rows {
		t, perr := time.Parse(time.RFC3339, r.Date)
		if perr != nil {
			continue
		}
		idx = append(idx, t.UTC())
		if hasAdj {
			open = append(open, r.AdjOpen)
			high = append(high, r.AdjHigh)
			low = append(low, r.AdjLow)
			closeCol = append(closeCol, r.AdjClose)
			volume = append(volume, r.AdjVolume)
		} else {
			open = append(open, r.Open)
			high = append(high, r.High)
			low = append(low, r.Low)
			closeCol = append(closeCol, r.Close)
			volume = append(volume, r.Volume)
		}
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
	}, "tiingo")
	if err != nil {
		return nil, err
	}
	return canon.TrimRange(frame, start, end), nil
}
