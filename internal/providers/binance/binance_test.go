package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sawpanic/marketsim/internal/resilience"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

func newTestAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Cleanup(srv.Close)
	guard := resilience.NewGuard("binance-test", 1000, 1000, time.Second)
	a := New(guard)
	a.baseURL = srv.URL
	return a
}

func TestDownloadSymbolParsesKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1704153600000,"100.0","105.0","99.0","104.0","1000","0",0,0,"0","0","0"],
			[1704240000000,"104.0","106.0","103.0","105.0","1200","0",0,0,"0","0","0"]
		]`))
	}))
	a := newTestAdapter(t, srv)

	frame, err := a.DownloadSymbol(context.Background(), "BTCUSDT", nil, nil, "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", frame.Len())
	}
	if frame.Close[0] != 104 || frame.AdjClose[0] != 104 {
		t.Errorf("expected Adj Close to equal Close, got close=%v adjclose=%v", frame.Close[0], frame.AdjClose[0])
	}
}

func TestDownloadSymbolMapsInvalidSymbolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	a := newTestAdapter(t, srv)

	_, err := a.DownloadSymbol(context.Background(), "NOTASYMBOL", nil, nil, "1d")
	if err == nil {
		t.Fatal("expected an error for an invalid symbol")
	}
	var te *taxonomy.Error
	if !errors.As(err, &te) || te.Kind != taxonomy.KindSymbolNotFound {
		t.Errorf("expected KindSymbolNotFound, got %v", err)
	}
}

func TestDownloadSymbolForcesUnsupportedIntervalTo1h(t *testing.T) {
	var gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(`[[1704153600000,"1","1","1","1","1","0",0,0,"0","0","0"]]`))
	}))
	a := newTestAdapter(t, srv)

	if _, err := a.DownloadSymbol(context.Background(), "BTCUSDT", nil, nil, "7m"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotInterval != "1h" {
		t.Errorf("expected forced interval 1h, got %q", gotInterval)
	}
}
