package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sawpanic/marketsim/internal/canon"
)

func okFrame() *canon.Frame {
	idx := []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	return &canon.Frame{Index: idx, Open: []float64{1}, High: []float64{1}, Low: []float64{1}, Close: []float64{1}, AdjClose: []float64{1}, Volume: []float64{1}}
}

func TestDownloadSymbolUsesPrimaryWhenItSucceeds(t *testing.T) {
	a := &Adapter{}
	a.primaryFetch = func(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
		return okFrame(), nil
	}
	a.fallbackFetch = func(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
		t.Fatal("fallback should not be called when primary succeeds")
		return nil, nil
	}
	f, err := a.DownloadSymbol(context.Background(), "AAPL", nil, nil, "1d")
	if err != nil || f == nil {
		t.Fatalf("expected success, got frame=%v err=%v", f, err)
	}
}

func TestDownloadSymbolFallsBackOnPrimaryFailure(t *testing.T) {
	called := false
	a := &Adapter{}
	a.primaryFetch = func(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
		return nil, errors.New("primary down")
	}
	a.fallbackFetch = func(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
		called = true
		return okFrame(), nil
	}
	f, err := a.DownloadSymbol(context.Background(), "AAPL", nil, nil, "1d")
	if err != nil || f == nil {
		t.Fatalf("expected fallback success, got frame=%v err=%v", f, err)
	}
	if !called {
		t.Fatal("expected fallback to be invoked")
	}
}

func TestDownloadSymbolRejectsFallbackForNonDailyInterval(t *testing.T) {
	a := &Adapter{}
	a.primaryFetch = func(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
		return nil, errors.New("primary down")
	}
	a.fallbackFetch = func(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
		t.Fatal("fallback should not run for a non-daily interval")
		return nil, nil
	}
	_, err := a.DownloadSymbol(context.Background(), "AAPL", nil, nil, "1h")
	if err == nil {
		t.Fatal("expected an error for a non-daily fallback interval")
	}
}
