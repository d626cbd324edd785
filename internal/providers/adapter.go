// Package providers defines the common adapter contract implemented by
// the yahoo, binance, and tiingo packages.
package providers

import (
	"context"
	"time"

	"github.com/sawpanic/marketsim/internal/canon"
)

// Adapter downloads a single symbol's OHLCV history from one data
// source and returns it as a canonical Frame. Every concrete adapter
// must produce output that passes canon's invariants: strictly
// ascending, duplicate-free, tz-naive index and exactly the six OHLCV
// columns.
type Adapter interface {
	// Name is the short provider identifier ("yahoo", "binance", "tiingo").
	Name() string
	// DownloadSymbol fetches one symbol's history for [start, end] at
	// the given interval.
	DownloadSymbol(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error)
}
