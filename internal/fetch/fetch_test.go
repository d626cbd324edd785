package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

type fakeAdapter struct {
	name    string
	failing map[string]bool
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) DownloadSymbol(ctx context.Context, symbol string, start, end *time.Time, interval string) (*canon.Frame, error) {
	if f.failing[symbol] {
		return nil, taxonomy.New(taxonomy.KindSymbolNotFound, "no data", f.name, symbol)
	}
	now := time.Now().UTC()
	return &canon.Frame{
		Index: []time.Time{now},
		Open:  []float64{1}, High: []float64{1}, Low: []float64{1},
		Close: []float64{1}, AdjClose: []float64{1}, Volume: []float64{1},
	}, nil
}

func TestManyPartialSuccess(t *testing.T) {
	adapter := &fakeAdapter{name: "fake", failing: map[string]bool{"BAD": true}}
	frames, errs, err := Many(context.Background(), adapter, []string{"AAPL", "BAD", "MSFT"}, nil, nil, "1d", 2)
	require.NoError(t, err)
	assert.Len(t, frames, 2)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs, "BAD")
}

func TestManyAllFail(t *testing.T) {
	adapter := &fakeAdapter{name: "fake", failing: map[string]bool{"AAPL": true, "MSFT": true}}
	_, _, err := Many(context.Background(), adapter, []string{"AAPL", "MSFT"}, nil, nil, "1d", 2)
	assert.Error(t, err)
}

func TestManyDedupesSymbols(t *testing.T) {
	adapter := &fakeAdapter{name: "fake", failing: map[string]bool{}}
	frames, _, err := Many(context.Background(), adapter, []string{"AAPL", "AAPL", "", "MSFT"}, nil, nil, "1d", 4)
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestManyRequiresAtLeastOneSymbol(t *testing.T) {
	adapter := &fakeAdapter{name: "fake"}
	_, _, err := Many(context.Background(), adapter, nil, nil, nil, "1d", 4)
	assert.Error(t, err)
}
