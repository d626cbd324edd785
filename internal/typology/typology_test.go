package typology

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/series"
)

func mkFrame(n int, close []float64, volume []float64) *canon.Frame {
	idx := make([]time.Time, n)
	for i := range idx {
		idx[i] = time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
	}
	return &canon.Frame{
		Index: idx, Open: close, High: close, Low: close,
		Close: close, AdjClose: close, Volume: volume,
	}
}

func TestBuildOHLCV(t *testing.T) {
	f := mkFrame(3, []float64{1, 2, 3}, []float64{10, 20, 30})
	out, err := Build(OHLCV, "AAPL", "yahoo", f, DefaultOptions())
	require.NoError(t, err)
	p, ok := out.(*series.Price)
	require.True(t, ok)
	assert.Equal(t, "AAPL", p.Symbol())
}

func TestBuildReturnsLogDropsLeadingRow(t *testing.T) {
	f := mkFrame(3, []float64{100, 110, 121}, []float64{1, 1, 1})
	out, err := Build(ReturnsLog, "AAPL", "yahoo", f, DefaultOptions())
	require.NoError(t, err)
	p := out.(*series.Performance)
	require.Len(t, p.Data, 2)
	assert.InDelta(t, math.Log(1.1), p.Data[0], 1e-9)
	assert.InDelta(t, math.Log(1.1), p.Data[1], 1e-9)
}

func TestBuildReturnsPct(t *testing.T) {
	f := mkFrame(2, []float64{100, 110}, []float64{1, 1})
	out, err := Build(ReturnsPct, "AAPL", "yahoo", f, DefaultOptions())
	require.NoError(t, err)
	p := out.(*series.Performance)
	require.Len(t, p.Data, 1)
	assert.InDelta(t, 0.1, p.Data[0], 1e-9)
}

func TestBuildReturnsSingleRowYieldsEmptySeries(t *testing.T) {
	f := mkFrame(1, []float64{100}, []float64{1})
	out, err := Build(ReturnsLog, "AAPL", "yahoo", f, DefaultOptions())
	require.NoError(t, err)
	p := out.(*series.Performance)
	assert.Empty(t, p.Data)
	assert.Empty(t, p.Index())
}

func TestBuildReturnsFiveRowsYieldFourRowSeries(t *testing.T) {
	f := mkFrame(5, []float64{100, 101, 102, 103, 104}, []float64{1, 1, 1, 1, 1})
	out, err := Build(ReturnsPct, "AAPL", "yahoo", f, DefaultOptions())
	require.NoError(t, err)
	p := out.(*series.Performance)
	assert.Len(t, p.Data, 4)
}

func TestBuildVolatilityNaNBeforeWindow(t *testing.T) {
	close := make([]float64, 25)
	for i := range close {
		close[i] = 100 + float64(i)
	}
	f := mkFrame(25, close, make([]float64, 25))
	out, err := Build(Volatility, "AAPL", "yahoo", f, DefaultOptions())
	require.NoError(t, err)
	v := out.(*series.Volatility)
	assert.True(t, math.IsNaN(v.Data[rollingWindow-1]))
	assert.False(t, math.IsNaN(v.Data[rollingWindow]))
}

func TestBuildVolumeActivityZeroStdIsNaN(t *testing.T) {
	vol := make([]float64, 21)
	for i := range vol {
		vol[i] = 100
	}
	f := mkFrame(21, make([]float64, 21), vol)
	out, err := Build(VolumeActivity, "AAPL", "yahoo", f, DefaultOptions())
	require.NoError(t, err)
	va := out.(*series.VolumeActivity)
	assert.True(t, math.IsNaN(va.Data[20]))
}

func TestBuildRejectsEmptyFrame(t *testing.T) {
	_, err := Build(OHLCV, "AAPL", "yahoo", &canon.Frame{}, DefaultOptions())
	assert.Error(t, err)
}

func TestBuildVolatilityHonorsWindowOverride(t *testing.T) {
	close := make([]float64, 10)
	for i := range close {
		close[i] = 100 + float64(i)
	}
	f := mkFrame(10, close, make([]float64, 10))
	out, err := Build(Volatility, "AAPL", "yahoo", f, Options{Window: 5, AnnFactor: 252})
	require.NoError(t, err)
	v := out.(*series.Volatility)
	assert.True(t, math.IsNaN(v.Data[4]))
	assert.False(t, math.IsNaN(v.Data[5]))
}

func TestBuildVolatilityHonorsAnnFactorOverride(t *testing.T) {
	close := make([]float64, 25)
	for i := range close {
		close[i] = 100 + float64(i)
	}
	f := mkFrame(25, close, make([]float64, 25))
	out252, err := Build(Volatility, "AAPL", "yahoo", f, Options{Window: 20, AnnFactor: 252})
	require.NoError(t, err)
	out365, err := Build(Volatility, "AAPL", "yahoo", f, Options{Window: 20, AnnFactor: 365})
	require.NoError(t, err)
	v252 := out252.(*series.Volatility)
	v365 := out365.(*series.Volatility)
	assert.Less(t, v252.Data[20], v365.Data[20])
}

func TestDefaultOptionsFillsZeroValues(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, rollingWindow, opts.Window)
	assert.Equal(t, float64(tradingDaysPerYear), opts.AnnFactor)
}
