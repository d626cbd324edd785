package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func idx(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func TestNewPriceCachesCloseStats(t *testing.T) {
	i := idx(3)
	p := NewPrice("AAPL", "yahoo", i, []float64{1, 2, 3}, []float64{1, 2, 3}, []float64{1, 2, 3}, []float64{10, 20, 30}, []float64{10, 20, 30}, []float64{1, 1, 1})
	assert.InDelta(t, 20.0, p.Mean(), 1e-9)
	assert.InDelta(t, 10.0, p.Std(), 1e-9)
}

func TestNewPriceEmpty(t *testing.T) {
	p := NewPrice("AAPL", "yahoo", nil, nil, nil, nil, nil, nil, nil)
	assert.True(t, math.IsNaN(p.Mean()))
}

func TestMeanStdSkipsNaN(t *testing.T) {
	mean, std := meanStd([]float64{1, math.NaN(), 3})
	assert.InDelta(t, 2.0, mean, 1e-9)
	assert.InDelta(t, math.Sqrt(2), std, 1e-9)
}

func TestMeanStdAllNaN(t *testing.T) {
	mean, std := meanStd([]float64{math.NaN(), math.NaN()})
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(std))
}

func TestNewVolatilityMeanOnly(t *testing.T) {
	v := NewVolatility("AAPL", "yahoo", idx(3), []float64{0.1, 0.2, 0.3})
	assert.InDelta(t, 0.2, v.Mean(), 1e-9)
}

func TestNewPerformanceKind(t *testing.T) {
	p := NewPerformance("AAPL", "yahoo", ReturnsLog, idx(2), []float64{math.NaN(), 0.05})
	assert.Equal(t, ReturnsLog, p.Kind)
}
