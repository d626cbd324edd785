// Package series defines the four typed series variants produced by
// the typology builder: Price (OHLCV), Performance (pct/log returns),
// VolumeActivity (volume z-score), and Volatility (rolling annualized
// vol). Each carries its own cached statistics (mean and std; Volatility
// caches only its mean), computed once at construction the way
// original_source's dataclasses do in __post_init__.
package series

import (
	"math"
	"time"
)

// Series is the closed sum type every typology output implements.
// Consumers are expected to type-switch on it exhaustively, per the
// closed-dispatch redesign noted for the typology builder.
type Series interface {
	Symbol() string
	Source() string
	Index() []time.Time
}

// Price is a fully normalized OHLCV series with cached close
// statistics.
type Price struct {
	symbol, source                           string
	Index_                                   []time.Time
	Open, High, Low, Close, AdjClose, Volume []float64
	meanClose, stdClose                      float64
}

// NewPrice stores the OHLCV columns as given and computes cached close
// stats; mirrors PriceSeries.__post_init__. It does not validate its
// input: the index order, duplicates and column lengths are not checked.
func NewPrice(symbol, source string, idx []time.Time, open, high, low, close, adjClose, volume []float64) *Price {
	p := &Price{symbol: symbol, source: source, Index_: idx, Open: open, High: high, Low: low, Close: close, AdjClose: adjClose, Volume: volume}
	if len(idx) == 0 {
		p.meanClose, p.stdClose = math.NaN(), math.NaN()
		return p
	}
	p.meanClose, p.stdClose = meanStd(close)
	return p
}

func (p *Price) Symbol() string     { return p.symbol }
func (p *Price) Source() string     { return p.source }
func (p *Price) Index() []time.Time { return p.Index_ }
func (p *Price) Mean() float64      { return p.meanClose }
func (p *Price) Std() float64       { return p.stdClose }

// PerformanceKind discriminates between percent and log returns.
type PerformanceKind string

const (
	ReturnsPct PerformanceKind = "returns_pct"
	ReturnsLog PerformanceKind = "returns_log"
)

// Performance is a 1D series of returns derived from Close.
type Performance struct {
	symbol, source string
	Kind           PerformanceKind
	Index_         []time.Time
	Data           []float64
	mean, std      float64
}

func NewPerformance(symbol, source string, kind PerformanceKind, idx []time.Time, data []float64) *Performance {
	mean, std := meanStd(data)
	return &Performance{symbol: symbol, source: source, Kind: kind, Index_: idx, Data: data, mean: mean, std: std}
}

func (p *Performance) Symbol() string     { return p.symbol }
func (p *Performance) Source() string     { return p.source }
func (p *Performance) Index() []time.Time { return p.Index_ }
func (p *Performance) Mean() float64      { return p.mean }
func (p *Performance) Std() float64       { return p.std }

// VolumeActivity is a z-score series flagging anomalous trading volume.
type VolumeActivity struct {
	symbol, source string
	Index_         []time.Time
	Data           []float64
	mean, std      float64
}

func NewVolumeActivity(symbol, source string, idx []time.Time, data []float64) *VolumeActivity {
	mean, std := meanStd(data)
	return &VolumeActivity{symbol: symbol, source: source, Index_: idx, Data: data, mean: mean, std: std}
}

func (v *VolumeActivity) Symbol() string     { return v.symbol }
func (v *VolumeActivity) Source() string     { return v.source }
func (v *VolumeActivity) Index() []time.Time { return v.Index_ }
func (v *VolumeActivity) Mean() float64      { return v.mean }
func (v *VolumeActivity) Std() float64       { return v.std }

// Volatility is a rolling, annualized volatility series.
type Volatility struct {
	symbol, source string
	Index_         []time.Time
	Data           []float64
	mean           float64
}

func NewVolatility(symbol, source string, idx []time.Time, data []float64) *Volatility {
	mean, _ := meanStd(data)
	return &Volatility{symbol: symbol, source: source, Index_: idx, Data: data, mean: mean}
}

func (v *Volatility) Symbol() string     { return v.symbol }
func (v *Volatility) Source() string     { return v.source }
func (v *Volatility) Index() []time.Time { return v.Index_ }
func (v *Volatility) Mean() float64      { return v.mean }

// meanStd computes sample mean/std (ddof=1), skipping NaNs, matching
// pandas' default .mean()/.std() behavior over a column with missing
// values.
func meanStd(data []float64) (float64, float64) {
	var sum float64
	n := 0
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, math.NaN()
	}
	var sq float64
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(n-1))
}
