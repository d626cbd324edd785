// Package typology builds the five typed views over an aligned,
// filled canonical frame, grounded on original_source's
// core/normalizer.py (the NORMALIZERS dispatch table and its five
// _build_* functions). Dispatch here is a switch over the closed Kind
// enum rather than a string-keyed map, per the design note: the set of
// views is fixed and known at compile time.
package typology

import (
	"math"

	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/series"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

// Kind is the closed set of requestable views.
type Kind int

const (
	OHLCV Kind = iota
	ReturnsPct
	ReturnsLog
	VolumeActivity
	Volatility
)

// rollingWindow matches pandas' default rolling(window=N) behavior:
// a value is only produced once N observations have accumulated, and
// NaN elsewhere. Used by both the volume z-score and volatility
// builders.
const rollingWindow = 20

const tradingDaysPerYear = 252

// Options tunes the volume/volatility builders' rolling window and
// annualization factor, matching spec.md §6's facade opts `window`/
// `ann_factor`. Zero values fall back to the package defaults.
type Options struct {
	Window    int
	AnnFactor float64
}

// DefaultOptions returns the standard 20-day window and 252-trading-day
// annualization factor.
func DefaultOptions() Options {
	return Options{Window: rollingWindow, AnnFactor: tradingDaysPerYear}
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = rollingWindow
	}
	if o.AnnFactor <= 0 {
		o.AnnFactor = tradingDaysPerYear
	}
	return o
}

// Build dispatches on kind and returns the corresponding Series,
// grounded on normalizer.py's _build_ohlcv/_build_returns_pct/
// _build_returns_log/_build_volume_activity/_build_volatility.
func Build(kind Kind, symbol, source string, f *canon.Frame, opts Options) (series.Series, error) {
	if f == nil || f.Len() == 0 {
		return nil, taxonomy.New(taxonomy.KindNormalization, "empty frame, nothing to build a view from", source, symbol)
	}
	opts = opts.withDefaults()
	switch kind {
	case OHLCV:
		return buildOHLCV(symbol, source, f), nil
	case ReturnsPct:
		return buildReturns(symbol, source, f, series.ReturnsPct), nil
	case ReturnsLog:
		return buildReturns(symbol, source, f, series.ReturnsLog), nil
	case VolumeActivity:
		return buildVolumeActivity(symbol, source, f, opts.Window), nil
	case Volatility:
		return buildVolatility(symbol, source, f, opts.Window, opts.AnnFactor), nil
	default:
		return nil, taxonomy.New(taxonomy.KindNormalization, "unknown typology kind", source, symbol)
	}
}

func buildOHLCV(symbol, source string, f *canon.Frame) *series.Price {
	return series.NewPrice(symbol, source, f.Index, f.Open, f.High, f.Low, f.Close, f.AdjClose, f.Volume)
}

// logReturns computes log(close[t]/close[t-1]), with index 0 NaN,
// matching np.log(prices/prices.shift(1)).
func logReturns(close []float64) []float64 {
	out := make([]float64, len(close))
	out[0] = math.NaN()
	for i := 1; i < len(close); i++ {
		out[i] = math.Log(close[i] / close[i-1])
	}
	return out
}

// pctReturns computes (close[t]-close[t-1])/close[t-1], with index 0
// NaN, matching pandas' Series.pct_change().
func pctReturns(close []float64) []float64 {
	out := make([]float64, len(close))
	out[0] = math.NaN()
	for i := 1; i < len(close); i++ {
		out[i] = (close[i] - close[i-1]) / close[i-1]
	}
	return out
}

// buildReturns drops the leading NaN row produced by logReturns/
// pctReturns, matching normalizer.py's .dropna() on both return
// series: a single-price input yields an empty series, not a
// one-element NaN series.
func buildReturns(symbol, source string, f *canon.Frame, kind series.PerformanceKind) *series.Performance {
	var data []float64
	if kind == series.ReturnsLog {
		data = logReturns(f.Close)
	} else {
		data = pctReturns(f.Close)
	}
	if len(data) == 0 {
		return series.NewPerformance(symbol, source, kind, nil, nil)
	}
	return series.NewPerformance(symbol, source, kind, f.Index[1:], data[1:])
}

// buildVolumeActivity computes a rolling z-score of volume against
// its own trailing window mean/std, flagging unusually heavy or light
// trading.
func buildVolumeActivity(symbol, source string, f *canon.Frame, window int) *series.VolumeActivity {
	mean := rollingMean(f.Volume, window)
	std := rollingStd(f.Volume, window)
	out := make([]float64, len(f.Volume))
	for i := range out {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (f.Volume[i] - mean[i]) / std[i]
	}
	return series.NewVolumeActivity(symbol, source, f.Index, out)
}

// buildVolatility annualizes the rolling std of log returns over
// window, matching rolling(window).std(ddof=1) * sqrt(ann_factor).
func buildVolatility(symbol, source string, f *canon.Frame, window int, annFactor float64) *series.Volatility {
	logRet := logReturns(f.Close)
	std := rollingStd(logRet, window)
	out := make([]float64, len(std))
	for i, v := range std {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v * math.Sqrt(annFactor)
	}
	return series.NewVolatility(symbol, source, f.Index, out)
}

// rollingMean produces NaN for the first window-1 positions, then the
// trailing-window sample mean, skipping NaN inputs from the window's
// count and sum (pandas propagates NaN only if the whole window is
// NaN; our inputs are already fully filled by the time typology runs,
// so this degrades gracefully rather than matching pandas bit-for-bit
// on partially-NaN windows).
func rollingMean(data []float64, window int) []float64 {
	out := make([]float64, len(data))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		n := 0
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(data[j]) {
				continue
			}
			sum += data[j]
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// rollingStd is the sample (ddof=1) standard deviation over the same
// trailing window as rollingMean. Unlike rollingMean it yields NaN
// unless every value in the window is present, so a leading NaN (the
// first log return) pushes the first value out to index window.
func rollingStd(data []float64, window int) []float64 {
	out := make([]float64, len(data))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		var vals []float64
		for j := i - window + 1; j <= i; j++ {
			if !math.IsNaN(data[j]) {
				vals = append(vals, data[j])
			}
		}
		if len(vals) < window || len(vals) < 2 {
			out[i] = math.NaN()
			continue
		}
		mean := 0.0
		for _, v := range vals {
			mean += v
		}
		mean /= float64(len(vals))
		sq := 0.0
		for _, v := range vals {
			d := v - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(len(vals)-1))
	}
	return out
}
