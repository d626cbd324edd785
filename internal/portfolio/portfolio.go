// Package portfolio implements weighted-portfolio return/volatility/
// Sharpe statistics, grounded on original_source's
// src/simulation/portfolio.py (the Portfolio dataclass).
package portfolio

import (
	"math"

	"github.com/sawpanic/marketsim/internal/taxonomy"
)

const tradingDaysPerYear = 252

// weightTolerance is the acceptable deviation of a weight vector's
// sum from 1.0 before it gets auto-normalized, matching
// Portfolio.__post_init__'s [0.99, 1.01] band.
const (
	weightToleranceLow  = 0.99
	weightToleranceHigh = 1.01
)

// Portfolio holds per-asset price series and derived log returns for
// a named, weighted basket of symbols.
type Portfolio struct {
	Name    string
	Symbols []string
	Weights []float64

	// Prices[i] is the Close series for Symbols[i], all aligned to
	// the same length and index by the caller (see internal/align).
	Prices [][]float64

	// Returns[i] is the daily log return series for Symbols[i],
	// one element shorter than Prices[i] (the leading NaN row is
	// dropped, not retained as NaN).
	Returns [][]float64
}

// New validates symbols/weights have matching lengths and normalizes
// weights when their sum falls outside [0.99, 1.01].
func New(name string, symbols []string, weights []float64) (*Portfolio, error) {
	if len(symbols) == 0 {
		return nil, taxonomy.New(taxonomy.KindExtraction, "portfolio requires at least one symbol", "portfolio", "")
	}
	if len(symbols) != len(weights) {
		return nil, taxonomy.New(taxonomy.KindExtraction, "symbols and weights must have the same length", "portfolio", "")
	}
	p := &Portfolio{Name: name, Symbols: symbols, Weights: append([]float64(nil), weights...)}
	p.normalizeWeights()
	return p, nil
}

// normalizeWeights renormalizes the weight vector to sum to 1 unless
// it is already within [0.99, 1.01], mirroring __post_init__'s check
// (the vector is adjusted when it is NOT already close to 1, not the
// other way around).
func (p *Portfolio) normalizeWeights() {
	total := 0.0
	for _, w := range p.Weights {
		total += w
	}
	if total >= weightToleranceLow && total <= weightToleranceHigh {
		return
	}
	if total == 0 {
		return
	}
	for i := range p.Weights {
		p.Weights[i] /= total
	}
}

// SetPrices computes log returns for every symbol's price series and
// stores both, grounded on set_prices/log(prices/prices.shift(1)).
// All price series must be the same length and pre-aligned.
func (p *Portfolio) SetPrices(prices [][]float64) error {
	if len(prices) != len(p.Symbols) {
		return taxonomy.New(taxonomy.KindExtraction, "price series count must match symbol count", "portfolio", "")
	}
	p.Prices = prices
	p.Returns = make([][]float64, len(prices))
	for i, series := range prices {
		if len(series) < 2 {
			p.Returns[i] = nil
			continue
		}
		ret := make([]float64, len(series)-1)
		for t := 1; t < len(series); t++ {
			ret[t-1] = math.Log(series[t] / series[t-1])
		}
		p.Returns[i] = ret
	}
	return nil
}

// meanReturns returns the per-asset mean daily log return.
func (p *Portfolio) meanReturns() []float64 {
	out := make([]float64, len(p.Returns))
	for i, r := range p.Returns {
		out[i] = mean(r)
	}
	return out
}

// Return computes the weighted portfolio daily return: the dot
// product of weights and per-asset mean returns, matching
// portfolio_return().
func (p *Portfolio) Return() float64 {
	means := p.meanReturns()
	total := 0.0
	for i, w := range p.Weights {
		total += w * means[i]
	}
	return total
}

// covariance is the sample (ddof=1) covariance matrix of the
// per-asset return series.
func (p *Portfolio) covariance() [][]float64 {
	n := len(p.Returns)
	means := p.meanReturns()
	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	if n == 0 {
		return cov
	}
	length := len(p.Returns[0])
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if length < 2 {
				cov[i][j] = 0
				continue
			}
			sum := 0.0
			for t := 0; t < length; t++ {
				sum += (p.Returns[i][t] - means[i]) * (p.Returns[j][t] - means[j])
			}
			cov[i][j] = sum / float64(length-1)
		}
	}
	return cov
}

// Volatility computes annualized portfolio volatility:
// sqrt(w^T * Sigma * w * 252), matching portfolio_volatility().
func (p *Portfolio) Volatility() float64 {
	cov := p.covariance()
	variance := 0.0
	for i, wi := range p.Weights {
		for j, wj := range p.Weights {
			variance += wi * wj * cov[i][j]
		}
	}
	return math.Sqrt(variance * tradingDaysPerYear)
}

// Sharpe computes the annualized Sharpe ratio against a risk-free
// rate, returning 0 when volatility is 0, matching sharpe_ratio().
func (p *Portfolio) Sharpe(riskFreeRate float64) float64 {
	vol := p.Volatility()
	if vol == 0 {
		return 0
	}
	annualizedReturn := p.Return() * tradingDaysPerYear
	return (annualizedReturn - riskFreeRate) / vol
}

// Statistics bundles return, volatility, Sharpe and asset count,
// matching get_statistics().
type Statistics struct {
	Return     float64
	Volatility float64
	Sharpe     float64
	NumAssets  int
}

func (p *Portfolio) GetStatistics(riskFreeRate float64) Statistics {
	return Statistics{
		Return:     p.Return() * tradingDaysPerYear,
		Volatility: p.Volatility(),
		Sharpe:     p.Sharpe(riskFreeRate),
		NumAssets:  len(p.Symbols),
	}
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
