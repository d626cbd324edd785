// Package montecarlo implements GBM (geometric Brownian motion) price
// path simulation with the Itô correction, grounded on
// original_source's src/simulation/monte_carlo.py. Randomness is
// seeded explicitly per call via math/rand/v2's PCG source rather
// than the package-global generator, so concurrent simulations with
// different seeds never share state and a given seed always
// reproduces the same trajectories.
package montecarlo

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/sawpanic/marketsim/internal/taxonomy"
)

const tradingDaysPerYear = 252

// Trajectories holds n_sims rows of horizon+1 columns; column 0 is
// the initial value on every row, matching simulate_portfolio's
// returned array shape.
type Trajectories [][]float64

// Params configures a single simulation run.
type Params struct {
	InitialValue float64
	// DailyDrift is mu, the estimated daily log-drift (portfolio_return
	// in portfolio.go terms), taken as-is with no rescaling, matching
	// simulate_portfolio's drift = mu - sigma_daily^2/2 formula.
	DailyDrift float64
	// AnnualizedVolatility is sigma_annual; the engine de-annualizes it
	// internally (sigma_daily = sigma_annual / sqrt(252)).
	AnnualizedVolatility float64
	Horizon              int
	NumSimulations       int
	Seed                 uint64
	// DynamicVolatility multiplies the daily vol by a uniform
	// [0.8, 1.2] factor drawn fresh for every step of every
	// simulation, matching simulate_portfolio's dynamic_volatility flag.
	DynamicVolatility bool
}

func (p Params) validate() error {
	if p.NumSimulations <= 0 {
		return taxonomy.New(taxonomy.KindExtraction, "num_simulations must be positive", "montecarlo", "")
	}
	if p.Horizon <= 0 {
		return taxonomy.New(taxonomy.KindExtraction, "horizon must be positive", "montecarlo", "")
	}
	if p.InitialValue <= 0 {
		return taxonomy.New(taxonomy.KindExtraction, "initial_value must be positive", "montecarlo", "")
	}
	return nil
}

// SimulatePortfolio runs GBM simulation against a portfolio's daily
// drift and annualized volatility, matching simulate_portfolio().
func SimulatePortfolio(p Params) (Trajectories, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed))
	logReturns := simulateLogReturns(rng, p)
	return buildTrajectories(p.InitialValue, logReturns), nil
}

// SimulateAsset runs GBM simulation for a single asset. It shares
// simulateLogReturns with SimulatePortfolio so that an annualized
// volatility is de-annualized exactly once; original_source's
// simulate_asset forwarded an already-daily volatility into the
// portfolio routine, which divided by sqrt(252) a second time,
// silently shrinking the effective vol by a further factor of about
// 15.9. That double-deflation is a
// source bug, not a contract, and is not reproduced here: callers
// pass AnnualizedVolatility exactly as they would to SimulatePortfolio.
func SimulateAsset(p Params) (Trajectories, error) {
	return SimulatePortfolio(p)
}

// simulateLogReturns draws a horizon x n_sims matrix (stored as
// n_sims rows of horizon columns) of Itô-corrected daily log returns:
// (mu - sigma_daily^2/2) + sigma_daily * Z, where Z ~ N(0,1), mu is
// DailyDrift taken as-is, and sigma_daily is AnnualizedVolatility
// divided down by sqrt(252).
func simulateLogReturns(rng *rand.Rand, p Params) [][]float64 {
	muDaily := p.DailyDrift
	sigmaDaily := p.AnnualizedVolatility / math.Sqrt(tradingDaysPerYear)

	out := make([][]float64, p.NumSimulations)
	for s := 0; s < p.NumSimulations; s++ {
		row := make([]float64, p.Horizon)
		for t := 0; t < p.Horizon; t++ {
			sigma := sigmaDaily
			if p.DynamicVolatility {
				sigma *= 0.8 + rng.Float64()*0.4
			}
			z := standardNormal(rng)
			row[t] = (muDaily - sigma*sigma/2) + sigma*z
		}
		out[s] = row
	}
	return out
}

// standardNormal draws one N(0,1) sample via the Box-Muller
// transform, matching numpy.random.Generator.standard_normal's
// output distribution (not its exact bit sequence, which is
// implementation-specific to numpy's underlying BitGenerator anyway).
func standardNormal(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// buildTrajectories turns per-step log returns into price paths via
// cumulative sum then exp, with column 0 fixed at initialValue,
// matching initial_value * np.exp(np.cumsum(log_returns, axis=1))
// prefixed with a column of ones.
func buildTrajectories(initialValue float64, logReturns [][]float64) Trajectories {
	n := len(logReturns)
	horizon := 0
	if n > 0 {
		horizon = len(logReturns[0])
	}
	out := make(Trajectories, n)
	for s := 0; s < n; s++ {
		row := make([]float64, horizon+1)
		row[0] = initialValue
		cum := 0.0
		for t := 0; t < horizon; t++ {
			cum += logReturns[s][t]
			row[t+1] = initialValue * math.Exp(cum)
		}
		out[s] = row
	}
	return out
}

// Percentiles holds the cross-sectional 5/25/50/75/95th percentile
// trajectories, one slice per percentile, matching calculate_percentiles().
type Percentiles struct {
	P5, P25, P50, P75, P95 []float64
}

// CalculatePercentiles computes, for every time step (column),
// the 5/25/50/75/95th percentile across all simulations.
func CalculatePercentiles(tr Trajectories) Percentiles {
	if len(tr) == 0 {
		return Percentiles{}
	}
	steps := len(tr[0])
	out := Percentiles{
		P5: make([]float64, steps), P25: make([]float64, steps),
		P50: make([]float64, steps), P75: make([]float64, steps),
		P95: make([]float64, steps),
	}
	col := make([]float64, len(tr))
	for t := 0; t < steps; t++ {
		for s := range tr {
			col[s] = tr[s][t]
		}
		out.P5[t] = percentile(col, 5)
		out.P25[t] = percentile(col, 25)
		out.P50[t] = percentile(col, 50)
		out.P75[t] = percentile(col, 75)
		out.P95[t] = percentile(col, 95)
	}
	return out
}

// FinalStatistics summarizes the distribution of ending values,
// matching get_final_statistics().
type FinalStatistics struct {
	Mean, Median, Std, Min, Max, P5, P95 float64
}

func GetFinalStatistics(tr Trajectories) FinalStatistics {
	if len(tr) == 0 {
		return FinalStatistics{}
	}
	finals := make([]float64, len(tr))
	for i, row := range tr {
		finals[i] = row[len(row)-1]
	}
	mean, std := meanStd(finals)
	return FinalStatistics{
		Mean:   mean,
		Median: percentile(finals, 50),
		Std:    std,
		Min:    minOf(finals),
		Max:    maxOf(finals),
		P5:     percentile(finals, 5),
		P95:    percentile(finals, 95),
	}
}

func meanStd(data []float64) (float64, float64) {
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))
	if len(data) < 2 {
		return mean, 0
	}
	sq := 0.0
	for _, v := range data {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(data)-1))
}

func minOf(data []float64) float64 {
	m := data[0]
	for _, v := range data[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(data []float64) float64 {
	m := data[0]
	for _, v := range data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// percentile uses linear interpolation between closest ranks,
// matching numpy.percentile's default ('linear') method.
func percentile(data []float64, pct float64) float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := (pct / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
