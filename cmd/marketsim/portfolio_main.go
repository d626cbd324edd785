package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sawpanic/marketsim/internal/config"
	"github.com/sawpanic/marketsim/internal/facade"
	"github.com/sawpanic/marketsim/internal/montecarlo"
	"github.com/sawpanic/marketsim/internal/portfolio"
	"github.com/sawpanic/marketsim/internal/series"
	"github.com/sawpanic/marketsim/internal/typology"
)

func newPortfolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio statistics and simulation",
	}
	cmd.AddCommand(newPortfolioSimulateCmd())
	return cmd
}

func newPortfolioSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fetch prices, compute portfolio statistics, and run a Monte Carlo simulation",
		RunE:  runPortfolioSimulate,
	}
	cmd.Flags().String("source", "yahoo", "Data source: yahoo|binance|tiingo")
	cmd.Flags().String("symbols", "", "Comma-separated symbol list (required)")
	cmd.Flags().String("weights", "", "Comma-separated weights, same order as --symbols (defaults to equal weight)")
	cmd.Flags().Float64("risk-free-rate", 0.02, "Annualized risk-free rate")
	cmd.Flags().Int("sims", 1000, "Number of Monte Carlo simulations")
	cmd.Flags().Int("horizon", 252, "Simulation horizon, in trading days")
	cmd.Flags().Uint64("seed", 42, "Deterministic PRNG seed")
	cmd.Flags().Bool("dynamic-vol", false, "Apply a random [0.8, 1.2] volatility multiplier per step")
	cmd.Flags().Float64("initial-value", 100, "Initial simulated portfolio value")
	cmd.MarkFlagRequired("symbols")
	return cmd
}

func runPortfolioSimulate(cmd *cobra.Command, args []string) error {
	sourceFlag, _ := cmd.Flags().GetString("source")
	symbolsFlag, _ := cmd.Flags().GetString("symbols")
	weightsFlag, _ := cmd.Flags().GetString("weights")
	riskFreeRate, _ := cmd.Flags().GetFloat64("risk-free-rate")
	sims, _ := cmd.Flags().GetInt("sims")
	horizon, _ := cmd.Flags().GetInt("horizon")
	seed, _ := cmd.Flags().GetUint64("seed")
	dynamicVol, _ := cmd.Flags().GetBool("dynamic-vol")
	initialValue, _ := cmd.Flags().GetFloat64("initial-value")

	symbols := strings.Split(symbolsFlag, ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}

	weights, err := parseWeights(weightsFlag, len(symbols))
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Source = config.Source(sourceFlag)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	result, err := facade.GetMarketData(ctx, cfg, facade.Request{Symbols: symbols, View: typology.OHLCV})
	if err != nil {
		return err
	}

	prices := make([][]float64, len(symbols))
	for i, sym := range symbols {
		v, ok := result.Views[sym]
		if !ok {
			return fmt.Errorf("no price data for %s: %v", sym, result.Errors[sym])
		}
		prices[i] = v.(*series.Price).Close
	}

	port, err := portfolio.New("cli-portfolio", symbols, weights)
	if err != nil {
		return err
	}
	if err := port.SetPrices(prices); err != nil {
		return err
	}
	stats := port.GetStatistics(riskFreeRate)

	trajectories, err := montecarlo.SimulatePortfolio(montecarlo.Params{
		InitialValue:         initialValue,
		DailyDrift:           port.Return(),
		AnnualizedVolatility: stats.Volatility,
		Horizon:              horizon,
		NumSimulations:       sims,
		Seed:                 seed,
		DynamicVolatility:    dynamicVol,
	})
	if err != nil {
		return err
	}
	finalStats := montecarlo.GetFinalStatistics(trajectories)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"statistics":       stats,
		"final_statistics": finalStats,
	})
}

func parseWeights(flag string, n int) ([]float64, error) {
	if flag == "" {
		equal := 1.0 / float64(n)
		out := make([]float64, n)
		for i := range out {
			out[i] = equal
		}
		return out, nil
	}
	parts := strings.Split(flag, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d weights, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
