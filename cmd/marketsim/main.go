package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "marketsim"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Market data acquisition and portfolio simulation",
		Version: version,
		Long: `marketsim fetches OHLCV history from yahoo, binance, and tiingo,
normalizes it into canonical frames, and runs portfolio risk/return
statistics and Monte Carlo simulations on top of it.`,
	}

	fetchCmd := newFetchCmd()
	portfolioCmd := newPortfolioCmd()
	serveCmd := newServeCmd()

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(serveCmd)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		rootCmd.SilenceUsage = true
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
