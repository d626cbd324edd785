package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/marketsim/internal/config"
	"github.com/sawpanic/marketsim/internal/facade"
	"github.com/sawpanic/marketsim/internal/series"
	"github.com/sawpanic/marketsim/internal/typology"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and normalize OHLCV history for one or more symbols",
		RunE:  runFetch,
	}
	cmd.Flags().String("source", "yahoo", "Data source: yahoo|binance|tiingo")
	cmd.Flags().String("symbols", "", "Comma-separated symbol list (required)")
	cmd.Flags().String("interval", "1d", "Sampling interval")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().String("view", "ohlcv", "Typology view: ohlcv|returns_pct|returns_log|volume_activity|volatility")
	cmd.Flags().String("align", "intersect", "Multi-symbol alignment: union|intersect")
	cmd.Flags().String("api-key", "", "API key, required for tiingo")
	cmd.MarkFlagRequired("symbols")
	return cmd
}

var viewKinds = map[string]typology.Kind{
	"ohlcv":           typology.OHLCV,
	"returns_pct":     typology.ReturnsPct,
	"returns_log":     typology.ReturnsLog,
	"volume_activity": typology.VolumeActivity,
	"volatility":      typology.Volatility,
}

func runFetch(cmd *cobra.Command, args []string) error {
	sourceFlag, _ := cmd.Flags().GetString("source")
	symbolsFlag, _ := cmd.Flags().GetString("symbols")
	interval, _ := cmd.Flags().GetString("interval")
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")
	viewFlag, _ := cmd.Flags().GetString("view")
	alignFlag, _ := cmd.Flags().GetString("align")
	apiKey, _ := cmd.Flags().GetString("api-key")

	view, ok := viewKinds[viewFlag]
	if !ok {
		return fmt.Errorf("unknown view: %s", viewFlag)
	}

	cfg := config.Default()
	cfg.Source = config.Source(sourceFlag)
	cfg.Interval = interval
	cfg.APIKey = apiKey
	if alignFlag == "union" {
		cfg.Align = config.AlignUnion
	} else {
		cfg.Align = config.AlignIntersect
	}

	start, err := parseOptionalDate(startFlag)
	if err != nil {
		return err
	}
	end, err := parseOptionalDate(endFlag)
	if err != nil {
		return err
	}

	symbols := strings.Split(symbolsFlag, ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	result, err := facade.GetMarketData(ctx, cfg, facade.Request{Symbols: symbols, Start: start, End: end, View: view})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(result))
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}

// toJSON flattens the typed series results into a plain map so the
// CLI's JSON output doesn't leak internal struct field names; each
// view kind is rendered by type-switching on the closed Series set.
func toJSON(result *facade.Result) map[string]any {
	out := map[string]any{}
	views := map[string]any{}
	for sym, v := range result.Views {
		views[sym] = renderSeries(v)
	}
	out["views"] = views
	if len(result.Errors) > 0 {
		errs := map[string]string{}
		for sym, err := range result.Errors {
			errs[sym] = err.Error()
		}
		out["errors"] = errs
	}
	return out
}

func renderSeries(s series.Series) any {
	switch v := s.(type) {
	case *series.Price:
		return map[string]any{
			"index": v.Index(), "open": v.Open, "high": v.High, "low": v.Low,
			"close": v.Close, "adj_close": v.AdjClose, "volume": v.Volume,
			"mean_close": v.Mean(), "std_close": v.Std(),
		}
	case *series.Performance:
		return map[string]any{"index": v.Index(), "kind": v.Kind, "data": v.Data, "mean": v.Mean(), "std": v.Std()}
	case *series.VolumeActivity:
		return map[string]any{"index": v.Index(), "data": v.Data, "mean": v.Mean(), "std": v.Std()}
	case *series.Volatility:
		return map[string]any{"index": v.Index(), "data": v.Data, "mean": v.Mean()}
	default:
		return nil
	}
}
