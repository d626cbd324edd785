// Package facade is the single entry point for the end-to-end
// extraction pipeline: resolve an adapter from the registry, fetch
// every symbol in parallel, align and fill the results, then build
// the requested typology view for each symbol. Grounded on
// original_source's extractor.py (get_market_data) and
// core/base/base_provider.py for the per-call correlation ID and
// structured logging around the whole pipeline.
package facade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/marketsim/internal/align"
	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/config"
	"github.com/sawpanic/marketsim/internal/fetch"
	"github.com/sawpanic/marketsim/internal/providers"
	"github.com/sawpanic/marketsim/internal/registry"
	"github.com/sawpanic/marketsim/internal/series"
	"github.com/sawpanic/marketsim/internal/typology"
)

// Request describes one call to GetMarketData. Align/FFill/BFill/Window/
// AnnFactor are per-call overrides of cfg's defaults, matching spec.md
// §6's facade opts `{align, ffill, bfill, window?, ann_factor?}`; a nil
// pointer (or zero Window/AnnFactor) means "use the config default."
type Request struct {
	Symbols []string
	Start   *time.Time
	End     *time.Time
	View    typology.Kind

	Align     *config.Align
	FFill     *bool
	BFill     *bool
	Window    int
	AnnFactor float64
}

// Result bundles the typed views keyed by symbol alongside any
// per-symbol fetch failures that did not abort the whole request.
type Result struct {
	Views  map[string]series.Series
	Errors map[string]error
}

// GetMarketData runs the full pipeline for one request under cfg,
// tagging every log line with a correlation ID the way
// base_provider.py tags its own structured logs with a request id.
func GetMarketData(ctx context.Context, cfg config.Config, req Request) (*Result, error) {
	adapter, err := registry.Get(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve adapter")
		return nil, err
	}
	return runPipeline(ctx, cfg, adapter, req)
}

// runPipeline executes the fetch/align/fill/typology pipeline against
// an already-resolved adapter, split out from GetMarketData so tests
// can exercise it against a fake adapter instead of a live registry
// entry.
func runPipeline(ctx context.Context, cfg config.Config, adapter providers.Adapter, req Request) (*Result, error) {
	correlationID := uuid.NewString()
	logger := log.With().Str("correlation_id", correlationID).Str("source", string(cfg.Source)).Logger()

	logger.Info().Strs("symbols", req.Symbols).Msg("starting fetch")
	frames, fetchErrs, err := fetch.Many(ctx, adapter, req.Symbols, req.Start, req.End, cfg.Interval, cfg.MaxWorkers)
	if err != nil {
		logger.Error().Err(err).Msg("fetch failed for all symbols")
		return nil, err
	}

	alignMode := cfg.Align
	if req.Align != nil {
		alignMode = *req.Align
	}
	ffill := cfg.FFill
	if req.FFill != nil {
		ffill = *req.FFill
	}
	bfill := cfg.BFill
	if req.BFill != nil {
		bfill = *req.BFill
	}

	strategy := align.Intersect
	if alignMode == config.AlignUnion {
		strategy = align.Union
	}
	aligned := align.Frames(frames, strategy)
	filled := make(map[string]*canon.Frame, len(aligned))
	for sym, f := range aligned {
		filled[sym] = align.Fill(f, ffill, bfill)
	}

	opts := typology.Options{Window: req.Window, AnnFactor: req.AnnFactor}
	views := make(map[string]series.Series, len(filled))
	for sym, f := range filled {
		v, err := typology.Build(req.View, sym, string(cfg.Source), f, opts)
		if err != nil {
			logger.Warn().Str("symbol", sym).Err(err).Msg("failed to build typology view")
			fetchErrs[sym] = err
			continue
		}
		views[sym] = v
	}

	logger.Info().Int("succeeded", len(views)).Int("failed", len(fetchErrs)).Msg("fetch complete")
	return &Result{Views: views, Errors: fetchErrs}, nil
}
