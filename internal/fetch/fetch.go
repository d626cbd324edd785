// Package fetch implements the bounded parallel multi-symbol fetch
// step: a worker pool over goroutines and channels, grounded on
// original_source's ThreadPoolExecutor/as_completed pattern in
// core/base/base_adapter.py, expressed here as a channel-based fan-out
// rather than errgroup.
package fetch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/marketsim/internal/canon"
	"github.com/sawpanic/marketsim/internal/providers"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

// DefaultMaxWorkers matches original_source's default
// ThreadPoolExecutor width.
const DefaultMaxWorkers = 8

type result struct {
	symbol string
	frame  *canon.Frame
	err    error
}

// Many downloads every symbol in symbols concurrently, bounded to
// maxWorkers in flight at once. It returns a partial-success map: as
// long as at least one symbol succeeds, failures are reported
// alongside the successes rather than aborting the whole call. Only
// when every symbol fails does Many return an error.
//
// The result map is built on the calling goroutine after every worker
// reports, so no lock is needed on it. If ctx is cancelled first, Many
// returns a TemporaryNetwork error and no frames.
func Many(ctx context.Context, adapter providers.Adapter, symbols []string, start, end *time.Time, interval string, maxWorkers int) (map[string]*canon.Frame, map[string]error, error) {
	symbols = dedupePreserveOrder(symbols)
	if len(symbols) == 0 {
		return nil, nil, taxonomy.New(taxonomy.KindExtraction, "at least one symbol is required", adapter.Name(), "")
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	jobs := make(chan string)
	results := make(chan result, len(symbols))

	workers := maxWorkers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for w := 0; w < workers; w++ {
		go func() {
			for symbol := range jobs {
				frame, err := adapter.DownloadSymbol(ctx, symbol, start, end, interval)
				results <- result{symbol: symbol, frame: frame, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range symbols {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	frames := make(map[string]*canon.Frame, len(symbols))
	errs := make(map[string]error)
	for i := 0; i < len(symbols); i++ {
		var r result
		select {
		case r = <-results:
		case <-ctx.Done():
			e := taxonomy.New(taxonomy.KindTemporaryNetwork, "fetch cancelled: "+ctx.Err().Error(), adapter.Name(), "")
			e.Cause = ctx.Err()
			return nil, errs, e
		}
		if r.err != nil {
			errs[r.symbol] = r.err
			log.Warn().Str("source", adapter.Name()).Str("symbol", r.symbol).Err(r.err).Msg("symbol fetch failed")
			continue
		}
		frames[r.symbol] = r.frame
	}

	if len(frames) == 0 && len(errs) > 0 {
		firstSym := symbols[0]
		return nil, errs, taxonomy.New(taxonomy.KindExtraction, "all symbols failed, e.g. "+firstSym+": "+errs[firstSym].Error(), adapter.Name(), "")
	}
	return frames, errs, nil
}

// dedupePreserveOrder strips blanks and duplicates while preserving
// first-seen order, the same normalization BaseProvider._normalize_symbols
// applies before dispatching to an adapter.
func dedupePreserveOrder(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
