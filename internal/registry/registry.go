// Package registry maps configured source names to adapter
// constructors, grounded on original_source's core/registry.py. Unlike
// the Python registry, this one never registers or unregisters an
// adapter at runtime: the three supported sources (yahoo, binance,
// tiingo — Stooq is explicitly out of scope) are wired once in init()
// and the map is treated as immutable afterward.
package registry

import (
	"time"

	"github.com/sawpanic/marketsim/internal/config"
	"github.com/sawpanic/marketsim/internal/providers"
	"github.com/sawpanic/marketsim/internal/providers/binance"
	"github.com/sawpanic/marketsim/internal/providers/tiingo"
	"github.com/sawpanic/marketsim/internal/providers/yahoo"
	"github.com/sawpanic/marketsim/internal/resilience"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

type constructor func(cfg config.Config) providers.Adapter

var constructors map[config.Source]constructor

func init() {
	constructors = map[config.Source]constructor{
		config.SourceYahoo: func(cfg config.Config) providers.Adapter {
			guard := resilience.NewGuard(string(config.SourceYahoo), cfg.RatePerSec, cfg.RateBurst, guardWindow(cfg))
			return yahoo.New(guard)
		},
		config.SourceBinance: func(cfg config.Config) providers.Adapter {
			guard := resilience.NewGuard(string(config.SourceBinance), cfg.RatePerSec, cfg.RateBurst, guardWindow(cfg))
			return binance.New(guard)
		},
		config.SourceTiingo: func(cfg config.Config) providers.Adapter {
			guard := resilience.NewGuard(string(config.SourceTiingo), cfg.RatePerSec, cfg.RateBurst, guardWindow(cfg))
			return tiingo.New(cfg.APIKey, guard)
		},
	}
}

func guardWindow(cfg config.Config) time.Duration {
	if cfg.BreakerWindow <= 0 {
		return 60 * time.Second
	}
	return cfg.BreakerWindow
}

// Get constructs the adapter for cfg.Source. It returns a
// BadRequestError-kind taxonomy error for any source not in the
// fixed set, matching registry.py's KeyError-on-unknown-source
// behavior.
func Get(cfg config.Config) (providers.Adapter, error) {
	ctor, ok := constructors[cfg.Source]
	if !ok {
		return nil, taxonomy.New(taxonomy.KindBadRequest, "unknown data source: "+string(cfg.Source), "registry", "")
	}
	return ctor(cfg), nil
}

// Sources lists the fixed set of supported source names.
func Sources() []config.Source {
	return []config.Source{config.SourceYahoo, config.SourceBinance, config.SourceTiingo}
}
