// Package resilience wires the per-request circuit breaker
// (internal/circuit) and per-host rate limiter (internal/ratelimit)
// around a provider adapter's HTTP round trip, plus a coarser
// gobreaker-backed fleet breaker at the registry layer for overall
// provider health.
package resilience

import (
	"context"
	"net/http"
	"net/url"
	"time"

	cb "github.com/sony/gobreaker"

	"github.com/sawpanic/marketsim/internal/circuit"
	"github.com/sawpanic/marketsim/internal/ratelimit"
	"github.com/sawpanic/marketsim/internal/taxonomy"
)

// Guard protects a single provider's outbound HTTP calls: a fine-grained
// breaker tracks consecutive failures/timeouts, a rate limiter throttles
// by host, and a gobreaker instance tracks fleet-wide provider health.
type Guard struct {
	Source  string
	breaker *circuit.Breaker
	limiter *ratelimit.Limiter
	fleet   *cb.CircuitBreaker[*http.Response]
}

// NewGuard builds a Guard for the given provider name. window controls
// both the fine-grained breaker's open-state cooldown and the gobreaker
// rolling interval.
func NewGuard(source string, ratePerSec float64, rateBurst int, window time.Duration) *Guard {
	breaker := circuit.NewBreaker(circuit.Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          window,
		RequestTimeout:   30 * time.Second,
	})

	fleet := cb.NewCircuitBreaker[*http.Response](cb.Settings{
		Name:     source,
		Interval: window,
		Timeout:  window,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures >= 3 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.2)
		},
	})

	return &Guard{
		Source:  source,
		breaker: breaker,
		limiter: ratelimit.NewLimiter(ratePerSec, rateBurst),
		fleet:   fleet,
	}
}

// Do runs fn — a single HTTP round trip — behind the rate limiter and
// both breakers. A breaker trip surfaces as a TemporaryNetworkError, not
// a new taxonomy member: resilience state is ambient, not contractual.
func (g *Guard) Do(ctx context.Context, endpoint string, fn func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	host := hostOf(endpoint)
	if err := g.limiter.Wait(ctx, host); err != nil {
		return nil, taxonomy.New(taxonomy.KindTemporaryNetwork, "rate limiter wait cancelled: "+err.Error(), g.Source, "")
	}

	var resp *http.Response
	breakerErr := g.breaker.Call(ctx, func(ctx context.Context) error {
		out, err := g.fleet.Execute(func() (*http.Response, error) {
			return fn(ctx)
		})
		if err != nil {
			return err
		}
		resp = out
		return nil
	})

	if breakerErr != nil {
		if breakerErr == circuit.ErrCircuitOpen || breakerErr == circuit.ErrRequestTimeout || breakerErr == cb.ErrOpenState {
			return nil, taxonomy.New(taxonomy.KindTemporaryNetwork, "circuit breaker open for "+g.Source, g.Source, "")
		}
		return nil, breakerErr
	}
	return resp, nil
}

// Healthy reports whether the fine-grained breaker currently considers
// this provider healthy.
func (g *Guard) Healthy() bool {
	stats := g.breaker.Stats()
	return stats.IsHealthy()
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}
