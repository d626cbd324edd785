// Package httpserver exposes read-only /healthz and /metrics endpoints
// over a dedicated gorilla/mux router, with request-ID middleware and
// structured request logging.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/marketsim/internal/resilience"
)

type requestIDKey struct{}

// Metrics bundles the Prometheus collectors this server exposes.
type Metrics struct {
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
}

// NewMetrics registers a fresh set of collectors against a new
// registry; pass that registry to New, which serves it at /metrics.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketsim_fetch_duration_seconds",
			Help:    "Duration of a GetMarketData call, by source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsim_fetch_errors_total",
			Help: "Count of per-symbol fetch failures, by source.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.FetchDuration, m.FetchErrors)
	return m, reg
}

// Server is the read-only monitoring HTTP surface: health and guard
// status for every configured provider, plus Prometheus metrics.
type Server struct {
	router *mux.Router
	server *http.Server
	guards map[string]*resilience.Guard
}

// New builds a Server bound to addr, with health checks over the
// given named guards and metrics served from reg.
func New(addr string, guards map[string]*resilience.Guard, reg *prometheus.Registry) *Server {
	router := mux.NewRouter()
	s := &Server{router: router, guards: guards}

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)

	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	healthy := true
	fmt.Fprint(w, "{")
	first := true
	for name, g := range s.guards {
		if !first {
			fmt.Fprint(w, ",")
		}
		first = false
		fmt.Fprintf(w, `"%s":%t`, name, g.Healthy())
		healthy = healthy && g.Healthy()
	}
	fmt.Fprint(w, "}")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Interface("request_id", r.Context().Value(requestIDKey{})).
			Msg("http request")
	})
}
