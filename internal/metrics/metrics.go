// Package metrics records action-graph runs as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pocketomega/pocket-agent/internal/core"
)

// Recorder owns the run metrics.
type Recorder struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	halts      *prometheus.CounterVec

	// dispatch start times keyed by run context
	mu      sync.Mutex
	started map[context.Context]time.Time
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocket_agent_action_dispatch_total",
				Help: "Number of action invocations",
			},
			[]string{"graph", "action"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pocket_agent_action_duration_seconds",
				Help:    "Time spent inside an action, including model calls and operator input",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"graph", "action"},
		),
		halts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocket_agent_run_halt_total",
				Help: "Number of finished runs by outcome",
			},
			[]string{"graph", "outcome"},
		),
		started: make(map[context.Context]time.Time),
	}
	for _, c := range []prometheus.Collector{r.dispatches, r.duration, r.halts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Hooks returns runner hooks labelled with graph. Durations are attributed
// per run context, so concurrent runs need distinct contexts.
func (r *Recorder) Hooks(graph string) core.Hooks {
	return core.Hooks{
		OnDispatch: func(ctx context.Context, id core.Identifier, _ any) {
			r.dispatches.WithLabelValues(graph, id.String()).Inc()
			r.mu.Lock()
			r.started[ctx] = time.Now()
			r.mu.Unlock()
		},
		OnReturn: func(ctx context.Context, id, _ core.Identifier, err error) {
			r.mu.Lock()
			t0, ok := r.started[ctx]
			delete(r.started, ctx)
			r.mu.Unlock()
			if ok {
				r.duration.WithLabelValues(graph, id.String()).Observe(time.Since(t0).Seconds())
			}
			if err != nil {
				r.halts.WithLabelValues(graph, "error").Inc()
			}
		},
		OnHalt: func(_ context.Context, outcome core.Outcome, _ core.Identifier, _ int) {
			r.halts.WithLabelValues(graph, string(outcome)).Inc()
		},
	}
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[Metrics] Serving /metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
