package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry agrupa los contadores del pipeline de liquidación. Todos los
// métodos toleran receiver nil para que los componentes no tengan que
// chequear si las métricas están habilitadas.
type Registry struct {
	betsPlaced      prometheus.Counter
	betsRejected    prometheus.Counter
	eventsResolved  prometheus.Counter
	payoutsCredited prometheus.Counter
	oracleFallbacks prometheus.Counter
	bridgeFailures  prometheus.Counter
}

// NewRegistry crea y registra los contadores en el registerer por defecto.
func NewRegistry() *Registry {
	r := &Registry{
		betsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_bets_placed_total",
			Help: "Bets accepted and persisted.",
		}),
		betsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_bets_rejected_total",
			Help: "Bet requests rejected at validation.",
		}),
		eventsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_events_resolved_total",
			Help: "Events transitioned to resolved.",
		}),
		payoutsCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_payouts_credited_total",
			Help: "Winning bets credited during fan-out.",
		}),
		oracleFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_oracle_fallbacks_total",
			Help: "Resolutions that degraded to the oracle fallback.",
		}),
		bridgeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_bridge_failures_total",
			Help: "Failed ledger bridge submissions.",
		}),
	}
	prometheus.MustRegister(
		r.betsPlaced, r.betsRejected, r.eventsResolved,
		r.payoutsCredited, r.oracleFallbacks, r.bridgeFailures,
	)
	return r
}

func (r *Registry) BetPlaced() {
	if r != nil {
		r.betsPlaced.Inc()
	}
}

func (r *Registry) BetRejected() {
	if r != nil {
		r.betsRejected.Inc()
	}
}

func (r *Registry) EventResolved() {
	if r != nil {
		r.eventsResolved.Inc()
	}
}

func (r *Registry) PayoutCredited() {
	if r != nil {
		r.payoutsCredited.Inc()
	}
}

func (r *Registry) OracleFallback() {
	if r != nil {
		r.oracleFallbacks.Inc()
	}
}

func (r *Registry) BridgeFailure() {
	if r != nil {
		r.bridgeFailures.Inc()
	}
}

// HealthFunc es el chequeo ejecutado por /healthz.
type HealthFunc func(ctx context.Context) error

// StartServer sube un servidor HTTP ligero solo para /metrics y /healthz,
// en una goroutine propia.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
