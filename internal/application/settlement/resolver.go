package settlement

// resolver.go — consumidor único de la cola de resolución diferida.
//
// La colocación de apuestas es concurrente; la resolución no: un único
// worker drena la cola y el lock por evento serializa resolve + fan-out, de
// modo que dos triggers concurrentes sobre el mismo evento no pueden pagar
// dos veces. El trigger que pierde la carrera encuentra el evento ya
// resuelto y termina como no-op.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
)

// Run drena la cola de resolución hasta que el contexto se cancele. Devuelve
// nil en shutdown limpio.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("settlement: resolution worker started", "queue_size", cap(e.queue))

	for {
		select {
		case <-ctx.Done():
			slog.Info("settlement: resolution worker stopped")
			return nil
		case eventID := <-e.queue:
			e.settle(ctx, eventID)
		}
	}
}

// settle ejecuta una resolución diferida: oráculo → resolve → fan-out. Los
// fallos aquí solo se loguean — la request que disparó el trigger ya terminó,
// no queda caller al que avisar. Una apuesta puede quedar pendiente si el
// oráculo y el ledger fallan a la vez; Reconcile la recoge después.
func (e *Engine) settle(ctx context.Context, eventID string) {
	defer e.clearInflight(eventID)

	if e.cfg.ResolveDelay > 0 {
		timer := time.NewTimer(e.cfg.ResolveDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	e.resolveAndFanOut(ctx, eventID)
}

// resolveAndFanOut resuelve el evento vía oráculo y liquida sus apuestas, todo
// bajo el lock del evento. Lo comparten el worker (settle) y el sweep de
// Reconcile. Devuelve cuántas apuestas liquidó.
func (e *Engine) resolveAndFanOut(ctx context.Context, eventID string) int {
	unlock := e.eventLocks.Lock(eventID)
	defer unlock()

	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		slog.Error("settlement: settle fetch event", "event_id", eventID, "err", err)
		return 0
	}

	// Guard de idempotencia: otro trigger llegó antes. El fan-out sobre un
	// evento ya resuelto solo toca apuestas que siguieran pendientes.
	if event.Resolved {
		return e.fanOut(ctx, event)
	}

	resolution := e.oracle.Resolve(ctx, event.Title, event.Description)
	if resolution.Degraded {
		e.metrics.OracleFallback()
	}
	slog.Info("settlement: oracle resolution",
		"event_id", eventID,
		"answer", resolution.Answer,
		"confidence", resolution.Confidence,
		"degraded", resolution.Degraded,
	)

	resolved, err := e.store.ResolveEvent(ctx, eventID, resolution.Answer)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyResolved) {
			// Carrera perdida contra AdminResolve u otro worker; converger.
			if event, err := e.store.GetEvent(ctx, eventID); err == nil {
				return e.fanOut(ctx, event)
			}
			return 0
		}
		slog.Error("settlement: resolve event", "event_id", eventID, "err", err)
		return 0
	}
	e.metrics.EventResolved()

	e.mirrorResolution(ctx, eventID, resolution.Answer, resolution.Confidence)
	return e.fanOut(ctx, resolved)
}
