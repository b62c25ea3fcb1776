package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/alejandrodnm/predictor/internal/metrics"
	"github.com/alejandrodnm/predictor/internal/ports"
)

const defaultQueueSize = 256

// Config holds configuration for the settlement engine.
type Config struct {
	// QueueSize is the buffer of the deferred-resolution queue.
	QueueSize int
	// ResolveDelay is an optional grace period before calling the oracle,
	// so bets placed in quick succession on the same event settle together.
	ResolveDelay time.Duration
}

// Engine drives the per-bet state machine: acceptance, deferred resolution
// and event-level payout fan-out. It holds no persistent state of its own;
// every mutation flows through the Store, optionally mirrored to the Ledger.
type Engine struct {
	store   ports.Store
	oracle  ports.Oracle
	ledger  ports.Ledger // nil = unbridged variant, Store only
	metrics *metrics.Registry
	cfg     Config

	userLocks  *keyedMutex
	eventLocks *keyedMutex

	queue      chan string
	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// New creates a settlement engine. ledger and reg may be nil.
func New(store ports.Store, oracle ports.Oracle, ledger ports.Ledger, reg *metrics.Registry, cfg Config) *Engine {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	e := &Engine{
		store:      store,
		oracle:     oracle,
		ledger:     ledger,
		metrics:    reg,
		cfg:        cfg,
		userLocks:  newKeyedMutex(),
		eventLocks: newKeyedMutex(),
		queue:      make(chan string, cfg.QueueSize),
		inflight:   make(map[string]struct{}),
	}
	return e
}

// PlaceBet validates and accepts a bet: Requested → Accepted. On success the
// bet is persisted pending, the stake debited, and resolution enqueued. Any
// violation fails fast with a typed error and no mutation. The per-user lock
// covers the whole read-debit-write so concurrent bets from one user cannot
// interleave; in the bridged variant the ledger mirror runs inside that lock
// so a bridge rejection leaves no local mutation behind.
func (e *Engine) PlaceBet(ctx context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Bet, error) {
	if !prediction.Valid() {
		e.metrics.BetRejected()
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: prediction %q: %w", prediction, domain.ErrValidation)
	}
	if amount < 1 {
		e.metrics.BetRejected()
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: amount %d: %w", amount, domain.ErrValidation)
	}

	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		e.metrics.BetRejected()
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: %w", err)
	}
	if !event.OpenForBetting(time.Now()) {
		e.metrics.BetRejected()
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: event %q not open for betting: %w", eventID, domain.ErrValidation)
	}

	unlock := e.userLocks.Lock(userID)
	defer unlock()

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		e.metrics.BetRejected()
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: %w", err)
	}
	if !user.CanStake(amount) {
		e.metrics.BetRejected()
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: balance %d < stake %d: %w",
			user.Balance, amount, domain.ErrInsufficientBalance)
	}

	// Espejo al ledger antes de mutar localmente: si el bridge rechaza, el
	// caller recibe la señal retryable y aquí no queda nada que compensar.
	if e.ledger != nil {
		if _, err := e.ledger.PlaceBet(ctx, userID, eventID, prediction, amount); err != nil {
			e.metrics.BridgeFailure()
			return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: ledger mirror: %w", err)
		}
	}

	bet, err := e.store.CreateBet(ctx, userID, eventID, prediction, amount)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: %w", err)
	}
	if _, err := e.store.UpdateUserBalance(ctx, userID, user.Balance-amount); err != nil {
		return domain.Bet{}, fmt.Errorf("settlement.PlaceBet: debit stake: %w", err)
	}

	e.metrics.BetPlaced()
	slog.Info("settlement: bet accepted",
		"bet_id", bet.ID,
		"user_id", userID,
		"event_id", eventID,
		"prediction", prediction,
		"amount", amount,
	)

	e.enqueue(eventID)
	return bet, nil
}

// enqueue schedules deferred resolution for the event, deduplicating
// in-flight jobs so concurrent bets on one event produce one resolution.
func (e *Engine) enqueue(eventID string) {
	e.inflightMu.Lock()
	if _, ok := e.inflight[eventID]; ok {
		e.inflightMu.Unlock()
		return
	}
	e.inflight[eventID] = struct{}{}
	e.inflightMu.Unlock()

	select {
	case e.queue <- eventID:
	default:
		// Cola llena: se suelta el job; Reconcile recoge el evento después.
		e.clearInflight(eventID)
		slog.Warn("settlement: resolution queue full, dropping trigger", "event_id", eventID)
	}
}

func (e *Engine) clearInflight(eventID string) {
	e.inflightMu.Lock()
	delete(e.inflight, eventID)
	e.inflightMu.Unlock()
}

// AdminResolve is the operator path: it resolves the event with the given
// answer, skipping the oracle, and runs the same serialized fan-out.
func (e *Engine) AdminResolve(ctx context.Context, eventID string, answer domain.Answer, confidence int) (domain.Event, error) {
	if !answer.Valid() {
		return domain.Event{}, fmt.Errorf("settlement.AdminResolve: answer %q: %w", answer, domain.ErrValidation)
	}

	unlock := e.eventLocks.Lock(eventID)
	defer unlock()

	event, err := e.store.ResolveEvent(ctx, eventID, answer)
	if err != nil {
		return domain.Event{}, fmt.Errorf("settlement.AdminResolve: %w", err)
	}
	e.metrics.EventResolved()

	e.mirrorResolution(ctx, eventID, answer, confidence)
	e.fanOut(ctx, event)
	return event, nil
}

// Reconcile re-settles any bet left pending: en eventos ya resueltos re-corre
// el fan-out (fallos parciales de pago), y en eventos sin resolver con
// apuestas pendientes ejecuta la resolución completa inline — es el camino de
// convergencia cuando un trigger se perdió (cola llena, crash entre accept y
// resolve). Returns the number of bets settled by the sweep.
func (e *Engine) Reconcile(ctx context.Context) (int, error) {
	events, err := e.store.ListEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("settlement.Reconcile: %w", err)
	}

	settled := 0
	for _, event := range events {
		if event.Resolved {
			unlock := e.eventLocks.Lock(event.ID)
			settled += e.fanOut(ctx, event)
			unlock()
			continue
		}

		pending, err := e.hasPendingBets(ctx, event.ID)
		if err != nil {
			slog.Error("settlement: reconcile list bets", "event_id", event.ID, "err", err)
			continue
		}
		if pending {
			settled += e.resolveAndFanOut(ctx, event.ID)
		}
	}
	if settled > 0 {
		slog.Info("settlement: reconcile sweep settled stragglers", "bets", settled)
	}
	return settled, nil
}

func (e *Engine) hasPendingBets(ctx context.Context, eventID string) (bool, error) {
	bets, err := e.store.ListBetsByEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	for _, bet := range bets {
		if !bet.Outcome.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// mirrorResolution mirrors an event resolution to the ledger. Failures are
// logged only: the local resolution is already committed and there is no
// caller to notify.
func (e *Engine) mirrorResolution(ctx context.Context, eventID string, answer domain.Answer, confidence int) {
	if e.ledger == nil {
		return
	}
	if _, err := e.ledger.ResolveEvent(ctx, eventID, answer, confidence); err != nil {
		e.metrics.BridgeFailure()
		slog.Warn("settlement: ledger mirror of resolution failed", "event_id", eventID, "err", err)
	}
}

// fanOut applies the resolved event's consequence to every pending bet on
// it: terminal outcome plus, for winners, a credit of exactly 2× the stake.
// Each payout failure is logged and skipped; the caller-side guarantee is
// convergence via Reconcile, not all-or-nothing.
func (e *Engine) fanOut(ctx context.Context, event domain.Event) int {
	bets, err := e.store.ListBetsByEvent(ctx, event.ID)
	if err != nil {
		slog.Error("settlement: fan-out list bets", "event_id", event.ID, "err", err)
		return 0
	}

	settled := 0
	for _, bet := range bets {
		if bet.Outcome.Terminal() {
			continue
		}
		won := bet.Prediction == event.CorrectAnswer

		if _, err := e.store.SetBetResult(ctx, bet.ID, won); err != nil {
			if errors.Is(err, domain.ErrAlreadySettled) {
				continue
			}
			slog.Error("settlement: set bet result", "bet_id", bet.ID, "err", err)
			continue
		}
		settled++

		if !won {
			continue
		}
		if err := e.credit(ctx, bet.UserID, bet.Payout(event.CorrectAnswer)); err != nil {
			slog.Error("settlement: payout credit failed", "bet_id", bet.ID, "user_id", bet.UserID, "err", err)
			continue
		}
		e.metrics.PayoutCredited()
	}

	if settled > 0 {
		slog.Info("settlement: event fan-out complete",
			"event_id", event.ID,
			"answer", event.CorrectAnswer,
			"bets_settled", settled,
		)
	}
	return settled
}

// credit suma amount al saldo del usuario bajo su lock.
func (e *Engine) credit(ctx context.Context, userID string, amount int64) error {
	unlock := e.userLocks.Lock(userID)
	defer unlock()

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	_, err = e.store.UpdateUserBalance(ctx, userID, user.Balance+amount)
	return err
}
