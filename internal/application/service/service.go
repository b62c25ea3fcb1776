package service

// Package service expone la superficie para colaboradores (routing HTTP, UI,
// bots) por encima del core de liquidación. Valida poco: la lógica vive en
// el Store y el Engine; aquí solo se orquesta y se enriquece.

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/alejandrodnm/predictor/internal/ports"
)

// Engine es lo que el servicio necesita del orquestador de liquidación.
type Engine interface {
	PlaceBet(ctx context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Bet, error)
	AdminResolve(ctx context.Context, eventID string, answer domain.Answer, confidence int) (domain.Event, error)
}

// BetRecord es una apuesta enriquecida con su evento, para el historial.
type BetRecord struct {
	Bet   domain.Bet
	Event domain.Event
}

// BridgeStatus es el estado de conectividad con el ledger externo.
type BridgeStatus struct {
	Bridged     bool
	Available   bool
	CurrentTick int64
	Balance     int64
}

// Service implementa la superficie de servicio del core.
type Service struct {
	store  ports.Store
	engine Engine
	ledger ports.Ledger // nil = variante sin bridge
}

// New crea el servicio. ledger puede ser nil.
func New(store ports.Store, engine Engine, ledger ports.Ledger) *Service {
	return &Service{store: store, engine: engine, ledger: ledger}
}

// CurrentUser devuelve el usuario, o domain.ErrNotFound.
func (s *Service) CurrentUser(ctx context.Context, userID string) (domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// ListActiveEvents devuelve los eventos abiertos a apuestas.
func (s *Service) ListActiveEvents(ctx context.Context) ([]domain.Event, error) {
	return s.store.ListActiveEvents(ctx)
}

// PlaceBet acepta una apuesta. Los errores tipados del engine pasan tal cual:
// validation/not-found/insufficient-balance son rechazos sincrónicos,
// ErrNetwork es la señal retryable de ledger indisponible.
func (s *Service) PlaceBet(ctx context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Bet, error) {
	return s.engine.PlaceBet(ctx, userID, eventID, prediction, amount)
}

// BettingHistory devuelve las apuestas del usuario enriquecidas con su evento,
// en orden de inserción.
func (s *Service) BettingHistory(ctx context.Context, userID string) ([]BetRecord, error) {
	bets, err := s.store.ListBetsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.BettingHistory: %w", err)
	}

	records := make([]BetRecord, 0, len(bets))
	for _, bet := range bets {
		event, err := s.store.GetEvent(ctx, bet.EventID)
		if err != nil {
			return nil, fmt.Errorf("service.BettingHistory: event for bet %q: %w", bet.ID, err)
		}
		records = append(records, BetRecord{Bet: bet, Event: event})
	}
	return records, nil
}

// ResolveEvent es la resolución administrativa de un evento.
func (s *Service) ResolveEvent(ctx context.Context, eventID string, answer domain.Answer, confidence int) (domain.Event, error) {
	return s.engine.AdminResolve(ctx, eventID, answer, confidence)
}

// GetBridgeStatus sondea el ledger externo. Sin bridge configurado devuelve
// Bridged=false con el resto en cero.
func (s *Service) GetBridgeStatus(ctx context.Context) BridgeStatus {
	if s.ledger == nil {
		return BridgeStatus{}
	}
	return BridgeStatus{
		Bridged:     true,
		Available:   s.ledger.Available(ctx),
		CurrentTick: s.ledger.CurrentTick(ctx),
		Balance:     s.ledger.ContractBalance(ctx),
	}
}

// TransactionStatus devuelve el registro de una transacción del bridge, o
// domain.ErrNotFound (también cuando no hay bridge configurado).
func (s *Service) TransactionStatus(_ context.Context, txID string) (domain.Transaction, error) {
	if s.ledger == nil {
		return domain.Transaction{}, fmt.Errorf("service.TransactionStatus: no ledger bridge: %w", domain.ErrNotFound)
	}
	tx, ok := s.ledger.Status(txID)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("service.TransactionStatus: %q: %w", txID, domain.ErrNotFound)
	}
	return tx, nil
}
