package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/google/uuid"
)

// Memory implementa ports.Store sobre mapas en memoria. Es el backend de
// desarrollo y tests; la variante persistida es SQLite (sqlite.go). Las
// apuestas conservan orden de inserción.
type Memory struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	events map[string]domain.Event
	bets   map[string]domain.Bet

	eventOrder []string
	betOrder   []string
}

// NewMemory crea un store vacío.
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[string]domain.User),
		events: make(map[string]domain.Event),
		bets:   make(map[string]domain.Bet),
	}
}

// GetUser devuelve el usuario o domain.ErrNotFound.
func (m *Memory) GetUser(_ context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("storage.GetUser: %q: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

// GetUserByUsername devuelve el usuario o domain.ErrNotFound.
func (m *Memory) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("storage.GetUserByUsername: %q: %w", username, domain.ErrNotFound)
}

// CreateUser registra un usuario con el saldo inicial por defecto.
func (m *Memory) CreateUser(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Balance:   domain.DefaultBalance,
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u, nil
}

// UpdateUserBalance sobreescribe el saldo sin condiciones.
func (m *Memory) UpdateUserBalance(_ context.Context, id string, newBalance int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("storage.UpdateUserBalance: %q: %w", id, domain.ErrNotFound)
	}
	u.Balance = newBalance
	m.users[id] = u
	return u, nil
}

// ListEvents devuelve todos los eventos en orden de inserción.
func (m *Memory) ListEvents(_ context.Context) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]domain.Event, 0, len(m.eventOrder))
	for _, id := range m.eventOrder {
		events = append(events, m.events[id])
	}
	return events, nil
}

// ListActiveEvents devuelve los eventos activos en orden de inserción.
func (m *Memory) ListActiveEvents(_ context.Context) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]domain.Event, 0, len(m.eventOrder))
	for _, id := range m.eventOrder {
		if e := m.events[id]; e.Active {
			events = append(events, e)
		}
	}
	return events, nil
}

// GetEvent devuelve el evento o domain.ErrNotFound.
func (m *Memory) GetEvent(_ context.Context, id string) (domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("storage.GetEvent: %q: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

// CreateEvent crea un evento activo y sin resolver.
func (m *Memory) CreateEvent(_ context.Context, title, description, category string, endsAt time.Time) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := domain.Event{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Category:    category,
		CreatedAt:   time.Now().UTC(),
		EndsAt:      endsAt,
		Active:      true,
	}
	m.events[e.ID] = e
	m.eventOrder = append(m.eventOrder, e.ID)
	return e, nil
}

// ResolveEvent marca el evento como resuelto. La segunda resolución se
// rechaza aquí, no en el orquestador: bajo triggers concurrentes el guard
// tiene que vivir junto al dato.
func (m *Memory) ResolveEvent(_ context.Context, id string, answer domain.Answer) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("storage.ResolveEvent: %q: %w", id, domain.ErrNotFound)
	}
	if e.Resolved {
		return domain.Event{}, fmt.Errorf("storage.ResolveEvent: %q: %w", id, domain.ErrAlreadyResolved)
	}
	e.Resolved = true
	e.Active = false
	e.CorrectAnswer = answer
	m.events[id] = e
	return e, nil
}

// CreateBet crea una apuesta con Outcome=Pending.
func (m *Memory) CreateBet(_ context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := domain.Bet{
		ID:         uuid.New().String(),
		UserID:     userID,
		EventID:    eventID,
		Prediction: prediction,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
		Outcome:    domain.OutcomePending,
	}
	m.bets[b.ID] = b
	m.betOrder = append(m.betOrder, b.ID)
	return b, nil
}

// ListBetsByUser devuelve las apuestas del usuario en orden de inserción.
func (m *Memory) ListBetsByUser(_ context.Context, userID string) ([]domain.Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var bets []domain.Bet
	for _, id := range m.betOrder {
		if b := m.bets[id]; b.UserID == userID {
			bets = append(bets, b)
		}
	}
	return bets, nil
}

// ListBetsByEvent devuelve las apuestas del evento en orden de inserción.
func (m *Memory) ListBetsByEvent(_ context.Context, eventID string) ([]domain.Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var bets []domain.Bet
	for _, id := range m.betOrder {
		if b := m.bets[id]; b.EventID == eventID {
			bets = append(bets, b)
		}
	}
	return bets, nil
}

// SetBetResult fija el outcome terminal de una apuesta, exactamente una vez.
func (m *Memory) SetBetResult(_ context.Context, id string, won bool) (domain.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[id]
	if !ok {
		return domain.Bet{}, fmt.Errorf("storage.SetBetResult: %q: %w", id, domain.ErrNotFound)
	}
	if b.Outcome.Terminal() {
		return domain.Bet{}, fmt.Errorf("storage.SetBetResult: %q: %w", id, domain.ErrAlreadySettled)
	}
	if won {
		b.Outcome = domain.OutcomeWon
	} else {
		b.Outcome = domain.OutcomeLost
	}
	m.bets[id] = b
	return b, nil
}

// Close no hace nada en el backend en memoria.
func (m *Memory) Close() error { return nil }
