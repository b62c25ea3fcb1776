package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
)

// Store es el modelo autoritativo de usuarios, eventos y apuestas. Toda
// mutación de saldo y de ciclo de vida pasa por aquí. Cada operación es
// atómica respecto a un único registro; la serialización de secuencias
// read-modify-write es responsabilidad del orquestador.
type Store interface {
	// GetUser devuelve el usuario o domain.ErrNotFound.
	GetUser(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername devuelve el usuario o domain.ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser registra un usuario con el saldo inicial por defecto.
	CreateUser(ctx context.Context, username string) (domain.User, error)

	// UpdateUserBalance sobreescribe el saldo sin condiciones. El caller es
	// responsable de calcular el nuevo valor sin interleaving.
	UpdateUserBalance(ctx context.Context, id string, newBalance int64) (domain.User, error)

	// ListEvents devuelve todos los eventos en orden de inserción.
	ListEvents(ctx context.Context) ([]domain.Event, error)

	// ListActiveEvents devuelve los eventos con Active=true en orden de inserción.
	ListActiveEvents(ctx context.Context) ([]domain.Event, error)

	// GetEvent devuelve el evento o domain.ErrNotFound.
	GetEvent(ctx context.Context, id string) (domain.Event, error)

	// CreateEvent crea un evento activo y sin resolver.
	CreateEvent(ctx context.Context, title, description, category string, endsAt time.Time) (domain.Event, error)

	// ResolveEvent marca el evento como resuelto con la respuesta dada.
	// Devuelve domain.ErrAlreadyResolved en una segunda resolución y
	// domain.ErrNotFound si el evento no existe.
	ResolveEvent(ctx context.Context, id string, answer domain.Answer) (domain.Event, error)

	// CreateBet crea una apuesta con Outcome=Pending.
	CreateBet(ctx context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Bet, error)

	// ListBetsByUser devuelve las apuestas del usuario en orden de inserción.
	ListBetsByUser(ctx context.Context, userID string) ([]domain.Bet, error)

	// ListBetsByEvent devuelve las apuestas del evento en orden de inserción.
	ListBetsByEvent(ctx context.Context, eventID string) ([]domain.Bet, error)

	// SetBetResult fija el outcome terminal de una apuesta. Devuelve
	// domain.ErrAlreadySettled si ya tenía un outcome terminal.
	SetBetResult(ctx context.Context, id string, won bool) (domain.Bet, error)

	// Close libera la conexión subyacente si la hay.
	Close() error
}
