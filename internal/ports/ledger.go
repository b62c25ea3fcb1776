package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
)

// Ledger es el puente hacia el sistema de registro externo, alcanzable solo a
// través de un boundary de ejecución de comandos. Mantiene un registro local
// de transacciones enviadas, consultable por id.
type Ledger interface {
	// Submit envía una operación que muta estado. Genera un id local, inserta
	// una entrada pending en el registro y la transiciona a confirmed o
	// failed cuando la llamada externa completa. La entrada se retiene en
	// ambos casos. En fallo devuelve además el error tipado
	// (domain.ErrNetwork, ErrContract, ErrTransactionFailed, ...).
	Submit(ctx context.Context, fn domain.LedgerFunction, payload []byte, value int64) (domain.Transaction, error)

	// Call invoca una función de solo lectura. No crea entrada de registro.
	Call(ctx context.Context, fn domain.LedgerFunction, payload []byte) (string, error)

	// Status devuelve la transacción registrada con ese id, si existe.
	Status(id string) (domain.Transaction, bool)

	// CurrentTick devuelve el tick actual del ledger, o 0 si la sonda falla.
	CurrentTick(ctx context.Context) int64

	// ContractBalance devuelve el saldo del contrato en el ledger, o 0 si la
	// sonda falla.
	ContractBalance(ctx context.Context) int64

	// Available devuelve true si el ledger responde a la sonda de tick.
	Available(ctx context.Context) bool

	// PlaceBet espeja una apuesta aceptada en el contrato.
	PlaceBet(ctx context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Transaction, error)

	// ResolveEvent espeja la resolución de un evento en el contrato.
	ResolveEvent(ctx context.Context, eventID string, answer domain.Answer, confidence int) (domain.Transaction, error)

	// CreateEvent espeja la creación de un evento en el contrato.
	CreateEvent(ctx context.Context, title, description, category string, endsAt time.Time) (domain.Transaction, error)

	// RegisterUser espeja el registro de un usuario en el contrato.
	RegisterUser(ctx context.Context, username string) (domain.Transaction, error)

	// UserBalance lee el saldo de un usuario en el contrato.
	UserBalance(ctx context.Context, userID string) (int64, error)
}
