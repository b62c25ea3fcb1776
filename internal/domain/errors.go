package domain

import "errors"

// Taxonomía de errores del pipeline de liquidación. Los componentes los
// envuelven con fmt.Errorf("pkg.Func: ...: %w", err) y los callers clasifican
// con errors.Is.
var (
	// ErrValidation: predicción/importe inválidos o evento no apostable.
	ErrValidation = errors.New("validation error")

	// ErrInsufficientBalance: el stake supera el saldo del usuario.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound: usuario/evento/apuesta/transacción inexistente.
	ErrNotFound = errors.New("not found")

	// ErrInvalidEvent: el ledger rechazó el evento referenciado.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrNetwork: el proceso externo no responde o expiró el timeout.
	// Para el caller de place-bet es la señal retryable de "try again".
	ErrNetwork = errors.New("network error")

	// ErrContract: la llamada externa llegó al transporte pero reportó fallo
	// o devolvió datos que no se pueden parsear.
	ErrContract = errors.New("contract error")

	// ErrTransactionFailed: el envío fue aceptado pero no confirmado.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrUnauthorized: credencial de firma ausente o rechazada.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyResolved: doble resolución de un evento ya resuelto. Lo
	// impone el Store para que dos triggers concurrentes no paguen dos veces.
	ErrAlreadyResolved = errors.New("event already resolved")

	// ErrAlreadySettled: segunda transición terminal sobre una apuesta.
	ErrAlreadySettled = errors.New("bet already settled")
)
