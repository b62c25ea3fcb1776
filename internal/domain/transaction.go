package domain

import "time"

// LedgerFunction es el índice de función del contrato en el ledger externo.
type LedgerFunction int

const (
	FnRegisterUser LedgerFunction = 0
	FnPlaceBet     LedgerFunction = 1
	FnCreateEvent  LedgerFunction = 2
	FnResolveEvent LedgerFunction = 3
	FnGetBalance   LedgerFunction = 4
	FnGetEvents    LedgerFunction = 5
	FnGetUserBets  LedgerFunction = 6
)

// TxStatus es el estado de una transacción enviada al ledger externo.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Transaction es la entrada de registro local para una operación enviada al
// ledger. El id se genera localmente y es opaco para el sistema externo. El
// registro se retiene tras completar (sin expiración) para poder consultar el
// estado después; en la práctica queda acotado por el volumen de apuestas del
// proceso.
type Transaction struct {
	ID          string
	Function    LedgerFunction
	Status      TxStatus
	Hash        string // hash externo, solo en confirmadas
	Result      string // línea de resultado cruda del ledger
	Err         string // mensaje de error, solo en fallidas
	SubmittedAt time.Time
	CompletedAt time.Time
}
