package domain

import "time"

// PayoutMultiplier: una apuesta ganadora cobra stake × 2 (el stake devuelto
// más una ganancia igual). El stake de una apuesta perdida no se reembolsa —
// ya se debitó al aceptarla.
const PayoutMultiplier int64 = 2

// BetOutcome es el estado de liquidación de una apuesta.
type BetOutcome int

const (
	OutcomePending BetOutcome = iota // sin liquidar
	OutcomeWon
	OutcomeLost
)

func (o BetOutcome) String() string {
	switch o {
	case OutcomeWon:
		return "WON"
	case OutcomeLost:
		return "LOST"
	}
	return "PENDING"
}

// Terminal devuelve true si el outcome ya no puede cambiar.
func (o BetOutcome) Terminal() bool {
	return o == OutcomeWon || o == OutcomeLost
}

// ParseOutcome es el inverso de String.
func ParseOutcome(s string) BetOutcome {
	switch s {
	case "WON":
		return OutcomeWon
	case "LOST":
		return OutcomeLost
	}
	return OutcomePending
}

// Bet es la predicción apostada de un usuario sobre un evento. Outcome
// transiciona exactamente una vez, de Pending a Won o Lost, durante el
// fan-out de liquidación de su evento.
type Bet struct {
	ID         string
	UserID     string
	EventID    string
	Prediction Answer
	Amount     int64
	CreatedAt  time.Time
	Outcome    BetOutcome
}

// Payout devuelve el crédito que corresponde a la apuesta según la respuesta
// correcta del evento: 2×Amount si acierta, 0 si no.
func (b Bet) Payout(correct Answer) int64 {
	if b.Prediction == correct {
		return b.Amount * PayoutMultiplier
	}
	return 0
}
