package domain

import "time"

// DefaultBalance es el saldo inicial de cada usuario al registrarse.
const DefaultBalance int64 = 100

// User es un participante de la plataforma. El saldo es un único contador
// entero de moneda interna; solo lo mutan el débito de apuesta y el crédito
// de premio.
type User struct {
	ID        string
	Username  string
	Balance   int64
	CreatedAt time.Time
}

// CanStake devuelve true si el usuario puede cubrir el importe dado.
func (u User) CanStake(amount int64) bool {
	return amount > 0 && u.Balance >= amount
}
