package domain

import "time"

// Answer es el resultado binario de un evento.
type Answer string

const (
	AnswerYes Answer = "YES"
	AnswerNo  Answer = "NO"
)

// Valid devuelve true si la respuesta es YES o NO.
func (a Answer) Valid() bool {
	return a == AnswerYes || a == AnswerNo
}

// ParseAnswer normaliza un string a Answer. Cualquier cosa distinta de "YES"
// (case-sensitive, como el contrato) se trata como NO salvo que sea inválida.
func ParseAnswer(s string) (Answer, bool) {
	switch Answer(s) {
	case AnswerYes:
		return AnswerYes, true
	case AnswerNo:
		return AnswerNo, true
	}
	return "", false
}

// Event es una proposición binaria con fecha límite, abierta a apuestas hasta
// que se resuelve. Invariantes: Resolved implica !Active; CorrectAnswer está
// presente si y solo si Resolved. La transición active→resolved ocurre
// exactamente una vez y nunca se revierte.
type Event struct {
	ID            string
	Title         string
	Description   string
	Category      string
	CreatedAt     time.Time
	EndsAt        time.Time
	Active        bool
	Resolved      bool
	CorrectAnswer Answer // vacío hasta que Resolved
}

// OpenForBetting devuelve true si el evento acepta apuestas en el instante dado.
func (e Event) OpenForBetting(now time.Time) bool {
	return e.Active && !e.Resolved && now.Before(e.EndsAt)
}
