package domain

import "fmt"

// FallbackConfidence es la confianza asignada cuando el oráculo degrada.
const FallbackConfidence = 50

// Resolution es la respuesta del oráculo para un evento.
type Resolution struct {
	Answer     Answer
	Confidence int // 0..100
	Reasoning  string
	Degraded   bool // true si el oráculo falló y esta es la resolución fallback
}

// ClampConfidence limita la confianza al rango [0,100] venga lo que venga
// del upstream.
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// FallbackResolution es la resolución segura que se devuelve cuando el
// oráculo falla: la liquidación siempre tiene que terminar para que ninguna
// apuesta quede pendiente indefinidamente. La respuesta degradada es NO
// (determinista, a diferencia del upstream) con confianza 50.
func FallbackResolution(cause error) Resolution {
	reasoning := "oracle unavailable"
	if cause != nil {
		reasoning = fmt.Sprintf("oracle unavailable: %v", cause)
	}
	return Resolution{
		Answer:     AnswerNo,
		Confidence: FallbackConfidence,
		Reasoning:  reasoning,
		Degraded:   true,
	}
}
