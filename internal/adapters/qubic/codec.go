package qubic

// codec.go — contrato de wire con el nodo Qubic.
//
// Los payloads estructurados se codifican en un layout binario de ancho fijo:
// slots de 32 bytes para textos cortos (ids, username, categoría), 128 para
// títulos y 256 para descripciones, zero-padded y truncados si el texto
// excede el slot. Los enteros van en little-endian de 8 bytes. El argumento
// del CLI es el buffer completo en hex. El resto del sistema nunca toca
// parsing de texto crudo: todo entra y sale por este archivo.

import (
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
)

const (
	slotShort  = 32  // ids, username, category
	slotMedium = 128 // title
	slotLong   = 256 // description
)

var (
	tickRe    = regexp.MustCompile(`Tick: (\d+)`)
	balanceRe = regexp.MustCompile(`Balance: (\d+)`)
)

// appendFixed escribe s en un slot de n bytes, truncando o rellenando con ceros.
func appendFixed(buf []byte, s string, n int) []byte {
	slot := make([]byte, n)
	copy(slot, s)
	return append(buf, slot...)
}

// appendUint64 escribe v en little-endian de 8 bytes.
func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func answerValue(a domain.Answer) uint64 {
	if a == domain.AnswerYes {
		return 1
	}
	return 0
}

// EncodeRegisterUser serializa el payload de FnRegisterUser.
func EncodeRegisterUser(username string) []byte {
	return appendFixed(nil, username, slotShort)
}

// EncodePlaceBet serializa el payload de FnPlaceBet.
func EncodePlaceBet(userID, eventID string, prediction domain.Answer, amount int64) []byte {
	buf := appendFixed(nil, userID, slotShort)
	buf = appendFixed(buf, eventID, slotShort)
	buf = appendUint64(buf, answerValue(prediction))
	return appendUint64(buf, uint64(amount))
}

// EncodeCreateEvent serializa el payload de FnCreateEvent.
func EncodeCreateEvent(title, description, category string, endsAt time.Time) []byte {
	buf := appendFixed(nil, title, slotMedium)
	buf = appendFixed(buf, description, slotLong)
	buf = appendFixed(buf, category, slotShort)
	return appendUint64(buf, uint64(endsAt.Unix()))
}

// EncodeResolveEvent serializa el payload de FnResolveEvent. La confianza se
// clampa a [0,100] antes de salir al wire.
func EncodeResolveEvent(eventID string, answer domain.Answer, confidence int) []byte {
	buf := appendFixed(nil, eventID, slotShort)
	buf = appendUint64(buf, answerValue(answer))
	return appendUint64(buf, uint64(domain.ClampConfidence(confidence)))
}

// EncodeGetBalance serializa el payload de FnGetBalance.
func EncodeGetBalance(userID string) []byte {
	return appendFixed(nil, userID, slotShort)
}

// EncodeGetUserBets serializa el payload de FnGetUserBets.
func EncodeGetUserBets(userID string) []byte {
	return appendFixed(nil, userID, slotShort)
}

// hexPayload devuelve el payload listo para la línea de comandos.
func hexPayload(payload []byte) string {
	return hex.EncodeToString(payload)
}

// parseResult extrae la línea "Result: ..." de la salida libre del CLI.
func parseResult(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "Result:"); idx >= 0 {
			return strings.TrimSpace(line[idx+len("Result:"):]), true
		}
	}
	return "", false
}

// parseTxHash extrae la línea "Transaction Hash: ..." de la salida del CLI.
func parseTxHash(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "Transaction Hash:"); idx >= 0 {
			hash := strings.TrimSpace(line[idx+len("Transaction Hash:"):])
			if hash != "" {
				return hash, true
			}
		}
	}
	return "", false
}

// parseTick extrae el tick actual; false si el patrón no aparece.
func parseTick(output string) (int64, bool) {
	return parsePattern(tickRe, output)
}

// parseBalance extrae el saldo; false si el patrón no aparece.
func parseBalance(output string) (int64, bool) {
	return parsePattern(balanceRe, output)
}

func parsePattern(re *regexp.Regexp, output string) (int64, bool) {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	var v int64
	for _, c := range m[1] {
		v = v*10 + int64(c-'0')
	}
	return v, true
}
