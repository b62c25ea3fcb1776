package qubic

import (
	"testing"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFixed_PadAndTruncate(t *testing.T) {
	// Relleno con ceros hasta el ancho del slot
	buf := appendFixed(nil, "abc", 8)
	require.Len(t, buf, 8)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0}, buf)

	// Truncado silencioso si el texto excede el slot
	buf = appendFixed(nil, "abcdefghij", 4)
	require.Len(t, buf, 4)
	assert.Equal(t, []byte("abcd"), buf)
}

func TestEncodePlaceBet_Layout(t *testing.T) {
	buf := EncodePlaceBet("user-1", "event-1", domain.AnswerYes, 25)
	require.Len(t, buf, slotShort+slotShort+8+8)

	// prediction YES = 1 en little-endian
	pred := buf[slotShort*2 : slotShort*2+8]
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, pred)

	amount := buf[slotShort*2+8:]
	assert.Equal(t, []byte{25, 0, 0, 0, 0, 0, 0, 0}, amount)
}

func TestEncodeCreateEvent_Layout(t *testing.T) {
	endsAt := time.Unix(1735689600, 0) // 2025-01-01T00:00:00Z
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}

	buf := EncodeCreateEvent("title", string(long), "Crypto", endsAt)
	require.Len(t, buf, slotMedium+slotLong+slotShort+8)

	// La descripción de 300 bytes queda truncada a su slot
	desc := buf[slotMedium : slotMedium+slotLong]
	assert.Equal(t, byte('x'), desc[slotLong-1])
}

func TestEncodeResolveEvent_ClampsConfidence(t *testing.T) {
	buf := EncodeResolveEvent("event-1", domain.AnswerNo, 500)
	require.Len(t, buf, slotShort+8+8)

	// answer NO = 0
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, buf[slotShort:slotShort+8])
	// confianza clampeada a 100
	assert.Equal(t, []byte{100, 0, 0, 0, 0, 0, 0, 0}, buf[slotShort+8:])
}

func TestEncodeShortPayloads(t *testing.T) {
	assert.Len(t, EncodeRegisterUser("alice"), slotShort)
	assert.Len(t, EncodeGetBalance("user-1"), slotShort)
	assert.Len(t, EncodeGetUserBets("user-1"), slotShort)
}

func TestParseResult(t *testing.T) {
	out := "Connecting to node...\nResult: 42\nDone.\n"
	result, ok := parseResult(out)
	require.True(t, ok)
	assert.Equal(t, "42", result)

	_, ok = parseResult("no result line here")
	assert.False(t, ok)
}

func TestParseTxHash(t *testing.T) {
	out := "Broadcasting...\nTransaction Hash: abcdef123456\n"
	hash, ok := parseTxHash(out)
	require.True(t, ok)
	assert.Equal(t, "abcdef123456", hash)

	// Línea presente pero vacía no cuenta como hash
	_, ok = parseTxHash("Transaction Hash: \n")
	assert.False(t, ok)
}

func TestParseTickAndBalance(t *testing.T) {
	tick, ok := parseTick("Current Tick: 15423890 epoch 123")
	require.True(t, ok)
	assert.Equal(t, int64(15423890), tick)

	balance, ok := parseBalance("Address X Balance: 987654")
	require.True(t, ok)
	assert.Equal(t, int64(987654), balance)

	_, ok = parseTick("garbage output")
	assert.False(t, ok)
	_, ok = parseBalance("garbage output")
	assert.False(t, ok)
}
