package qubic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/predictor/internal/adapters/qubic"
	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() qubic.Config {
	return qubic.Config{
		NodeIP:          "127.0.0.1",
		NodePort:        31841,
		ContractAddress: "CONTRACTADDR",
		CLIPath:         "/usr/bin/qubic-cli",
		Timeout:         2 * time.Second,
	}
}

// fakeRunner devuelve salida fija y registra los args de la última llamada.
type fakeRunner struct {
	out  string
	err  error
	args []string
}

func (f *fakeRunner) run(_ context.Context, _ string, args []string) (string, error) {
	f.args = args
	return f.out, f.err
}

func TestBridge_Submit_Confirmed(t *testing.T) {
	runner := &fakeRunner{out: "Broadcasting...\nTransaction Hash: deadbeef\nResult: ok\n"}
	b := qubic.NewWithRunner(testConfig(), runner.run)

	tx, err := b.PlaceBet(context.Background(), "user-1", "event-1", domain.AnswerYes, 10)
	require.NoError(t, err)

	assert.Equal(t, domain.TxConfirmed, tx.Status)
	assert.Equal(t, "deadbeef", tx.Hash)
	assert.Equal(t, "ok", tx.Result)
	assert.Equal(t, domain.FnPlaceBet, tx.Function)
	assert.False(t, tx.CompletedAt.IsZero())

	// La entrada queda retenida en el registro
	got, ok := b.Status(tx.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TxConfirmed, got.Status)

	// Args del CLI: -sendtransaction ADDR FN VALUE PAYLOAD
	assert.Contains(t, runner.args, "-sendtransaction")
	assert.Contains(t, runner.args, "CONTRACTADDR")
	assert.Contains(t, runner.args, "1") // FnPlaceBet
}

func TestBridge_Submit_FailureKeepsRegistry(t *testing.T) {
	runner := &fakeRunner{err: errors.New("connection refused")}
	b := qubic.NewWithRunner(testConfig(), runner.run)

	tx, err := b.ResolveEvent(context.Background(), "event-1", domain.AnswerNo, 90)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)

	got, ok := b.Status(tx.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TxFailed, got.Status)
	assert.NotEmpty(t, got.Err)
	assert.Empty(t, got.Hash)
}

func TestBridge_Submit_ClassifiesContractRejections(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want error
	}{
		{"insufficient", "contract: insufficient balance for stake", domain.ErrInsufficientBalance},
		{"invalid event", "contract: invalid event id", domain.ErrInvalidEvent},
		{"unauthorized", "bad signature for seed", domain.ErrUnauthorized},
		{"unknown", "some weird failure", domain.ErrNetwork},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{err: errors.New(tc.msg)}
			b := qubic.NewWithRunner(testConfig(), runner.run)

			_, err := b.PlaceBet(context.Background(), "u", "e", domain.AnswerYes, 1)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBridge_Submit_MissingHashIsTransactionFailed(t *testing.T) {
	runner := &fakeRunner{out: "Broadcasting...\nno hash in this output\n"}
	b := qubic.NewWithRunner(testConfig(), runner.run)

	tx, err := b.RegisterUser(context.Background(), "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.Equal(t, domain.TxFailed, tx.Status)
}

func TestBridge_Submit_SeedAppended(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = "secretseed"
	runner := &fakeRunner{out: "Transaction Hash: aa\n"}
	b := qubic.NewWithRunner(cfg, runner.run)

	_, err := b.RegisterUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Contains(t, runner.args, "-seed")
	assert.Contains(t, runner.args, "secretseed")
}

func TestBridge_Call_ReadOnly(t *testing.T) {
	runner := &fakeRunner{out: "Querying...\nResult: 250\n"}
	b := qubic.NewWithRunner(testConfig(), runner.run)

	balance, err := b.UserBalance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance)

	assert.Contains(t, runner.args, "-requestcontractfunction")
	assert.Contains(t, runner.args, "4") // FnGetBalance
}

func TestBridge_Call_NoResultLine(t *testing.T) {
	runner := &fakeRunner{out: "nothing useful\n"}
	b := qubic.NewWithRunner(testConfig(), runner.run)

	_, err := b.Call(context.Background(), domain.FnGetEvents, nil)
	assert.ErrorIs(t, err, domain.ErrContract)
}

func TestBridge_UserBalance_UnparseableResult(t *testing.T) {
	runner := &fakeRunner{out: "Result: not-a-number\n"}
	b := qubic.NewWithRunner(testConfig(), runner.run)

	_, err := b.UserBalance(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrContract)
}

func TestBridge_Probes(t *testing.T) {
	runner := &fakeRunner{out: "Tick: 15423890\nBalance: 5000\n"}
	b := qubic.NewWithRunner(testConfig(), runner.run)
	ctx := context.Background()

	assert.True(t, b.Available(ctx))
	assert.Equal(t, int64(15423890), b.CurrentTick(ctx))
	assert.Equal(t, int64(5000), b.ContractBalance(ctx))
}

func TestBridge_ProbesNeverError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("node down")}
	b := qubic.NewWithRunner(testConfig(), runner.run)
	ctx := context.Background()

	// Las sondas degradan a cero/false, nunca propagan error
	assert.False(t, b.Available(ctx))
	assert.Equal(t, int64(0), b.CurrentTick(ctx))
	assert.Equal(t, int64(0), b.ContractBalance(ctx))
}

func TestBridge_Status_Unknown(t *testing.T) {
	b := qubic.NewWithRunner(testConfig(), (&fakeRunner{}).run)
	_, ok := b.Status("missing")
	assert.False(t, ok)
}

func TestBridge_Submit_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	slow := func(ctx context.Context, _ string, _ []string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	b := qubic.NewWithRunner(cfg, slow)

	tx, err := b.PlaceBet(context.Background(), "u", "e", domain.AnswerYes, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, domain.TxFailed, tx.Status)
}
