package qubic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 10 * time.Second

	// Cada llamada spawnea un proceso CLI; el limiter evita saturar el nodo
	// (y la máquina) cuando varias liquidaciones espejan a la vez.
	cliRatePerSec = 5
	cliBurst      = 5
)

// Config describe el boundary hacia el nodo Qubic.
type Config struct {
	NodeIP          string
	NodePort        int
	ContractAddress string
	CLIPath         string
	Seed            string // credencial de firma, opcional
	Timeout         time.Duration
}

// Runner ejecuta el comando externo y devuelve su stdout. Inyectable para
// que los tests no dependan de un binario real.
type Runner func(ctx context.Context, path string, args []string) (stdout string, err error)

// Bridge implementa ports.Ledger invocando el CLI de Qubic por llamada.
// Mantiene el registro local de transacciones enviadas; las entradas se
// retienen tras completar para que Status funcione después.
type Bridge struct {
	cfg     Config
	run     Runner
	limiter *rate.Limiter

	mu  sync.RWMutex
	txs map[string]domain.Transaction
}

// New crea un Bridge con el runner real (os/exec).
func New(cfg Config) *Bridge {
	return NewWithRunner(cfg, execRunner)
}

// NewWithRunner crea un Bridge con un runner inyectado (tests).
func NewWithRunner(cfg Config, run Runner) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Bridge{
		cfg:     cfg,
		run:     run,
		limiter: rate.NewLimiter(cliRatePerSec, cliBurst),
		txs:     make(map[string]domain.Transaction),
	}
}

// execRunner spawnea el CLI y captura stdout. El exit code distinto de cero
// llega como error con el stderr capturado.
func execRunner(ctx context.Context, path string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.New(msg)
	}
	return stdout.String(), nil
}

// execute invoca el CLI con timeout acotado y rate limiting. Cualquier fallo
// de transporte (spawn, exit != 0, timeout) es domain.ErrNetwork.
func (b *Bridge) execute(ctx context.Context, args []string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("qubic.execute: rate limiter: %w", domain.ErrNetwork)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	out, err := b.run(ctx, b.cfg.CLIPath, args)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("qubic.execute: timeout after %s: %w", b.cfg.Timeout, domain.ErrNetwork)
		}
		if typed := classifyFailure(err.Error()); typed != nil {
			return "", fmt.Errorf("qubic.execute: %s: %w", err.Error(), typed)
		}
		return "", fmt.Errorf("qubic.execute: %s: %w", err.Error(), domain.ErrNetwork)
	}
	return out, nil
}

// classifyFailure mapea mensajes del contrato a la taxonomía tipada. Devuelve
// nil si el mensaje no identifica un fallo de contrato conocido.
func classifyFailure(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "insufficient"):
		return domain.ErrInsufficientBalance
	case strings.Contains(lower, "invalid event"), strings.Contains(lower, "unknown event"):
		return domain.ErrInvalidEvent
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "signature"):
		return domain.ErrUnauthorized
	}
	return nil
}

func (b *Bridge) baseArgs() []string {
	return []string{
		"-nodeip", b.cfg.NodeIP,
		"-nodeport", strconv.Itoa(b.cfg.NodePort),
	}
}

// Call invoca una función de solo lectura del contrato. No crea entrada en el
// registro de transacciones.
func (b *Bridge) Call(ctx context.Context, fn domain.LedgerFunction, payload []byte) (string, error) {
	args := append(b.baseArgs(),
		"-requestcontractfunction",
		b.cfg.ContractAddress,
		strconv.Itoa(int(fn)),
		hexPayload(payload),
	)

	out, err := b.execute(ctx, args)
	if err != nil {
		return "", fmt.Errorf("qubic.Call: fn %d: %w", fn, err)
	}

	result, ok := parseResult(out)
	if !ok {
		return "", fmt.Errorf("qubic.Call: fn %d: no result line in output: %w", fn, domain.ErrContract)
	}
	return result, nil
}

// Submit envía una transacción al contrato. La entrada del registro se crea
// pending antes de la llamada externa y transiciona exactamente una vez a
// confirmed o failed; se retiene en ambos casos.
func (b *Bridge) Submit(ctx context.Context, fn domain.LedgerFunction, payload []byte, value int64) (domain.Transaction, error) {
	tx := domain.Transaction{
		ID:          uuid.New().String(),
		Function:    fn,
		Status:      domain.TxPending,
		SubmittedAt: time.Now().UTC(),
	}
	b.put(tx)

	args := append(b.baseArgs(),
		"-sendtransaction",
		b.cfg.ContractAddress,
		strconv.Itoa(int(fn)),
		strconv.FormatInt(value, 10),
		hexPayload(payload),
	)
	if b.cfg.Seed != "" {
		args = append(args, "-seed", b.cfg.Seed)
	}

	out, err := b.execute(ctx, args)
	if err != nil {
		tx = b.complete(tx.ID, domain.TxFailed, "", "", err.Error())
		return tx, fmt.Errorf("qubic.Submit: fn %d: %w", fn, err)
	}

	hash, ok := parseTxHash(out)
	if !ok {
		// El envío llegó al nodo pero no hay confirmación: transaction-failed,
		// no fallo de transporte
		err := fmt.Errorf("qubic.Submit: fn %d: no transaction hash in output: %w", fn, domain.ErrTransactionFailed)
		tx = b.complete(tx.ID, domain.TxFailed, "", "", err.Error())
		return tx, err
	}

	result, _ := parseResult(out) // el result es opcional en submissions
	tx = b.complete(tx.ID, domain.TxConfirmed, hash, result, "")

	slog.Debug("qubic: transaction confirmed", "tx_id", tx.ID, "fn", fn, "hash", hash)
	return tx, nil
}

// Status devuelve la transacción registrada con ese id, si existe.
func (b *Bridge) Status(id string) (domain.Transaction, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tx, ok := b.txs[id]
	return tx, ok
}

// CurrentTick devuelve el tick actual del ledger, o 0 si la sonda falla.
// Las sondas nunca devuelven error: son diagnóstico, no control de flujo.
func (b *Bridge) CurrentTick(ctx context.Context) int64 {
	out, err := b.execute(ctx, append(b.baseArgs(), "-getcurrenttick"))
	if err != nil {
		slog.Debug("qubic: tick probe failed", "err", err)
		return 0
	}
	tick, _ := parseTick(out)
	return tick
}

// ContractBalance devuelve el saldo del contrato, o 0 si la sonda falla.
func (b *Bridge) ContractBalance(ctx context.Context) int64 {
	out, err := b.execute(ctx, append(b.baseArgs(), "-getbalance", b.cfg.ContractAddress))
	if err != nil {
		slog.Debug("qubic: balance probe failed", "err", err)
		return 0
	}
	balance, _ := parseBalance(out)
	return balance
}

// Available devuelve true si el nodo responde a la sonda de tick.
func (b *Bridge) Available(ctx context.Context) bool {
	out, err := b.execute(ctx, append(b.baseArgs(), "-getcurrenttick"))
	if err != nil {
		return false
	}
	_, ok := parseTick(out)
	return ok
}

// PlaceBet espeja una apuesta aceptada en el contrato.
func (b *Bridge) PlaceBet(ctx context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Transaction, error) {
	return b.Submit(ctx, domain.FnPlaceBet, EncodePlaceBet(userID, eventID, prediction, amount), 0)
}

// ResolveEvent espeja la resolución de un evento en el contrato.
func (b *Bridge) ResolveEvent(ctx context.Context, eventID string, answer domain.Answer, confidence int) (domain.Transaction, error) {
	return b.Submit(ctx, domain.FnResolveEvent, EncodeResolveEvent(eventID, answer, confidence), 0)
}

// CreateEvent espeja la creación de un evento en el contrato.
func (b *Bridge) CreateEvent(ctx context.Context, title, description, category string, endsAt time.Time) (domain.Transaction, error) {
	return b.Submit(ctx, domain.FnCreateEvent, EncodeCreateEvent(title, description, category, endsAt), 0)
}

// RegisterUser espeja el registro de un usuario en el contrato.
func (b *Bridge) RegisterUser(ctx context.Context, username string) (domain.Transaction, error) {
	return b.Submit(ctx, domain.FnRegisterUser, EncodeRegisterUser(username), 0)
}

// UserBalance lee el saldo de un usuario en el contrato.
func (b *Bridge) UserBalance(ctx context.Context, userID string) (int64, error) {
	result, err := b.Call(ctx, domain.FnGetBalance, EncodeGetBalance(userID))
	if err != nil {
		return 0, err
	}
	balance, err := strconv.ParseInt(strings.TrimSpace(result), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("qubic.UserBalance: parse %q: %w", result, domain.ErrContract)
	}
	return balance, nil
}

func (b *Bridge) put(tx domain.Transaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txs[tx.ID] = tx
}

func (b *Bridge) complete(id string, status domain.TxStatus, hash, result, errMsg string) domain.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx := b.txs[id]
	tx.Status = status
	tx.Hash = hash
	tx.Result = result
	tx.Err = errMsg
	tx.CompletedAt = time.Now().UTC()
	b.txs[id] = tx
	return tx
}
