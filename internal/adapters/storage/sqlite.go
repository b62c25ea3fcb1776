package storage

// sqlite.go — backend persistido del Store.
//
// Mismo contrato que Memory, respaldado por SQLite puro Go (sin CGo).
// Los timestamps se guardan como RFC3339 UTC para que el round-trip sea
// determinista entre plataformas.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL UNIQUE,
    balance    INTEGER NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id             TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL,
    category       TEXT NOT NULL,
    created_at     TEXT NOT NULL,
    ends_at        TEXT NOT NULL,
    is_active      INTEGER NOT NULL DEFAULT 1,
    is_resolved    INTEGER NOT NULL DEFAULT 0,
    correct_answer TEXT NOT NULL DEFAULT '',
    seq            INTEGER
);

CREATE TABLE IF NOT EXISTS bets (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    event_id   TEXT NOT NULL,
    prediction TEXT NOT NULL,
    amount     INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    outcome    TEXT NOT NULL DEFAULT 'PENDING',
    seq        INTEGER
);

CREATE INDEX IF NOT EXISTS idx_events_active ON events(is_active);
CREATE INDEX IF NOT EXISTS idx_bets_user     ON bets(user_id, seq);
CREATE INDEX IF NOT EXISTS idx_bets_event    ON bets(event_id, seq);
`

// SQLite implementa ports.Store sobre modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// NewSQLite abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLite: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// GetUser devuelve el usuario o domain.ErrNotFound.
func (s *SQLite) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.queryUser(ctx, `SELECT id, username, balance, created_at FROM users WHERE id = ?`, id)
}

// GetUserByUsername devuelve el usuario o domain.ErrNotFound.
func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.queryUser(ctx, `SELECT id, username, balance, created_at FROM users WHERE username = ?`, username)
}

func (s *SQLite) queryUser(ctx context.Context, query, arg string) (domain.User, error) {
	var u domain.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Balance, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("storage.queryUser: %q: %w", arg, domain.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("storage.queryUser: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// CreateUser registra un usuario con el saldo inicial por defecto.
func (s *SQLite) CreateUser(ctx context.Context, username string) (domain.User, error) {
	u := domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Balance:   domain.DefaultBalance,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, balance, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.Balance, formatTime(u.CreatedAt),
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("storage.CreateUser: %w", err)
	}
	return u, nil
}

// UpdateUserBalance sobreescribe el saldo sin condiciones.
func (s *SQLite) UpdateUserBalance(ctx context.Context, id string, newBalance int64) (domain.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET balance = ? WHERE id = ?`, newBalance, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("storage.UpdateUserBalance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, fmt.Errorf("storage.UpdateUserBalance: %q: %w", id, domain.ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

const eventColumns = `id, title, description, category, created_at, ends_at, is_active, is_resolved, correct_answer`

// ListEvents devuelve todos los eventos en orden de inserción.
func (s *SQLite) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.queryEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY seq`)
}

// ListActiveEvents devuelve los eventos activos en orden de inserción.
func (s *SQLite) ListActiveEvents(ctx context.Context) ([]domain.Event, error) {
	return s.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE is_active = 1 ORDER BY seq`)
}

func (s *SQLite) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.queryEvents: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.queryEvents: scan: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent devuelve el evento o domain.ErrNotFound.
func (s *SQLite) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("storage.GetEvent: %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("storage.GetEvent: %w", err)
	}
	return e, nil
}

// CreateEvent crea un evento activo y sin resolver.
func (s *SQLite) CreateEvent(ctx context.Context, title, description, category string, endsAt time.Time) (domain.Event, error) {
	e := domain.Event{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Category:    category,
		CreatedAt:   time.Now().UTC(),
		EndsAt:      endsAt.UTC(),
		Active:      true,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, description, category, created_at, ends_at, is_active, is_resolved, correct_answer, seq)
		VALUES (?, ?, ?, ?, ?, ?, 1, 0, '', (SELECT COALESCE(MAX(seq), 0) + 1 FROM events))`,
		e.ID, e.Title, e.Description, e.Category, formatTime(e.CreatedAt), formatTime(e.EndsAt),
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("storage.CreateEvent: %w", err)
	}
	return e, nil
}

// ResolveEvent marca el evento como resuelto. El guard contra doble
// resolución va en el WHERE: la transición solo gana una vez.
func (s *SQLite) ResolveEvent(ctx context.Context, id string, answer domain.Answer) (domain.Event, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET is_resolved = 1, is_active = 0, correct_answer = ?
		WHERE id = ? AND is_resolved = 0`,
		string(answer), id,
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("storage.ResolveEvent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetEvent(ctx, id); err != nil {
			return domain.Event{}, err
		}
		return domain.Event{}, fmt.Errorf("storage.ResolveEvent: %q: %w", id, domain.ErrAlreadyResolved)
	}
	return s.GetEvent(ctx, id)
}

// CreateBet crea una apuesta con Outcome=Pending.
func (s *SQLite) CreateBet(ctx context.Context, userID, eventID string, prediction domain.Answer, amount int64) (domain.Bet, error) {
	b := domain.Bet{
		ID:         uuid.New().String(),
		UserID:     userID,
		EventID:    eventID,
		Prediction: prediction,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
		Outcome:    domain.OutcomePending,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bets (id, user_id, event_id, prediction, amount, created_at, outcome, seq)
		VALUES (?, ?, ?, ?, ?, ?, 'PENDING', (SELECT COALESCE(MAX(seq), 0) + 1 FROM bets))`,
		b.ID, b.UserID, b.EventID, string(b.Prediction), b.Amount, formatTime(b.CreatedAt),
	)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.CreateBet: %w", err)
	}
	return b, nil
}

const betColumns = `id, user_id, event_id, prediction, amount, created_at, outcome`

// ListBetsByUser devuelve las apuestas del usuario en orden de inserción.
func (s *SQLite) ListBetsByUser(ctx context.Context, userID string) ([]domain.Bet, error) {
	return s.queryBets(ctx, `SELECT `+betColumns+` FROM bets WHERE user_id = ? ORDER BY seq`, userID)
}

// ListBetsByEvent devuelve las apuestas del evento en orden de inserción.
func (s *SQLite) ListBetsByEvent(ctx context.Context, eventID string) ([]domain.Bet, error) {
	return s.queryBets(ctx, `SELECT `+betColumns+` FROM bets WHERE event_id = ? ORDER BY seq`, eventID)
}

func (s *SQLite) queryBets(ctx context.Context, query string, args ...any) ([]domain.Bet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.queryBets: %w", err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		var b domain.Bet
		var prediction, createdAt, outcome string
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &prediction, &b.Amount, &createdAt, &outcome); err != nil {
			return nil, fmt.Errorf("storage.queryBets: scan: %w", err)
		}
		b.Prediction = domain.Answer(prediction)
		b.CreatedAt = parseTime(createdAt)
		b.Outcome = domain.ParseOutcome(outcome)
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// SetBetResult fija el outcome terminal, exactamente una vez. Igual que en
// ResolveEvent, el guard va en el WHERE.
func (s *SQLite) SetBetResult(ctx context.Context, id string, won bool) (domain.Bet, error) {
	outcome := domain.OutcomeLost
	if won {
		outcome = domain.OutcomeWon
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE bets SET outcome = ? WHERE id = ? AND outcome = 'PENDING'`,
		outcome.String(), id,
	)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.SetBetResult: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM bets WHERE id = ?`, id).Scan(&exists); err == nil && exists == 0 {
			return domain.Bet{}, fmt.Errorf("storage.SetBetResult: %q: %w", id, domain.ErrNotFound)
		}
		return domain.Bet{}, fmt.Errorf("storage.SetBetResult: %q: %w", id, domain.ErrAlreadySettled)
	}
	bets, err := s.queryBets(ctx, `SELECT `+betColumns+` FROM bets WHERE id = ?`, id)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.SetBetResult: reread %q: %w", id, err)
	}
	if len(bets) == 0 {
		return domain.Bet{}, fmt.Errorf("storage.SetBetResult: reread %q: %w", id, domain.ErrNotFound)
	}
	return bets[0], nil
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (domain.Event, error) {
	var e domain.Event
	var createdAt, endsAt, answer string
	var active, resolved int
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Category,
		&createdAt, &endsAt, &active, &resolved, &answer); err != nil {
		return domain.Event{}, err
	}
	e.CreatedAt = parseTime(createdAt)
	e.EndsAt = parseTime(endsAt)
	e.Active = active == 1
	e.Resolved = resolved == 1
	e.CorrectAnswer = domain.Answer(answer)
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
