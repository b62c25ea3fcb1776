package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/predictor/internal/adapters/storage"
	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_UserRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(domain.DefaultBalance), u.Balance)

	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Second)

	byName, err := db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	updated, err := db.UpdateUserBalance(ctx, u.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(77), updated.Balance)

	_, err = db.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLite_EventOrderAndActive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	endsAt := time.Now().Add(48 * time.Hour)

	first, err := db.CreateEvent(ctx, "first", "d", "Test", endsAt)
	require.NoError(t, err)
	second, err := db.CreateEvent(ctx, "second", "d", "Test", endsAt)
	require.NoError(t, err)

	events, err := db.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first.ID, events[0].ID)
	assert.Equal(t, second.ID, events[1].ID)

	_, err = db.ResolveEvent(ctx, first.ID, domain.AnswerYes)
	require.NoError(t, err)

	active, err := db.ListActiveEvents(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
}

func TestSQLite_ResolveEventGuards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e, err := db.CreateEvent(ctx, "once", "d", "Test", time.Now().Add(time.Hour))
	require.NoError(t, err)

	resolved, err := db.ResolveEvent(ctx, e.ID, domain.AnswerNo)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, domain.AnswerNo, resolved.CorrectAnswer)

	// El guard vive en el WHERE: segunda resolución distingue already-resolved
	// de not-found
	_, err = db.ResolveEvent(ctx, e.ID, domain.AnswerYes)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	_, err = db.ResolveEvent(ctx, "missing", domain.AnswerYes)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLite_BetResultOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "bob")
	require.NoError(t, err)
	e, err := db.CreateEvent(ctx, "ev", "d", "Test", time.Now().Add(time.Hour))
	require.NoError(t, err)

	b, err := db.CreateBet(ctx, u.ID, e.ID, domain.AnswerYes, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePending, b.Outcome)

	won, err := db.SetBetResult(ctx, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeWon, won.Outcome)

	_, err = db.SetBetResult(ctx, b.ID, false)
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)

	_, err = db.SetBetResult(ctx, "missing", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLite_BetsInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "carol")
	require.NoError(t, err)
	e, err := db.CreateEvent(ctx, "ev", "d", "Test", time.Now().Add(time.Hour))
	require.NoError(t, err)

	b1, err := db.CreateBet(ctx, u.ID, e.ID, domain.AnswerYes, 1)
	require.NoError(t, err)
	b2, err := db.CreateBet(ctx, u.ID, e.ID, domain.AnswerNo, 2)
	require.NoError(t, err)

	byUser, err := db.ListBetsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, b1.ID, byUser[0].ID)
	assert.Equal(t, b2.ID, byUser[1].ID)

	byEvent, err := db.ListBetsByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)
}
