package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/alejandrodnm/predictor/internal/ports"
)

// seedEvent es un evento de demo para entornos sin datos.
type seedEvent struct {
	title       string
	description string
	category    string
	endsInDays  int
}

var seedEvents = []seedEvent{
	{
		title:       "Will Tesla stock reach $300 by end of 2025?",
		description: "Predict whether Tesla's stock price will hit $300 per share by December 31, 2025.",
		category:    "Technology",
		endsInDays:  7,
	},
	{
		title:       "Will Bitcoin reach $150,000 by end of 2025?",
		description: "Predict whether Bitcoin will hit the $150,000 milestone by December 2025.",
		category:    "Crypto",
		endsInDays:  14,
	},
	{
		title:       "Will there be a new iPhone model released in 2025?",
		description: "Predict whether Apple will announce a new iPhone model during 2025.",
		category:    "Technology",
		endsInDays:  10,
	},
	{
		title:       "Will SpaceX successfully land humans on Mars in 2025?",
		description: "Predict whether SpaceX will achieve their goal of landing humans on Mars during 2025.",
		category:    "Space",
		endsInDays:  21,
	},
}

// Seed puebla un store vacío con el usuario de demo y los eventos iniciales.
// Devuelve el usuario creado. Idempotente por username: si el usuario ya
// existe no vuelve a sembrar.
func Seed(ctx context.Context, store ports.Store) (domain.User, error) {
	if u, err := store.GetUserByUsername(ctx, "player1"); err == nil {
		return u, nil
	}

	u, err := store.CreateUser(ctx, "player1")
	if err != nil {
		return domain.User{}, fmt.Errorf("storage.Seed: create user: %w", err)
	}

	now := time.Now()
	for _, se := range seedEvents {
		endsAt := now.Add(time.Duration(se.endsInDays) * 24 * time.Hour)
		if _, err := store.CreateEvent(ctx, se.title, se.description, se.category, endsAt); err != nil {
			return domain.User{}, fmt.Errorf("storage.Seed: create event %q: %w", se.title, err)
		}
	}
	return u, nil
}
