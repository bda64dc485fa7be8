package favorites

import (
	"context"

	"github.com/rs/zerolog"

	"movie-app/internal/domain/users"
)

type Store interface {
	UpdateFavorites(ctx context.Context, userID string, favorites []string) (*users.User, error)
	CreateActivity(ctx context.Context, a *users.Activity) error
}

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Change describes the single movie the client toggled, when it says so.
type Change struct {
	MovieID string
	Action  Action
}

type Manager struct {
	store Store
	log   zerolog.Logger
}

func NewManager(s Store, log zerolog.Logger) *Manager {
	return &Manager{store: s, log: log.With().Str("component", "favorites").Logger()}
}

// Update replaces the stored list with favorites as given. The activity entry
// for change is written only after the list is saved, and its failure is
// logged, never returned.
func (m *Manager) Update(ctx context.Context, userID string, favorites []string, change *Change) (*users.User, error) {
	if favorites == nil {
		favorites = []string{}
	}
	u, err := m.store.UpdateFavorites(ctx, userID, favorites)
	if err != nil {
		return nil, err
	}

	if change != nil && change.MovieID != "" {
		m.recordActivity(ctx, userID, *change)
	}
	return u, nil
}

func (m *Manager) recordActivity(ctx context.Context, userID string, change Change) {
	action := users.ActionFavorite
	if change.Action == ActionRemove {
		action = users.ActionUnfavorite
	}
	err := m.store.CreateActivity(ctx, &users.Activity{
		UserID:  userID,
		Action:  action,
		MovieID: change.MovieID,
	})
	if err != nil {
		m.log.Warn().Err(err).
			Str("user_id", userID).
			Str("movie_id", change.MovieID).
			Msg("failed to record favorite activity")
	}
}
