// Package store is the gorm-backed credential store. Every method is a
// single-row statement (plus a re-read where the caller needs the fresh row).
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"movie-app/internal/apperror"
	"movie-app/internal/domain/billing"
	"movie-app/internal/domain/users"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SubscriptionUpdate is the mirrored billing state. A nil CustomerID leaves the
// stored customer id untouched.
type SubscriptionUpdate struct {
	CustomerID *string
	Status     users.Status
	Plan       users.Plan
}

func (s *Store) CreateUser(ctx context.Context, u *users.User) error {
	u.Email = normalizeEmail(u.Email)
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User already exists")
		}
		return fmt.Errorf("store: create user: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*users.User, error) {
	return s.first(ctx, "find user by id", "id = ?", id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.first(ctx, "find user by email", "email = ?", normalizeEmail(email))
}

func (s *Store) FindActiveByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.first(ctx, "find active user", "email = ? AND is_active = ?", normalizeEmail(email), true)
}

func (s *Store) FindByCustomerID(ctx context.Context, customerID string) (*users.User, error) {
	return s.first(ctx, "find user by customer", "stripe_customer_id = ?", customerID)
}

func (s *Store) FindByGoogleSub(ctx context.Context, sub string) (*users.User, error) {
	return s.first(ctx, "find user by google sub", "google_sub = ?", sub)
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, "touch last login", id, map[string]any{"last_login_at": at})
}

// UpdateFavorites replaces the whole list and returns the stored user.
func (s *Store) UpdateFavorites(ctx context.Context, id string, favorites []string) (*users.User, error) {
	if favorites == nil {
		favorites = []string{}
	}
	if err := s.update(ctx, "update favorites", id, map[string]any{"favorites": users.MovieIDs(favorites)}); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *Store) UpdateSubscription(ctx context.Context, id string, upd SubscriptionUpdate) (*users.User, error) {
	values := map[string]any{
		"subscription_status": upd.Status,
		"subscription_plan":   upd.Plan,
	}
	if upd.CustomerID != nil && *upd.CustomerID != "" {
		values["stripe_customer_id"] = *upd.CustomerID
	}
	if err := s.update(ctx, "update subscription", id, values); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *Store) LinkGoogleAccount(ctx context.Context, id, sub string) error {
	err := s.update(ctx, "link google account", id, map[string]any{"google_sub": sub})
	if isUniqueViolation(err) {
		return apperror.Conflict("Google account already linked")
	}
	return err
}

func (s *Store) CreateActivity(ctx context.Context, a *users.Activity) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("store: create activity: %w", err)
	}
	return nil
}

// BeginWebhookEvent records the event id. It reports true when the event was
// already applied without error, in which case the caller should skip it.
func (s *Store) BeginWebhookEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	db := s.db.WithContext(ctx)
	ev := billing.WebhookEvent{EventID: eventID, EventType: eventType}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&ev)
	if res.Error != nil {
		return false, fmt.Errorf("store: begin webhook event: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	var existing billing.WebhookEvent
	if err := db.Where("event_id = ?", eventID).First(&existing).Error; err != nil {
		return false, fmt.Errorf("store: load webhook event: %w", err)
	}
	return existing.ProcessedAt != nil && existing.ProcessingError == "", nil
}

func (s *Store) FinishWebhookEvent(ctx context.Context, eventID string, procErr error) error {
	now := time.Now().UTC()
	msg := ""
	if procErr != nil {
		msg = procErr.Error()
	}
	err := s.db.WithContext(ctx).
		Model(&billing.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{"processed_at": now, "processing_error": msg}).Error
	if err != nil {
		return fmt.Errorf("store: finish webhook event: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) first(ctx context.Context, op string, query string, args ...any) (*users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return &u, nil
}

func (s *Store) update(ctx context.Context, op, id string, values map[string]any) error {
	res := s.db.WithContext(ctx).Model(&users.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("store: %s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("User")
	}
	return nil
}

// isUniqueViolation covers drivers that do not implement gorm's error translator.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
