// Package session registers users, checks credentials and restores sessions
// from tokens. It never trusts token claims beyond the user id.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"movie-app/internal/apperror"
	"movie-app/internal/auth"
	"movie-app/internal/domain/users"
)

type Store interface {
	CreateUser(ctx context.Context, u *users.User) error
	FindByID(ctx context.Context, id string) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*users.User, error)
	FindByGoogleSub(ctx context.Context, sub string) (*users.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	LinkGoogleAccount(ctx context.Context, id, sub string) error
}

type Tokens interface {
	Issue(userID, email, name string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Result is what register and login hand back to the transport layer.
type Result struct {
	Token string
	User  users.View
}

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type Manager struct {
	store  Store
	tokens Tokens
	hasher Hasher
	now    func() time.Time
	log    zerolog.Logger
}

func NewManager(s Store, t Tokens, h Hasher, log zerolog.Logger) *Manager {
	return &Manager{
		store:  s,
		tokens: t,
		hasher: h,
		now:    time.Now,
		log:    log.With().Str("component", "session").Logger(),
	}
}

func (m *Manager) Register(ctx context.Context, email, password, name string) (*Result, error) {
	email = normalizeEmail(email)

	_, err := m.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("User already exists")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal("hashing password", err)
	}

	u := &users.User{
		Email:              email,
		PasswordHash:       hash,
		Name:               strings.TrimSpace(name),
		Favorites:          users.MovieIDs{},
		SubscriptionStatus: users.StatusFree,
		SubscriptionPlan:   users.PlanBasic,
		IsActive:           true,
	}
	if err := m.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	m.log.Info().Str("user_id", u.ID).Msg("user registered")
	return m.issue(u)
}

// Login fails with the same error for an unknown e-mail, an inactive account,
// a password-less account and a wrong password.
func (m *Manager) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := m.store.FindActiveByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, err
	}

	if err := m.hasher.Compare(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, apperror.Internal("comparing password", err)
	}

	return m.completeLogin(ctx, u)
}

// Restore resolves a token to the current user record. It returns nil when the
// token is invalid or the user is gone or deactivated.
func (m *Manager) Restore(ctx context.Context, token string) (*users.User, error) {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		return nil, nil
	}
	u, err := m.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, nil
	}
	return u, nil
}

// LoginWithGoogle signs in by Google subject, linking an existing account with
// the same verified e-mail or creating a password-less one.
func (m *Manager) LoginWithGoogle(ctx context.Context, id GoogleIdentity) (*Result, error) {
	if id.Subject == "" || id.Email == "" {
		return nil, apperror.Unauthorized("Google account has no email")
	}

	u, err := m.store.FindByGoogleSub(ctx, id.Subject)
	if err == nil {
		return m.completeLogin(ctx, u)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	email := normalizeEmail(id.Email)
	u, err = m.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !id.EmailVerified {
			return nil, apperror.Unauthorized("Google email is not verified")
		}
		if err := m.store.LinkGoogleAccount(ctx, u.ID, id.Subject); err != nil {
			return nil, err
		}
		sub := id.Subject
		u.GoogleSub = &sub
	case errors.Is(err, apperror.ErrNotFound):
		sub := id.Subject
		u = &users.User{
			Email:     email,
			Name:      displayName(id),
			GoogleSub: &sub,
			IsActive:  true,
		}
		if err := m.store.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		m.log.Info().Str("user_id", u.ID).Msg("user registered with google")
	default:
		return nil, err
	}

	if !u.IsActive {
		return nil, apperror.InvalidCredentials()
	}
	return m.completeLogin(ctx, u)
}

func (m *Manager) completeLogin(ctx context.Context, u *users.User) (*Result, error) {
	now := m.now().UTC()
	if err := m.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLoginAt = &now
	return m.issue(u)
}

func (m *Manager) issue(u *users.User) (*Result, error) {
	token, err := m.tokens.Issue(u.ID, u.Email, u.Name)
	if err != nil {
		return nil, apperror.Internal("issuing token", err)
	}
	return &Result{Token: token, User: u.View()}, nil
}

func displayName(id GoogleIdentity) string {
	if n := strings.TrimSpace(id.Name); n != "" {
		return n
	}
	if at := strings.IndexByte(id.Email, '@'); at > 0 {
		return id.Email[:at]
	}
	return id.Email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
