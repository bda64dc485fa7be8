package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"movie-app/config"
	"movie-app/internal/api/httputil"
	"movie-app/internal/session"
)

const (
	googleIssuer = "https://accounts.google.com"
	stateCookie  = "oauth_state"
)

// GoogleAuthenticator runs the OAuth code flow and returns the verified identity.
type GoogleAuthenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (session.GoogleIdentity, error)
}

type googleOIDC struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleAuthenticator discovers Google's OIDC keys once at startup.
func NewGoogleAuthenticator(ctx context.Context, cfg config.GoogleConfig) (GoogleAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("auth: google oidc discovery: %w", err)
	}
	return &googleOIDC{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (g *googleOIDC) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleOIDC) Exchange(ctx context.Context, code string) (session.GoogleIdentity, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return session.GoogleIdentity{}, fmt.Errorf("auth: exchange code: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return session.GoogleIdentity{}, errors.New("auth: missing id_token")
	}
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return session.GoogleIdentity{}, fmt.Errorf("auth: verify id_token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return session.GoogleIdentity{}, fmt.Errorf("auth: decode id_token claims: %w", err)
	}

	name := claims.Name
	if name == "" {
		name = claims.GivenName
	}
	return session.GoogleIdentity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          name,
	}, nil
}

type GoogleHandler struct {
	*Handler
	google           GoogleAuthenticator
	frontendRedirect string
}

func NewGoogleHandler(h *Handler, g GoogleAuthenticator, frontendRedirect string) *GoogleHandler {
	return &GoogleHandler{Handler: h, google: g, frontendRedirect: frontendRedirect}
}

// GET /auth/google
func (h *GoogleHandler) Start(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 300, "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GET /auth/google/callback
func (h *GoogleHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing code or state"})
		return
	}
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid OAuth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.cookie.Secure, true)

	identity, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		h.log.Warn().Err(err).Msg("google sign-in failed")
		h.metrics.AuthAttempt("google", "invalid_credentials")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	res, err := h.sessions.LoginWithGoogle(c.Request.Context(), identity)
	if err != nil {
		h.metrics.AuthAttempt("google", outcomeOf(err))
		httputil.Error(c, h.log, err)
		return
	}

	h.metrics.AuthAttempt("google", "success")
	httputil.SetSessionCookie(c, h.cookie, res.Token)
	if h.frontendRedirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": res.Token, "user": res.User})
		return
	}
	c.Redirect(http.StatusFound, h.frontendRedirect)
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
