package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"movie-app/internal/api/httputil"
	"movie-app/internal/apperror"
	"movie-app/internal/session"
)

type Sessions interface {
	Register(ctx context.Context, email, password, name string) (*session.Result, error)
	Login(ctx context.Context, email, password string) (*session.Result, error)
	LoginWithGoogle(ctx context.Context, id session.GoogleIdentity) (*session.Result, error)
}

type AttemptRecorder interface {
	AuthAttempt(operation, outcome string)
}

type Handler struct {
	sessions Sessions
	validate httputil.StructValidator
	cookie   httputil.CookieConfig
	metrics  AttemptRecorder
	log      zerolog.Logger
}

func NewHandler(s Sessions, v httputil.StructValidator, cookie httputil.CookieConfig, m AttemptRecorder, log zerolog.Logger) *Handler {
	return &Handler{sessions: s, validate: v, cookie: cookie, metrics: m, log: log}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128,password"`
	Name     string `json:"name" validate:"required,min=2,max=50,personname"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := httputil.BindJSON(c, h.validate, &req); err != nil {
		h.metrics.AuthAttempt("register", "invalid")
		httputil.Error(c, h.log, err)
		return
	}

	res, err := h.sessions.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.metrics.AuthAttempt("register", outcomeOf(err))
		httputil.Error(c, h.log, err)
		return
	}

	h.metrics.AuthAttempt("register", "success")
	httputil.SetSessionCookie(c, h.cookie, res.Token)
	c.JSON(http.StatusCreated, gin.H{"token": res.Token, "user": res.User})
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := httputil.BindJSON(c, h.validate, &req); err != nil {
		h.metrics.AuthAttempt("login", "invalid")
		httputil.Error(c, h.log, err)
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.AuthAttempt("login", outcomeOf(err))
		httputil.Error(c, h.log, err)
		return
	}

	h.metrics.AuthAttempt("login", "success")
	httputil.SetSessionCookie(c, h.cookie, res.Token)
	c.JSON(http.StatusOK, gin.H{"token": res.Token, "user": res.User})
}

// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	httputil.ClearSessionCookie(c, h.cookie)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		return "invalid_credentials"
	case errors.Is(err, apperror.ErrConflict):
		return "conflict"
	case errors.Is(err, apperror.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
