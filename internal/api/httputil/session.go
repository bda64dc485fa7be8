package httputil

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"movie-app/internal/domain/users"
)

const (
	SessionCookie = "token"

	ctxUserKey      = "movieapp.user"
	ctxRequestIDKey = "movieapp.request_id"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

func SetSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
}

func ClearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", cfg.Secure, true)
}

// SessionToken reads the cookie first and falls back to an Authorization
// bearer header.
func SessionToken(c *gin.Context) string {
	if tok, err := c.Cookie(SessionCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

func SetCurrentUser(c *gin.Context, u *users.User) {
	c.Set(ctxUserKey, u)
}

// CurrentUser returns the user restored by the session middleware.
func CurrentUser(c *gin.Context) (*users.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*users.User)
	return u, ok && u != nil
}

func SetRequestID(c *gin.Context, id string) {
	c.Set(ctxRequestIDKey, id)
}

func RequestID(c *gin.Context) string {
	return c.GetString(ctxRequestIDKey)
}
