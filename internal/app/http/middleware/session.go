package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"movie-app/internal/api/httputil"
	"movie-app/internal/domain/users"
)

type SessionRestorer interface {
	Restore(ctx context.Context, token string) (*users.User, error)
}

// RequireSession restores the user from the session cookie (or bearer header)
// and aborts with 401 when there is none. A stale cookie is cleared.
func RequireSession(sessions SessionRestorer, cookie httputil.CookieConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := httputil.SessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		u, err := sessions.Restore(c.Request.Context(), token)
		if err != nil {
			log.Error().Err(err).Str("request_id", httputil.RequestID(c)).Msg("session restore failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		if u == nil {
			httputil.ClearSessionCookie(c, cookie)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		httputil.SetCurrentUser(c, u)
		c.Next()
	}
}
