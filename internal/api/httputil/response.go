// Package httputil holds the pieces every handler shares: error rendering,
// request binding, the session cookie and the authenticated user in context.
package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"movie-app/internal/apperror"
)

// Error renders err as {message} (plus errors[] for validation failures).
// Upstream and internal failures are logged with their cause and shown generically.
func Error(c *gin.Context, log zerolog.Logger, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", RequestID(c)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}

	body := gin.H{"message": apperror.PublicMessage(err)}
	var appErr *apperror.AppError
	if kind == apperror.KindValidation && errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}
