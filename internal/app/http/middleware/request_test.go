package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-app/internal/api/httputil"
	"movie-app/internal/pkg/logger"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, httputil.RequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestLogger_WritesOneLine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.Config{Level: "debug", Format: "json"}, &buf)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	line := buf.String()
	assert.Contains(t, line, `"level":"warn"`)
	assert.Contains(t, line, `"status":404`)
	assert.Contains(t, line, `"path":"/missing"`)
	assert.Contains(t, line, `"request_id"`)
}

type observed struct {
	route, status string
}

type recorder struct{ calls []observed }

func (r *recorder) ObserveHTTP(_, route, status string, _ float64) {
	r.calls = append(r.calls, observed{route, status})
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &recorder{}
	r := gin.New()
	r.Use(Metrics(rec))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, observed{"/items/:id", "200"}, rec.calls[0])
	assert.Equal(t, observed{"unmatched", "404"}, rec.calls[1])
}
