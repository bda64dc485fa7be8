package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-app/internal/api/httputil"
	"movie-app/internal/apperror"
	"movie-app/internal/domain/users"
	"movie-app/internal/pkg/logger"
	"movie-app/internal/pkg/validator"
	"movie-app/internal/session"
)

type fakeSessions struct {
	registerErr error
	loginErr    error
	googleErr   error
	gotGoogle   session.GoogleIdentity
}

func (f *fakeSessions) result(email, name string) *session.Result {
	return &session.Result{
		Token: "signed-token",
		User: users.View{
			ID:                 "u-1",
			Email:              email,
			Name:               name,
			Favorites:          []string{},
			SubscriptionStatus: users.StatusFree,
			SubscriptionPlan:   users.PlanBasic,
		},
	}
}

func (f *fakeSessions) Register(_ context.Context, email, _, name string) (*session.Result, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.result(email, name), nil
}

func (f *fakeSessions) Login(_ context.Context, email, _ string) (*session.Result, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.result(email, "Ana"), nil
}

func (f *fakeSessions) LoginWithGoogle(_ context.Context, id session.GoogleIdentity) (*session.Result, error) {
	f.gotGoogle = id
	if f.googleErr != nil {
		return nil, f.googleErr
	}
	return f.result(id.Email, id.Name), nil
}

type attempts map[string]int

func (a attempts) AuthAttempt(operation, outcome string) {
	a[operation+"/"+outcome]++
}

var testCookie = httputil.CookieConfig{MaxAge: 7 * 24 * time.Hour}

func newTestHandler(s *fakeSessions) (*Handler, attempts) {
	gin.SetMode(gin.TestMode)
	m := attempts{}
	return NewHandler(s, validator.New(), testCookie, m, logger.Nop()), m
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == httputil.SessionCookie {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegister_CreatesSessionCookie(t *testing.T) {
	h, m := newTestHandler(&fakeSessions{})
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := do(r, http.MethodPost, "/auth/register", `{"email":"a@x.com","password":"Abcdef1","name":"Ana"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "signed-token", body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "free", user["subscriptionStatus"])
	assert.NotContains(t, user, "passwordHash")

	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Equal(t, "signed-token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), c.MaxAge)
	assert.Equal(t, 1, m["register/success"])
}

func TestRegister_ValidationErrorsListFields(t *testing.T) {
	h, m := newTestHandler(&fakeSessions{})
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := do(r, http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"abcdef","name":"A1"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Validation failed", body["message"])

	fields := map[string]string{}
	for _, e := range body["errors"].([]any) {
		fe := e.(map[string]any)
		fields[fe["field"].(string)] = fe["message"].(string)
	}
	assert.Equal(t, "Please enter a valid email address", fields["email"])
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "name")
	assert.Nil(t, sessionCookie(w))
	assert.Equal(t, 1, m["register/invalid"])
}

func TestRegister_EmptyBody(t *testing.T) {
	h, _ := newTestHandler(&fakeSessions{})
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := do(r, http.MethodPost, "/auth/register", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Request body is required")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, m := newTestHandler(&fakeSessions{registerErr: apperror.Conflict("User already exists")})
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := do(r, http.MethodPost, "/auth/register", `{"email":"a@x.com","password":"Abcdef1","name":"Ana"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["message"])
	assert.Equal(t, 1, m["register/conflict"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h, m := newTestHandler(&fakeSessions{loginErr: apperror.InvalidCredentials()})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := do(r, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])
	assert.Nil(t, sessionCookie(w))
	assert.Equal(t, 1, m["login/invalid_credentials"])
}

func TestLogin_StoreFailureIsNotMasked(t *testing.T) {
	h, m := newTestHandler(&fakeSessions{loginErr: apperror.Internal("finding user", errors.New("db down"))})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := do(r, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Abcdef1"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["message"])
	assert.Equal(t, 1, m["login/error"])
}

func TestLogin_Success(t *testing.T) {
	h, _ := newTestHandler(&fakeSessions{})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := do(r, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Abcdef1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed-token", decode(t, w)["token"])
	require.NotNil(t, sessionCookie(w))
}

func TestLogout_ClearsCookie(t *testing.T) {
	h, _ := newTestHandler(&fakeSessions{})
	r := gin.New()
	r.POST("/auth/logout", h.Logout)

	w := do(r, http.MethodPost, "/auth/logout", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out", decode(t, w)["message"])
	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "invalid_credentials", outcomeOf(apperror.InvalidCredentials()))
	assert.Equal(t, "conflict", outcomeOf(apperror.Conflict("x")))
	assert.Equal(t, "invalid", outcomeOf(apperror.Validation()))
	assert.Equal(t, "error", outcomeOf(errors.New("boom")))
}
