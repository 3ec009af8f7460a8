package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/config"
	"github.com/akhilcoder7733/hotelgram/task"
)

func newTestApp(t *testing.T, limits config.RateLimitConfig) *fiber.App {
	t.Helper()
	a, _ := newTestAuth(t, task.Instant{})
	h := NewHandler(a)
	sessions := config.SessionConfig{JWTSecret: testSecret}

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler})
	users := app.Group("/users")
	users.Post("/auth/login", h.Login, NewLoginLimiter(limits).Handler())
	users.Post("/auth/logout", h.Logout, RequireSession(a, sessions))
	users.Get("/me", h.Me, RequireSession(a, sessions))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestLoginHandlerRoundTrip(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	resp, body := doJSON(t, app, http.MethodPost, "/users/auth/login", "",
		`{"email":"ana@example.com","password":"hunter22","from":"/booking/proceed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/booking/proceed", body["redirect"])

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = doJSON(t, app, http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["authenticated"])

	resp, _ = doJSON(t, app, http.MethodPost, "/users/auth/logout", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the token outlives the session but no longer opens anything
	resp, body = doJSON(t, app, http.MethodGet, "/users/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", body["login"])
}

func TestLoginHandlerDefaultsToHome(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	resp, body := doJSON(t, app, http.MethodPost, "/users/auth/login", "",
		`{"email":"ana@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/home", body["redirect"])
}

func TestLoginHandlerRejectsInvalidForm(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	resp, body := doJSON(t, app, http.MethodPost, "/users/auth/login", "", `{"email":"ana","password":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "validation", body["error"])
}

func TestMeRequiresToken(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	resp, _ := doJSON(t, app, http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/users/me", "not.a.token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginLimiter(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{LoginRPS: 0.001, LoginBurst: 2})
	body := `{"email":"ana@example.com","password":"hunter22"}`

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, app, http.MethodPost, "/users/auth/login", "", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, out := doJSON(t, app, http.MethodPost, "/users/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, true, out["retry"])
}
