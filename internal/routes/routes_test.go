package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nanosoft-labs/auth-backend/internal/config"
	"github.com/nanosoft-labs/auth-backend/internal/handlers"
	"github.com/nanosoft-labs/auth-backend/internal/models"
	"github.com/nanosoft-labs/auth-backend/internal/notify"
	"github.com/nanosoft-labs/auth-backend/internal/services"
	"github.com/nanosoft-labs/auth-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubVerifier struct {
	claims *services.GoogleIDClaims
	err    error
}

func (v *stubVerifier) VerifyIDToken(idToken, clientID string) (*services.GoogleIDClaims, error) {
	return v.claims, v.err
}

type fixture struct {
	app      *fiber.App
	store    *store.Memory
	codec    *services.TokenCodec
	verifier *stubVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:      "routes-test-secret",
		AccessTokenTTL: time.Hour,
	}
	mem := store.NewMemory()
	codec := services.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL)
	verifier := &stubVerifier{}
	session := services.NewSessionService(mem, codec, verifier, notify.LogNotifier{}, nil, "client-id")

	app := fiber.New()
	Setup(app, cfg, codec, session,
		handlers.NewAuthHandler(session),
		handlers.NewUserHandler(services.NewUserService(mem)),
		handlers.NewHealthHandler(nil))

	return &fixture{app: app, store: mem, codec: codec, verifier: verifier}
}

func (f *fixture) seedUser(t *testing.T, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateUser(context.Background(), &models.User{
		Email:    email,
		Password: string(hash),
	}))
}

func (f *fixture) request(t *testing.T, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *fixture) login(t *testing.T, email, password string) (access, refresh string) {
	t.Helper()
	resp := f.request(t, fiber.MethodPost, "/auth/token",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	return body["access_token"].(string), body["refresh_token"].(string)
}

func TestLoginIssuesPair(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")

	resp := f.request(t, fiber.MethodPost, "/auth/token",
		`{"email":"user@example.com","password":"hunter2hunter2"}`, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, float64(3600), body["ttl"])
}

func TestLoginWrongPasswordBody(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")

	resp := f.request(t, fiber.MethodPost, "/auth/token",
		`{"email":"user@example.com","password":"wrong-password"}`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"error":{"code":"10-02","message":"Either the username or the password is incorrect."}}`,
		string(raw))
}

func TestLoginUnknownUserSharesMessage(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, fiber.MethodPost, "/auth/token",
		`{"email":"ghost@example.com","password":"hunter2hunter2"}`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "10-01", errBody["code"])
	assert.Equal(t, "Either the username or the password is incorrect.", errBody["message"])
}

func TestLoginRejectsInvalidBody(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, fiber.MethodPost, "/auth/token", `{"email":"not-an-email"}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRefreshRotatesAndConsumes(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")
	_, refresh := f.login(t, "user@example.com", "hunter2hunter2")

	resp := f.request(t, fiber.MethodPost, "/auth/token/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, refresh), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEqual(t, refresh, body["refresh_token"])

	resp = f.request(t, fiber.MethodPost, "/auth/token/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, refresh), nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "10-04", errBody["code"])
	assert.Equal(t, "Please authenticate again.", errBody["message"])
}

func TestRevokeThenSecondRevoke(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")
	access, _ := f.login(t, "user@example.com", "hunter2hunter2")
	auth := map[string]string{fiber.HeaderAuthorization: "Bearer " + access}

	resp := f.request(t, fiber.MethodPost, "/auth/token/revoke", "", auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "You have been logged out.", body["message"])

	resp = f.request(t, fiber.MethodPost, "/auth/token/revoke", "", auth)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "10-05", errBody["code"])
	assert.Equal(t, "Could not log you out. Please try again.", errBody["message"])
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, fiber.MethodPut, "/auth/password",
		`{"email":"user@example.com","old_password":"hunter2hunter2","new_password":"hunter3hunter3"}`, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "No authorization token was found", body["message"])
}

func TestProtectedRouteWithGarbageToken(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, fiber.MethodPut, "/auth/password", "",
		map[string]string{fiber.HeaderAuthorization: "Bearer not-a-jwt"})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid Token", body["message"])
}

func TestProtectedRouteWithExpiredToken(t *testing.T) {
	f := newFixture(t)
	expired := services.NewTokenCodec("routes-test-secret", -time.Minute)
	pair, err := expired.MintPair(uuid.New())
	require.NoError(t, err)

	resp := f.request(t, fiber.MethodPut, "/auth/password", "",
		map[string]string{fiber.HeaderAuthorization: "Bearer " + pair.AccessToken})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Jwt Token Expired", body["message"])
}

func TestChangePasswordAfterRevokeRejected(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")
	access, _ := f.login(t, "user@example.com", "hunter2hunter2")
	auth := map[string]string{fiber.HeaderAuthorization: "Bearer " + access}

	resp := f.request(t, fiber.MethodPost, "/auth/token/revoke", "", auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The signature is still valid, but the tombstone gates the route.
	resp = f.request(t, fiber.MethodPut, "/auth/password",
		`{"email":"user@example.com","old_password":"hunter2hunter2","new_password":"hunter3hunter3"}`, auth)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid Token", body["message"])
}

func TestChangePasswordFlow(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")
	access, _ := f.login(t, "user@example.com", "hunter2hunter2")
	auth := map[string]string{fiber.HeaderAuthorization: "Bearer " + access}

	resp := f.request(t, fiber.MethodPut, "/auth/password",
		`{"email":"user@example.com","old_password":"hunter2hunter2","new_password":"hunter3hunter3"}`, auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Your password has been changed.", body["message"])

	resp = f.request(t, fiber.MethodPost, "/auth/token",
		`{"email":"user@example.com","password":"hunter3hunter3"}`, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestResetWhileLoggedInRejected(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")
	access, _ := f.login(t, "user@example.com", "hunter2hunter2")

	resp := f.request(t, fiber.MethodPost, "/auth/forgotpwd/reset",
		`{"email":"user@example.com","forgot_pwd_token":"00000000-0000-0000-0000-000000000000","new_password":"hunter3hunter3"}`,
		map[string]string{fiber.HeaderAuthorization: "Bearer " + access})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "10-09", errBody["code"])
}

func TestResetWithoutSessionReachesEngine(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")

	// No outstanding recovery request, so the engine rejects with 10-11.
	resp := f.request(t, fiber.MethodPost, "/auth/forgotpwd/reset",
		`{"email":"user@example.com","forgot_pwd_token":"00000000-0000-0000-0000-000000000000","new_password":"hunter3hunter3"}`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "10-11", errBody["code"])
}

func TestForgotPasswordConfirmation(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")

	resp := f.request(t, fiber.MethodPost, "/auth/forgotpwd",
		`{"email":"user@example.com"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "A password reset token has been sent.", body["message"])
}

func TestGoogleExchangeUnregistered(t *testing.T) {
	f := newFixture(t)
	f.verifier.claims = &services.GoogleIDClaims{Email: "new@example.com", Sub: "sub"}

	resp := f.request(t, fiber.MethodPost, "/auth/token/exchange/google",
		`{"id_token":"stub-token"}`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "10-15", errBody["code"])
	assert.Equal(t, "register", errBody["action"])
}

func TestGoogleExchangeKnownUser(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user@example.com", "hunter2hunter2")
	f.verifier.claims = &services.GoogleIDClaims{Email: "user@example.com", Sub: "sub"}

	resp := f.request(t, fiber.MethodPost, "/auth/token/exchange/google",
		`{"id_token":"stub-token"}`, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
}

func TestCreateUserEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, fiber.MethodPost, "/user/create",
		`{"email":"new@example.com","password":"hunter2hunter2"}`, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "new@example.com", body["email"])
}

func TestUnknownRouteBody(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, fiber.MethodGet, "/no/such/route", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":404,"message":"Resource not found."}}`, string(raw))
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, fiber.MethodGet, "/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unreachable", body["db"])
}
