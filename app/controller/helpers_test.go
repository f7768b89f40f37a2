package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/repository/memory"
	"github.com/vibast-solutions/ms-go-journal/app/service"
	"github.com/vibast-solutions/ms-go-journal/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type capturingMailer struct {
	token string
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, _, token string, _ time.Duration) error {
	m.token = token
	return nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			ResetTTL: 15 * time.Minute,
		},
		Password: config.PasswordConfig{
			BcryptCost: bcrypt.MinCost,
			Policy:     config.PasswordPolicy{MinLength: 8},
		},
	}
}

func newMemoryAuthService(store *memory.Store, mailer *capturingMailer) service.UserAuthService {
	return service.NewUserAuthService(
		store.Users(),
		store.RefreshTokens(),
		mailer,
		newTestConfig(),
		service.WithAsyncRunner(func(task func()) { task() }),
	)
}

func newJSONRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func newRawRequest(method, path, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func newContext(req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID) echo.Context {
	ctx := echo.New().NewContext(req, rec)
	if userID != uuid.Nil {
		ctx.Set("user_id", userID)
	}
	return ctx
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v (%s)", err, rec.Body.String())
	}
	return body
}
