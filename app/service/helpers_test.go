package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-journal/config"

	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentReset struct {
	To    string
	Token string
	TTL   time.Duration
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentReset
	err  error
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentReset{To: to, Token: token, TTL: ttl})
	return nil
}

func (m *recordingMailer) last() (sentReset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentReset{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func syncRunner(task func()) {
	task()
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  30 * time.Minute,
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
