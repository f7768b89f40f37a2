package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenManager_IssueAndValidate(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)
	userID := uuid.New()

	token, expiresAt, err := manager.Issue(userID, auth.KindAccess, 30*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 2*time.Second)

	claims, err := manager.Validate(token, auth.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, auth.KindAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)
	userID := uuid.New()

	first, _, err := manager.Issue(userID, auth.KindRefresh, time.Hour)
	require.NoError(t, err)
	second, _, err := manager.Issue(userID, auth.KindRefresh, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenManager_ZeroTTLIsRejected(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)

	token, _, err := manager.Issue(uuid.New(), auth.KindAccess, 0)
	require.NoError(t, err)

	_, err = manager.Validate(token, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_ExpiredAtBoundary(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	manager := auth.NewTokenManager(testSecret, auth.WithTokenClock(func() time.Time { return now }))

	token, expiresAt, err := manager.Issue(uuid.New(), auth.KindAccess, time.Minute)
	require.NoError(t, err)

	now = expiresAt.Add(-time.Second)
	_, err = manager.Validate(token, auth.KindAccess)
	require.NoError(t, err)

	now = expiresAt
	_, err = manager.Validate(token, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	now = expiresAt.Add(time.Hour)
	_, err = manager.Validate(token, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_WrongKindIsRejected(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)

	refresh, _, err := manager.Issue(uuid.New(), auth.KindRefresh, time.Hour)
	require.NoError(t, err)
	_, err = manager.Validate(refresh, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	access, _, err := manager.Issue(uuid.New(), auth.KindAccess, time.Hour)
	require.NoError(t, err)
	_, err = manager.Validate(access, auth.KindRefresh)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_ForeignSecretIsRejected(t *testing.T) {
	issuer := auth.NewTokenManager("other-secret")
	manager := auth.NewTokenManager(testSecret)

	token, _, err := issuer.Issue(uuid.New(), auth.KindAccess, time.Hour)
	require.NoError(t, err)

	_, err = manager.Validate(token, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_TamperedTokenIsRejected(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)

	token, _, err := manager.Issue(uuid.New(), auth.KindAccess, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Swap the payload for one that claims a different subject.
	other, _, err := manager.Issue(uuid.New(), auth.KindAccess, time.Hour)
	require.NoError(t, err)
	parts[1] = strings.Split(other, ".")[1]

	_, err = manager.Validate(strings.Join(parts, "."), auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = manager.Validate("not-a-token", auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = manager.Validate("", auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_OtherAlgorithmsAreRejected(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)
	claims := &auth.Claims{
		Type: auth.KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = manager.Validate(hs512, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = manager.Validate(none, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_NonUUIDSubjectIsRejected(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)
	claims := &auth.Claims{
		Type: auth.KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = manager.Validate(token, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_MissingExpiryIsRejected(t *testing.T) {
	manager := auth.NewTokenManager(testSecret)
	claims := &auth.Claims{
		Type: auth.KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = manager.Validate(token, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
