package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "storefront-test",
	})
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	session := identity.NewSession(uuid.New(), identity.RoleCustomer, time.Hour)

	token, err := svc.GenerateToken(session)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims.SessionID())
	assert.Equal(t, identity.RoleCustomer, claims.Role)
	subject, err := claims.SubjectUUID()
	require.NoError(t, err)
	assert.Equal(t, session.SubjectID, subject)
	assert.WithinDuration(t, session.ExpiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService()
	session := identity.NewSession(uuid.New(), identity.RoleAdmin, -time.Minute)
	session.CreatedAt = time.Now().Add(-2 * time.Minute)

	token, err := svc.GenerateToken(session)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestJWTService()
	session := identity.NewSession(uuid.New(), identity.RoleCustomer, time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "storefront-test"})
		token, err := other.GenerateToken(session)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "elsewhere"})
		token, err := other.GenerateToken(session)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing session id", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "storefront-test",
				Subject:   uuid.NewString(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Role: identity.RoleCustomer,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingSessionID)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Issuer:    "storefront-test",
				Subject:   uuid.NewString(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Role: "superuser",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, hasher.Verify(hash, "password123"))
	assert.False(t, hasher.Verify(hash, "password124"))
	assert.False(t, hasher.Verify("not-a-hash", "password123"))

	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).cost)
}
