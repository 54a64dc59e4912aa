package accounts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphchat/text2cypher/internal/config"
)

func testAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	auth, err := NewAuthenticator(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute})
	require.NoError(t, err)
	return auth
}

func TestNewAuthenticator(t *testing.T) {
	t.Run("requires a secret", func(t *testing.T) {
		_, err := NewAuthenticator(config.JWTConfig{})
		assert.Error(t, err)
	})

	t.Run("defaults a non-positive expiry", func(t *testing.T) {
		auth, err := NewAuthenticator(config.JWTConfig{Secret: "s"})
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, auth.expiry)
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Run("hash verifies against the original", func(t *testing.T) {
		hash, err := HashPassword("s3cret-password")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret-password", hash)
		assert.True(t, VerifyPassword("s3cret-password", hash))
		assert.False(t, VerifyPassword("wrong", hash))
	})

	t.Run("passwords beyond 72 bytes are truncated consistently", func(t *testing.T) {
		long := strings.Repeat("a", 100)
		hash, err := HashPassword(long)
		require.NoError(t, err)
		assert.True(t, VerifyPassword(long, hash))
		// Anything sharing the first 72 bytes verifies too; that is the
		// bcrypt truncation contract, made explicit here.
		assert.True(t, VerifyPassword(strings.Repeat("a", 72)+"different-tail", hash))
	})
}

func TestAccessTokens(t *testing.T) {
	auth := testAuthenticator(t)

	t.Run("round-trips the subject", func(t *testing.T) {
		token, err := auth.CreateAccessToken("user@example.com")
		require.NoError(t, err)

		email, err := auth.DecodeToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		_, err := auth.DecodeToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		other, err := NewAuthenticator(config.JWTConfig{Secret: "different", AccessExpiry: time.Minute})
		require.NoError(t, err)

		token, err := other.CreateAccessToken("user@example.com")
		require.NoError(t, err)

		_, err = auth.DecodeToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		shortLived, err := NewAuthenticator(config.JWTConfig{Secret: "test-secret", AccessExpiry: -time.Minute})
		require.NoError(t, err)
		// The constructor replaces a non-positive expiry, so force it.
		shortLived.expiry = -time.Minute

		token, err := shortLived.CreateAccessToken("user@example.com")
		require.NoError(t, err)

		_, err = auth.DecodeToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
