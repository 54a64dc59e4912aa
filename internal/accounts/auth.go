// internal/accounts/auth.go
package accounts

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/graphchat/text2cypher/internal/config"
)

// bcrypt rejects inputs longer than 72 bytes; longer passwords are truncated
// consistently on both hash and verify so they keep matching.
const bcryptMaxBytes = 72

// ErrInvalidToken covers every token failure mode (expired, bad signature,
// malformed). Callers must not distinguish them to avoid oracle behavior.
var ErrInvalidToken = errors.New("invalid or expired token")

// Authenticator hashes passwords and issues/verifies HS256 access tokens.
type Authenticator struct {
	secret []byte
	expiry time.Duration
}

// NewAuthenticator builds the authenticator from JWT configuration.
func NewAuthenticator(cfg config.JWTConfig) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	expiry := cfg.AccessExpiry
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &Authenticator{
		secret: []byte(cfg.Secret),
		expiry: expiry,
	}, nil
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plain password matches the stored hash.
func VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), truncatePassword(plain)) == nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		return b[:bcryptMaxBytes]
	}
	return b
}

// CreateAccessToken issues a signed token with the user's email as subject.
func (a *Authenticator) CreateAccessToken(email string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// DecodeToken verifies a token and returns the subject (user email).
func (a *Authenticator) DecodeToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
