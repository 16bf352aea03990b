package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nglaszik/docwatch/internal/domain"
)

func TestVerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := NewKeyfuncVerifier(func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sign := func(claims Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func(sub, role string) Claims {
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   sub,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Role: role,
		}
	}

	t.Run("valid token", func(t *testing.T) {
		claims, err := verifier.VerifyToken(sign(valid("alice", "authenticated")))
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Owner())
	})

	expired := valid("alice", "authenticated")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noExpiry := valid("alice", "authenticated")
	noExpiry.ExpiresAt = nil

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, valid("alice", "authenticated")).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", sign(expired)},
		{"no expiry", sign(noExpiry)},
		{"missing subject", sign(valid("", "authenticated"))},
		{"anonymous", sign(valid("alice", "anon"))},
		{"symmetric algorithm", hmac},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.VerifyToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
