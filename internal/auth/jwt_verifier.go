package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nglaszik/docwatch/internal/domain"
)

// JWTVerifier implements TokenVerifier against a JWKS endpoint.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// keyfunc caches the key set and refreshes it in the background.
func NewJWTVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (TokenVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return NewKeyfuncVerifier(jwks.Keyfunc, logger), nil
}

// NewKeyfuncVerifier creates a verifier around an arbitrary key lookup.
func NewKeyfuncVerifier(kf jwt.Keyfunc, logger *slog.Logger) *JWTVerifier {
	return &JWTVerifier{keyfunc: kf, logger: logger}
}

// VerifyToken validates a token and extracts its claims.
func (v *JWTVerifier) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Anonymous sessions have no hierarchy of their own.
	if claims.Role == "anon" {
		v.logger.Debug("anonymous token rejected", "subject", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op: keyfunc stops its refresh goroutine when its context ends.
func (v *JWTVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
