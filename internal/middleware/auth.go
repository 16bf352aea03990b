package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nglaszik/docwatch/internal/auth"
	"github.com/nglaszik/docwatch/internal/domain"
	"github.com/nglaszik/docwatch/internal/httputil"
)

// Auth resolves the request owner from a bearer token. With no verifier
// configured every request runs as devOwner.
func Auth(verifier auth.TokenVerifier, devOwner string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				if devOwner == "" {
					httputil.RespondDomainError(w, r, logger, domain.ErrUnauthorized)
					return
				}
				next.ServeHTTP(w, httputil.WithOwner(r, devOwner))
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondDomainError(w, r, logger, domain.ErrUnauthorized)
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				httputil.RespondDomainError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, httputil.WithOwner(r, claims.Owner()))
		})
	}
}
