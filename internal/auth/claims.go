package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the token payload docwatch cares about. The subject is the owner
// whose hierarchy and watchlist the request acts on.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"` // "authenticated" or "anon"
}

// Owner returns the owner identity carried by the token.
func (c *Claims) Owner() string {
	return c.Subject
}
