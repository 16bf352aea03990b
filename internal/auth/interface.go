package auth

// TokenVerifier validates bearer tokens presented at the HTTP edge.
// The middleware only needs the owner identity, so implementations are free to
// verify however they like.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or badly signed.
	VerifyToken(tokenString string) (*Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
