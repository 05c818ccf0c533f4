package auth

// TokenService defines the interface for bearer token issuance and validation.
// The production implementation is PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(subject string) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
