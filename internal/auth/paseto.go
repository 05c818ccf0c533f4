package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims represents the claims embedded in a bearer token. Tokens carry
// identity only; they hold no authorization claims.
type TokenClaims struct {
	Subject   string    `json:"sub"` // user email, lower-cased
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// PasetoService issues and validates PASETO v4.local tokens (symmetric
// encryption with XChaCha20-Poly1305). The key is set once at construction
// and shared by issuance and validation; restarting with different key
// material invalidates every previously issued token.
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
}

func NewPasetoService(symmetricKey []byte, ttl time.Duration) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		ttl:          ttl,
	}, nil
}

// CreateToken issues a stateless bearer token with subject set to the given
// identity, issued-at now, and expiration now + TTL.
func (s *PasetoService) CreateToken(subject string) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetSubject(subject)
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.ttl))
	token.SetJti(uuid.NewString())

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken validates signature, structure, and expiry, returning the
// embedded claims. Expired tokens are distinguished from otherwise invalid
// ones so callers can log the difference; both are rejections.
func (s *PasetoService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	tokenID, err := token.GetJti()
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Subject:   subject,
		TokenID:   tokenID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
