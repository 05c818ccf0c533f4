package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/contactvault/contactvault/internal/logging"
)

// ErrUnauthenticated is returned by services when no identity is bound to the
// request, or when the bound identity does not resolve to a known user. The
// two cases are deliberately indistinguishable to the caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

// IdentityContextKey holds the resolved identity (user email) for a request.
const IdentityContextKey ContextKey = "identity"

// Middleware resolves the caller's identity from the Authorization header.
type Middleware struct {
	tokenService TokenService
	exemptPaths  map[string]struct{}
}

// NewMiddleware creates the identity resolution middleware. Requests to the
// exempt paths bypass token processing entirely so they stay reachable by
// unauthenticated callers.
func NewMiddleware(tokenService TokenService, exemptPaths ...string) *Middleware {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = struct{}{}
	}
	return &Middleware{tokenService: tokenService, exemptPaths: exempt}
}

// ResolveIdentity validates the bearer token, if any, and binds the resolved
// identity into the request context. It never writes the terminal response:
// a missing or invalid token simply leaves the identity slot empty, and the
// authorization decision belongs to the business layer. Authentication and
// authorization stay separate concerns.
func (m *Middleware) ResolveIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.exemptPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			logger := logging.GetLoggerFromContext(r.Context())
			if errors.Is(err, ErrExpiredToken) {
				logger.Warn("bearer token expired")
			} else {
				logger.Warn("bearer token rejected", "error", err.Error())
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Anything else counts as no credential at all.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// IdentityFromContext extracts the resolved identity from the request
// context. The empty string means the request is unauthenticated.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(string)
	return identity, ok && identity != ""
}
