package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/contactvault/contactvault/internal/auth"
	"github.com/contactvault/contactvault/internal/logging"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrWrongPassword    = errors.New("current password is incorrect")
)

const minPasswordLen = 6

// Store defines the persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, name, email, password string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateName(ctx context.Context, userID int64, name string) (*User, error)
	UpdatePassword(ctx context.Context, userID int64, password string) error
}

// LoginResult is what a successful login yields: a fresh bearer token and the
// authenticated user.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Service handles account registration, login, and profile operations.
type Service struct {
	store        Store
	tokenService auth.TokenService
	logger       *logging.Logger
}

func NewService(store Store, tokenService auth.TokenService, logger *logging.Logger) *Service {
	return &Service{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates a new account. Name and email are trimmed, email is
// stored lower-cased; a duplicate email (case-insensitive) is a conflict.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	newUser, err := s.store.Create(ctx, name, email, password)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", newUser.ID, "email", newUser.Email)

	return newUser, nil
}

// Login authenticates the credential pair and issues a bearer token whose
// subject is the stored email. Credential comparison is a straight equality
// check against the stored clear-text password (known defect, preserved
// behavior) done in constant time.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, auth.ErrUnauthenticated
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(existing.Password), []byte(password)) != 1 {
		return nil, auth.ErrUnauthenticated
	}

	token, err := s.tokenService.CreateToken(existing.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &LoginResult{Token: token, User: existing}, nil
}

// Profile returns the account for the resolved identity.
func (s *Service) Profile(ctx context.Context, identity string) (*User, error) {
	return s.resolve(ctx, identity)
}

// UpdateProfile changes the caller's display name.
func (s *Service) UpdateProfile(ctx context.Context, identity, name string) (*User, error) {
	existing, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	updated, err := s.store.UpdateName(ctx, existing.ID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return updated, nil
}

// ChangePassword replaces the caller's credential after verifying the
// current one matches exactly.
func (s *Service) ChangePassword(ctx context.Context, identity, currentPassword, newPassword string) error {
	existing, err := s.resolve(ctx, identity)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(existing.Password), []byte(currentPassword)) != 1 {
		return ErrWrongPassword
	}
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	if err := s.store.UpdatePassword(ctx, existing.ID, newPassword); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info("password changed", "user_id", existing.ID)

	return nil
}

// resolve maps a bound identity to a user record. No identity and an unknown
// identity are reported identically.
func (s *Service) resolve(ctx context.Context, identity string) (*User, error) {
	if identity == "" {
		return nil, auth.ErrUnauthenticated
	}
	existing, err := s.store.GetByEmail(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	return existing, nil
}
