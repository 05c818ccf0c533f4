package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/contactvault/contactvault/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. Email is expected to be lower-cased already;
// uniqueness is enforced by the database constraint.
func (r *Repository) Create(ctx context.Context, name, email, password string) (*User, error) {
	dbUser := &database.User{
		Name:     name,
		Email:    email,
		Password: password,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email (case-insensitive; emails are stored
// lower-cased).
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", strings.ToLower(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateName changes the display name.
func (r *Repository) UpdateName(ctx context.Context, userID int64, name string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewUpdate().
		Model(dbUser).
		Set("name = ?", name).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update name: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdatePassword replaces the stored credential.
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, password string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password = ?", password).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:        dbu.ID,
		Name:      dbu.Name,
		Email:     dbu.Email,
		Password:  dbu.Password,
		CreatedAt: dbu.CreatedAt,
		UpdatedAt: dbu.UpdatedAt,
	}
}
