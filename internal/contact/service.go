package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contactvault/contactvault/internal/auth"
	"github.com/contactvault/contactvault/internal/logging"
	"github.com/contactvault/contactvault/internal/user"
)

// ErrForbidden is returned when a contact exists but belongs to another user.
var ErrForbidden = errors.New("contact belongs to another user")

// Store defines the persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, c *Contact) (*Contact, error)
	GetByID(ctx context.Context, id int64) (*Contact, error)
	Replace(ctx context.Context, c *Contact) (*Contact, error)
	Delete(ctx context.Context, id int64) error
	ListByUserID(ctx context.Context, userID int64) ([]*Contact, error)
}

// UserDirectory resolves a bound identity to a user record.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Cache is the advisory read cache. A nil Cache disables caching.
type Cache interface {
	GetContact(ctx context.Context, id int64) (*Contact, error)
	SetContact(ctx context.Context, c *Contact) error
	GetList(ctx context.Context, userID int64) ([]*Contact, error)
	SetList(ctx context.Context, userID int64, list []*Contact) error
	Invalidate(ctx context.Context, userID, contactID int64) error
}

// Service performs contact CRUD with strict per-owner isolation. Every
// operation resolves the request identity to an owner before touching data,
// and existence is always checked before ownership: probing a nonexistent id
// yields NotFound, probing an existing foreign id yields Forbidden.
type Service struct {
	store  Store
	users  UserDirectory
	cache  Cache
	logger *logging.Logger
}

func NewService(store Store, users UserDirectory, cache Cache, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		users:  users,
		cache:  cache,
		logger: logger,
	}
}

// Create builds a new contact owned by the resolved user.
func (s *Service) Create(ctx context.Context, identity string, in Input) (*Contact, error) {
	owner, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}

	c := &Contact{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Title:        in.Title,
		UserID:       owner.ID,
		Emails:       normalizeEmails(in.Emails),
		PhoneNumbers: normalizePhones(in.PhoneNumbers),
	}

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.invalidateCache(ctx, owner.ID, created.ID)
	s.logger.Info("contact created", "contact_id", created.ID, "user_id", owner.ID)

	return created, nil
}

// Get loads a contact the caller owns.
func (s *Service) Get(ctx context.Context, identity string, id int64) (*Contact, error) {
	owner, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != owner.ID {
		return nil, ErrForbidden
	}
	return c, nil
}

// Update overwrites the contact's fields and rebuilds both child collections
// from the input. This is a full replace, not a merge: anything not
// resubmitted is permanently dropped.
func (s *Service) Update(ctx context.Context, identity string, id int64, in Input) (*Contact, error) {
	owner, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != owner.ID {
		return nil, ErrForbidden
	}

	replacement := &Contact{
		ID:           id,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Title:        in.Title,
		UserID:       existing.UserID,
		Emails:       normalizeEmails(in.Emails),
		PhoneNumbers: normalizePhones(in.PhoneNumbers),
	}

	updated, err := s.store.Replace(ctx, replacement)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	s.invalidateCache(ctx, owner.ID, id)
	s.logger.Info("contact updated", "contact_id", id, "user_id", owner.ID)

	return updated, nil
}

// Delete removes the contact and its child collections as a single unit.
func (s *Service) Delete(ctx context.Context, identity string, id int64) error {
	owner, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != owner.ID {
		return ErrForbidden
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	s.invalidateCache(ctx, owner.ID, id)
	s.logger.Info("contact deleted", "contact_id", id, "user_id", owner.ID)

	return nil
}

// List returns every contact owned by the caller.
func (s *Service) List(ctx context.Context, identity string) ([]*Contact, error) {
	owner, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetList(ctx, owner.ID)
		if err != nil {
			s.logger.Warn("contact list cache read failed", "error", err.Error())
		} else if cached != nil {
			return cached, nil
		}
	}

	list, err := s.store.ListByUserID(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetList(ctx, owner.ID, list); err != nil {
			s.logger.Warn("contact list cache write failed", "error", err.Error())
		}
	}

	return list, nil
}

// load reads a contact through the cache. Ownership is checked by the caller
// on every request, cached or not.
func (s *Service) load(ctx context.Context, id int64) (*Contact, error) {
	if s.cache != nil {
		cached, err := s.cache.GetContact(ctx, id)
		if err != nil {
			s.logger.Warn("contact cache read failed", "contact_id", id, "error", err.Error())
		} else if cached != nil {
			return cached, nil
		}
	}

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetContact(ctx, c); err != nil {
			s.logger.Warn("contact cache write failed", "contact_id", id, "error", err.Error())
		}
	}

	return c, nil
}

// resolveOwner maps the bound identity to a user. A missing identity and an
// unknown one are reported identically as unauthenticated.
func (s *Service) resolveOwner(ctx context.Context, identity string) (*user.User, error) {
	if identity == "" {
		return nil, auth.ErrUnauthenticated
	}
	owner, err := s.users.GetByEmail(ctx, identity)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to resolve owner: %w", err)
	}
	return owner, nil
}

// invalidateCache drops cache entries after a write; failures are logged and
// otherwise ignored.
func (s *Service) invalidateCache(ctx context.Context, userID, contactID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID, contactID); err != nil {
		s.logger.Warn("contact cache invalidation failed", "contact_id", contactID, "error", err.Error())
	}
}

// normalizeEmails trims values, drops blank entries, and deduplicates by the
// full (label, value) pair. The collections are sets, not ordered lists.
func normalizeEmails(in []EmailInput) []EmailAddress {
	seen := make(map[string]struct{}, len(in))
	out := make([]EmailAddress, 0, len(in))
	for _, e := range in {
		value := strings.TrimSpace(e.Email)
		if value == "" {
			continue
		}
		key := e.Label + "\x00" + value
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, EmailAddress{Label: e.Label, Email: value})
	}
	return out
}

// normalizePhones applies the same trim, blank-drop, and dedup rules.
func normalizePhones(in []PhoneInput) []PhoneNumber {
	seen := make(map[string]struct{}, len(in))
	out := make([]PhoneNumber, 0, len(in))
	for _, p := range in {
		value := strings.TrimSpace(p.Number)
		if value == "" {
			continue
		}
		key := p.Label + "\x00" + value
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, PhoneNumber{Label: p.Label, Number: value})
	}
	return out
}
