package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/contactvault/contactvault/internal/database"
)

// ErrNotFound is returned when no contact exists with the requested id.
var ErrNotFound = errors.New("contact not found")

// Repository persists contact aggregates. Every mutation touches the parent
// row and both child tables inside a single transaction, so either the whole
// aggregate lands or none of it does.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the aggregate and returns it with generated identifiers.
func (r *Repository) Create(ctx context.Context, c *Contact) (*Contact, error) {
	dbContact := &database.Contact{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Title:     c.Title,
		UserID:    c.UserID,
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(dbContact).
			Returning("*").
			Exec(ctx); err != nil {
			return err
		}

		emails, phones, err := insertChildren(ctx, tx, dbContact.ID, c.Emails, c.PhoneNumbers)
		if err != nil {
			return err
		}
		dbContact.Emails = emails
		dbContact.PhoneNumbers = phones
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// GetByID loads the aggregate with both child collections populated.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Contact, error) {
	dbContact := new(database.Contact)
	err := r.db.NewSelect().
		Model(dbContact).
		Relation("Emails").
		Relation("PhoneNumbers").
		Where("c.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// Replace overwrites the parent fields and rewrites both child collections
// from scratch: transaction-scoped delete-then-insert, never a merge.
func (r *Repository) Replace(ctx context.Context, c *Contact) (*Contact, error) {
	dbContact := &database.Contact{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Title:     c.Title,
		UserID:    c.UserID,
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*database.Contact)(nil)).
			Set("first_name = ?", c.FirstName).
			Set("last_name = ?", c.LastName).
			Set("title = ?", c.Title).
			Where("id = ?", c.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}

		if _, err := tx.NewDelete().
			Model((*database.EmailAddress)(nil)).
			Where("contact_id = ?", c.ID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*database.PhoneNumber)(nil)).
			Where("contact_id = ?", c.ID).
			Exec(ctx); err != nil {
			return err
		}

		emails, phones, err := insertChildren(ctx, tx, c.ID, c.Emails, c.PhoneNumbers)
		if err != nil {
			return err
		}
		dbContact.Emails = emails
		dbContact.PhoneNumbers = phones
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to replace contact: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// Delete removes the contact and both child collections as one unit.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.EmailAddress)(nil)).
			Where("contact_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*database.PhoneNumber)(nil)).
			Where("contact_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*database.Contact)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// ListByUserID returns every contact owned by the user, children populated.
func (r *Repository) ListByUserID(ctx context.Context, userID int64) ([]*Contact, error) {
	var dbContacts []*database.Contact
	err := r.db.NewSelect().
		Model(&dbContacts).
		Relation("Emails").
		Relation("PhoneNumbers").
		Where("c.user_id = ?", userID).
		Order("c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	contacts := make([]*Contact, 0, len(dbContacts))
	for _, dbc := range dbContacts {
		contacts = append(contacts, mapDBContactToModel(dbc))
	}
	return contacts, nil
}

// insertChildren inserts the child rows for a contact and returns them with
// generated ids.
func insertChildren(ctx context.Context, tx bun.Tx, contactID int64, emails []EmailAddress, phones []PhoneNumber) ([]*database.EmailAddress, []*database.PhoneNumber, error) {
	dbEmails := make([]*database.EmailAddress, 0, len(emails))
	for _, e := range emails {
		dbEmails = append(dbEmails, &database.EmailAddress{
			Label:     e.Label,
			Email:     e.Email,
			ContactID: contactID,
		})
	}
	if len(dbEmails) > 0 {
		if _, err := tx.NewInsert().
			Model(&dbEmails).
			Returning("*").
			Exec(ctx); err != nil {
			return nil, nil, err
		}
	}

	dbPhones := make([]*database.PhoneNumber, 0, len(phones))
	for _, p := range phones {
		dbPhones = append(dbPhones, &database.PhoneNumber{
			Label:     p.Label,
			Number:    p.Number,
			ContactID: contactID,
		})
	}
	if len(dbPhones) > 0 {
		if _, err := tx.NewInsert().
			Model(&dbPhones).
			Returning("*").
			Exec(ctx); err != nil {
			return nil, nil, err
		}
	}

	return dbEmails, dbPhones, nil
}

// mapDBContactToModel converts database model to domain model
func mapDBContactToModel(dbc *database.Contact) *Contact {
	c := &Contact{
		ID:           dbc.ID,
		FirstName:    dbc.FirstName,
		LastName:     dbc.LastName,
		Title:        dbc.Title,
		UserID:       dbc.UserID,
		Emails:       make([]EmailAddress, 0, len(dbc.Emails)),
		PhoneNumbers: make([]PhoneNumber, 0, len(dbc.PhoneNumbers)),
	}
	for _, e := range dbc.Emails {
		c.Emails = append(c.Emails, EmailAddress{ID: e.ID, Label: e.Label, Email: e.Email})
	}
	for _, p := range dbc.PhoneNumbers {
		c.PhoneNumbers = append(c.PhoneNumbers, PhoneNumber{ID: p.ID, Label: p.Label, Number: p.Number})
	}
	return c
}
