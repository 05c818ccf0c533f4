package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the database model for registered accounts.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Password  string    `bun:"password,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Contact is the aggregate root. Emails and phone numbers exist only through
// their parent contact; every mutation rewrites the child rows wholesale.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID        int64  `bun:"id,pk,autoincrement"`
	FirstName string `bun:"first_name"`
	LastName  string `bun:"last_name"`
	Title     string `bun:"title"`
	UserID    int64  `bun:"user_id,notnull"`

	Emails       []*EmailAddress `bun:"rel:has-many,join:id=contact_id"`
	PhoneNumbers []*PhoneNumber  `bun:"rel:has-many,join:id=contact_id"`
}

// EmailAddress is a child row of a contact.
type EmailAddress struct {
	bun.BaseModel `bun:"table:email_addresses,alias:e"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Label     string `bun:"label"`
	Email     string `bun:"email,notnull"`
	ContactID int64  `bun:"contact_id,notnull"`
}

// PhoneNumber is a child row of a contact.
type PhoneNumber struct {
	bun.BaseModel `bun:"table:phone_numbers,alias:p"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Label     string `bun:"label"`
	Number    string `bun:"number,notnull"`
	ContactID int64  `bun:"contact_id,notnull"`
}
