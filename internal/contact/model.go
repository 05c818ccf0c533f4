package contact

// Contact is the aggregate root: it exclusively owns its email and phone
// child collections and carries an owning reference to exactly one user.
// Ownership is set at creation and never reassigned.
type Contact struct {
	ID           int64          `json:"id"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Title        string         `json:"title"`
	UserID       int64          `json:"-"`
	Emails       []EmailAddress `json:"emails"`
	PhoneNumbers []PhoneNumber  `json:"phoneNumbers"`
}

// EmailAddress is a labeled email belonging to a contact.
type EmailAddress struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Email string `json:"email"`
}

// PhoneNumber is a labeled phone number belonging to a contact.
type PhoneNumber struct {
	ID     int64  `json:"id"`
	Label  string `json:"label"`
	Number string `json:"number"`
}

// Input carries the client-supplied fields for create and update. Updates
// use full-replace semantics: a missing field clears the stored value, and
// the child collections are rebuilt from exactly what is submitted.
type Input struct {
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Title        string       `json:"title"`
	Emails       []EmailInput `json:"emails"`
	PhoneNumbers []PhoneInput `json:"phoneNumbers"`
}

// EmailInput is a submitted email entry.
type EmailInput struct {
	Label string `json:"label"`
	Email string `json:"email"`
}

// PhoneInput is a submitted phone entry.
type PhoneInput struct {
	Label  string `json:"label"`
	Number string `json:"number"`
}
