package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactvault/contactvault/internal/auth"
	"github.com/contactvault/contactvault/internal/config"
	"github.com/contactvault/contactvault/internal/contact"
	"github.com/contactvault/contactvault/internal/logging"
	"github.com/contactvault/contactvault/internal/user"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// memUsers implements user.Store and contact.UserDirectory.
type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*user.User)}
}

func (m *memUsers) Create(ctx context.Context, name, email, password string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := m.users[key]; ok {
		return nil, user.ErrDuplicateEmail
	}
	m.nextID++
	u := &user.User{ID: m.nextID, Name: name, Email: key, Password: password, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.users[key] = u
	copied := *u
	return &copied, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) UpdateName(ctx context.Context, userID int64, name string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.Name = name
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memUsers) UpdatePassword(ctx context.Context, userID int64, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.Password = password
			return nil
		}
	}
	return user.ErrNotFound
}

// memContacts implements contact.Store.
type memContacts struct {
	mu          sync.Mutex
	nextID      int64
	nextChildID int64
	contacts    map[int64]*contact.Contact
}

func newMemContacts() *memContacts {
	return &memContacts{contacts: make(map[int64]*contact.Contact)}
}

func copyAggregate(c *contact.Contact) *contact.Contact {
	copied := *c
	copied.Emails = append([]contact.EmailAddress(nil), c.Emails...)
	copied.PhoneNumbers = append([]contact.PhoneNumber(nil), c.PhoneNumbers...)
	return &copied
}

func (m *memContacts) assignChildIDs(c *contact.Contact) {
	for i := range c.Emails {
		m.nextChildID++
		c.Emails[i].ID = m.nextChildID
	}
	for i := range c.PhoneNumbers {
		m.nextChildID++
		c.PhoneNumbers[i].ID = m.nextChildID
	}
}

func (m *memContacts) Create(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := copyAggregate(c)
	stored.ID = m.nextID
	m.assignChildIDs(stored)
	m.contacts[stored.ID] = stored
	return copyAggregate(stored), nil
}

func (m *memContacts) GetByID(ctx context.Context, id int64) (*contact.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.contacts[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	return copyAggregate(stored), nil
}

func (m *memContacts) Replace(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[c.ID]; !ok {
		return nil, contact.ErrNotFound
	}
	stored := copyAggregate(c)
	m.assignChildIDs(stored)
	m.contacts[c.ID] = stored
	return copyAggregate(stored), nil
}

func (m *memContacts) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return contact.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *memContacts) ListByUserID(ctx context.Context, userID int64) ([]*contact.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*contact.Contact
	for id := int64(1); id <= m.nextID; id++ {
		if stored, ok := m.contacts[id]; ok && stored.UserID == userID {
			list = append(list, copyAggregate(stored))
		}
	}
	return list, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *auth.PasetoService) {
	t.Helper()

	logger := logging.NewLogger(true)
	tokens, err := auth.NewPasetoService(testKey, 24*time.Hour)
	require.NoError(t, err)

	users := newMemUsers()
	contacts := newMemContacts()

	userService := user.NewService(users, tokens, logger)
	contactService := contact.NewService(contacts, users, nil, logger)

	cfg := &config.Config{Server: config.ServerConfig{Env: "prod"}}
	identity := auth.NewMiddleware(tokens, "/users/register", "/users/login")
	router := NewRouter(cfg, user.NewHandler(userService), contact.NewHandler(contactService), identity, logger)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, tokens
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	status, body := doRequest(t, srv, http.MethodPost, "/users/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status)
	var result struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestEndToEndScenario(t *testing.T) {
	srv, _ := newTestServer(t)

	// Registration.
	status, _ := doRequest(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "Jo", "email": "jo@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	// Same email again conflicts, case-insensitively.
	status, _ = doRequest(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "Jo Again", "email": "JO@X.COM", "password": "secret2",
	})
	require.Equal(t, http.StatusConflict, status)

	// Validation failure.
	status, _ = doRequest(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "", "email": "other@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusBadRequest, status)

	// Login with wrong credentials: 401 with empty body.
	status, body := doRequest(t, srv, http.MethodPost, "/users/login", "", map[string]string{
		"email": "jo@x.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Empty(t, body)

	joToken := login(t, srv, "jo@x.com", "secret1")

	// Alice owns contact 1.
	status, _ = doRequest(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	aliceToken := login(t, srv, "alice@x.com", "secret1")

	status, body = doRequest(t, srv, http.MethodPost, "/contacts", aliceToken, map[string]any{
		"firstName": "Ann",
		"emails":    []map[string]string{{"label": "work", "email": "a@x.com"}, {"label": "home", "email": "b@x.com"}},
	})
	require.Equal(t, http.StatusOK, status)
	var created contact.Contact
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotZero(t, created.ID)
	require.Len(t, created.Emails, 2)
	path := fmt.Sprintf("/contacts/%d", created.ID)

	// No Authorization header: 401.
	status, _ = doRequest(t, srv, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	// Jo probing Alice's contact: 403.
	status, _ = doRequest(t, srv, http.MethodGet, path, joToken, nil)
	require.Equal(t, http.StatusForbidden, status)

	// Jo probing a nonexistent contact: 404.
	status, _ = doRequest(t, srv, http.MethodGet, "/contacts/999", joToken, nil)
	require.Equal(t, http.StatusNotFound, status)

	// Owner reads fine.
	status, _ = doRequest(t, srv, http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)

	// Full-replace update: only {c@x.com} survives.
	status, body = doRequest(t, srv, http.MethodPut, path, aliceToken, map[string]any{
		"firstName": "Ann",
		"emails":    []map[string]string{{"label": "new", "email": "c@x.com"}},
	})
	require.Equal(t, http.StatusOK, status)
	var updated contact.Contact
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Len(t, updated.Emails, 1)
	require.Equal(t, "c@x.com", updated.Emails[0].Email)

	// List shows exactly Alice's contacts.
	status, body = doRequest(t, srv, http.MethodGet, "/users/contacts", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var list []contact.Contact
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	// Rightful owner deletes; afterwards the contact is gone.
	status, _ = doRequest(t, srv, http.MethodDelete, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, srv, http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestProfileEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := doRequest(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "Jo", "email": "jo@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	token := login(t, srv, "jo@x.com", "secret1")

	// Unauthenticated profile access.
	status, _ = doRequest(t, srv, http.MethodGet, "/users/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := doRequest(t, srv, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	var profile user.User
	require.NoError(t, json.Unmarshal(body, &profile))
	require.Equal(t, "jo@x.com", profile.Email)

	status, body = doRequest(t, srv, http.MethodPut, "/users/update-profile", token, map[string]string{"name": "Joanna"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &profile))
	require.Equal(t, "Joanna", profile.Name)

	// Wrong current password.
	status, _ = doRequest(t, srv, http.MethodPut, "/users/change-password", token, map[string]string{
		"currentPassword": "nope", "newPassword": "secret2",
	})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, srv, http.MethodPut, "/users/change-password", token, map[string]string{
		"currentPassword": "secret1", "newPassword": "secret2",
	})
	require.Equal(t, http.StatusOK, status)

	login(t, srv, "jo@x.com", "secret2")
}

func TestExpiredTokenIsRejectedDownstream(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := doRequest(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"name": "Jo", "email": "jo@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	// Same key, negative lifetime: structurally valid but already expired.
	expiredIssuer, err := auth.NewPasetoService(testKey, -time.Hour)
	require.NoError(t, err)
	stale, err := expiredIssuer.CreateToken("jo@x.com")
	require.NoError(t, err)

	status, _ = doRequest(t, srv, http.MethodGet, "/users/profile", stale, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), "api is running")
}
