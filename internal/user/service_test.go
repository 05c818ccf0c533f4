package user

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactvault/contactvault/internal/auth"
	"github.com/contactvault/contactvault/internal/logging"
)

// fakeStore is an in-memory Store keyed by lower-cased email, mirroring the
// case-insensitive unique constraint.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*User)}
}

func (f *fakeStore) Create(ctx context.Context, name, email, password string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := f.users[key]; ok {
		return nil, ErrDuplicateEmail
	}
	f.nextID++
	u := &User{ID: f.nextID, Name: name, Email: key, Password: password, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.users[key] = u
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) UpdateName(ctx context.Context, userID int64, name string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			u.Name = name
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) UpdatePassword(ctx context.Context, userID int64, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			u.Password = password
			return nil
		}
	}
	return ErrNotFound
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestService(t *testing.T) (*Service, *fakeStore, auth.TokenService) {
	t.Helper()
	store := newFakeStore()
	tokens, err := auth.NewPasetoService(testKey, 24*time.Hour)
	require.NoError(t, err)
	return NewService(store, tokens, logging.NewLogger(true)), store, tokens
}

func TestRegisterNormalizesAndStores(t *testing.T) {
	svc, _, _ := newTestService(t)

	u, err := svc.Register(context.Background(), "  Jo ", " Jo@X.Com ", "secret1")
	require.NoError(t, err)
	require.Equal(t, "Jo", u.Name)
	require.Equal(t, "jo@x.com", u.Email)
	require.NotZero(t, u.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "   ", "jo@x.com", "secret1")
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Register(ctx, "Jo", "  ", "secret1")
	require.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Register(ctx, "Jo", "jo@x.com", "short")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jo", "jo@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Jo", "JO@X.COM", "secret2")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestLoginIssuesTokenBoundToIdentity(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jo", "jo@x.com", "secret1")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "JO@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "jo@x.com", result.User.Email)

	claims, err := tokens.VerifyToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, "jo@x.com", claims.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jo", "jo@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "jo@x.com", "wrong")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = svc.Login(ctx, "nobody@x.com", "secret1")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = svc.Login(ctx, "", "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestProfileRequiresKnownIdentity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Profile(ctx, "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)

	// An identity that resolves to no user is treated the same.
	_, err = svc.Profile(ctx, "ghost@x.com")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = svc.Register(ctx, "Jo", "jo@x.com", "secret1")
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, "jo@x.com")
	require.NoError(t, err)
	require.Equal(t, "Jo", profile.Name)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jo", "jo@x.com", "secret1")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, "jo@x.com", "  Joanna ")
	require.NoError(t, err)
	require.Equal(t, "Joanna", updated.Name)

	_, err = svc.UpdateProfile(ctx, "jo@x.com", "   ")
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jo", "jo@x.com", "secret1")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "jo@x.com", "nope", "secret2")
	require.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(ctx, "jo@x.com", "secret1", "tiny")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	err = svc.ChangePassword(ctx, "jo@x.com", "secret1", "secret2")
	require.NoError(t, err)

	stored, err := store.GetByEmail(ctx, "jo@x.com")
	require.NoError(t, err)
	require.Equal(t, "secret2", stored.Password)

	_, err = svc.Login(ctx, "jo@x.com", "secret2")
	require.NoError(t, err)
}
