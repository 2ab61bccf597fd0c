package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multicloud/vm-service/pkg/server/store"
)

type stubUsersStore struct {
	users map[string]*store.User
}

func (s *stubUsersStore) FindByUsername(username string) (*store.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, store.ErrUserNotFound
}

func (s *stubUsersStore) FindByID(id uint) (*store.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *stubUsersStore) CreateUser(username, email string) (*store.User, error) {
	return nil, store.ErrUserExists
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestResolver() *Resolver {
	return NewResolver(testSecret, &stubUsersStore{
		users: map[string]*store.User{
			"alice": {ID: 7, Username: "alice", Email: "alice@example.com"},
		},
	})
}

func signToken(t *testing.T, secret []byte, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestResolveValidToken(t *testing.T) {
	r := newTestResolver()

	token, err := r.Issue("alice", time.Minute)
	require.NoError(t, err)

	id, err := r.Resolve("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.False(t, id.ExpiresAt.IsZero())
}

func TestResolveUnauthenticated(t *testing.T) {
	r := newTestResolver()

	valid, err := r.Issue("alice", time.Minute)
	require.NoError(t, err)

	expired := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}, jwt.SigningMethodHS256)

	wrongKey := signToken(t, []byte("another-secret-another-secret-32"), jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}, jwt.SigningMethodHS256)

	noSubject := signToken(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}, jwt.SigningMethodHS256)

	testCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token token=\"" + valid + "\""},
		{"bare token without scheme", valid},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + wrongKey},
		{"missing subject", "Bearer " + noSubject},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := r.Resolve(tc.header)
			assert.Nil(t, id)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestResolveUnknownSubject(t *testing.T) {
	r := newTestResolver()

	token, err := r.Issue("mallory", time.Minute)
	require.NoError(t, err)

	id, err := r.Resolve("Bearer " + token)
	assert.Nil(t, id)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsUnexpectedAlgorithm(t *testing.T) {
	r := newTestResolver()

	// alg=none style tokens must be refused outright.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	id, err := r.Resolve("Bearer " + signed)
	assert.Nil(t, id)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIdentityContext(t *testing.T) {
	id := &Identity{UserID: 7, Username: "alice"}
	ctx := Set(t.Context(), id)

	got, ok := Get(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = Get(t.Context())
	assert.False(t, ok)
}
