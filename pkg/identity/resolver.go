package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/multicloud/vm-service/pkg/server/store"
)

// ErrUnauthenticated is returned for any bearer token problem: a missing
// header, a malformed header, or a token that fails validation. Callers
// must not learn which of the three occurred.
var ErrUnauthenticated = errors.New("identity: unauthenticated")

const bearerPrefix = "Bearer "

// Resolver validates HS256 bearer tokens and maps their subject claim
// to a registered user.
type Resolver struct {
	secret []byte
	users  store.UsersStore
}

// NewResolver creates a Resolver verifying tokens with the given HMAC secret.
func NewResolver(secret []byte, users store.UsersStore) *Resolver {
	return &Resolver{secret: secret, users: users}
}

// Resolve authenticates the Authorization header value and returns the
// identity of the user the token's subject names.
//
// A missing, malformed, invalid or expired token yields ErrUnauthenticated.
// A valid token whose subject matches no registered user yields
// store.ErrUserNotFound, so callers can distinguish "prove who you are"
// from "we don't know you".
func (r *Resolver) Resolve(authorization string) (*Identity, error) {
	if authorization == "" {
		return nil, fmt.Errorf("%w: authorization missing", ErrUnauthenticated)
	}
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: token subject missing", ErrUnauthenticated)
	}

	user, err := r.users.FindByUsername(subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, subject)
		}
		return nil, err
	}

	id := &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if iat, err := token.Claims.GetIssuedAt(); err == nil && iat != nil {
		id.IssuedAt = iat.Time
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// Issue signs a short-lived HS256 token for the given username. Intended
// for the CLI and tests; the production tokens come from the SSO issuer
// that shares the same secret.
func (r *Resolver) Issue(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(r.secret)
}
