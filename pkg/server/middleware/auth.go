// Package middleware holds HTTP middleware for the vm-service API.
package middleware

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/multicloud/vm-service/pkg/audit"
	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/metrics"
	"github.com/multicloud/vm-service/pkg/server/store"
)

// Authenticator is middleware that resolves the Authorization header to
// an application user and stashes the identity on the request context.
type Authenticator struct {
	Resolver *identity.Resolver
}

// NewAuthenticator creates a new bearer-token authenticator middleware
func NewAuthenticator(resolver *identity.Resolver) *Authenticator {
	return &Authenticator{Resolver: resolver}
}

// Middleware returns an HTTP middleware that authenticates requests
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := remoteIP(r)

		id, err := a.Resolver.Resolve(r.Header.Get("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, store.ErrUserNotFound):
				metrics.AuthnTotal.WithLabelValues("user_not_found").Inc()
				audit.Log(audit.AuthenticateEvent{ClientIP: clientIP, ErrorMessage: "user not found"})
				respond(w, http.StatusNotFound, "User not found!")
			default:
				metrics.AuthnTotal.WithLabelValues("unauthenticated").Inc()
				audit.Log(audit.AuthenticateEvent{ClientIP: clientIP, ErrorMessage: err.Error()})
				respond(w, http.StatusUnauthorized, "User not authenticated")
			}
			return
		}

		metrics.AuthnTotal.WithLabelValues("success").Inc()
		audit.Log(audit.AuthenticateEvent{Username: id.Username, ClientIP: clientIP, Success: true})

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

func respond(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
