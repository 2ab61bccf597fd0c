package endpoints

import (
	"github.com/multicloud/vm-service/pkg/metrics"
	"github.com/multicloud/vm-service/pkg/server"
	"github.com/multicloud/vm-service/pkg/server/middleware"
)

// RegisterAll registers all API endpoints on the server. Every /vm route
// except the region listing goes through the bearer-token authenticator.
func RegisterAll(srv *server.Server) {
	// Public surface first: gorilla/mux matches in registration order, so
	// these must precede the authenticated /vm subrouter.
	RegisterRegionsEndpoint(srv)
	RegisterStatusEndpoints(srv)
	if srv.Metrics != nil {
		srv.Router.Handle("/metrics", metrics.Handler(srv.Metrics)).Methods("GET")
	}

	auth := middleware.NewAuthenticator(srv.Resolver)
	protected := srv.Router.PathPrefix("/vm").Subrouter()
	protected.Use(auth.Middleware)

	RegisterAccountsEndpoints(srv, protected)
	RegisterInventoryEndpoints(srv, protected)
	RegisterUserEndpoint(srv, protected)
}
