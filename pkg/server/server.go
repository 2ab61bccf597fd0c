package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/multicloud/vm-service/pkg/config"
	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/inventory"
	"github.com/multicloud/vm-service/pkg/provider"
	"github.com/multicloud/vm-service/pkg/registry"
	"github.com/multicloud/vm-service/pkg/server/store"
)

type Server struct {
	Router     *mux.Router
	Registry   *registry.Registry
	Aggregator *inventory.Aggregator
	Resolver   *identity.Resolver
	Gateway    provider.Gateway
	Regions    store.RegionsStore
	Config     *config.Config
	Metrics    *prometheus.Registry
	Logger     zerolog.Logger
	DB         *gorm.DB

	srv *http.Server
}

// Deps carries everything the endpoints need. Everything is required
// except Metrics, which disables the /metrics endpoint when nil.
type Deps struct {
	Registry   *registry.Registry
	Aggregator *inventory.Aggregator
	Resolver   *identity.Resolver
	Gateway    provider.Gateway
	Regions    store.RegionsStore
	Config     *config.Config
	Metrics    *prometheus.Registry
	Logger     zerolog.Logger
	DB         *gorm.DB
}

func NewServer(deps Deps, host string, port string) *Server {
	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router:     router,
		Registry:   deps.Registry,
		Aggregator: deps.Aggregator,
		Resolver:   deps.Resolver,
		Gateway:    deps.Gateway,
		Regions:    deps.Regions,
		Config:     deps.Config,
		Metrics:    deps.Metrics,
		Logger:     deps.Logger,
		DB:         deps.DB,
		srv:        srv,
	}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
