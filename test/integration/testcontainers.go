package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/multicloud/vm-service/pkg/cipher"
	"github.com/multicloud/vm-service/pkg/config"
	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/inventory"
	"github.com/multicloud/vm-service/pkg/provider"
	"github.com/multicloud/vm-service/pkg/registry"
	"github.com/multicloud/vm-service/pkg/server"
	"github.com/multicloud/vm-service/pkg/server/endpoints"
	gormstore "github.com/multicloud/vm-service/pkg/server/store/gorm"
	"github.com/multicloud/vm-service/pkg/vault"
)

const (
	serverPort = "18080"
	jwtSecret  = "integration-test-secret"
)

// TestContext holds all the resources needed for integration tests.
// The server runs in-process against a PostgreSQL testcontainer, with a
// canned provider gateway standing in for AWS.
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	ServerURL   string
	DatabaseURL string
	Resolver    *identity.Resolver
	Gateway     *stubGateway
	HTTPClient  *http.Client
	server      *server.Server
}

// NewTestContext starts the database container, migrates the schema and
// brings up the server.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vmservice_test"),
		tcpostgres.WithUsername("vmservice"),
		tcpostgres.WithPassword("vmservice"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://vmservice:vmservice@%s:%s/vmservice_test?sslmode=disable", host, port.Port())

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	if err := runMigrations(rawDB, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	srv, resolver, gateway, err := startInlineServer(db)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to start inline server: %w", err)
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%s", serverPort)
	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:          db,
		RawDB:       rawDB,
		Container:   pgContainer,
		ServerURL:   serverURL,
		DatabaseURL: connStr,
		Resolver:    resolver,
		Gateway:     gateway,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		server:      srv,
	}, nil
}

func startInlineServer(db *gorm.DB) (*server.Server, *identity.Resolver, *stubGateway, error) {
	dataKey := make([]byte, cipher.KeySize)
	for i := range dataKey {
		dataKey[i] = byte(i)
	}
	symmetric, err := cipher.NewSymmetric(dataKey)
	if err != nil {
		return nil, nil, nil, err
	}

	nop := zerolog.Nop()
	users := gormstore.NewUsersStore(db)
	accounts := gormstore.NewAccountsStore(db)
	regions := gormstore.NewRegionsStore(db)

	credentialVault := vault.New(accounts, symmetric, nop)
	reg := registry.New(credentialVault, users, accounts, nop)
	resolver := identity.NewResolver([]byte(jwtSecret), users)
	gateway := newStubGateway()

	cfg := config.NewDefault()
	aggregator := inventory.New(reg, []provider.Gateway{gateway}, cfg.AggregatorWorkers, 5*time.Second, nop)

	s := server.NewServer(server.Deps{
		Registry:   reg,
		Aggregator: aggregator,
		Resolver:   resolver,
		Gateway:    gateway,
		Regions:    regions,
		Config:     cfg,
		Logger:     nop,
		DB:         db,
	}, "127.0.0.1", serverPort)
	endpoints.RegisterAll(s)

	go func() { _ = s.Start() }()

	return s, resolver, gateway, nil
}

func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = tc.server.Shutdown(shutdownCtx)
		cancel()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

// runMigrations executes the up migrations in order. The SQL is
// idempotent, so rerunning against an existing schema is harmless.
func runMigrations(db *sql.DB, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", filepath.Base(file), err)
		}
	}

	return nil
}
