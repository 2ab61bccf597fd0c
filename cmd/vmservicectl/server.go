package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/multicloud/vm-service/pkg/audit"
	"github.com/multicloud/vm-service/pkg/cipher"
	"github.com/multicloud/vm-service/pkg/config"
	"github.com/multicloud/vm-service/pkg/db"
	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/inventory"
	"github.com/multicloud/vm-service/pkg/log"
	"github.com/multicloud/vm-service/pkg/metrics"
	"github.com/multicloud/vm-service/pkg/provider"
	"github.com/multicloud/vm-service/pkg/provider/aws"
	"github.com/multicloud/vm-service/pkg/provisioning"
	"github.com/multicloud/vm-service/pkg/registry"
	"github.com/multicloud/vm-service/pkg/server"
	"github.com/multicloud/vm-service/pkg/server/endpoints"
	gormstore "github.com/multicloud/vm-service/pkg/server/store/gorm"
	"github.com/multicloud/vm-service/pkg/vault"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the VM inventory application server",
	Long: `Run the VM inventory application server

To run the server requires the environment variables VMSERVICE_DATA_KEY,
VMSERVICE_JWT_SECRET_KEY and DATABASE_URL.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		logger := log.New(cfg.LogLevel, cfg.LogPretty)
		audit.SetEnabled(cfg.AuditEnabled)

		// Validate required environment variables first (fail fast)
		dataKeyB64, ok := os.LookupEnv("VMSERVICE_DATA_KEY")
		if !ok {
			fmt.Fprintln(os.Stderr, "VMSERVICE_DATA_KEY environment variable is required")
			os.Exit(1)
		}

		jwtSecret := os.Getenv("VMSERVICE_JWT_SECRET_KEY")
		if jwtSecret == "" {
			fmt.Fprintln(os.Stderr, "VMSERVICE_JWT_SECRET_KEY environment variable is required")
			os.Exit(1)
		}

		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			logger.Info().Msg("running database migrations")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Bad VMSERVICE_DATA_KEY:", err)
			os.Exit(1)
		}

		symmetric, err := cipher.NewSymmetric(dataKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to initiate cipher:", err)
			os.Exit(1)
		}

		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		users := gormstore.NewUsersStore(database)
		accounts := gormstore.NewAccountsStore(database)
		regions := gormstore.NewRegionsStore(database)

		credentialVault := vault.New(accounts, symmetric, logger)
		reg := registry.New(credentialVault, users, accounts, logger)
		resolver := identity.NewResolver([]byte(jwtSecret), users)
		gateway := aws.NewGateway(cfg.DefaultRegion, logger)
		aggregator := inventory.New(
			reg,
			[]provider.Gateway{gateway},
			cfg.AggregatorWorkers,
			cfg.ProviderCallTimeout(),
			logger,
		)

		promRegistry := metrics.Init(logger)

		host := cfg.BindAddress
		port := cfg.Port
		if cmd.Flags().Changed("bind-address") {
			host, _ = cmd.Flags().GetString("bind-address")
		}
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetString("port")
		}

		s := server.NewServer(server.Deps{
			Registry:   reg,
			Aggregator: aggregator,
			Resolver:   resolver,
			Gateway:    gateway,
			Regions:    regions,
			Config:     cfg,
			Metrics:    promRegistry,
			Logger:     logger,
			DB:         database,
		}, host, port)

		endpoints.RegisterAll(s)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Tail the provisioning spool alongside the server when configured.
		if spool, _ := cmd.Flags().GetString("provision-spool"); spool != "" {
			source, err := provisioning.NewFileSource(spool, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Unable to open provisioning spool: %v\n", err)
				os.Exit(1)
			}
			listener := provisioning.NewListener(reg, source, logger)
			go func() { _ = source.Run(ctx) }()
			go func() { _ = listener.Run(ctx) }()
		}

		errs := make(chan error, 1)
		go func() { errs <- s.Start() }()

		logger.Info().Str("host", host).Str("port", port).Msg("server listening")

		select {
		case err := <-errs:
			logger.Fatal().Err(err).Msg("server stopped")
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("shutdown failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	defaults := config.NewDefault()
	serverCmd.Flags().StringP("port", "p", defaults.Port, "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaults.BindAddress, "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().String("provision-spool", "", "file of newline-delimited user provisioning events to tail")
}
