package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/multicloud/vm-service/pkg/cipher"
	"github.com/multicloud/vm-service/pkg/config"
	"github.com/multicloud/vm-service/pkg/db"
	"github.com/multicloud/vm-service/pkg/log"
	"github.com/multicloud/vm-service/pkg/provisioning"
	"github.com/multicloud/vm-service/pkg/registry"
	gormstore "github.com/multicloud/vm-service/pkg/server/store/gorm"
	"github.com/multicloud/vm-service/pkg/vault"
)

// userWatchCmd represents the user watch command
var userWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a spool file and provision users from it",
	Long: `Watch a spool file and provision users from it.

The file holds newline-delimited JSON events of the form
{"username": "...", "email": "..."}. Every line appended while the
watcher runs creates the named user; duplicates are ignored. This is
the standalone form of the server's --provision-spool flag.

Example:
  vmservicectl user watch /run/vmservice/users.jsonl`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchUsers(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch spool: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	userCmd.AddCommand(userWatchCmd)
}

func watchUsers(filename string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.New(cfg.LogLevel, cfg.LogPretty)

	dataKeyB64, ok := os.LookupEnv("VMSERVICE_DATA_KEY")
	if !ok {
		return fmt.Errorf("VMSERVICE_DATA_KEY environment variable is required")
	}

	dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
	if err != nil {
		return fmt.Errorf("failed to decode VMSERVICE_DATA_KEY: %w", err)
	}

	symmetric, err := cipher.NewSymmetric(dataKey)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	database, err := db.Connect(db.Config{})
	if err != nil {
		return err
	}

	users := gormstore.NewUsersStore(database)
	accounts := gormstore.NewAccountsStore(database)
	reg := registry.New(vault.New(accounts, symmetric, logger), users, accounts, logger)

	source, err := provisioning.NewFileSource(filename, logger)
	if err != nil {
		return fmt.Errorf("failed to watch file %s: %w", filename, err)
	}

	fmt.Printf("Watching %s for user events\n", filename)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() { _ = source.Run(ctx) }()

	if err := provisioning.NewListener(reg, source, logger).Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Println("\nShutting down...")
	return nil
}
