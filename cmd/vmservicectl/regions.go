package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/multicloud/vm-service/pkg/db"
	"github.com/multicloud/vm-service/pkg/log"
	"github.com/multicloud/vm-service/pkg/provider/aws"
	"github.com/multicloud/vm-service/pkg/server/store"
	gormstore "github.com/multicloud/vm-service/pkg/server/store/gorm"
	"github.com/multicloud/vm-service/pkg/vault"
)

// regionsCmd represents the regions command
var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Manage the region reference table",
	Long:  `Manage the reference table of valid provider regions.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'regions' requires a subcommand (list, sync)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var regionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known regions",
	Long:  `List the regions accepted when registering a cloud account.`,
	Run: func(cmd *cobra.Command, args []string) {
		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		regions, err := gormstore.NewRegionsStore(database).List()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to list regions:", err)
			os.Exit(1)
		}

		for _, region := range regions {
			fmt.Printf("%-20s %s\n", region.Name, region.Description)
		}
	},
}

var regionsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the region table from the provider",
	Long: `Sync the region table from the provider.

Fetches the live region list from AWS using the credentials in the
ambient AWS configuration (environment or shared config) and inserts
any regions missing from the reference table. Existing rows are left
untouched.

Example:
  vmservicectl regions sync
  vmservicectl regions sync --region eu-west-1`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := syncRegions(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync regions: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
	regionsCmd.AddCommand(regionsListCmd)
	regionsCmd.AddCommand(regionsSyncCmd)
	regionsSyncCmd.Flags().String("region", "us-east-1", "region to query the provider in")
}

func syncRegions(cmd *cobra.Command) error {
	database, err := db.Connect(db.Config{})
	if err != nil {
		return err
	}

	queryRegion, _ := cmd.Flags().GetString("region")
	logger := log.New(os.Getenv("VMSERVICE_LOG_LEVEL"), false)
	gateway := aws.NewGateway(queryRegion, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ambient, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(queryRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	creds, err := ambient.Credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("no AWS credentials available: %w", err)
	}

	cred := &vault.DecryptedCredential{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		Region:          queryRegion,
	}
	live, err := gateway.ListRegions(ctx, cred)
	if err != nil {
		return err
	}

	rows := make([]store.Region, 0, len(live))
	for _, region := range live {
		rows = append(rows, store.Region{Name: region.Name, Description: region.Description})
	}

	if err := gormstore.NewRegionsStore(database).Seed(rows); err != nil {
		return err
	}

	fmt.Printf("Synced %d region(s)\n", len(rows))
	return nil
}
