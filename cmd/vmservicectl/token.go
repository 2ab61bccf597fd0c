package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/multicloud/vm-service/pkg/db"
	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/server/store"
	gormstore "github.com/multicloud/vm-service/pkg/server/store/gorm"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Issue a bearer token for a user",
	Long: `Issue a bearer token for a user.

Tokens are normally issued by the authentication service; this command
signs one locally with the shared VMSERVICE_JWT_SECRET_KEY, which is
useful for local development and scripted API access.

The token is output to STDOUT.

Example:
  export TOKEN="$(vmservicectl token alice)"
  curl -H "Authorization: Bearer $TOKEN" http://localhost:8000/vm/aws/listvms`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]

		secret := os.Getenv("VMSERVICE_JWT_SECRET_KEY")
		if secret == "" {
			fmt.Fprintln(os.Stderr, "VMSERVICE_JWT_SECRET_KEY environment variable is required")
			os.Exit(1)
		}

		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		users := gormstore.NewUsersStore(database)
		if _, err := users.FindByUsername(username); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				fmt.Fprintf(os.Stderr, "User '%s' does not exist\n", username)
			} else {
				fmt.Fprintf(os.Stderr, "Failed to look up user: %v\n", err)
			}
			os.Exit(1)
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := identity.NewResolver([]byte(secret), users).Issue(username, ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}
