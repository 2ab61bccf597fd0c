package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/multicloud/vm-service/pkg/db"
	"github.com/multicloud/vm-service/pkg/server/store"
	gormstore "github.com/multicloud/vm-service/pkg/server/store/gorm"
)

// userCreateCmd represents the user create command
var userCreateCmd = &cobra.Command{
	Use:   "create <username> <email>",
	Short: "Create a service user",
	Long: `Create a service user.

Users are normally provisioned from the authentication service's event
stream. This command creates one directly, which is useful for local
development and for bootstrapping.

Example:
  vmservicectl user create alice alice@example.com`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		username, email := args[0], args[1]

		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		user, err := gormstore.NewUsersStore(database).CreateUser(username, email)
		if err != nil {
			if errors.Is(err, store.ErrUserExists) {
				fmt.Fprintf(os.Stderr, "User '%s' already exists\n", username)
			} else {
				fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Created user '%s' (id %d)\n", user.Username, user.ID)
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
}
