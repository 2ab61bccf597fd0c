package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmservicectl",
	Short: "Multi-cloud VM inventory service",
	Long: `vmservicectl manages and runs the multi-cloud VM inventory service.

The service stores encrypted cloud provider credentials per user and
aggregates EC2 instance inventory across accounts and regions.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
