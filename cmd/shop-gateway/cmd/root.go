// Package cmd implements the CLI commands for shop-gateway.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "shop-gateway",
	Short: "Install gateway for a Shopify app",
	Long: "An HTTP gateway that runs the OAuth install flow for one shop, verifies " +
		"webhook deliveries and exposes the Admin API behind a small JSON API.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
