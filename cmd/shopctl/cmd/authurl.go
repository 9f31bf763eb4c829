package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func authURLCmd() *cobra.Command {
	var (
		scopes   []string
		redirect string
	)

	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the OAuth authorize URL for the shop",
		Example: "  shopctl auth-url --shop acme --api-key KEY --api-secret SECRET \\\n" +
			"    --scope read_products,write_orders --redirect-uri https://app.example.com/auth/callback",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			u, err := c.AuthURL(scopes, redirect)
			if err != nil {
				return fmt.Errorf("building auth URL: %w", err)
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"url": u})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scopes to request (repeat or comma-separate)")
	cmd.Flags().StringVar(&redirect, "redirect-uri", "", "callback URL registered for the app")
	_ = cmd.MarkFlagRequired("scope")
	_ = cmd.MarkFlagRequired("redirect-uri")

	return cmd
}
