package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token CALLBACK",
		Short: "Exchange the code in a signed callback for an access token",
		Long: "Verifies the signature of the callback Shopify redirected the merchant to,\n" +
			"then exchanges its authorization code for a permanent access token.\n" +
			"CALLBACK is either the full callback URL or its query string.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			token, err := c.GetToken(cmd.Context(), shopify.RawQuery(args[0]))
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), map[string]string{
					"shop":         c.Shop(),
					"access_token": token,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}
