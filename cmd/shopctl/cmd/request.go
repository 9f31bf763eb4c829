package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func requestCmd() *cobra.Command {
	var (
		data   string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Call the Admin API and print the normalized response",
		Long: "Issues GET, POST or PUT against /admin/PATH with the configured access\n" +
			"token. Single-key responses such as {\"shop\": {...}} are unwrapped.",
		Example: "  shopctl request GET shop.json\n" +
			"  shopctl request GET products.json --param limit=5 --param fields=id,title\n" +
			"  shopctl request PUT products/1.json --data '{\"product\":{\"title\":\"New\"}}'",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := requestData(args[0], data, params)
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			resp, err := c.Request(cmd.Context(), args[0], args[1], body)
			if err != nil {
				return fmt.Errorf("%s %s: %w", strings.ToUpper(args[0]), args[1], err)
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), summarize(resp))
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON body for POST and PUT")
	cmd.Flags().StringArrayVar(&params, "param", nil, "query parameter key=value for GET (repeatable)")

	return cmd
}

// requestData turns the flags into the data argument of Client.Request.
func requestData(method, data string, params []string) (any, error) {
	if strings.EqualFold(method, http.MethodGet) {
		if data != "" {
			return nil, errors.New("--data is not supported for GET, use --param")
		}
		if len(params) == 0 {
			return nil, nil
		}
		q := url.Values{}
		for _, p := range params {
			k, v, ok := strings.Cut(p, "=")
			if !ok || k == "" {
				return nil, fmt.Errorf("invalid --param %q, want key=value", p)
			}
			q.Add(k, v)
		}
		return q, nil
	}

	if len(params) > 0 {
		return nil, errors.New("--param is only supported for GET")
	}
	if data == "" {
		return nil, nil
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		return nil, fmt.Errorf("parsing --data: %w", err)
	}
	return body, nil
}
