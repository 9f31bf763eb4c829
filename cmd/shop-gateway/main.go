// Package main is the entry point for the shop-gateway.
package main

import (
	"os"

	"github.com/donaldgifford/shopify-admin/cmd/shop-gateway/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
