// Package main is the entry point for the shopctl CLI.
package main

import (
	"github.com/donaldgifford/shopify-admin/cmd/shopctl/cmd"
)

func main() {
	cmd.Execute()
}
