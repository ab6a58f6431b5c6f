package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shopgate",
	Short: "Storefront checkout and subscription pipeline",
	Long: `Shopgate is a self-hosted storefront backend.

It serves a product catalog, session carts, payment-intent checkout
with account auto-provisioning, and webhook-driven subscription key
management backed by an external key-issuance service.

Quick start:
  shopgate serve       # Start the storefront server

Management:
  shopgate products    # Manage the catalog
  shopgate subs        # Inspect and expire subscriptions`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "shopgate.yaml", "config file path")
}
