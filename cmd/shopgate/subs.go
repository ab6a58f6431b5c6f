package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/artpar/shopgate/adapters/clock"
	"github.com/artpar/shopgate/adapters/idgen"
	"github.com/artpar/shopgate/adapters/keyservice"
	"github.com/artpar/shopgate/adapters/random"
	"github.com/artpar/shopgate/adapters/sqlite"
	"github.com/artpar/shopgate/app"
	"github.com/artpar/shopgate/config"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var subsCmd = &cobra.Command{
	Use:   "subs",
	Short: "Inspect and expire subscriptions",
	Long: `Inspect subscription records and force-expire keys.

Examples:
  shopgate subs list
  shopgate subs expire <user-id>`,
}

var subsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscription records",
	RunE:  runSubsList,
}

var subsExpireCmd = &cobra.Command{
	Use:   "expire <user-id>",
	Short: "Soft-expire a user's key now",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubsExpire,
}

func init() {
	rootCmd.AddCommand(subsCmd)
	subsCmd.AddCommand(subsListCmd)
	subsCmd.AddCommand(subsExpireCmd)
}

func runSubsList(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := sqlite.NewSubscriptionStore(db).ListWithExpiry(context.Background())
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No subscription records found.")
		return nil
	}

	now := time.Now().UTC()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tSTATUS\tEXPIRES\tUPDATED")
	fmt.Fprintln(w, "----\t------\t-------\t-------")
	for _, rec := range records {
		expires := "-"
		if rec.KeyExpiresAt != nil {
			expires = rec.KeyExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rec.UserID, rec.Status(now), expires, rec.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runSubsExpire(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	var keySvc ports.KeyService
	if cfg.KeyService.URL != "" {
		keySvc = keyservice.NewRemote(keyservice.Config{
			BaseURL: cfg.KeyService.URL,
			APIKey:  cfg.KeyService.APIKey,
			Timeout: cfg.KeyService.Timeout,
		})
	} else {
		keySvc = keyservice.NewNoop(logger)
	}

	svc := app.NewKeyLifecycleService(
		sqlite.NewSubscriptionStore(db),
		sqlite.NewUserStore(db),
		sqlite.NewProductStore(db),
		keySvc,
		sqlite.NewOutboxStore(db),
		random.Real{},
		idgen.UUID{},
		clock.Real{},
		nil,
		logger,
	)

	userID := args[0]
	if err := svc.SoftExpire(context.Background(), userID); err != nil {
		return fmt.Errorf("expire subscription: %w", err)
	}
	fmt.Printf("Expired subscription key for user %s\n", userID)
	return nil
}
