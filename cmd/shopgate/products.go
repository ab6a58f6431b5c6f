package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/artpar/shopgate/adapters/sqlite"
	"github.com/artpar/shopgate/config"
	"github.com/artpar/shopgate/domain/catalog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage the product catalog",
	Long: `Manage the shopgate product catalog.

Examples:
  shopgate products list
  shopgate products create --name="Pro Plan" --price=4900 --subscription --interval=monthly`,
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE:  runProductsList,
}

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	RunE:  runProductsCreate,
}

var (
	productName         string
	productDescription  string
	productPrice        int64
	productDigital      bool
	productSubscription bool
	productInterval     string
	productSubPrice     int64
	productRole         string
)

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsCreateCmd)

	productsCreateCmd.Flags().StringVar(&productName, "name", "", "product name (required)")
	productsCreateCmd.Flags().StringVar(&productDescription, "description", "", "product description")
	productsCreateCmd.Flags().Int64Var(&productPrice, "price", 0, "price in cents (required)")
	productsCreateCmd.Flags().BoolVar(&productDigital, "digital", false, "digital product")
	productsCreateCmd.Flags().BoolVar(&productSubscription, "subscription", false, "subscription product")
	productsCreateCmd.Flags().StringVar(&productInterval, "interval", "monthly", "billing interval: monthly or yearly")
	productsCreateCmd.Flags().Int64Var(&productSubPrice, "sub-price", 0, "recurring price in cents (defaults to price)")
	productsCreateCmd.Flags().StringVar(&productRole, "role", "", "role granted on subscription")
	productsCreateCmd.MarkFlagRequired("name")
	productsCreateCmd.MarkFlagRequired("price")
}

func openDatabase() (*sqlite.DB, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func runProductsList(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	products, err := sqlite.NewProductStore(db).List(context.Background())
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	if len(products) == 0 {
		fmt.Println("No products found.")
		fmt.Println()
		fmt.Println("Create one with: shopgate products create --name=<name> --price=<cents>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSUBSCRIPTION\tINTERVAL\tROLE")
	fmt.Fprintln(w, "--\t----\t-----\t------------\t--------\t----")
	for _, p := range products {
		interval, role := "-", "-"
		if p.Subscription {
			interval = string(p.SubscriptionInterval)
			role = p.Role()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			p.ID, p.Name, formatCents(p.PriceCents), p.Subscription, interval, role)
	}
	return w.Flush()
}

func runProductsCreate(cmd *cobra.Command, args []string) error {
	interval := catalog.Interval(productInterval)
	if productSubscription && !interval.Valid() {
		return fmt.Errorf("interval must be 'monthly' or 'yearly', got %q", productInterval)
	}
	if productPrice <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if productSubPrice == 0 {
		productSubPrice = productPrice
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now().UTC()
	p := catalog.Product{
		ID:          uuid.NewString(),
		Name:        productName,
		Description: productDescription,
		PriceCents:  productPrice,
		Digital:     productDigital,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if productSubscription {
		p.Subscription = true
		p.SubscriptionInterval = interval
		p.SubscriptionPriceCents = productSubPrice
		p.SubscriptionRole = productRole
	}

	if err := sqlite.NewProductStore(db).Create(context.Background(), p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	fmt.Printf("Created product %s (%s, %s)\n", p.ID, p.Name, formatCents(p.PriceCents))
	return nil
}

// formatCents renders integer minor units as a dollar string.
func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
