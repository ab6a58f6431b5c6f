package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/shopgate/adapters/auth"
	"github.com/artpar/shopgate/adapters/clock"
	"github.com/artpar/shopgate/adapters/email"
	"github.com/artpar/shopgate/adapters/hasher"
	"github.com/artpar/shopgate/adapters/idgen"
	"github.com/artpar/shopgate/adapters/keyservice"
	"github.com/artpar/shopgate/adapters/memory"
	"github.com/artpar/shopgate/adapters/metrics"
	"github.com/artpar/shopgate/adapters/payment"
	"github.com/artpar/shopgate/adapters/random"
	"github.com/artpar/shopgate/adapters/sqlite"
	"github.com/artpar/shopgate/app"
	"github.com/artpar/shopgate/config"
	"github.com/artpar/shopgate/ports"
	"github.com/artpar/shopgate/web"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// stores bundles every persistence port the services need.
type stores struct {
	products      ports.ProductStore
	users         ports.UserStore
	carts         ports.CartStore
	subscriptions ports.SubscriptionStore
	events        ports.ProcessedEventStore
	outbox        ports.OutboxStore
	close         func() error
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		return &stores{
			products:      memory.NewProductStore(),
			users:         memory.NewUserStore(),
			carts:         memory.NewCartStore(),
			subscriptions: memory.NewSubscriptionStore(),
			events:        memory.NewProcessedEventStore(),
			outbox:        memory.NewOutboxStore(),
			close:         func() error { return nil },
		}, nil
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &stores{
		products:      sqlite.NewProductStore(db),
		users:         sqlite.NewUserStore(db),
		carts:         sqlite.NewCartStore(db),
		subscriptions: sqlite.NewSubscriptionStore(db),
		events:        sqlite.NewProcessedEventStore(db),
		outbox:        sqlite.NewOutboxStore(db),
		close:         db.Close,
	}, nil
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	// Hot reload when running from a config file. Only log level is
	// picked up live; everything else needs a restart.
	if _, err := os.Stat(cfgFile); err == nil {
		holder, err := config.NewHolder(cfgFile, logger)
		if err != nil {
			return err
		}
		defer holder.Stop()
		holder.OnChange(func(c *config.Config) {
			if level, err := zerolog.ParseLevel(c.Logging.Level); err == nil {
				zerolog.SetGlobalLevel(level)
			}
		})
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		holder.WatchSignals()
	}

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var gateway ports.PaymentGateway
	var verifier web.WebhookVerifier
	if cfg.Payment.Mode == "stripe" {
		stripeGw := payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.Payment.StripeKey,
			PublicKey:     cfg.Payment.StripePublic,
			WebhookSecret: cfg.Payment.WebhookSecret,
		})
		gateway = stripeGw
		verifier = stripeGw
		logger.Info().Msg("stripe payment gateway configured")
	} else {
		noop := payment.NewNoop()
		gateway = noop
		verifier = noop
		logger.Warn().Msg("noop payment gateway: payments are not real")
	}

	var keySvc ports.KeyService
	if cfg.KeyService.URL != "" {
		keySvc = keyservice.NewRemote(keyservice.Config{
			BaseURL: cfg.KeyService.URL,
			APIKey:  cfg.KeyService.APIKey,
			Timeout: cfg.KeyService.Timeout,
		})
		logger.Info().Str("url", cfg.KeyService.URL).Msg("remote key service configured")
	} else {
		keySvc = keyservice.NewNoop(logger)
		logger.Warn().Msg("no key service configured, keys are local only")
	}

	var sender ports.EmailSender
	if cfg.Email.Mode == "smtp" {
		sender, err = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
		if err != nil {
			return fmt.Errorf("smtp sender: %w", err)
		}
	} else {
		sender = email.NewNoopSender()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	realClock := clock.Real{}
	rnd := random.Real{}
	ids := idgen.UUID{}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	cartSvc := app.NewCartService(st.carts, st.products, collector, logger)
	checkoutSvc := app.NewCheckoutService(
		cartSvc, st.products, st.users, gateway, tokens,
		ids, rnd, hasher.NewBcrypt(0), realClock, collector, logger,
	)
	keyLifecycle := app.NewKeyLifecycleService(
		st.subscriptions, st.users, st.products, keySvc, st.outbox,
		rnd, ids, realClock, collector, logger,
	)
	webhookSvc := app.NewPaymentWebhookService(st.events, keyLifecycle, realClock, collector, logger)
	webhookSvc.Start(24 * time.Hour)
	defer webhookSvc.Stop()

	outboxWorker := app.NewOutboxWorker(st.outbox, keySvc, realClock, collector, logger)
	outboxWorker.Start(cfg.Outbox.Interval)
	defer outboxWorker.Stop()

	if cfg.Reminders.Enabled {
		reminders := app.NewReminderService(st.subscriptions, st.users, sender, realClock, collector, logger)
		reminders.Start(cfg.Reminders.Interval)
		defer reminders.Stop()
	}

	storefront := web.NewHandler(web.Deps{
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Keys:     keyLifecycle,
		Products: st.products,
		Tokens:   tokens,
		Random:   rnd,
		Clock:    realClock,
		Logger:   logger,
	})
	webhooks := web.NewPaymentWebhookHandler(verifier, webhookSvc, logger)

	router := chi.NewRouter()
	router.Mount("/", storefront.Routes())
	router.Mount("/webhooks", webhooks.Routes())
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("storefront server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
