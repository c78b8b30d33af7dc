package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/config"
	"github.com/cimillas/charity-raffle/internal/crypto"
	"github.com/cimillas/charity-raffle/internal/payment"
	"github.com/cimillas/charity-raffle/internal/payment/stripe"
	"github.com/cimillas/charity-raffle/internal/storage/postgres"
	transporthttp "github.com/cimillas/charity-raffle/internal/transport/http"
	"github.com/cimillas/charity-raffle/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const startupTimeout = 5 * time.Second

func main() {
	cfg, notes, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := cfg.NewLogger()
	for _, note := range notes {
		logger.Info(note)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if !cfg.PaymentsConfigured() {
		logger.Warn("STRIPE_SECRET_KEY or STRIPE_WEBHOOK_SECRET not set, checkout is disabled")
	}
	if !cfg.AdminEnabled() {
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin login is disabled")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatalf("db ping: %v", err)
	}
	applied, err := migrations.Apply(startupCtx, pool)
	if err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}
	for _, name := range applied {
		logger.WithField("migration", name).Info("applied migration")
	}

	services := buildServices(cfg, pool, logger)

	sessionKey := []byte(cfg.SessionKey)
	if len(sessionKey) == 0 {
		// Nothing can log in without a password hash; the key only has to be non-empty.
		sessionKey = []byte(crypto.NewKey())
	}
	auth := transporthttp.NewAdminAuth(
		transporthttp.NewSessionStore(sessionKey, cfg.SecureCookies()),
		cfg.AdminPasswordHash,
		logger.WithField("component", "admin_auth"),
	)

	handler := transporthttp.NewRouter(services, transporthttp.RouterConfig{
		CORSOrigins:        cfg.CORSOrigins,
		PaymentsConfigured: cfg.PaymentsConfigured(),
		Auth:               auth,
		Logger:             logger.WithField("component", "http"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Infof("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}

func buildServices(cfg config.Config, pool *pgxpool.Pool, logger *logrus.Logger) transporthttp.Services {
	clk := clock.NewSystem()
	cipher := crypto.Cipher(cfg.MetadataKey)

	var gateway app.PaymentGateway = payment.Unavailable{}
	if cfg.PaymentsConfigured() {
		opts := []stripe.Option{stripe.WithLogger(logger.WithField("component", "stripe"))}
		if cfg.StripeAPIURL != "" {
			opts = append(opts, stripe.WithBaseURL(cfg.StripeAPIURL))
		}
		gateway = stripe.NewClient(cfg.StripeSecretKey, opts...)
	}

	entryRepo := postgres.NewEntryRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	raffleRepo := postgres.NewRaffleRepository(pool)

	base := cfg.PublicBaseURL
	entrySvc := app.NewEntryService(entryRepo, gateway, cipher, clk,
		app.WithHoldTTL(cfg.HoldTTL),
		app.WithCurrency(cfg.Currency),
		app.WithCheckoutURLs(
			base+"/donate/raffle-tickets/success?session_id={CHECKOUT_SESSION_ID}",
			base+"/donate/raffle-tickets?cancelled=true",
		),
		app.WithEntryLogger(logger.WithField("component", "entries")),
	)
	reconcileSvc := app.NewReconciliationService(paymentRepo, stripe.NewVerifier(cfg.StripeWebhookSecret), cipher, clk,
		app.WithReconciliationLogger(logger.WithField("component", "reconciliation")),
	)
	donationSvc := app.NewDonationService(paymentRepo, gateway,
		app.WithDonationCurrency(cfg.Currency),
		app.WithDonationURLs(
			base+"/donate/success?session_id={CHECKOUT_SESSION_ID}",
			base+"/donate?cancelled=true",
		),
		app.WithDonationLogger(logger.WithField("component", "donations")),
	)

	return transporthttp.Services{
		Catalog:        app.NewCatalogService(raffleRepo, clk),
		Entries:        entrySvc,
		Reconciliation: reconcileSvc,
		Admin:          app.NewAdminService(raffleRepo, clk),
		Draw:           app.NewDrawService(raffleRepo, clk, app.WithDrawLogger(logger.WithField("component", "draw"))),
		Donations:      donationSvc,
	}
}
