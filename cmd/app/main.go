// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"razorpay-relay/internal/config"
	"razorpay-relay/internal/domain/ports/adapter"
	payAdapters "razorpay-relay/internal/infra/adapters/payment"
	"razorpay-relay/internal/infra/api"
	"razorpay-relay/internal/infra/logging"
	"razorpay-relay/internal/infra/metrics"
	"razorpay-relay/internal/infra/security"
	"razorpay-relay/internal/usecase"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "", "optional path to YAML config file (environment overrides it)")
	devMode := flag.Bool("dev", false, "developer mode: console logs, fake gateway when no key id is set")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(cfg.Build.Version, cfg.Build.Commit)

	// ---- Payment gateway ----
	var gw adapter.OrderGateway
	if cfg.Runtime.Dev && cfg.Razorpay.KeyID == "" {
		gw = payAdapters.NewNoopOrderGateway()
		logger.Warn().Msg("no razorpay key id configured; using in-memory gateway")
	} else {
		gw = payAdapters.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
		logger.Info().
			Str("key_id", logging.Redact(cfg.Razorpay.KeyID, cfg.Runtime.Dev)).
			Msg("razorpay client initialized")
	}
	if cfg.Razorpay.KeySecret == "" {
		logger.Warn().Msg("RAZORPAY_KEY_SECRET is empty; payment signatures will not verify")
	}

	// ---- Use cases ----
	verifier := security.NewSignatureVerifier(cfg.Razorpay.KeySecret)
	paymentUC := usecase.NewPaymentUseCase(gw, verifier, logger)

	// ---- HTTP server ----
	srv := api.NewServer(paymentUC, cfg.App.Name, logger)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msgf("Server running on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case err := <-errc:
		logger.Fatal().Err(err).Msg("http server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
