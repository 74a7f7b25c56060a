// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket-payment-service/internal/config"
	"ticket-payment-service/internal/domain/ports/adapter"
	pg "ticket-payment-service/internal/infra/db/postgres"
	"ticket-payment-service/internal/infra/logging"
	"ticket-payment-service/internal/infra/mail"
	"ticket-payment-service/internal/infra/metrics"
	mp "ticket-payment-service/internal/infra/payment"
	"ticket-payment-service/internal/infra/qrcode"
	red "ticket-payment-service/internal/infra/redis"
	"ticket-payment-service/internal/infra/sched"
	"ticket-payment-service/internal/infra/web"
	"ticket-payment-service/internal/infra/worker"
	"ticket-payment-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no mail)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()
	if err := pg.InitSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("postgres schema")
	}

	ledgerRepo := pg.NewLedgerRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Redis (optional; reconciliation falls back to DB locking) ----
	var locker adapter.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, reconciliation locks disabled")
		} else {
			defer redisClient.Close()
			locker = red.NewLocker(redisClient)
		}
	}

	// ---- Collaborators ----
	gateway := mp.NewMercadoPagoGateway(cfg.Gateway.AccessToken, cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	encoder := qrcode.NewEncoder(256)

	var mailer adapter.TicketMailer
	if cfg.Mail.Enabled && !cfg.Runtime.Dev {
		mailer = mail.NewSMTPMailer(cfg.Mail, cfg.Event.Name)
	} else {
		mailer = mail.NewNoopMailer(logger)
	}

	// ---- Use cases ----
	reconcileUC := usecase.NewReconcileUseCase(ledgerRepo, txManager, gateway, mailer, locker, cfg.Reconciler.MaxFetchAttempts, logger)
	checkoutUC := usecase.NewCheckoutUseCase(ledgerRepo, gateway, encoder, reconcileUC, cfg.Event.Name, cfg.Gateway.MaxRetries, logger)

	// ---- Background workers ----
	pool2 := worker.NewPool(cfg.Reconciler.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	sweeper := sched.NewReconcileSweeper(reconcileUC, ledgerRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go sweeper.Start(ctx)

	// ---- HTTP ----
	server := web.NewServer(checkoutUC, reconcileUC, pool2, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router(cfg.Server.AllowedOrigins),
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("ticket payment service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	cancel()
}
