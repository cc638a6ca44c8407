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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reetrack-billing/internal/config"
	"reetrack-billing/internal/domain/ports/adapter"
	"reetrack-billing/internal/domain/ports/repository"
	"reetrack-billing/internal/infra/adapters/notify"
	payAdapters "reetrack-billing/internal/infra/adapters/payment"
	pg "reetrack-billing/internal/infra/db/postgres"
	"reetrack-billing/internal/infra/logging"
	"reetrack-billing/internal/infra/metrics"
	red "reetrack-billing/internal/infra/redis"
	"reetrack-billing/internal/infra/sched"
	"reetrack-billing/internal/infra/web"
	"reetrack-billing/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway allowed, console logs)")
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
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	subRepo := pg.NewSubscriptionRepo(pool)
	invoiceRepo := pg.NewInvoiceRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	dir := pg.NewDirectory(pool)

	// ---- Collaborators ----
	notifier := notify.NewLogNotifier(logger)

	var gateway adapter.PaymentGateway
	switch cfg.Payment.Provider {
	case "paystack":
		gateway = payAdapters.NewPaystackGateway(cfg.Payment.Paystack)
		logger.Info().Str("provider", "paystack").Msg("payment gateway configured")
	case "noop":
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("noop gateway is only allowed in dev mode")
		}
		gateway = payAdapters.NewNoopGateway()
		logger.Warn().Msg("payment gateway: noop (dev)")
	default:
		logger.Fatal().Str("provider", cfg.Payment.Provider).Msg("unknown payment provider")
	}

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(txm, planRepo, subRepo, dir, logger)
	subUC := usecase.NewSubscriptionUseCase(txm, planRepo, subRepo, invoiceRepo, dir, notifier, cfg.Billing, logger)
	billingUC := usecase.NewBillingUseCase(txm, invoiceRepo, payRepo, subRepo, planRepo, gateway, notifier, cfg.Billing, logger)
	statsUC := usecase.NewStatsUseCase(planRepo, subRepo, payRepo, dir, logger)
	notifUC := usecase.NewNotificationUseCase(subRepo, notifier, logger)

	// ---- HTTP API ----
	server := web.NewServer(planUC, subUC, billingUC, statsUC, cfg.HTTP.AdminAPIKey, cfg.Payment.Paystack.SecretKey, logger)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.HTTP.Port).Msg("api server listening")
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server stopped")
		}
	}()

	// ---- Metrics server ----
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Metrics.Port).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	// Gauge refresher: pool stats plus subscription counts by status.
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
				if counts, err := subRepo.CountByStatus(ctx, repository.NoTX); err == nil {
					metrics.SetSubscriptionsTotal(counts)
				}
			}
		}
	}()

	// ---- Scheduled jobs ----
	scheduler := sched.NewScheduler(logger)
	jobs := []struct {
		spec string
		job  sched.Job
	}{
		{cfg.Scheduler.ExpiryCheckCron, sched.NewExpiryWorker(subUC, logger)},
		{cfg.Scheduler.PaymentReapCron, sched.NewPaymentReaper(billingUC, logger)},
		{cfg.Scheduler.ExpiryNotifyCron, sched.NewNotificationWorker(notifUC, cfg.Scheduler.NotifyWindowDays, logger)},
	}
	for _, j := range jobs {
		if err := scheduler.Add(j.spec, j.job); err != nil {
			logger.Fatal().Err(err).Str("job", j.job.Name()).Msg("schedule job")
		}
	}
	scheduler.Start()

	// ---- Shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	<-scheduler.Stop().Done()
	logger.Info().Msg("bye")
}
