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

	"gym-membership-platform/internal/config"
	pg "gym-membership-platform/internal/infra/db/postgres"
	"gym-membership-platform/internal/infra/logging"
	"gym-membership-platform/internal/infra/metrics"
	gw "gym-membership-platform/internal/infra/payment"
	red "gym-membership-platform/internal/infra/redis"
	"gym-membership-platform/internal/infra/sched"
	"gym-membership-platform/internal/infra/web"
	"gym-membership-platform/internal/usecase"

	"gym-membership-platform/internal/domain/model"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	if err := pg.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
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
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	gymRepo := pg.NewGymRepo(pool)
	memberRepo := pg.NewMemberRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Item registry ----
	items := usecase.NewItemRegistry()
	items.Register(model.ItemTypeMembershipPlan, usecase.NewPlanItemLoader(planRepo))

	// ---- Gateway ----
	gateway := gw.NewSSLCommerzGateway(gw.Config{
		Sandbox:    cfg.Payment.SSLCommerz.Sandbox,
		SuccessURL: cfg.Payment.SSLCommerz.SuccessURL,
		FailURL:    cfg.Payment.SSLCommerz.FailURL,
		CancelURL:  cfg.Payment.SSLCommerz.CancelURL,
	})

	// ---- Use cases ----
	paymentUC := usecase.NewPaymentUseCase(items, payRepo, memberRepo, gymRepo, gateway, tm, locker, logger)
	membershipUC := usecase.NewMembershipUseCase(payRepo, memberRepo, gymRepo, tm, logger)

	// ---- Background workers ----
	scheduler := sched.NewTenantScheduler(cfg.Sweeper.DailySpec, gymRepo, membershipUC, logger)
	if err := scheduler.Resync(ctx); err != nil {
		logger.Error().Err(err).Msg("initial tenant schedule sync failed")
	}
	defer scheduler.Stop()

	expirer := sched.NewPaymentExpirer(cfg.Sweeper.PendingTick(), paymentUC, logger)
	go func() {
		if err := expirer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("payment expirer stopped")
		}
	}()

	// ---- HTTP ----
	server := web.NewServer(cfg, paymentUC, membershipUC, gymRepo, scheduler, logger)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
