package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/internal/bootstrap"
	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/scheduler"
)

// RunSync - фоновые задачи синхронизации. Непустой runJob выполняет одну задачу и завершается.
func RunSync(ctx context.Context, cfg *config.Config, runJob string) error {
	logger := bootstrap.InitLogger(cfg)
	log := bootstrap.NewLoggerAdapter(logger)
	log.Info("Starting skin sync service", "version", cfg.App.Version, "base_currency", cfg.App.BaseCurrencyID)

	storage, err := bootstrap.InitPGStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer storage.Close()

	cache, err := bootstrap.InitCache(cfg)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	} else {
		log.Warn("Redis is not configured, price overview cache disabled")
	}

	producers, err := bootstrap.InitProducers(cfg)
	if err != nil {
		return fmt.Errorf("init producers: %w", err)
	}
	defer producers.Close()

	steamClient := bootstrap.InitSteamClient(cfg, cache)

	currencies := bootstrap.InitCurrencyService(cfg, storage, steamClient, log)
	valuations := bootstrap.InitValuationService(storage, producers, log)
	catalog, err := bootstrap.InitCatalogService(cfg, storage, steamClient, producers, log)
	if err != nil {
		return fmt.Errorf("init catalog service: %w", err)
	}

	sched, err := bootstrap.InitScheduler(cfg, currencies, catalog, valuations, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if runJob != "" {
		return runOnce(ctx, sched, runJob, log)
	}

	return run(ctx, cfg, sched, storage, log)
}

// runOnce - одна задача; SIGINT/SIGTERM отменяют её контекст
func runOnce(ctx context.Context, sched *scheduler.Scheduler, job string, log domain.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Running job once", "job", job)
	return sched.RunOnce(ctx, job)
}

func run(
	ctx context.Context,
	cfg *config.Config,
	sched *scheduler.Scheduler,
	health bootstrap.HealthChecker,
	log domain.Logger,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		select {
		case sig := <-quit:
			log.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	server := bootstrap.InitOpsServer(cfg, health, sched)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// задачи стартуют только после того, как ops сервер поднят
		return bootstrap.RunOpsServer(gctx, server, sched.Barrier().Release, log)
	})
	g.Go(func() error {
		return sched.Start(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		log.Info("Skin sync service stopped")
		return nil
	}
	return err
}
