package bootstrap

import (
	"context"
	"fmt"

	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/parser"
	"github.com/kedr891/skin-portfolio/internal/scheduler"
	currencyservice "github.com/kedr891/skin-portfolio/internal/services/currencyService"
	valuationservice "github.com/kedr891/skin-portfolio/internal/services/valuationService"
)

const (
	JobCurrency  = "currency"
	JobCatalog   = "catalog"
	JobValuation = "valuation"
)

// InitScheduler - курсы и оценка групп по cron, обход каталога циклом
func InitScheduler(
	cfg *config.Config,
	currencies *currencyservice.Service,
	catalog *parser.Service,
	valuations *valuationservice.Service,
	log domain.Logger,
) (*scheduler.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := scheduler.New(log,
		scheduler.WithLocation(loc),
		scheduler.WithRetryCooldown(cfg.Scheduler.RetryCooldown),
	)

	err = s.AddDaily(cfg.Scheduler.CurrencyRefreshCron, scheduler.Job{
		Name: JobCurrency,
		Run: func(ctx context.Context) error {
			_, err := currencies.RefreshRates(ctx)
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("register %s job: %w", JobCurrency, err)
	}

	err = s.AddDaily(cfg.Scheduler.ValuationCron, scheduler.Job{
		Name: JobValuation,
		Run:  valuations.RefreshGroupValuations,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s job: %w", JobValuation, err)
	}

	err = s.AddLoop(cfg.Scheduler.CatalogSyncInterval, scheduler.Job{
		Name: JobCatalog,
		Run:  catalog.SyncAll,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s job: %w", JobCatalog, err)
	}

	return s, nil
}
