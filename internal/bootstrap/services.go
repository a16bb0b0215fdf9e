package bootstrap

import (
	"net/http"

	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/parser"
	currencyservice "github.com/kedr891/skin-portfolio/internal/services/currencyService"
	valuationservice "github.com/kedr891/skin-portfolio/internal/services/valuationService"
	"github.com/kedr891/skin-portfolio/internal/steam"
	"github.com/kedr891/skin-portfolio/internal/storage/pgstorage"
	"github.com/kedr891/skin-portfolio/pkg/redis"
)

func InitSteamClient(cfg *config.Config, cache *redis.Redis) *steam.Client {
	opts := []steam.Option{
		steam.WithBaseURL(cfg.Steam.BaseURL),
		steam.WithHTTPClient(&http.Client{Timeout: cfg.Steam.Timeout}),
		steam.WithRateLimit(cfg.Steam.RateLimitPerMinute),
	}
	if cache != nil {
		opts = append(opts, steam.WithCache(cache, cfg.Redis.CacheTTL))
	}

	return steam.NewClient(opts...)
}

func InitCurrencyService(
	cfg *config.Config,
	storage *pgstorage.Storage,
	market domain.MarketClient,
	log domain.Logger,
) *currencyservice.Service {
	return currencyservice.New(storage, market, log, currencyservice.Config{
		BaseCurrencyID:    cfg.App.BaseCurrencyID,
		RequestDelay:      cfg.Currency.RequestDelay,
		ReferenceAttempts: cfg.Currency.ReferenceAttempts,
	})
}

func InitCatalogService(
	cfg *config.Config,
	storage *pgstorage.Storage,
	market domain.MarketClient,
	producers *Producers,
	log domain.Logger,
) (*parser.Service, error) {
	var opts []parser.Option
	if producers.SkinDiscovered != nil {
		opts = append(opts, parser.WithDiscoveryProducer(producers.SkinDiscovered))
	}

	return parser.NewService(storage, storage, market, log, parser.Config{
		BaseCurrencyID:   cfg.App.BaseCurrencyID,
		PageSize:         cfg.Crawler.PageSize,
		RetryPageSizeMin: cfg.Crawler.RetryPageSizeMin,
		RetryPageSizeMax: cfg.Crawler.RetryPageSizeMax,
		RetryRollback:    cfg.Crawler.RetryRollback,
		PageDelayMin:     cfg.Crawler.PageDelayMin,
		PageDelayMax:     cfg.Crawler.PageDelayMax,
		RetryDelayMin:    cfg.Crawler.RetryDelayMin,
		RetryDelayMax:    cfg.Crawler.RetryDelayMax,
		KnownHashesSize:  cfg.Crawler.KnownHashesSize,
	}, opts...)
}

func InitValuationService(storage *pgstorage.Storage, producers *Producers, log domain.Logger) *valuationservice.Service {
	var opts []valuationservice.Option
	if producers.GroupValuation != nil {
		opts = append(opts, valuationservice.WithProducer(producers.GroupValuation))
	}

	return valuationservice.New(storage, log, opts...)
}
