package currencyservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/metrics"
	"github.com/kedr891/skin-portfolio/internal/models"
	"github.com/kedr891/skin-portfolio/internal/steam"
)

const _ratePrecision = 8

type RateStorage interface {
	FindCurrencyByID(ctx context.Context, id int64) (*models.Currency, error)
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	AppendCurrencyRatePoint(ctx context.Context, point *models.CurrencyRatePoint) error
	ListGames(ctx context.Context) ([]models.Game, error)
}

type Config struct {
	BaseCurrencyID int64
	// RequestDelay - пауза между запросами цены в разных валютах
	RequestDelay time.Duration
	// ReferenceAttempts - попытки получить опорный предмет и его базовую цену
	ReferenceAttempts int
}

// RefreshResult - итог одного прогона
type RefreshResult struct {
	ReferenceItem string
	BasePrice     decimal.Decimal
	Recorded      int
	Skipped       int
}

type Service struct {
	storage RateStorage
	market  domain.MarketClient
	log     domain.Logger
	cfg     Config

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func New(storage RateStorage, market domain.MarketClient, log domain.Logger, cfg Config) *Service {
	if cfg.ReferenceAttempts <= 0 {
		cfg.ReferenceAttempts = 1
	}

	return &Service{
		storage: storage,
		market:  market,
		log:     log,
		cfg:     cfg,
		sleep:   sleepCtx,
		now:     time.Now,
	}
}

// RefreshRates - курс каждой валюты к базовой по цене одного опорного предмета.
// Ошибка по отдельной валюте пропускается; фатальны только отсутствие базовой валюты,
// игр, опорного предмета или его базовой цены.
func (s *Service) RefreshRates(ctx context.Context) (*RefreshResult, error) {
	startTime := time.Now()

	base, err := s.storage.FindCurrencyByID(ctx, s.cfg.BaseCurrencyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: base currency %d", domain.ErrMissingReferenceData, s.cfg.BaseCurrencyID)
		}
		return nil, fmt.Errorf("find base currency: %w", err)
	}

	games, err := s.storage.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: no tracked games", domain.ErrMissingReferenceData)
	}
	game := games[0]

	item, err := s.referenceItem(ctx, game, base)
	if err != nil {
		return nil, err
	}

	basePrice, err := s.referencePrice(ctx, game, item, base)
	if err != nil {
		return nil, err
	}

	s.log.Info("Reference item resolved",
		"game_id", game.SteamID,
		"market_hash_name", item,
		"base_price", basePrice.String(),
	)

	currencies, err := s.storage.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}

	result := &RefreshResult{ReferenceItem: item, BasePrice: basePrice}

	for _, currency := range currencies {
		if currency.IsBase(base.ID) {
			continue
		}

		if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
			return result, err
		}

		lookupStart := time.Now()
		rate, err := s.rate(ctx, game, item, currency, basePrice)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}

			result.Skipped++
			metrics.CurrencyRatesTotal.WithLabelValues("skipped").Inc()
			s.log.Warn("Currency rate skipped",
				"currency_id", currency.ID,
				"currency", currency.Title,
				"elapsed", time.Since(lookupStart),
				"error", err,
			)
			continue
		}

		point := &models.CurrencyRatePoint{
			CurrencyID: currency.ID,
			Rate:       rate,
			RecordedAt: s.now().UTC(),
		}
		if err := s.storage.AppendCurrencyRatePoint(ctx, point); err != nil {
			return result, fmt.Errorf("append rate for currency %d: %w", currency.ID, err)
		}

		result.Recorded++
		metrics.CurrencyRatesTotal.WithLabelValues("recorded").Inc()
		s.log.Debug("Currency rate recorded", "currency_id", currency.ID, "rate", rate.String())
	}

	s.log.Info("Currency refresh completed",
		"recorded", result.Recorded,
		"skipped", result.Skipped,
		"elapsed", time.Since(startTime),
	)

	return result, nil
}

// referenceItem - самый популярный предмет первой игры (страница размера 1)
func (s *Service) referenceItem(ctx context.Context, game models.Game, base *models.Currency) (string, error) {
	var hash string
	err := s.withRetry(ctx, "reference item", func() error {
		page, err := s.market.SearchPage(ctx, models.PageRequest{
			AppID:      game.SteamID,
			CurrencyID: base.SteamID,
			Count:      1,
			Start:      0,
		})
		if err != nil {
			return err
		}
		if len(page.Items) == 0 {
			return fmt.Errorf("%w: market of game %d is empty", domain.ErrMissingReferenceData, game.SteamID)
		}
		hash = page.Items[0].HashName
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reference item: %w", err)
	}
	return hash, nil
}

func (s *Service) referencePrice(ctx context.Context, game models.Game, item string, base *models.Currency) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.withRetry(ctx, "reference price", func() error {
		text, err := s.market.PriceOverview(ctx, game.SteamID, item, base.SteamID)
		if err != nil {
			return err
		}
		price, err = steam.ParsePrice(text, *base)
		return err
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("reference price of %q: %w", item, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: reference price of %q is %s", domain.ErrMissingReferenceData, item, price)
	}
	return price, nil
}

func (s *Service) rate(ctx context.Context, game models.Game, item string, currency models.Currency, basePrice decimal.Decimal) (decimal.Decimal, error) {
	text, err := s.market.PriceOverview(ctx, game.SteamID, item, currency.SteamID)
	if err != nil {
		return decimal.Zero, err
	}

	price, err := steam.ParsePrice(text, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price %q", domain.ErrUpstreamMalformed, text)
	}

	return price.DivRound(basePrice, _ratePrecision), nil
}

// withRetry - повторять fn, пока ошибка маркета повторяемая и есть попытки
func (s *Service) withRetry(ctx context.Context, what string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.cfg.ReferenceAttempts; attempt++ {
		if err = fn(); err == nil || !domain.IsRetryable(err) {
			return err
		}

		if attempt < s.cfg.ReferenceAttempts {
			s.log.Warn("Reference lookup failed, retrying", "what", what, "attempt", attempt, "error", err)
			if sleepErr := s.sleep(ctx, s.cfg.RequestDelay); sleepErr != nil {
				return sleepErr
			}
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
