package parser

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/metrics"
	"github.com/kedr891/skin-portfolio/internal/models"
	"github.com/kedr891/skin-portfolio/internal/steam"
)

const _defaultKnownHashes = 50_000

// Config - параметры обхода маркета
type Config struct {
	BaseCurrencyID int64

	PageSize         int
	RetryPageSizeMin int
	RetryPageSizeMax int
	// RetryRollback - на сколько позиций откатить offset после ошибки
	RetryRollback int

	PageDelayMin  time.Duration
	PageDelayMax  time.Duration
	RetryDelayMin time.Duration
	RetryDelayMax time.Duration

	KnownHashesSize int
}

// DefaultConfig - значения по умолчанию
func DefaultConfig() Config {
	return Config{
		BaseCurrencyID:   1,
		PageSize:         100,
		RetryPageSizeMin: 20,
		RetryPageSizeMax: 99,
		PageDelayMin:     10 * time.Second,
		PageDelayMax:     15 * time.Second,
		RetryDelayMin:    100 * time.Second,
		RetryDelayMax:    150 * time.Second,
		KnownHashesSize:  _defaultKnownHashes,
	}
}

type SleepFunc func(ctx context.Context, d time.Duration) error

type Service struct {
	catalog           domain.CatalogStorage
	currencies        domain.CurrencyStorage
	marketClient      domain.MarketClient
	discoveryProducer domain.MessageProducer
	log               domain.Logger

	cfg         Config
	knownHashes *lru.Cache[string, int64]
	sleep       SleepFunc
	intn        func(n int) int
	now         func() time.Time
}

type Option func(*Service)

// WithDiscoveryProducer - публиковать SkinDiscoveredEvent в Kafka
func WithDiscoveryProducer(producer domain.MessageProducer) Option {
	return func(s *Service) {
		s.discoveryProducer = producer
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// WithRand - источник случайности для размеров страниц и задержек
func WithRand(intn func(n int) int) Option {
	return func(s *Service) {
		s.intn = intn
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	catalog domain.CatalogStorage,
	currencies domain.CurrencyStorage,
	marketClient domain.MarketClient,
	log domain.Logger,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", cfg.PageSize)
	}
	if cfg.RetryPageSizeMin <= 0 || cfg.RetryPageSizeMax < cfg.RetryPageSizeMin {
		return nil, fmt.Errorf("invalid retry page size bounds [%d, %d]", cfg.RetryPageSizeMin, cfg.RetryPageSizeMax)
	}
	if cfg.KnownHashesSize <= 0 {
		cfg.KnownHashesSize = _defaultKnownHashes
	}

	knownHashes, err := lru.New[string, int64](cfg.KnownHashesSize)
	if err != nil {
		return nil, fmt.Errorf("create known hashes cache: %w", err)
	}

	s := &Service{
		catalog:      catalog,
		currencies:   currencies,
		marketClient: marketClient,
		log:          log,
		cfg:          cfg,
		knownHashes:  knownHashes,
		sleep:        sleepCtx,
		intn:         rand.Intn,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// SyncAll - обойти маркет всех отслеживаемых игр по очереди
func (s *Service) SyncAll(ctx context.Context) error {
	games, err := s.catalog.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}

	if len(games) == 0 {
		s.log.Warn("No games to sync")
		return nil
	}

	for _, game := range games {
		if err := s.SyncGame(ctx, game); err != nil {
			return fmt.Errorf("sync game %d: %w", game.SteamID, err)
		}
	}

	return nil
}

// crawlState - состояние обхода одной игры
type crawlState struct {
	pageSize      int
	lastRequested int
	start         int
	lastCount     int
	total         int
	pages         int
	newSkins      int
	points        int
}

// hasMore - полная страница или offset ещё не дошёл до total_count
// (total_count дрейфует за время долгого обхода)
func (st *crawlState) hasMore() bool {
	return st.lastCount == st.lastRequested || st.start < st.total
}

// SyncGame - обойти все страницы маркета игры: новые скины вставляются, на каждый увиденный
// предмет дописывается точка цены. Ошибка страницы не прерывает обход: страница повторяется
// с меньшим размером после долгой паузы. Выход только по исчерпанию выдачи или отмене ctx.
func (s *Service) SyncGame(ctx context.Context, game models.Game) error {
	base, err := s.baseCurrency(ctx)
	if err != nil {
		return err
	}

	gameLabel := strconv.Itoa(game.SteamID)
	startTime := time.Now()

	s.log.Info("Starting catalog sync", "game_id", game.SteamID, "title", game.Title)

	st := &crawlState{pageSize: s.cfg.PageSize}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageStart := time.Now()
		requested := st.pageSize

		res, err := s.syncPage(ctx, game, base, st.start, requested)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			metrics.CatalogPagesTotal.WithLabelValues("error").Inc()

			failedAt := st.start
			st.start = max(0, st.start-s.cfg.RetryRollback)
			st.pageSize = s.randomBetween(s.cfg.RetryPageSizeMin, s.cfg.RetryPageSizeMax)
			delay := s.randomDuration(s.cfg.RetryDelayMin, s.cfg.RetryDelayMax)

			s.log.Warn("Catalog page failed, backing off",
				"game_id", game.SteamID,
				"offset", failedAt,
				"retry_offset", st.start,
				"retry_page_size", st.pageSize,
				"delay", delay,
				"malformed", errors.Is(err, domain.ErrUpstreamMalformed),
				"elapsed", time.Since(pageStart),
				"error", err,
			)

			if err := s.sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		st.pages++
		st.total = res.total
		st.start += res.count
		st.newSkins += res.inserted
		st.points += res.points
		st.lastCount = res.count
		st.lastRequested = requested
		st.pageSize = s.cfg.PageSize

		metrics.CatalogPagesTotal.WithLabelValues("ok").Inc()
		metrics.CatalogOffset.WithLabelValues(gameLabel).Set(float64(st.start))

		s.log.Info("Catalog page committed",
			"game_id", game.SteamID,
			"offset", st.start,
			"count", res.count,
			"total", st.total,
			"new_skins", res.inserted,
			"elapsed", time.Since(pageStart),
		)

		if !st.hasMore() {
			break
		}

		if err := s.sleep(ctx, s.randomDuration(s.cfg.PageDelayMin, s.cfg.PageDelayMax)); err != nil {
			return err
		}
	}

	s.log.Info("Catalog sync completed",
		"game_id", game.SteamID,
		"pages", st.pages,
		"offset", st.start,
		"new_skins", st.newSkins,
		"price_points", st.points,
		"elapsed", time.Since(startTime),
	)

	return nil
}

type pageResult struct {
	count    int
	total    int
	inserted int
	points   int
}

// syncPage - одна итерация: страница маркета -> новые скины + точки цен одной транзакцией
func (s *Service) syncPage(ctx context.Context, game models.Game, base *models.Currency, start, pageSize int) (*pageResult, error) {
	page, err := s.marketClient.SearchPage(ctx, models.PageRequest{
		AppID:      game.SteamID,
		CurrencyID: base.SteamID,
		Count:      pageSize,
		Start:      start,
	})
	if err != nil {
		return nil, fmt.Errorf("search page at %d: %w", start, err)
	}

	now := s.now().UTC()
	newSkins := make([]models.Skin, 0)
	pending := make(map[string]struct{})
	observations := make([]models.PriceObservation, 0, len(page.Items))
	prices := make(map[string]decimal.Decimal, len(page.Items))

	for _, item := range page.Items {
		key := models.HashKey(item.HashName)

		if _, seen := pending[key]; !seen {
			known, err := s.isKnown(ctx, item.HashName)
			if err != nil {
				return nil, err
			}
			if !known {
				pending[key] = struct{}{}
				title := item.Name
				if title == "" {
					title = item.HashName
				}
				newSkins = append(newSkins, *models.NewSkin(game.ID, item.HashName, title, item.IconURL))
			}
		}

		price, err := steam.ParsePrice(item.SellPriceText, *base)
		if err != nil {
			s.log.Warn("Skipping unparsable price",
				"game_id", game.SteamID,
				"market_hash_name", item.HashName,
				"price_text", item.SellPriceText,
				"error", err,
			)
			continue
		}

		prices[key] = price
		observations = append(observations, models.PriceObservation{
			MarketHashName: item.HashName,
			Price:          price,
			RecordedAt:     now,
		})
	}

	inserted, err := s.catalog.SaveCatalogPage(ctx, game.ID, newSkins, observations)
	if err != nil {
		return nil, fmt.Errorf("save catalog page at %d: %w", start, err)
	}

	for _, skin := range inserted {
		s.knownHashes.Add(models.HashKey(skin.MarketHashName), skin.ID)
		s.publishDiscovered(ctx, skin, prices[models.HashKey(skin.MarketHashName)])
	}

	metrics.SkinsDiscoveredTotal.Add(float64(len(inserted)))
	metrics.PricePointsTotal.Add(float64(len(observations)))

	count := max(page.ResultCount, len(page.Items))
	if dropped := count - len(page.Items); dropped > 0 {
		s.log.Warn("Skipping results without market hash name",
			"game_id", game.SteamID,
			"offset", start,
			"dropped", dropped,
		)
	}

	return &pageResult{
		count:    count,
		total:    page.TotalCount,
		inserted: len(inserted),
		points:   len(observations),
	}, nil
}

// isKnown - есть ли скин с таким хешем (без учёта регистра); сначала LRU, потом хранилище
func (s *Service) isKnown(ctx context.Context, marketHashName string) (bool, error) {
	key := models.HashKey(marketHashName)
	if _, ok := s.knownHashes.Get(key); ok {
		return true, nil
	}

	skin, err := s.catalog.FindSkinByHash(ctx, marketHashName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find skin %q: %w", marketHashName, err)
	}

	s.knownHashes.Add(key, skin.ID)
	return true, nil
}

func (s *Service) publishDiscovered(ctx context.Context, skin models.Skin, price decimal.Decimal) {
	if s.discoveryProducer == nil {
		return
	}

	event := models.NewSkinDiscoveredEvent(skin, price)
	if err := s.discoveryProducer.WriteMessage(ctx, skin.MarketHashName, event); err != nil {
		s.log.Error("Failed to send discovery event",
			"skin_id", skin.ID,
			"market_hash_name", skin.MarketHashName,
			"error", err,
		)
	}
}

func (s *Service) baseCurrency(ctx context.Context) (*models.Currency, error) {
	base, err := s.currencies.FindCurrencyByID(ctx, s.cfg.BaseCurrencyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: base currency %d", domain.ErrMissingReferenceData, s.cfg.BaseCurrencyID)
		}
		return nil, fmt.Errorf("find base currency: %w", err)
	}
	return base, nil
}

// randomBetween - случайное целое в [lo, hi]
func (s *Service) randomBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.intn(hi-lo+1)
}

func (s *Service) randomDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.intn(int(hi-lo)+1))
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
