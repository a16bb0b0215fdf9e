package parser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/models"
)

// memStorage - хранилище в памяти с семантикой pgstorage: уникальность хеша без учёта регистра,
// история цен только дописывается
type memStorage struct {
	mu         sync.Mutex
	games      []models.Game
	currencies map[int64]models.Currency
	skins      map[string]models.Skin
	points     []models.SkinPricePoint
	nextID     int64
	saveErrs   []error
}

func newMemStorage(games ...models.Game) *memStorage {
	return &memStorage{
		games: games,
		currencies: map[int64]models.Currency{
			1: {ID: 1, SteamID: 1, Title: "USD", Mark: "$", Culture: "en-US"},
		},
		skins: make(map[string]models.Skin),
	}
}

func (s *memStorage) FindCurrencyByID(_ context.Context, id int64) (*models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.currencies[id]
	if !ok {
		return nil, fmt.Errorf("currency %d: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (s *memStorage) ListCurrencies(context.Context) ([]models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		out = append(out, c)
	}
	return out, nil
}

func (s *memStorage) AppendCurrencyRatePoint(context.Context, *models.CurrencyRatePoint) error {
	return nil
}

func (s *memStorage) ListGames(context.Context) ([]models.Game, error) {
	return s.games, nil
}

func (s *memStorage) FindSkinByHash(_ context.Context, hash string) (*models.Skin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skin, ok := s.skins[models.HashKey(hash)]
	if !ok {
		return nil, fmt.Errorf("skin %q: %w", hash, domain.ErrNotFound)
	}
	return &skin, nil
}

func (s *memStorage) InsertSkin(_ context.Context, skin *models.Skin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.HashKey(skin.MarketHashName)
	if _, ok := s.skins[key]; ok {
		return domain.ErrConcurrencyConflict
	}
	s.nextID++
	skin.ID = s.nextID
	s.skins[key] = *skin
	return nil
}

func (s *memStorage) AppendSkinPricePoint(_ context.Context, point *models.SkinPricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, *point)
	return nil
}

func (s *memStorage) SaveCatalogPage(_ context.Context, gameID int64, newSkins []models.Skin, observations []models.PriceObservation) ([]models.Skin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.saveErrs) > 0 {
		err := s.saveErrs[0]
		s.saveErrs = s.saveErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	inserted := make([]models.Skin, 0, len(newSkins))
	for _, skin := range newSkins {
		key := models.HashKey(skin.MarketHashName)
		if _, ok := s.skins[key]; ok {
			continue
		}
		s.nextID++
		skin.ID = s.nextID
		skin.GameID = gameID
		s.skins[key] = skin
		inserted = append(inserted, skin)
	}

	for _, obs := range observations {
		skin, ok := s.skins[models.HashKey(obs.MarketHashName)]
		if !ok {
			continue
		}
		s.points = append(s.points, models.SkinPricePoint{SkinID: skin.ID, Price: obs.Price, RecordedAt: obs.RecordedAt})
	}

	return inserted, nil
}

func (s *memStorage) skinCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.skins)
}

func (s *memStorage) pointCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

// fakeMarket - стабильный каталог с заданным total_count и сбоями на выбранных offset
type fakeMarket struct {
	mu       sync.Mutex
	items    []models.SearchItem
	failures map[int]int
	requests []models.PageRequest
}

func newFakeMarket(total int) *fakeMarket {
	items := make([]models.SearchItem, total)
	for i := range items {
		name := fmt.Sprintf("Item %03d", i)
		items[i] = models.SearchItem{Name: name, HashName: name, SellPriceText: "$1.00"}
	}
	return &fakeMarket{items: items, failures: make(map[int]int)}
}

func (m *fakeMarket) SearchPage(_ context.Context, req models.PageRequest) (*models.SearchPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.failures[req.Start] > 0 {
		m.failures[req.Start]--
		return nil, fmt.Errorf("%w: status 429", domain.ErrUpstreamUnavailable)
	}

	start := min(req.Start, len(m.items))
	end := min(req.Start+req.Count, len(m.items))

	page := &models.SearchPage{TotalCount: len(m.items), Start: req.Start, ResultCount: end - start}
	for _, item := range m.items[start:end] {
		// строки без хеша клиент маркета отбрасывает, но считает в ResultCount
		if item.HashName == "" {
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (m *fakeMarket) PriceOverview(context.Context, int, string, int) (string, error) {
	return "", domain.ErrNotFound
}

func (m *fakeMarket) starts() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.Start
	}
	return out
}

func (m *fakeMarket) counts() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.Count
	}
	return out
}

type recordedSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}
