package pgstorage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kedr891/skin-portfolio/internal/models"
)

var skinColumns = []string{"id", "game_id", "market_hash_name", "title", "icon", "created_at"}

func (s *Storage) ListGames(ctx context.Context) ([]models.Game, error) {
	qb := s.builder.
		Select("id", "steam_id", "title", "icon").
		From("games").
		OrderBy("id")

	rows, err := s.query(ctx, s.pg.Pool, qb)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.ID, &g.SteamID, &g.Title, &g.Icon); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}

	return games, rows.Err()
}

// FindSkinByHash - поиск без учёта регистра (по индексу на lower(market_hash_name)).
// Хеши хранятся без крайних пробелов, как в models.HashKey.
func (s *Storage) FindSkinByHash(ctx context.Context, marketHashName string) (*models.Skin, error) {
	qb := s.builder.
		Select(skinColumns...).
		From("skins").
		Where("LOWER(market_hash_name) = LOWER(?)", strings.TrimSpace(marketHashName))

	var skin models.Skin
	err := s.queryRow(ctx, s.pg.Pool, qb,
		&skin.ID, &skin.GameID, &skin.MarketHashName, &skin.Title, &skin.Icon, &skin.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find skin %q: %w", marketHashName, err)
	}

	return &skin, nil
}

// InsertSkin - ErrConcurrencyConflict, если хеш уже занят
func (s *Storage) InsertSkin(ctx context.Context, skin *models.Skin) error {
	qb := s.builder.
		Insert("skins").
		Columns("game_id", "market_hash_name", "title", "icon", "created_at").
		Values(skin.GameID, strings.TrimSpace(skin.MarketHashName), skin.Title, skin.Icon, skin.CreatedAt).
		Suffix("RETURNING id")

	if err := s.queryRow(ctx, s.pg.Pool, qb, &skin.ID); err != nil {
		return fmt.Errorf("insert skin %q: %w", skin.MarketHashName, err)
	}

	return nil
}

func (s *Storage) AppendSkinPricePoint(ctx context.Context, point *models.SkinPricePoint) error {
	qb := s.builder.
		Insert("skin_price_points").
		Columns("skin_id", "price", "recorded_at").
		Values(point.SkinID, point.Price, point.RecordedAt).
		Suffix("RETURNING id")

	if err := s.queryRow(ctx, s.pg.Pool, qb, &point.ID); err != nil {
		return fmt.Errorf("append price point for skin %d: %w", point.SkinID, err)
	}

	return nil
}

// SaveCatalogPage - одна транзакция на страницу: новые скины (ON CONFLICT DO NOTHING),
// затем id всех хешей страницы и по точке цены на каждое наблюдение
func (s *Storage) SaveCatalogPage(ctx context.Context, gameID int64, newSkins []models.Skin, observations []models.PriceObservation) ([]models.Skin, error) {
	var inserted []models.Skin

	err := s.pg.Transaction(ctx, func(tx pgx.Tx) error {
		var err error
		inserted, err = s.insertSkinsTx(ctx, tx, gameID, newSkins)
		if err != nil {
			return err
		}

		if len(observations) == 0 {
			return nil
		}

		ids, err := s.resolveSkinIDsTx(ctx, tx, observations)
		if err != nil {
			return err
		}

		return s.appendPricePointsTx(ctx, tx, ids, observations)
	})
	if err != nil {
		return nil, fmt.Errorf("save catalog page: %w", err)
	}

	return inserted, nil
}

func (s *Storage) insertSkinsTx(ctx context.Context, tx pgx.Tx, gameID int64, skins []models.Skin) ([]models.Skin, error) {
	inserted := make([]models.Skin, 0, len(skins))
	if len(skins) == 0 {
		return inserted, nil
	}

	qb := s.builder.
		Insert("skins").
		Columns("game_id", "market_hash_name", "title", "icon", "created_at")
	for _, skin := range skins {
		qb = qb.Values(gameID, strings.TrimSpace(skin.MarketHashName), skin.Title, skin.Icon, skin.CreatedAt)
	}
	qb = qb.Suffix("ON CONFLICT DO NOTHING RETURNING " + strings.Join(skinColumns, ", "))

	rows, err := s.query(ctx, tx, qb)
	if err != nil {
		return nil, fmt.Errorf("insert skins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var skin models.Skin
		if err := rows.Scan(&skin.ID, &skin.GameID, &skin.MarketHashName, &skin.Title, &skin.Icon, &skin.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inserted skin: %w", err)
		}
		inserted = append(inserted, skin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("insert skins: %w", mapError(err))
	}

	return inserted, nil
}

// resolveSkinIDsTx - ключ HashKey -> id скина
func (s *Storage) resolveSkinIDsTx(ctx context.Context, tx pgx.Tx, observations []models.PriceObservation) (map[string]int64, error) {
	keys := make([]string, 0, len(observations))
	seen := make(map[string]struct{}, len(observations))
	for _, obs := range observations {
		key := models.HashKey(obs.MarketHashName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	qb := s.builder.
		Select("id", "LOWER(market_hash_name)").
		From("skins").
		Where("LOWER(market_hash_name) = ANY(?)", keys)

	rows, err := s.query(ctx, tx, qb)
	if err != nil {
		return nil, fmt.Errorf("resolve skins: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64, len(keys))
	for rows.Next() {
		var (
			id  int64
			key string
		)
		if err := rows.Scan(&id, &key); err != nil {
			return nil, fmt.Errorf("scan skin id: %w", err)
		}
		ids[key] = id
	}

	return ids, rows.Err()
}

func (s *Storage) appendPricePointsTx(ctx context.Context, tx pgx.Tx, ids map[string]int64, observations []models.PriceObservation) error {
	qb := s.builder.
		Insert("skin_price_points").
		Columns("skin_id", "price", "recorded_at")

	n := 0
	for _, obs := range observations {
		id, ok := ids[models.HashKey(obs.MarketHashName)]
		if !ok {
			return fmt.Errorf("skin %q vanished before price point insert", obs.MarketHashName)
		}
		qb = qb.Values(id, obs.Price, obs.RecordedAt)
		n++
	}

	if n == 0 {
		return nil
	}

	if _, err := s.execQuery(ctx, tx, qb); err != nil {
		return fmt.Errorf("append price points: %w", err)
	}

	return nil
}
