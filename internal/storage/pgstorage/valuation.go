package pgstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kedr891/skin-portfolio/internal/models"
)

const (
	_latestRates = `(SELECT DISTINCT ON (currency_id) currency_id, rate
		FROM currency_rate_points
		ORDER BY currency_id, recorded_at DESC) r ON r.currency_id = c.id`

	_latestPrices = `(SELECT DISTINCT ON (skin_id) skin_id, price
		FROM skin_price_points
		WHERE skin_id IN (SELECT skin_id FROM actives)
		ORDER BY skin_id, recorded_at DESC) p ON p.skin_id = s.id`
)

// ListActiveGroups - группы с владельцем, его валютой и её последним курсом (nil, если точек нет),
// и активами с последней ценой скина
func (s *Storage) ListActiveGroups(ctx context.Context) ([]models.ActiveGroup, error) {
	groups, err := s.listGroups(ctx)
	if err != nil {
		return nil, err
	}

	if len(groups) == 0 {
		return groups, nil
	}

	index := make(map[int64]int, len(groups))
	for i, g := range groups {
		index[g.ID] = i
	}

	qb := s.builder.
		Select(
			"a.id", "a.group_id", "a.skin_id", "a.count", "a.buy_price", "a.buy_date", "a.target_price", "a.description",
			"s.id", "s.game_id", "s.market_hash_name", "s.title", "s.icon", "s.created_at",
			"p.price",
		).
		From("actives a").
		Join("skins s ON s.id = a.skin_id").
		LeftJoin(_latestPrices).
		OrderBy("a.group_id", "a.id")

	rows, err := s.query(ctx, s.pg.Pool, qb)
	if err != nil {
		return nil, fmt.Errorf("list actives: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a     models.Active
			price *decimal.Decimal
		)
		err := rows.Scan(
			&a.ID, &a.GroupID, &a.SkinID, &a.Count, &a.BuyPrice, &a.BuyDate, &a.TargetPrice, &a.Description,
			&a.Skin.ID, &a.Skin.GameID, &a.Skin.MarketHashName, &a.Skin.Title, &a.Skin.Icon, &a.Skin.CreatedAt,
			&price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan active: %w", err)
		}
		a.LatestPrice = price

		if i, ok := index[a.GroupID]; ok {
			groups[i].Actives = append(groups[i].Actives, a)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list actives: %w", err)
	}

	return groups, nil
}

func (s *Storage) listGroups(ctx context.Context) ([]models.ActiveGroup, error) {
	qb := s.builder.
		Select(
			"g.id", "g.user_id", "g.title", "g.target_sum",
			"u.id", "u.steam_id", "u.role", "u.currency_id", "u.start_page", "u.registered_at", "u.target_sum",
			"c.id", "c.steam_id", "c.title", "c.mark", "c.culture",
			"r.rate",
		).
		From("active_groups g").
		Join("users u ON u.id = g.user_id").
		Join("currencies c ON c.id = u.currency_id").
		LeftJoin(_latestRates).
		OrderBy("g.id")

	rows, err := s.query(ctx, s.pg.Pool, qb)
	if err != nil {
		return nil, fmt.Errorf("list active groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.ActiveGroup, 0)
	for rows.Next() {
		var g models.ActiveGroup
		err := rows.Scan(
			&g.ID, &g.UserID, &g.Title, &g.TargetSum,
			&g.User.ID, &g.User.SteamID, &g.User.Role, &g.User.CurrencyID, &g.User.StartPage, &g.User.RegisteredAt, &g.User.TargetSum,
			&g.Currency.ID, &g.Currency.SteamID, &g.Currency.Title, &g.Currency.Mark, &g.Currency.Culture,
			&g.CurrencyRate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan active group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// AppendGroupValuationPoints - все точки одной транзакцией
func (s *Storage) AppendGroupValuationPoints(ctx context.Context, points []models.ActiveGroupValuationPoint) error {
	if len(points) == 0 {
		return nil
	}

	qb := s.builder.
		Insert("active_group_valuation_points").
		Columns("group_id", "sum", "recorded_at")
	for _, p := range points {
		qb = qb.Values(p.GroupID, p.Sum, p.RecordedAt)
	}

	err := s.pg.Transaction(ctx, func(tx pgx.Tx) error {
		_, err := s.execQuery(ctx, tx, qb)
		return err
	})
	if err != nil {
		return fmt.Errorf("append valuation points: %w", err)
	}

	return nil
}

// CountGroupValuationPointsForDay - точки за календарный день (UTC), которому принадлежит day
func (s *Storage) CountGroupValuationPointsForDay(ctx context.Context, day time.Time) (int, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	qb := s.builder.
		Select("COUNT(*)").
		From("active_group_valuation_points").
		Where(squirrel.GtOrEq{"recorded_at": from}).
		Where(squirrel.Lt{"recorded_at": to})

	var count int
	if err := s.queryRow(ctx, s.pg.Pool, qb, &count); err != nil {
		return 0, fmt.Errorf("count valuation points: %w", err)
	}

	return count, nil
}

func (s *Storage) CountActiveGroups(ctx context.Context) (int, error) {
	qb := s.builder.Select("COUNT(*)").From("active_groups")

	var count int
	if err := s.queryRow(ctx, s.pg.Pool, qb, &count); err != nil {
		return 0, fmt.Errorf("count active groups: %w", err)
	}

	return count, nil
}
