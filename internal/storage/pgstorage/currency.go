package pgstorage

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/kedr891/skin-portfolio/internal/models"
)

var currencyColumns = []string{"id", "steam_id", "title", "mark", "culture"}

func (s *Storage) FindCurrencyByID(ctx context.Context, id int64) (*models.Currency, error) {
	qb := s.builder.
		Select(currencyColumns...).
		From("currencies").
		Where(squirrel.Eq{"id": id})

	var c models.Currency
	if err := s.queryRow(ctx, s.pg.Pool, qb, &c.ID, &c.SteamID, &c.Title, &c.Mark, &c.Culture); err != nil {
		return nil, fmt.Errorf("find currency %d: %w", id, err)
	}

	return &c, nil
}

func (s *Storage) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	qb := s.builder.
		Select(currencyColumns...).
		From("currencies").
		OrderBy("id")

	rows, err := s.query(ctx, s.pg.Pool, qb)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	currencies := make([]models.Currency, 0)
	for rows.Next() {
		var c models.Currency
		if err := rows.Scan(&c.ID, &c.SteamID, &c.Title, &c.Mark, &c.Culture); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}

	return currencies, rows.Err()
}

func (s *Storage) AppendCurrencyRatePoint(ctx context.Context, point *models.CurrencyRatePoint) error {
	qb := s.builder.
		Insert("currency_rate_points").
		Columns("currency_id", "rate", "recorded_at").
		Values(point.CurrencyID, point.Rate, point.RecordedAt).
		Suffix("RETURNING id")

	if err := s.queryRow(ctx, s.pg.Pool, qb, &point.ID); err != nil {
		return fmt.Errorf("append rate point for currency %d: %w", point.CurrencyID, err)
	}

	return nil
}
