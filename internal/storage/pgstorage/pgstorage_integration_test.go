//go:build integration

package pgstorage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/models"
	"github.com/kedr891/skin-portfolio/pkg/postgres"
)

// setupStorage - поднять PostgreSQL в контейнере и применить миграции. Нужен Docker.
func setupStorage(t *testing.T) *Storage {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("skins_test"),
		tcpostgres.WithUsername("skins"),
		tcpostgres.WithPassword("skins"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pg, err := postgres.New(dsn, postgres.ConnAttempts(5))
	require.NoError(t, err)

	storage, err := New(ctx, pg)
	require.NoError(t, err)
	t.Cleanup(storage.Close)

	return storage
}

func TestStorage_SaveCatalogPage_Idempotent(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	games, err := storage.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	gameID := games[0].ID

	now := time.Now().UTC()
	skins := []models.Skin{
		*models.NewSkin(gameID, "AK-47 | Redline (Field-Tested)", "AK-47 | Redline", ""),
		*models.NewSkin(gameID, "AWP | Asiimov (Battle-Scarred)", "AWP | Asiimov", ""),
	}
	observations := []models.PriceObservation{
		{MarketHashName: "AK-47 | Redline (Field-Tested)", Price: decimal.RequireFromString("10.50"), RecordedAt: now},
		{MarketHashName: "AWP | Asiimov (Battle-Scarred)", Price: decimal.RequireFromString("45.00"), RecordedAt: now},
	}

	inserted, err := storage.SaveCatalogPage(ctx, gameID, skins, observations)
	require.NoError(t, err)
	assert.Len(t, inserted, 2)

	// повтор той же страницы: новых скинов нет, точки цены дописываются
	inserted, err = storage.SaveCatalogPage(ctx, gameID, skins, observations)
	require.NoError(t, err)
	assert.Empty(t, inserted)

	skin, err := storage.FindSkinByHash(ctx, "ak-47 | redline (field-tested)")
	require.NoError(t, err)
	assert.Equal(t, "AK-47 | Redline (Field-Tested)", skin.MarketHashName)

	var points int
	err = storage.pg.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM skin_price_points").Scan(&points)
	require.NoError(t, err)
	assert.Equal(t, 4, points)

	_, err = storage.FindSkinByHash(ctx, "M4A4 | Howl (Factory New)")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStorage_SaveCatalogPage_PaddedHash(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	games, err := storage.ListGames(ctx)
	require.NoError(t, err)
	gameID := games[0].ID

	const padded = " AK-47 | Redline (Field-Tested) "
	now := time.Now().UTC()
	skins := []models.Skin{{GameID: gameID, MarketHashName: padded, Title: "AK-47 | Redline", CreatedAt: now}}
	observations := []models.PriceObservation{
		{MarketHashName: padded, Price: decimal.RequireFromString("10.50"), RecordedAt: now},
	}

	inserted, err := storage.SaveCatalogPage(ctx, gameID, skins, observations)
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "AK-47 | Redline (Field-Tested)", inserted[0].MarketHashName)

	// повторная страница находит скин и по обрезанному, и по исходному хешу
	_, err = storage.SaveCatalogPage(ctx, gameID, nil, observations)
	require.NoError(t, err)

	skin, err := storage.FindSkinByHash(ctx, padded)
	require.NoError(t, err)
	assert.Equal(t, inserted[0].ID, skin.ID)

	err = storage.InsertSkin(ctx, &models.Skin{GameID: gameID, MarketHashName: "ak-47 | redline (field-tested)  ", CreatedAt: now})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	var points int
	err = storage.pg.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM skin_price_points").Scan(&points)
	require.NoError(t, err)
	assert.Equal(t, 2, points)
}

func TestStorage_InsertSkin_DuplicateHash(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	games, err := storage.ListGames(ctx)
	require.NoError(t, err)

	require.NoError(t, storage.InsertSkin(ctx, models.NewSkin(games[0].ID, "Glock-18 | Fade (Factory New)", "Glock-18 | Fade", "")))

	err = storage.InsertSkin(ctx, models.NewSkin(games[0].ID, "GLOCK-18 | FADE (FACTORY NEW)", "Glock-18 | Fade", ""))
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestStorage_ListActiveGroups_LatestPriceAndRate(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	games, err := storage.ListGames(ctx)
	require.NoError(t, err)

	skin := models.NewSkin(games[0].ID, "AK-47 | Redline (Field-Tested)", "AK-47 | Redline", "")
	require.NoError(t, storage.InsertSkin(ctx, skin))
	unpriced := models.NewSkin(games[0].ID, "Sticker | Crown (Foil)", "Sticker | Crown", "")
	require.NoError(t, storage.InsertSkin(ctx, unpriced))

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, price := range []string{"1.00", "2.00", "3.00"} {
		require.NoError(t, storage.AppendSkinPricePoint(ctx, &models.SkinPricePoint{
			SkinID:     skin.ID,
			Price:      decimal.RequireFromString(price),
			RecordedAt: day.Add(time.Duration(i) * time.Hour),
		}))
	}

	var eurID, userID, groupID int64
	require.NoError(t, storage.pg.Pool.QueryRow(ctx,
		`INSERT INTO currencies (steam_id, title, mark, culture) VALUES (3, 'EUR', '€', 'de-DE') RETURNING id`).Scan(&eurID))
	for i, rate := range []string{"0.80", "0.90"} {
		require.NoError(t, storage.AppendCurrencyRatePoint(ctx, &models.CurrencyRatePoint{
			CurrencyID: eurID,
			Rate:       decimal.RequireFromString(rate),
			RecordedAt: day.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, storage.pg.Pool.QueryRow(ctx,
		`INSERT INTO users (steam_id, currency_id) VALUES ('76561198000000000', $1) RETURNING id`, eurID).Scan(&userID))
	require.NoError(t, storage.pg.Pool.QueryRow(ctx,
		`INSERT INTO active_groups (user_id, title) VALUES ($1, 'main') RETURNING id`, userID).Scan(&groupID))
	_, err = storage.pg.Pool.Exec(ctx,
		`INSERT INTO actives (group_id, skin_id, count, buy_price, buy_date) VALUES ($1, $2, 2, 1.5, NOW()), ($1, $3, 1, 0.1, NOW())`,
		groupID, skin.ID, unpriced.ID)
	require.NoError(t, err)

	groups, err := storage.ListActiveGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group := groups[0]
	assert.Equal(t, "EUR", group.Currency.Title)
	require.NotNil(t, group.CurrencyRate)
	assert.True(t, group.CurrencyRate.Equal(decimal.RequireFromString("0.9")))
	require.Len(t, group.Actives, 2)
	require.NotNil(t, group.Actives[0].LatestPrice)
	assert.True(t, group.Actives[0].LatestPrice.Equal(decimal.RequireFromString("3")))
	assert.Nil(t, group.Actives[1].LatestPrice)
	assert.Equal(t, "5.4", group.UserTotal().String())

	count, err := storage.CountActiveGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStorage_ValuationPoints_CountedPerUTCDay(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	var userID, groupID int64
	require.NoError(t, storage.pg.Pool.QueryRow(ctx,
		`INSERT INTO users (steam_id, currency_id) VALUES ('76561198000000001', 1) RETURNING id`).Scan(&userID))
	require.NoError(t, storage.pg.Pool.QueryRow(ctx,
		`INSERT INTO active_groups (user_id, title) VALUES ($1, 'main') RETURNING id`, userID).Scan(&groupID))

	day := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	require.NoError(t, storage.AppendGroupValuationPoints(ctx, []models.ActiveGroupValuationPoint{
		{GroupID: groupID, Sum: decimal.RequireFromString("1.00"), RecordedAt: day},
		{GroupID: groupID, Sum: decimal.RequireFromString("2.00"), RecordedAt: day.Add(time.Hour)},
	}))
	require.NoError(t, storage.AppendGroupValuationPoints(ctx, nil))

	count, err := storage.CountGroupValuationPointsForDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = storage.CountGroupValuationPointsForDay(ctx, day.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
