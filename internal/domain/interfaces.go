package domain

import (
	"context"
	"time"

	"github.com/kedr891/skin-portfolio/internal/models"
)

// CurrencyStorage - валюты и история курсов
type CurrencyStorage interface {
	FindCurrencyByID(ctx context.Context, id int64) (*models.Currency, error)
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	AppendCurrencyRatePoint(ctx context.Context, point *models.CurrencyRatePoint) error
}

// CatalogStorage - каталог скинов и история цен
type CatalogStorage interface {
	ListGames(ctx context.Context) ([]models.Game, error)
	FindSkinByHash(ctx context.Context, marketHashName string) (*models.Skin, error)
	InsertSkin(ctx context.Context, skin *models.Skin) error
	AppendSkinPricePoint(ctx context.Context, point *models.SkinPricePoint) error
	// SaveCatalogPage - в одной транзакции вставить новые скины и дописать точки цен.
	// Возвращает вставленные скины с присвоенными ID.
	SaveCatalogPage(ctx context.Context, gameID int64, newSkins []models.Skin, observations []models.PriceObservation) ([]models.Skin, error)
}

// ValuationStorage - группы активов и их суточные оценки
type ValuationStorage interface {
	ListActiveGroups(ctx context.Context) ([]models.ActiveGroup, error)
	AppendGroupValuationPoints(ctx context.Context, points []models.ActiveGroupValuationPoint) error
	CountGroupValuationPointsForDay(ctx context.Context, day time.Time) (int, error)
	CountActiveGroups(ctx context.Context) (int, error)
}

// Storage - всё, что ядру синхронизации нужно от хранилища
type Storage interface {
	CurrencyStorage
	CatalogStorage
	ValuationStorage
}

// MarketClient - обращения к маркету Steam, без повторов
type MarketClient interface {
	SearchPage(ctx context.Context, req models.PageRequest) (*models.SearchPage, error)
	PriceOverview(ctx context.Context, appID int, marketHashName string, currencyID int) (string, error)
}

type MessageProducer interface {
	WriteMessage(ctx context.Context, key string, value interface{}) error
	Close() error
}

type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}
