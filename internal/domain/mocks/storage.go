package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kedr891/skin-portfolio/internal/models"
)

// MockStorage - мок domain.Storage (и всех его частей)
type MockStorage struct {
	mock.Mock
}

func NewMockStorage(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStorage {
	m := &MockStorage{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockStorage) FindCurrencyByID(ctx context.Context, id int64) (*models.Currency, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Currency), args.Error(1)
}

func (m *MockStorage) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Currency), args.Error(1)
}

func (m *MockStorage) AppendCurrencyRatePoint(ctx context.Context, point *models.CurrencyRatePoint) error {
	args := m.Called(ctx, point)
	return args.Error(0)
}

func (m *MockStorage) ListGames(ctx context.Context) ([]models.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockStorage) FindSkinByHash(ctx context.Context, marketHashName string) (*models.Skin, error) {
	args := m.Called(ctx, marketHashName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Skin), args.Error(1)
}

func (m *MockStorage) InsertSkin(ctx context.Context, skin *models.Skin) error {
	args := m.Called(ctx, skin)
	return args.Error(0)
}

func (m *MockStorage) AppendSkinPricePoint(ctx context.Context, point *models.SkinPricePoint) error {
	args := m.Called(ctx, point)
	return args.Error(0)
}

func (m *MockStorage) SaveCatalogPage(ctx context.Context, gameID int64, newSkins []models.Skin, observations []models.PriceObservation) ([]models.Skin, error) {
	args := m.Called(ctx, gameID, newSkins, observations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Skin), args.Error(1)
}

func (m *MockStorage) ListActiveGroups(ctx context.Context) ([]models.ActiveGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActiveGroup), args.Error(1)
}

func (m *MockStorage) AppendGroupValuationPoints(ctx context.Context, points []models.ActiveGroupValuationPoint) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *MockStorage) CountGroupValuationPointsForDay(ctx context.Context, day time.Time) (int, error) {
	args := m.Called(ctx, day)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) CountActiveGroups(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
