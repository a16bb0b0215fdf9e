package valuationservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/domain/mocks"
	"github.com/kedr891/skin-portfolio/internal/models"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type ValuationServiceSuite struct {
	suite.Suite
	ctx          context.Context
	now          time.Time
	service      *Service
	mockStorage  *mocks.MockStorage
	mockProducer *mocks.MockMessageProducer
}

func (suite *ValuationServiceSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	suite.mockStorage = mocks.NewMockStorage(suite.T())
	suite.mockProducer = mocks.NewMockMessageProducer(suite.T())
	suite.service = New(suite.mockStorage, mocks.NewNopLogger(),
		WithProducer(suite.mockProducer),
		WithClock(func() time.Time { return suite.now }),
	)
}

func TestValuationServiceSuite(t *testing.T) {
	suite.Run(t, new(ValuationServiceSuite))
}

func (suite *ValuationServiceSuite) TestRefreshGroupValuations_ConvertsToUserCurrency() {
	group := models.ActiveGroup{
		ID:           7,
		UserID:       3,
		Currency:     models.Currency{ID: 2, Title: "EUR"},
		CurrencyRate: price("0.9"),
		Actives: []models.Active{
			{SkinID: 1, Count: 2, LatestPrice: price("5.00")},
			{SkinID: 2, Count: 1, LatestPrice: price("3.00")},
		},
	}

	suite.mockStorage.On("CountGroupValuationPointsForDay", suite.ctx, suite.now).Return(0, nil)
	suite.mockStorage.On("CountActiveGroups", suite.ctx).Return(1, nil)
	suite.mockStorage.On("ListActiveGroups", suite.ctx).Return([]models.ActiveGroup{group}, nil)
	suite.mockStorage.On("AppendGroupValuationPoints", suite.ctx, mock.MatchedBy(func(points []models.ActiveGroupValuationPoint) bool {
		return len(points) == 1 &&
			points[0].GroupID == 7 &&
			points[0].Sum.Equal(decimal.RequireFromString("11.70")) &&
			points[0].RecordedAt.Equal(suite.now)
	})).Return(nil).Once()
	suite.mockProducer.On("WriteMessage", suite.ctx, "group:7", mock.MatchedBy(func(e *models.GroupValuationEvent) bool {
		return e.GroupID == 7 && e.UserID == 3 && e.CurrencyID == 2 && e.Sum.Equal(decimal.RequireFromString("11.70"))
	})).Return(nil).Once()

	err := suite.service.RefreshGroupValuations(suite.ctx)

	suite.NoError(err)
}

func (suite *ValuationServiceSuite) TestRefreshGroupValuations_RateFallbackAndMissingPrices() {
	groups := []models.ActiveGroup{
		{
			ID: 1,
			Actives: []models.Active{
				{SkinID: 1, Count: 4, LatestPrice: price("2.50")},
				{SkinID: 2, Count: 10},
			},
		},
		{ID: 2},
	}

	suite.mockStorage.On("CountGroupValuationPointsForDay", suite.ctx, suite.now).Return(0, nil)
	suite.mockStorage.On("CountActiveGroups", suite.ctx).Return(2, nil)
	suite.mockStorage.On("ListActiveGroups", suite.ctx).Return(groups, nil)
	suite.mockStorage.On("AppendGroupValuationPoints", suite.ctx, mock.MatchedBy(func(points []models.ActiveGroupValuationPoint) bool {
		return len(points) == 2 &&
			points[0].Sum.Equal(decimal.NewFromInt(10)) &&
			points[1].Sum.IsZero()
	})).Return(nil).Once()
	suite.mockProducer.On("WriteMessage", suite.ctx, mock.Anything, mock.Anything).Return(errors.New("broker down")).Twice()

	err := suite.service.RefreshGroupValuations(suite.ctx)

	suite.NoError(err)
}

func (suite *ValuationServiceSuite) TestRefreshGroupValuations_AlreadyDone() {
	suite.mockStorage.On("CountGroupValuationPointsForDay", suite.ctx, suite.now).Return(3, nil)
	suite.mockStorage.On("CountActiveGroups", suite.ctx).Return(3, nil)

	err := suite.service.RefreshGroupValuations(suite.ctx)

	suite.ErrorIs(err, domain.ErrAlreadyDone)
	suite.mockStorage.AssertNotCalled(suite.T(), "ListActiveGroups", mock.Anything)
	suite.mockStorage.AssertNotCalled(suite.T(), "AppendGroupValuationPoints", mock.Anything, mock.Anything)
}

func (suite *ValuationServiceSuite) TestRefreshGroupValuations_PartialDayIsRecomputed() {
	suite.mockStorage.On("CountGroupValuationPointsForDay", suite.ctx, suite.now).Return(1, nil)
	suite.mockStorage.On("CountActiveGroups", suite.ctx).Return(2, nil)
	suite.mockStorage.On("ListActiveGroups", suite.ctx).Return([]models.ActiveGroup{{ID: 1}, {ID: 2}}, nil)
	suite.mockStorage.On("AppendGroupValuationPoints", suite.ctx, mock.Anything).Return(nil).Once()
	suite.mockProducer.On("WriteMessage", suite.ctx, mock.Anything, mock.Anything).Return(nil).Twice()

	suite.NoError(suite.service.RefreshGroupValuations(suite.ctx))
}

func (suite *ValuationServiceSuite) TestRefreshGroupValuations_StorageError() {
	suite.mockStorage.On("CountGroupValuationPointsForDay", suite.ctx, suite.now).Return(0, nil)
	suite.mockStorage.On("CountActiveGroups", suite.ctx).Return(1, nil)
	suite.mockStorage.On("ListActiveGroups", suite.ctx).Return([]models.ActiveGroup{{ID: 1}}, nil)
	suite.mockStorage.On("AppendGroupValuationPoints", suite.ctx, mock.Anything).Return(domain.ErrConcurrencyConflict).Once()

	err := suite.service.RefreshGroupValuations(suite.ctx)

	suite.ErrorIs(err, domain.ErrConcurrencyConflict)
	suite.mockProducer.AssertNotCalled(suite.T(), "WriteMessage", mock.Anything, mock.Anything, mock.Anything)
}
