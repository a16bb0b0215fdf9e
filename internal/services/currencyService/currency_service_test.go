package currencyservice

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

const refItem = "Operation Breakout Weapon Case"

var (
	usd = models.Currency{ID: 1, SteamID: 1, Title: "USD", Mark: "$", Culture: "en-US"}
	eur = models.Currency{ID: 2, SteamID: 3, Title: "EUR", Mark: "€", Culture: "en-IE"}
	rub = models.Currency{ID: 3, SteamID: 5, Title: "RUB", Mark: "pуб.", Culture: "ru-RU"}
	cs2 = models.Game{ID: 1, SteamID: 730, Title: "Counter-Strike 2"}
)

type CurrencyServiceSuite struct {
	suite.Suite
	ctx         context.Context
	service     *Service
	mockStorage *mocks.MockStorage
	mockMarket  *mocks.MockMarketClient
	sleeps      int
}

func (suite *CurrencyServiceSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mockStorage = mocks.NewMockStorage(suite.T())
	suite.mockMarket = mocks.NewMockMarketClient(suite.T())
	suite.sleeps = 0
	suite.service = New(suite.mockStorage, suite.mockMarket, mocks.NewNopLogger(), Config{
		BaseCurrencyID:    1,
		RequestDelay:      3 * time.Second,
		ReferenceAttempts: 3,
	})
	suite.service.sleep = func(ctx context.Context, d time.Duration) error {
		suite.Equal(3*time.Second, d)
		suite.sleeps++
		return ctx.Err()
	}
}

func TestCurrencyServiceSuite(t *testing.T) {
	suite.Run(t, new(CurrencyServiceSuite))
}

func (suite *CurrencyServiceSuite) expectReference() {
	suite.mockStorage.On("FindCurrencyByID", suite.ctx, int64(1)).Return(&usd, nil)
	suite.mockStorage.On("ListGames", suite.ctx).Return([]models.Game{cs2}, nil)
	suite.mockMarket.On("SearchPage", suite.ctx, models.PageRequest{AppID: 730, CurrencyID: 1, Count: 1}).
		Return(&models.SearchPage{TotalCount: 1, Items: []models.SearchItem{{HashName: refItem}}}, nil)
}

func ratePoint(currencyID int64, rate string) interface{} {
	want := decimal.RequireFromString(rate)
	return mock.MatchedBy(func(p *models.CurrencyRatePoint) bool {
		return p.CurrencyID == currencyID && p.Rate.Equal(want) && !p.RecordedAt.IsZero()
	})
}

func (suite *CurrencyServiceSuite) TestRefreshRates_RecordsRatioToBase() {
	suite.expectReference()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 1).Return("10.00$", nil).Once()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 3).Return("9.00€", nil).Once()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 5).Return("750,50 pуб.", nil).Once()
	suite.mockStorage.On("ListCurrencies", suite.ctx).Return([]models.Currency{usd, eur, rub}, nil)
	suite.mockStorage.On("AppendCurrencyRatePoint", suite.ctx, ratePoint(2, "0.9")).Return(nil).Once()
	suite.mockStorage.On("AppendCurrencyRatePoint", suite.ctx, ratePoint(3, "75.05")).Return(nil).Once()

	result, err := suite.service.RefreshRates(suite.ctx)

	suite.NoError(err)
	suite.Equal(2, result.Recorded)
	suite.Equal(0, result.Skipped)
	suite.Equal(refItem, result.ReferenceItem)
	suite.True(decimal.RequireFromString("10").Equal(result.BasePrice))
	// базовая валюта пропущена, пауза перед каждой из остальных
	suite.Equal(2, suite.sleeps)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_SkipsFailedCurrency() {
	suite.expectReference()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 1).Return("10.00$", nil).Once()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 3).Return("", domain.ErrUpstreamUnavailable).Once()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 5).Return("750,50 pуб.", nil).Once()
	suite.mockStorage.On("ListCurrencies", suite.ctx).Return([]models.Currency{usd, eur, rub}, nil)
	suite.mockStorage.On("AppendCurrencyRatePoint", suite.ctx, ratePoint(3, "75.05")).Return(nil).Once()

	result, err := suite.service.RefreshRates(suite.ctx)

	suite.NoError(err)
	suite.Equal(1, result.Recorded)
	suite.Equal(1, result.Skipped)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_SkipsUnparsablePrice() {
	suite.expectReference()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 1).Return("10.00$", nil).Once()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 3).Return("--", nil).Once()
	suite.mockStorage.On("ListCurrencies", suite.ctx).Return([]models.Currency{usd, eur}, nil)

	result, err := suite.service.RefreshRates(suite.ctx)

	suite.NoError(err)
	suite.Equal(0, result.Recorded)
	suite.Equal(1, result.Skipped)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_MissingBaseCurrency() {
	suite.mockStorage.On("FindCurrencyByID", suite.ctx, int64(1)).Return(nil, domain.ErrNotFound)

	_, err := suite.service.RefreshRates(suite.ctx)

	suite.ErrorIs(err, domain.ErrMissingReferenceData)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_NoGames() {
	suite.mockStorage.On("FindCurrencyByID", suite.ctx, int64(1)).Return(&usd, nil)
	suite.mockStorage.On("ListGames", suite.ctx).Return([]models.Game{}, nil)

	_, err := suite.service.RefreshRates(suite.ctx)

	suite.ErrorIs(err, domain.ErrMissingReferenceData)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_EmptyMarket() {
	suite.mockStorage.On("FindCurrencyByID", suite.ctx, int64(1)).Return(&usd, nil)
	suite.mockStorage.On("ListGames", suite.ctx).Return([]models.Game{cs2}, nil)
	suite.mockMarket.On("SearchPage", suite.ctx, mock.Anything).Return(&models.SearchPage{}, nil).Once()

	_, err := suite.service.RefreshRates(suite.ctx)

	suite.ErrorIs(err, domain.ErrMissingReferenceData)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_ReferenceRetriedOnUpstreamError() {
	suite.mockStorage.On("FindCurrencyByID", suite.ctx, int64(1)).Return(&usd, nil)
	suite.mockStorage.On("ListGames", suite.ctx).Return([]models.Game{cs2}, nil)
	suite.mockMarket.On("SearchPage", suite.ctx, mock.Anything).Return(nil, domain.ErrUpstreamUnavailable).Twice()
	suite.mockMarket.On("SearchPage", suite.ctx, mock.Anything).
		Return(&models.SearchPage{TotalCount: 1, Items: []models.SearchItem{{HashName: refItem}}}, nil).Once()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 1).Return("10.00$", nil).Once()
	suite.mockStorage.On("ListCurrencies", suite.ctx).Return([]models.Currency{usd}, nil)

	result, err := suite.service.RefreshRates(suite.ctx)

	suite.NoError(err)
	suite.Equal(0, result.Recorded)
	suite.Equal(2, suite.sleeps)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_BasePriceUnavailableIsFatal() {
	suite.expectReference()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 1).Return("", domain.ErrUpstreamUnavailable).Times(3)

	_, err := suite.service.RefreshRates(suite.ctx)

	suite.ErrorIs(err, domain.ErrUpstreamUnavailable)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_ZeroBasePriceIsFatal() {
	suite.expectReference()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 1).Return("0.00$", nil).Once()

	_, err := suite.service.RefreshRates(suite.ctx)

	suite.ErrorIs(err, domain.ErrMissingReferenceData)
}

func (suite *CurrencyServiceSuite) TestRefreshRates_StorageFailureIsFatal() {
	suite.expectReference()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 1).Return("10.00$", nil).Once()
	suite.mockMarket.On("PriceOverview", suite.ctx, 730, refItem, 3).Return("9.00€", nil).Once()
	suite.mockStorage.On("ListCurrencies", suite.ctx).Return([]models.Currency{usd, eur}, nil)
	suite.mockStorage.On("AppendCurrencyRatePoint", suite.ctx, mock.Anything).Return(errors.New("db down")).Once()

	_, err := suite.service.RefreshRates(suite.ctx)

	suite.Error(err)
	suite.Contains(err.Error(), "append rate for currency 2")
}
