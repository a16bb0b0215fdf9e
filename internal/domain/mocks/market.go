package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kedr891/skin-portfolio/internal/models"
)

type MockMarketClient struct {
	mock.Mock
}

func NewMockMarketClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMarketClient {
	m := &MockMarketClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMarketClient) SearchPage(ctx context.Context, req models.PageRequest) (*models.SearchPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchPage), args.Error(1)
}

func (m *MockMarketClient) PriceOverview(ctx context.Context, appID int, marketHashName string, currencyID int) (string, error) {
	args := m.Called(ctx, appID, marketHashName, currencyID)
	return args.String(0), args.Error(1)
}

type MockMessageProducer struct {
	mock.Mock
}

func NewMockMessageProducer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMessageProducer {
	m := &MockMessageProducer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMessageProducer) WriteMessage(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessageProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}
