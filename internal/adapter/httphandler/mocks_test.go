package httphandler_test

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Product(ctx context.Context, slug string) (domain.Product, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockCatalog) Products(ctx context.Context, search string) ([]domain.Product, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockCatalog) ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockCatalog) Category(ctx context.Context, slug string) (domain.Category, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCatalog) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCatalog) Search(ctx context.Context, term string) (domain.SearchResult, error) {
	args := m.Called(ctx, term)
	return args.Get(0).(domain.SearchResult), args.Error(1)
}

func (m *MockCatalog) Recommend(
	ctx context.Context, current domain.Product, viewed domain.RecentlyViewed, limit int,
) ([]domain.Product, error) {
	args := m.Called(ctx, current, viewed, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockCatalog) Revalidate(ctx context.Context, kind string) (bool, error) {
	args := m.Called(ctx, kind)
	return args.Bool(0), args.Error(1)
}

type MockViews struct {
	mock.Mock
}

func (m *MockViews) SendView(ctx context.Context, v domain.ProductView) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockViews) ViewCount(ctx context.Context, slug string) (int64, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(int64), args.Error(1)
}

type MockCartGateway struct {
	mock.Mock
}

func (m *MockCartGateway) Cart(
	ctx context.Context, session string,
) (domain.CartSnapshot, string, error) {
	args := m.Called(ctx, session)
	return args.Get(0).(domain.CartSnapshot), args.String(1), args.Error(2)
}

func (m *MockCartGateway) AddToCart(
	ctx context.Context, session string, item domain.AddToCart,
) (domain.CartSnapshot, string, error) {
	args := m.Called(ctx, session, item)
	return args.Get(0).(domain.CartSnapshot), args.String(1), args.Error(2)
}

func (m *MockCartGateway) UpdateQuantities(
	ctx context.Context, session string, items []domain.LineQuantity,
) (domain.CartSnapshot, string, error) {
	args := m.Called(ctx, session, items)
	return args.Get(0).(domain.CartSnapshot), args.String(1), args.Error(2)
}

func (m *MockCartGateway) RemoveLines(
	ctx context.Context, session string, keys []string,
) (domain.CartSnapshot, string, error) {
	args := m.Called(ctx, session, keys)
	return args.Get(0).(domain.CartSnapshot), args.String(1), args.Error(2)
}

func (m *MockCartGateway) EmptyCart(
	ctx context.Context, session string,
) (domain.CartSnapshot, string, error) {
	args := m.Called(ctx, session)
	return args.Get(0).(domain.CartSnapshot), args.String(1), args.Error(2)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
