package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// fakeCartGateway is an in-memory upstream cart keyed by product
// and variation ID.
type fakeCartGateway struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	err      error
	token    string
	sessions []string

	release     chan struct{}
	calls       atomic.Int32
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeCartGateway() *fakeCartGateway {
	return &fakeCartGateway{token: "tok-1"}
}

func (g *fakeCartGateway) failNext(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakeCartGateway) enter(session string) (func(), error) {
	g.calls.Add(1)
	n := g.inflight.Add(1)
	for {
		m := g.maxInflight.Load()
		if n <= m || g.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	if g.release != nil {
		<-g.release
	}

	g.mu.Lock()
	g.sessions = append(g.sessions, session)
	err := g.err
	g.err = nil
	return func() {
		g.mu.Unlock()
		g.inflight.Add(-1)
	}, err
}

func (g *fakeCartGateway) snapshot() domain.CartSnapshot {
	s := domain.EmptyCart()
	var total int
	for _, l := range g.lines {
		total += 10 * l.Quantity
		s.Lines = append(s.Lines, l)
	}
	s.Subtotal = fmt.Sprintf("$%d.00", total)
	s.Total = s.Subtotal
	return s
}

func (g *fakeCartGateway) Cart(
	_ context.Context, session string,
) (domain.CartSnapshot, string, error) {
	done, err := g.enter(session)
	defer done()
	if err != nil {
		return domain.CartSnapshot{}, session, err
	}
	return g.snapshot(), g.token, nil
}

func (g *fakeCartGateway) AddToCart(
	_ context.Context, session string, item domain.AddToCart,
) (domain.CartSnapshot, string, error) {
	done, err := g.enter(session)
	defer done()
	if err != nil {
		return domain.CartSnapshot{}, session, err
	}

	key := fmt.Sprintf("line-%d-%d", item.ProductID, item.VariationID)
	for i := range g.lines {
		if g.lines[i].Key == key {
			g.lines[i].Quantity += item.Quantity
			return g.snapshot(), g.token, nil
		}
	}
	g.lines = append(g.lines, domain.CartLine{
		Key:      key,
		Product:  domain.ProductSummary{ID: fmt.Sprint(item.ProductID)},
		Quantity: item.Quantity,
	})
	return g.snapshot(), g.token, nil
}

func (g *fakeCartGateway) UpdateQuantities(
	_ context.Context, session string, items []domain.LineQuantity,
) (domain.CartSnapshot, string, error) {
	done, err := g.enter(session)
	defer done()
	if err != nil {
		return domain.CartSnapshot{}, session, err
	}

	for _, it := range items {
		for i := range g.lines {
			if g.lines[i].Key == it.Key {
				g.lines[i].Quantity = it.Quantity
			}
		}
	}
	return g.snapshot(), g.token, nil
}

func (g *fakeCartGateway) RemoveLines(
	_ context.Context, session string, keys []string,
) (domain.CartSnapshot, string, error) {
	done, err := g.enter(session)
	defer done()
	if err != nil {
		return domain.CartSnapshot{}, session, err
	}

	kept := g.lines[:0:0]
	for _, l := range g.lines {
		var drop bool
		for _, k := range keys {
			drop = drop || l.Key == k
		}
		if !drop {
			kept = append(kept, l)
		}
	}
	g.lines = kept
	return g.snapshot(), g.token, nil
}

func (g *fakeCartGateway) EmptyCart(
	_ context.Context, session string,
) (domain.CartSnapshot, string, error) {
	done, err := g.enter(session)
	defer done()
	if err != nil {
		return domain.CartSnapshot{}, session, err
	}
	g.lines = nil
	return g.snapshot(), g.token, nil
}

type MockSessionTokenStore struct {
	mock.Mock
}

func (m *MockSessionTokenStore) LoadToken(
	ctx context.Context, sessionID string,
) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionTokenStore) SaveToken(
	ctx context.Context, sessionID, token string,
) error {
	args := m.Called(ctx, sessionID, token)
	return args.Error(0)
}

type MockCatalogGateway struct {
	mock.Mock
}

func (m *MockCatalogGateway) Product(ctx context.Context, slug string) (domain.Product, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockCatalogGateway) Products(ctx context.Context, search string) ([]domain.Product, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockCatalogGateway) ProductsByCategory(
	ctx context.Context, categorySlug string,
) ([]domain.Product, error) {
	args := m.Called(ctx, categorySlug)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockCatalogGateway) Category(ctx context.Context, slug string) (domain.Category, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCatalogGateway) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCatalogGateway) Search(ctx context.Context, term string) (domain.SearchResult, error) {
	args := m.Called(ctx, term)
	return args.Get(0).(domain.SearchResult), args.Error(1)
}

// memoryCache is a tagged cache holding values by reference.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]any
	tags    map[string][]string
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: make(map[string]any),
		tags:    make(map[string][]string),
	}
}

func (c *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Product:
		*d = v.(domain.Product)
	case *[]domain.Product:
		*d = v.([]domain.Product)
	case *[]domain.Category:
		*d = v.([]domain.Category)
	case *domain.Category:
		*d = v.(domain.Category)
	case *domain.SearchResult:
		*d = v.(domain.SearchResult)
	default:
		return false, fmt.Errorf("unsupported type %T", dst)
	}
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, v any, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
	for _, t := range tags {
		c.tags[t] = append(c.tags[t], key)
	}
	return nil
}

func (c *memoryCache) InvalidateTags(_ context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tags {
		for _, k := range c.tags[t] {
			delete(c.entries, k)
		}
		delete(c.tags, t)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
