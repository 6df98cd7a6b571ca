package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testProducts(n int) []domain.Product {
	ps := make([]domain.Product, n)
	for i := range ps {
		ps[i] = domain.Product{
			ID:    fmt.Sprintf("p%d", i),
			Slug:  fmt.Sprintf("product-%d", i),
			Price: domain.ZeroMoney(),
		}
	}
	return ps
}

func TestCatalogServiceCache(t *testing.T) {
	t.Run("HitAvoidsUpstream", func(t *testing.T) {
		gw := new(MockCatalogGateway)
		cache := newMemoryCache()
		s := NewCatalogService(gw, cache)

		tee := domain.Product{ID: "p1", Slug: "tee"}
		gw.On("Product", mock.Anything, "tee").Return(tee, nil).Once()

		for range 3 {
			p, err := s.Product(t.Context(), "tee")
			require.NoError(t, err)
			assert.Equal(t, tee, p)
		}
		gw.AssertNumberOfCalls(t, "Product", 1)
	})

	t.Run("ErrorsAreNotCached", func(t *testing.T) {
		gw := new(MockCatalogGateway)
		cache := newMemoryCache()
		s := NewCatalogService(gw, cache)

		gw.On("Product", mock.Anything, "ghost").
			Return(domain.Product{}, domain.ErrNotFound).Twice()

		for range 2 {
			_, err := s.Product(t.Context(), "ghost")
			require.ErrorIs(t, err, domain.ErrNotFound)
		}
		assert.False(t, cache.has("product:ghost"))
		gw.AssertExpectations(t)
	})

	t.Run("CacheFailureIsBypassed", func(t *testing.T) {
		gw := new(MockCatalogGateway)
		cache := newMemoryCache()
		cache.getErr = errors.New("connection refused")
		s := NewCatalogService(gw, cache)

		cs := []domain.Category{domain.AllCategory()}
		gw.On("Categories", mock.Anything).Return(cs, nil)

		got, err := s.Categories(t.Context())
		require.NoError(t, err)
		assert.Equal(t, cs, got)
	})

	t.Run("ConcurrentMissesShareCall", func(t *testing.T) {
		gw := new(MockCatalogGateway)
		s := NewCatalogService(gw, newMemoryCache())

		release := make(chan time.Time)
		gw.On("Products", mock.Anything, "").
			WaitUntil(release).
			Return(testProducts(3), nil)

		const n = 4
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ps, err := s.Products(t.Context(), "")
				assert.NoError(t, err)
				assert.Len(t, ps, 3)
			}()
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		gw.AssertNumberOfCalls(t, "Products", 1)
	})

	t.Run("CanceledCallerDoesNotFailOthers", func(t *testing.T) {
		gw := new(MockCatalogGateway)
		cache := newMemoryCache()
		s := NewCatalogService(gw, cache)

		tee := domain.Product{ID: "p1", Slug: "tee"}
		started := make(chan struct{})
		release := make(chan struct{})
		gw.On("Product", mock.Anything, "tee").
			Run(func(args mock.Arguments) {
				close(started)
				<-release
				assert.NoError(t, args.Get(0).(context.Context).Err())
			}).
			Return(tee, nil).Once()

		leaderCtx, cancelLeader := context.WithCancel(t.Context())
		leaderErr := make(chan error, 1)
		go func() {
			_, err := s.Product(leaderCtx, "tee")
			leaderErr <- err
		}()
		<-started

		type result struct {
			p   domain.Product
			err error
		}
		follower := make(chan result, 1)
		go func() {
			p, err := s.Product(t.Context(), "tee")
			follower <- result{p, err}
		}()
		time.Sleep(20 * time.Millisecond)

		cancelLeader()
		require.ErrorIs(t, <-leaderErr, context.Canceled)

		close(release)
		res := <-follower
		require.NoError(t, res.err)
		assert.Equal(t, tee, res.p)
		assert.Eventually(t, func() bool {
			return cache.has("product:tee")
		}, time.Second, 10*time.Millisecond)
		gw.AssertNumberOfCalls(t, "Product", 1)
	})
}

func TestCatalogServiceRevalidate(t *testing.T) {
	gw := new(MockCatalogGateway)
	cache := newMemoryCache()
	s := NewCatalogService(gw, cache)

	gw.On("Product", mock.Anything, "tee").Return(domain.Product{ID: "p1", Slug: "tee"}, nil)
	gw.On("Categories", mock.Anything).Return([]domain.Category{domain.AllCategory()}, nil)
	gw.On("ProductsByCategory", mock.Anything, "shoes").Return(testProducts(1), nil)

	_, err := s.Product(t.Context(), "tee")
	require.NoError(t, err)
	_, err = s.Categories(t.Context())
	require.NoError(t, err)
	_, err = s.ProductsByCategory(t.Context(), "shoes")
	require.NoError(t, err)

	ok, err := s.Revalidate(t.Context(), RevalidateProduct)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, cache.has("product:tee"))
	assert.False(t, cache.has("category-products:shoes"))
	assert.True(t, cache.has("categories"))

	ok, err = s.Revalidate(t.Context(), RevalidateCollection)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, cache.has("categories"))

	ok, err = s.Revalidate(t.Context(), "order")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Product(t.Context(), "tee")
	require.NoError(t, err)
	gw.AssertNumberOfCalls(t, "Product", 2)
}

func TestCatalogServiceAllCategory(t *testing.T) {
	gw := new(MockCatalogGateway)
	s := NewCatalogService(gw, newMemoryCache())

	c, err := s.Category(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.AllCategory(), c)

	gw.On("Products", mock.Anything, "").Return(testProducts(2), nil)
	ps, err := s.ProductsByCategory(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, ps, 2)
	gw.AssertNotCalled(t, "ProductsByCategory", mock.Anything, mock.Anything)
}

func TestCatalogServiceRecommend(t *testing.T) {
	gw := new(MockCatalogGateway)
	s := NewCatalogService(gw, newMemoryCache())
	gw.On("Products", mock.Anything, "").Return(testProducts(8), nil)

	current := domain.Product{ID: "p0"}
	viewed := domain.RecentlyViewed{{ID: "p1"}, {ID: "p2"}}

	for range 10 {
		rs, err := s.Recommend(t.Context(), current, viewed, 0)
		require.NoError(t, err)
		require.Len(t, rs, DefaultRecommendations)

		seen := make(map[string]bool)
		for _, p := range rs {
			assert.NotEqual(t, "p0", p.ID)
			assert.False(t, viewed.Contains(p.ID))
			assert.False(t, seen[p.ID])
			seen[p.ID] = true
		}
	}

	rs, err := s.Recommend(t.Context(), current, viewed, 10)
	require.NoError(t, err)
	assert.Len(t, rs, 5)
}
