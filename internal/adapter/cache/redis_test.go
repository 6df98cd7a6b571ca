package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestCatalogCache(t *testing.T) {
	t.Run("SetGet", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		c := NewCatalogCache(client, time.Minute)

		p := domain.Product{
			ID:   "p1",
			Slug: "tee",
			Price: domain.Money{
				Amount:       decimal.RequireFromString("19.99"),
				CurrencyCode: "USD",
				Display:      "$19.99",
			},
		}
		require.NoError(t, c.Set(t.Context(), "product:tee", p, "products"))

		var got domain.Product
		ok, err := c.Get(t.Context(), "product:tee", &got)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, p.Slug, got.Slug)
		assert.True(t, p.Price.Amount.Equal(got.Price.Amount))
		assert.Equal(t, "$19.99", got.Price.Display)

		ttl := mr.TTL(catalogKey("product:tee"))
		assert.GreaterOrEqual(t, ttl, time.Minute)
		assert.LessOrEqual(t, ttl, time.Minute+12*time.Second)

		members, err := mr.SMembers(tagKey("products"))
		require.NoError(t, err)
		assert.Equal(t, []string{catalogKey("product:tee")}, members)
	})

	t.Run("Miss", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		c := NewCatalogCache(client, 0)

		var got domain.Product
		ok, err := c.Get(t.Context(), "product:none", &got)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expired", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		c := NewCatalogCache(client, time.Minute)

		require.NoError(t, c.Set(t.Context(), "categories", []domain.Category{domain.AllCategory()}))
		mr.FastForward(2 * time.Minute)

		var got []domain.Category
		ok, err := c.Get(t.Context(), "categories", &got)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Corrupted", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		c := NewCatalogCache(client, time.Minute)
		require.NoError(t, mr.Set(catalogKey("categories"), "{not json"))

		var got []domain.Category
		_, err := c.Get(t.Context(), "categories", &got)
		require.Error(t, err)
	})

	t.Run("InvalidateTags", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		c := NewCatalogCache(client, time.Minute)

		require.NoError(t, c.Set(t.Context(), "product:tee", domain.Product{Slug: "tee"}, "products"))
		require.NoError(t, c.Set(t.Context(), "search:tee", domain.SearchResult{}, "products", "categories"))
		require.NoError(t, c.Set(t.Context(), "categories", []domain.Category{}, "categories"))

		require.NoError(t, c.InvalidateTags(t.Context(), "products"))

		assert.False(t, mr.Exists(catalogKey("product:tee")))
		assert.False(t, mr.Exists(catalogKey("search:tee")))
		assert.False(t, mr.Exists(tagKey("products")))
		assert.True(t, mr.Exists(catalogKey("categories")))

		require.NoError(t, c.InvalidateTags(t.Context(), "unknown"))
	})
}

func TestSessionTokens(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewSessionTokens(client, time.Hour)

	token, err := s.LoadToken(t.Context(), "browser-1")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.SaveToken(t.Context(), "browser-1", "tok-1"))

	token, err = s.LoadToken(t.Context(), "browser-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, time.Hour, mr.TTL(sessionPrefix+"browser-1"))
}
