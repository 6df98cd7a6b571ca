package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartSnapshotItemCount(t *testing.T) {
	t.Run("NilSnapshot", func(t *testing.T) {
		var s *CartSnapshot
		assert.Equal(t, 0, s.ItemCount())
	})

	t.Run("Empty", func(t *testing.T) {
		s := EmptyCart()
		assert.Equal(t, 0, s.ItemCount())
	})

	t.Run("Quantities", func(t *testing.T) {
		s := &CartSnapshot{Lines: []CartLine{
			{Key: "a", Quantity: 2},
			{Key: "b", Quantity: 1},
			{Key: "c", Quantity: 3},
		}}
		assert.Equal(t, 6, s.ItemCount())

		l, ok := s.Line("b")
		require.True(t, ok)
		assert.Equal(t, 1, l.Quantity)

		_, ok = s.Line("missing")
		assert.False(t, ok)
	})
}

func TestVariationMatches(t *testing.T) {
	v := Variation{Attributes: []AttributeSelection{
		{Name: "Color", Value: "Red"},
		{Name: "Size", Value: "M"},
	}}

	assert.True(t, v.Matches([]AttributeSelection{
		{Name: "Size", Value: "M"},
		{Name: "Color", Value: "Red"},
	}))
	assert.False(t, v.Matches([]AttributeSelection{
		{Name: "Color", Value: "Red"},
	}))
	assert.False(t, v.Matches([]AttributeSelection{
		{Name: "Color", Value: "Red"},
		{Name: "Size", Value: "L"},
	}))

	w := Variation{Attributes: []AttributeSelection{
		{Name: "Size", Value: "M"},
		{Name: "Color", Value: "Red"},
	}}
	assert.Equal(t, v.AttributesKey(), w.AttributesKey())
}

func TestProductFindVariationAndSale(t *testing.T) {
	red := Variation{ID: "v1", Attributes: []AttributeSelection{{Name: "Color", Value: "Red"}}}
	blue := Variation{ID: "v2", Attributes: []AttributeSelection{{Name: "Color", Value: "Blue"}}}
	sale := Money{Amount: decimal.RequireFromString("8"), CurrencyCode: "USD"}
	p := Product{
		Kind:         KindVariable,
		RegularPrice: Money{Amount: decimal.RequireFromString("10"), CurrencyCode: "USD"},
		SalePrice:    &sale,
		StockStatus:  InStock,
		Variations:   []Variation{red, blue},
	}

	v, ok := p.FindVariation([]AttributeSelection{{Name: "Color", Value: "Blue"}})
	require.True(t, ok)
	assert.Equal(t, "v2", v.ID)

	_, ok = p.FindVariation([]AttributeSelection{{Name: "Color", Value: "Green"}})
	assert.False(t, ok)

	assert.True(t, p.OnSale())
	assert.True(t, p.AvailableForSale())

	// "10" < "8" as text, but not as an amount
	expensive := Money{Amount: decimal.RequireFromString("12"), CurrencyCode: "USD"}
	p.SalePrice = &expensive
	assert.False(t, p.OnSale())
}

func TestRecentlyViewed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("AddMovesToFront", func(t *testing.T) {
		var l RecentlyViewed
		l = l.Add(ViewedProduct{ID: "1"}, now.Add(-2*time.Minute))
		l = l.Add(ViewedProduct{ID: "2"}, now.Add(-time.Minute))
		l = l.Add(ViewedProduct{ID: "1"}, now)

		require.Len(t, l, 2)
		assert.Equal(t, "1", l[0].ID)
		assert.Equal(t, now, l[0].ViewedAt)
		assert.Equal(t, "2", l[1].ID)
		assert.True(t, l.Contains("2"))
		assert.False(t, l.Contains("3"))
	})

	t.Run("CapsAtMax", func(t *testing.T) {
		var l RecentlyViewed
		for i := range 20 {
			l = l.Add(ViewedProduct{ID: fmt.Sprint(i)}, now.Add(time.Duration(i)*time.Second))
		}
		require.Len(t, l, RecentlyViewedMax)
		assert.Equal(t, "19", l[0].ID)
		assert.Equal(t, "8", l[RecentlyViewedMax-1].ID)
	})

	t.Run("PruneDropsExpired", func(t *testing.T) {
		l := RecentlyViewed{
			{ID: "old", ViewedAt: now.Add(-31 * 24 * time.Hour)},
			{ID: "fresh", ViewedAt: now.Add(-time.Hour)},
			{ID: "newest", ViewedAt: now.Add(-time.Minute)},
		}
		pruned := l.Prune(now)
		require.Len(t, pruned, 2)
		assert.Equal(t, "newest", pruned[0].ID)
		assert.Equal(t, "fresh", pruned[1].ID)
		assert.Len(t, l, 3)
	})
}

func TestUpstreamError(t *testing.T) {
	err := fmt.Errorf("op: %w", &UpstreamError{Messages: []string{"Invalid product ID"}})

	assert.ErrorIs(t, err, ErrUpstream)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Invalid product ID", ue.UserMessage())
	assert.Equal(t, "upstream application error", (&UpstreamError{}).Error())
}
