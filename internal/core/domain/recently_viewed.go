package domain

import (
	"slices"
	"time"
)

const (
	RecentlyViewedMax = 12
	RecentlyViewedTTL = 30 * 24 * time.Hour
)

type ViewedProduct struct {
	ID       string
	Slug     string
	Name     string
	Price    string
	Image    string
	ViewedAt time.Time
}

// RecentlyViewed is ordered most recent first.
type RecentlyViewed []ViewedProduct

// Prune drops entries older than [RecentlyViewedTTL], orders by view time
// and keeps at most [RecentlyViewedMax] entries.
//
// The receiver is not modified.
func (l RecentlyViewed) Prune(now time.Time) RecentlyViewed {
	cutoff := now.Add(-RecentlyViewedTTL)
	out := make(RecentlyViewed, 0, len(l))
	for _, p := range l {
		if p.ViewedAt.After(cutoff) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b ViewedProduct) int {
		return b.ViewedAt.Compare(a.ViewedAt)
	})
	if len(out) > RecentlyViewedMax {
		out = out[:RecentlyViewedMax]
	}
	return out
}

// Add moves p to the front stamped with now.
func (l RecentlyViewed) Add(p ViewedProduct, now time.Time) RecentlyViewed {
	p.ViewedAt = now
	out := make(RecentlyViewed, 0, len(l)+1)
	out = append(out, p)
	for _, v := range l {
		if v.ID != p.ID {
			out = append(out, v)
		}
	}
	return out.Prune(now)
}

func (l RecentlyViewed) Contains(id string) bool {
	return slices.ContainsFunc(l, func(p ViewedProduct) bool {
		return p.ID == id
	})
}

func ViewedFromProduct(p Product) ViewedProduct {
	return ViewedProduct{
		ID:    p.ID,
		Slug:  p.Slug,
		Name:  p.Name,
		Price: p.Price.Display,
		Image: p.Image.URL,
	}
}

// A ProductView records one product page view.
type ProductView struct {
	VisitorID    string
	ProductID    string
	Slug         string
	Name         string
	PriceAmount  string
	CurrencyCode string
	ViewedAt     time.Time
}
