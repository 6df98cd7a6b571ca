package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/sync/singleflight"
)

// Cache tags, one per upstream entity family.
const (
	TagProducts   = "products"
	TagCategories = "categories"
)

// Revalidation kinds accepted from the upstream webhook.
const (
	RevalidateProduct    = "product"
	RevalidateCollection = "collection"
)

// DefaultRecommendations is the size of a recommendation list.
const DefaultRecommendations = 4

// A CatalogService serves catalog reads through a tagged cache.
//
// Cache failures are logged and bypassed. Concurrent misses of
// one key share a single upstream call.
type CatalogService struct {
	gateway port.CatalogGateway
	cache   port.CatalogCache
	group   singleflight.Group
	shuffle func([]domain.Product)
}

func NewCatalogService(
	gateway port.CatalogGateway, cache port.CatalogCache,
) *CatalogService {
	if gateway == nil || cache == nil {
		panic("NewCatalogService: nil dependency") // develop mistake
	}
	return &CatalogService{
		gateway: gateway,
		cache:   cache,
		shuffle: func(ps []domain.Product) {
			rand.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
		},
	}
}

func (s *CatalogService) Product(ctx context.Context, slug string) (domain.Product, error) {
	const op = "CatalogService.Product"

	p, err := cached(ctx, s, "product:"+slug, []string{TagProducts},
		func(ctx context.Context) (domain.Product, error) {
			return s.gateway.Product(ctx, slug)
		},
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *CatalogService) Products(ctx context.Context, search string) ([]domain.Product, error) {
	const op = "CatalogService.Products"

	ps, err := cached(ctx, s, "products:"+search, []string{TagProducts},
		func(ctx context.Context) ([]domain.Product, error) {
			return s.gateway.Products(ctx, search)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// ProductsByCategory lists the products of a category.
// An empty slug is the All category.
func (s *CatalogService) ProductsByCategory(
	ctx context.Context, categorySlug string,
) ([]domain.Product, error) {
	const op = "CatalogService.ProductsByCategory"

	if categorySlug == "" {
		ps, err := s.Products(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return ps, nil
	}

	ps, err := cached(ctx, s, "category-products:"+categorySlug,
		[]string{TagProducts, TagCategories},
		func(ctx context.Context) ([]domain.Product, error) {
			return s.gateway.ProductsByCategory(ctx, categorySlug)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s *CatalogService) Category(ctx context.Context, slug string) (domain.Category, error) {
	const op = "CatalogService.Category"

	if slug == "" {
		return domain.AllCategory(), nil
	}

	c, err := cached(ctx, s, "category:"+slug, []string{TagCategories},
		func(ctx context.Context) (domain.Category, error) {
			return s.gateway.Category(ctx, slug)
		},
	)
	if err != nil {
		return domain.Category{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "CatalogService.Categories"

	cs, err := cached(ctx, s, "categories", []string{TagCategories},
		s.gateway.Categories,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cs, nil
}

func (s *CatalogService) Search(ctx context.Context, term string) (domain.SearchResult, error) {
	const op = "CatalogService.Search"

	res, err := cached(ctx, s, "search:"+term,
		[]string{TagProducts, TagCategories},
		func(ctx context.Context) (domain.SearchResult, error) {
			return s.gateway.Search(ctx, term)
		},
	)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Revalidate drops cached entries affected by an upstream change.
// Unknown kinds are ignored and reported as not revalidated.
func (s *CatalogService) Revalidate(ctx context.Context, kind string) (bool, error) {
	const op = "CatalogService.Revalidate"
	log := slog.With("op", op, "kind", kind)

	var tags []string
	switch kind {
	case RevalidateProduct:
		tags = []string{TagProducts}
	case RevalidateCollection:
		tags = []string{TagCategories, TagProducts}
	default:
		log.Warn("unknown revalidation kind")
		return false, nil
	}

	if err := s.cache.InvalidateTags(ctx, tags...); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("catalog revalidated", "tags", tags)
	return true, nil
}

// Recommend picks up to limit random products that are neither
// current nor recently viewed.
func (s *CatalogService) Recommend(
	ctx context.Context,
	current domain.Product,
	viewed domain.RecentlyViewed,
	limit int,
) ([]domain.Product, error) {
	const op = "CatalogService.Recommend"

	if limit <= 0 {
		limit = DefaultRecommendations
	}

	all, err := s.Products(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	candidates := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.ID == current.ID || viewed.Contains(p.ID) {
			continue
		}
		candidates = append(candidates, p)
	}

	s.shuffle(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// cached reads key from the cache or loads and stores it.
func cached[T any](
	ctx context.Context,
	s *CatalogService,
	key string,
	tags []string,
	load func(context.Context) (T, error),
) (T, error) {
	const op = "CatalogService.cached"
	log := slog.With("op", op, "key", key)

	var v T
	ok, err := s.cache.Get(ctx, key, &v)
	if err != nil {
		log.Warn("cache read failed", "err", err)
	} else if ok {
		return v, nil
	}

	// The shared load outlives any single caller. The upstream client
	// timeout bounds it.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, key, v, tags...); err != nil {
			log.Warn("cache write failed", "err", err)
		}
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
