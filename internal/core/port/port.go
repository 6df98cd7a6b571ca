package port

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// A CatalogGateway reads catalog data from the upstream.
type CatalogGateway interface {
	Product(ctx context.Context, slug string) (domain.Product, error)
	Products(ctx context.Context, search string) ([]domain.Product, error)
	ProductsByCategory(ctx context.Context, categorySlug string) ([]domain.Product, error)
	Category(ctx context.Context, slug string) (domain.Category, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, term string) (domain.SearchResult, error)
}

// A CartGateway runs cart operations against the upstream session cart.
//
// Every method takes the upstream session token and returns the one
// to use next, which may be newly issued.
type CartGateway interface {
	Cart(ctx context.Context, session string) (domain.CartSnapshot, string, error)
	AddToCart(ctx context.Context, session string, item domain.AddToCart) (domain.CartSnapshot, string, error)
	UpdateQuantities(ctx context.Context, session string, items []domain.LineQuantity) (domain.CartSnapshot, string, error)
	RemoveLines(ctx context.Context, session string, keys []string) (domain.CartSnapshot, string, error)
	EmptyCart(ctx context.Context, session string) (domain.CartSnapshot, string, error)
}

// A CatalogCache stores catalog reads under keys grouped by tags.
type CatalogCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, tags ...string) error
	InvalidateTags(ctx context.Context, tags ...string) error
}

// A SessionTokenStore keeps upstream cart session tokens
// by browser session ID.
type SessionTokenStore interface {
	LoadToken(ctx context.Context, sessionID string) (string, error)
	SaveToken(ctx context.Context, sessionID, token string) error
}

type ProductViewsSender interface {
	SendView(context.Context, domain.ProductView) error
}

type ProductViewsProducer interface {
	ProduceViews(context.Context, []domain.ProductView) error
}

type ProductViewsSaver interface {
	SaveViews(context.Context, []domain.ProductView) error
}

type ProductViewsStorage interface {
	StoreViews(context.Context, []domain.ProductView) error
}

// A PopularityReader reports how many times a product was viewed.
type PopularityReader interface {
	ViewCount(ctx context.Context, slug string) (int64, error)
}

type ViewCounterProcessor interface {
	runnerContextWg
	closer
}
