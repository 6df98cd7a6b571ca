// Package httphandler serves the storefront JSON API.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niksmo/storefront/internal/core/port"
)

// A Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Catalog    Catalog
	Carts      CartRegistry
	Views      port.ProductViewsSender
	Popularity port.PopularityReader
	Proxy      GraphQLProxy
	Upstream   Pinger
}

func NewRouter(deps RouterDeps) http.Handler {
	if deps.Catalog == nil || deps.Carts == nil ||
		deps.Views == nil || deps.Popularity == nil || deps.Upstream == nil {
		panic("NewRouter: missing dependency") // develop mistake
	}

	cookies := NewRecentlyViewedCookies()
	catalog := CatalogHandler{
		catalog:    deps.Catalog,
		views:      deps.Views,
		popularity: deps.Popularity,
		cookies:    cookies,
	}
	cart := CartHandler{carts: deps.Carts}
	viewed := RecentlyViewedHandler{cookies: cookies}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health(deps.Upstream))

	r.Route("/api", func(r chi.Router) {
		r.Use(AllowJSON)

		r.Post("/graphql", deps.Proxy.Forward)
		r.Options("/graphql", deps.Proxy.Preflight)
		r.Post("/revalidate", catalog.Revalidate)

		r.Group(func(r chi.Router) {
			r.Use(Session)

			r.Get("/products", catalog.Products)
			r.Get("/products/{slug}", catalog.Product)
			r.Get("/products/{slug}/recommendations", catalog.Recommendations)
			r.Get("/products/{slug}/views", catalog.Views)
			r.Get("/categories", catalog.Categories)
			r.Get("/categories/{slug}", catalog.Category)
			r.Get("/search", catalog.Search)

			r.Get("/cart", cart.Get)
			r.Delete("/cart", cart.Clear)
			r.Post("/cart/items", cart.AddItem)
			r.Put("/cart/items/{key}", cart.SetQuantity)
			r.Delete("/cart/items/{key}", cart.RemoveLine)
			r.Put("/cart/drawer", cart.SetDrawer)

			r.Get("/recently-viewed", viewed.Get)
			r.Delete("/recently-viewed", viewed.Delete)
		})
	})

	return r
}

func health(upstream Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "health"

		if err := upstream.Ping(r.Context()); err != nil {
			slog.With("op", op).Warn("upstream is unreachable", "err", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable", "upstream": err.Error(),
			})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
