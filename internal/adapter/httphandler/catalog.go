package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// Catalog is the read side of the storefront.
type Catalog interface {
	Product(ctx context.Context, slug string) (domain.Product, error)
	Products(ctx context.Context, search string) ([]domain.Product, error)
	ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error)
	Category(ctx context.Context, slug string) (domain.Category, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, term string) (domain.SearchResult, error)
	Recommend(
		ctx context.Context,
		current domain.Product,
		viewed domain.RecentlyViewed,
		limit int,
	) ([]domain.Product, error)
	Revalidate(ctx context.Context, kind string) (bool, error)
}

type CatalogHandler struct {
	catalog    Catalog
	views      port.ProductViewsSender
	popularity port.PopularityReader
	cookies    RecentlyViewedCookies
}

func (h CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Products"
	log := slog.With("op", op)

	ps, err := h.catalog.Products(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	respondJSON(w, http.StatusOK, toProducts(ps))
}

// Product also records the view in the recently viewed cookie
// and in the view pipeline.
func (h CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Product"
	slug := chi.URLParam(r, "slug")
	log := slog.With("op", op, "slug", slug)

	p, err := h.catalog.Product(r.Context(), slug)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}

	h.cookies.Add(w, r, domain.ViewedFromProduct(p))

	view := domain.ProductView{
		VisitorID:    SessionID(r.Context()),
		ProductID:    p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		PriceAmount:  p.Price.Amount.String(),
		CurrencyCode: p.Price.CurrencyCode,
		ViewedAt:     time.Now(),
	}
	if err := h.views.SendView(r.Context(), view); err != nil {
		log.Warn("failed to send product view", "err", err)
	}

	respondJSON(w, http.StatusOK, toProduct(p))
}

func (h CatalogHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Recommendations"
	slug := chi.URLParam(r, "slug")
	log := slog.With("op", op, "slug", slug)

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	p, err := h.catalog.Product(r.Context(), slug)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}

	viewed := h.cookies.Read(w, r)
	ps, err := h.catalog.Recommend(r.Context(), p, viewed, limit)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	respondJSON(w, http.StatusOK, toProducts(ps))
}

func (h CatalogHandler) Views(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Views"
	slug := chi.URLParam(r, "slug")
	log := slog.With("op", op, "slug", slug)

	n, err := h.popularity.ViewCount(r.Context(), slug)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	respondJSON(w, http.StatusOK, ViewCount{Slug: slug, Views: n})
}

func (h CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Categories"
	log := slog.With("op", op)

	cs, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	respondJSON(w, http.StatusOK, toCategories(cs))
}

func (h CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Category"
	slug := chi.URLParam(r, "slug")
	log := slog.With("op", op, "slug", slug)

	c, err := h.catalog.Category(r.Context(), slug)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}

	ps, err := h.catalog.ProductsByCategory(r.Context(), slug)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	respondJSON(w, http.StatusOK, CategoryPage{
		Category: toCategory(c),
		Products: toProducts(ps),
	})
}

func (h CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Search"
	log := slog.With("op", op)

	res, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	respondJSON(w, http.StatusOK, SearchResult{
		Products:   toProducts(res.Products),
		Categories: toCategories(res.Categories),
	})
}

// Revalidate always answers 200. Failures are reported in the body.
func (h CatalogHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Revalidate"
	log := slog.With("op", op)

	var req RevalidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Warn("invalid revalidate request", "err", err)
		respondJSON(w, http.StatusOK, RevalidateResponse{Error: "Invalid request"})
		return
	}

	ok, err := h.catalog.Revalidate(r.Context(), req.Type)
	if err != nil {
		log.Error("failed to revalidate", "type", req.Type, "err", err)
		respondJSON(w, http.StatusOK, RevalidateResponse{Error: "Revalidation failed"})
		return
	}
	if !ok {
		log.Info("nothing to revalidate", "type", req.Type, "slug", req.Slug)
	}

	respondJSON(w, http.StatusOK, RevalidateResponse{
		Revalidated: true,
		Now:         time.Now().UnixMilli(),
	})
}
