package woocommerce

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
)

func (c *Client) Product(ctx context.Context, slug string) (domain.Product, error) {
	const op = "Client.Product"

	var data struct {
		Product *Product `json:"product"`
	}
	vars := map[string]any{"slug": slug}
	if _, err := c.do(ctx, productQuery, vars, "", &data); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if data.Product == nil {
		return domain.Product{}, fmt.Errorf(
			"%s: product %q: %w", op, slug, domain.ErrNotFound,
		)
	}

	if err := c.loadVariations(ctx, data.Product); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := ReshapeProduct(*data.Product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// loadVariations appends the variation pages after the first one.
func (c *Client) loadVariations(ctx context.Context, raw *Product) error {
	conn := raw.Variations
	if conn == nil {
		return nil
	}

	seen := make(map[string]bool)
	for conn.PageInfo.HasNextPage {
		cursor := conn.PageInfo.EndCursor
		if cursor == "" || seen[cursor] {
			return fmt.Errorf(
				"variations of %q: stuck cursor: %w",
				raw.Slug, domain.ErrContractViolation,
			)
		}
		seen[cursor] = true

		var data struct {
			Product *struct {
				Variations *VariationConnection `json:"variations"`
			} `json:"product"`
		}
		vars := map[string]any{"id": raw.ID, "after": cursor}
		if _, err := c.do(ctx, variationsPageQuery, vars, "", &data); err != nil {
			return err
		}
		if data.Product == nil || data.Product.Variations == nil {
			return fmt.Errorf(
				"variations of %q: missing page: %w",
				raw.Slug, domain.ErrContractViolation,
			)
		}

		page := data.Product.Variations
		raw.Variations.Nodes = append(raw.Variations.Nodes, page.Nodes...)
		conn = page
	}
	raw.Variations.PageInfo = conn.PageInfo
	return nil
}

// Products lists products matching search. An empty search lists
// the first page of the catalog.
func (c *Client) Products(ctx context.Context, search string) ([]domain.Product, error) {
	const op = "Client.Products"

	var data struct {
		Products *Nodes[*Product] `json:"products"`
	}
	var vars map[string]any
	if search != "" {
		vars = map[string]any{"search": search}
	}
	if _, err := c.do(ctx, productsQuery, vars, "", &data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := reshapeProductNodes(data.Products)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (c *Client) ProductsByCategory(
	ctx context.Context, categorySlug string,
) ([]domain.Product, error) {
	const op = "Client.ProductsByCategory"

	var data struct {
		Products *Nodes[*Product] `json:"products"`
	}
	vars := map[string]any{"category": categorySlug}
	if _, err := c.do(ctx, productsByCategoryQuery, vars, "", &data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := reshapeProductNodes(data.Products)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (c *Client) Category(ctx context.Context, slug string) (domain.Category, error) {
	const op = "Client.Category"

	var data struct {
		ProductCategory *Category `json:"productCategory"`
	}
	vars := map[string]any{"slug": slug}
	if _, err := c.do(ctx, categoryQuery, vars, "", &data); err != nil {
		return domain.Category{}, fmt.Errorf("%s: %w", op, err)
	}

	if data.ProductCategory == nil || !ValidCategorySlug(data.ProductCategory.Slug) {
		return domain.Category{}, fmt.Errorf(
			"%s: category %q: %w", op, slug, domain.ErrNotFound,
		)
	}

	cat, err := ReshapeCategory(*data.ProductCategory)
	if err != nil {
		return domain.Category{}, fmt.Errorf("%s: %w", op, err)
	}
	return cat, nil
}

// Categories lists top level categories, All first.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "Client.Categories"

	var data struct {
		ProductCategories *Nodes[*Category] `json:"productCategories"`
	}
	if _, err := c.do(ctx, categoriesQuery, nil, "", &data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var raws []*Category
	if data.ProductCategories != nil {
		raws = data.ProductCategories.Nodes
	}
	cs, err := ReshapeCategories(raws)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cs, nil
}

// Search looks up products and categories in one round trip.
// Categories are filtered but carry no synthetic All entry.
func (c *Client) Search(ctx context.Context, term string) (domain.SearchResult, error) {
	const op = "Client.Search"

	var data struct {
		Products          *Nodes[*Product]  `json:"products"`
		ProductCategories *Nodes[*Category] `json:"productCategories"`
	}
	vars := map[string]any{"search": term}
	if _, err := c.do(ctx, searchQuery, vars, "", &data); err != nil {
		return domain.SearchResult{}, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := reshapeProductNodes(data.Products)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var raws []*Category
	if data.ProductCategories != nil {
		raws = data.ProductCategories.Nodes
	}
	cs, err := reshapeValidCategories(raws)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return domain.SearchResult{Products: ps, Categories: cs}, nil
}

func reshapeProductNodes(ns *Nodes[*Product]) ([]domain.Product, error) {
	if ns == nil {
		return []domain.Product{}, nil
	}
	return ReshapeProducts(ns.Nodes)
}
