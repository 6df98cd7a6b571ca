package woocommerce

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
)

// errNoCart is reported when a mutation succeeds without a cart payload,
// which the upstream does for rejected inputs it does not list in errors.
var errNoCart = &domain.UpstreamError{Messages: []string{"mutation returned no cart"}}

type cartPayload struct {
	Cart *Cart `json:"cart"`
}

// Cart reads the session cart. An empty session yields the empty
// cart the upstream creates for new visitors.
func (c *Client) Cart(
	ctx context.Context, session string,
) (domain.CartSnapshot, string, error) {
	const op = "Client.Cart"

	var data cartPayload
	session, err := c.do(ctx, cartQuery, nil, session, &data)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}

	s, err := ReshapeCart(data.Cart)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}
	return s, session, nil
}

func (c *Client) AddToCart(
	ctx context.Context, session string, item domain.AddToCart,
) (domain.CartSnapshot, string, error) {
	const op = "Client.AddToCart"

	vars := map[string]any{
		"productId": item.ProductID,
		"quantity":  item.Quantity,
	}
	if item.VariationID != 0 {
		vars["variationId"] = item.VariationID
	}

	var data struct {
		AddToCart *cartPayload `json:"addToCart"`
	}
	session, err := c.do(ctx, addToCartMutation, vars, session, &data)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}

	s, err := mutationCart(data.AddToCart)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}
	return s, session, nil
}

func (c *Client) UpdateQuantities(
	ctx context.Context, session string, items []domain.LineQuantity,
) (domain.CartSnapshot, string, error) {
	const op = "Client.UpdateQuantities"

	in := make([]map[string]any, 0, len(items))
	for _, it := range items {
		in = append(in, map[string]any{"key": it.Key, "quantity": it.Quantity})
	}

	var data struct {
		UpdateItemQuantities *cartPayload `json:"updateItemQuantities"`
	}
	vars := map[string]any{"items": in}
	session, err := c.do(ctx, updateItemQuantitiesMutation, vars, session, &data)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}

	s, err := mutationCart(data.UpdateItemQuantities)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}
	return s, session, nil
}

func (c *Client) RemoveLines(
	ctx context.Context, session string, keys []string,
) (domain.CartSnapshot, string, error) {
	const op = "Client.RemoveLines"

	var data struct {
		RemoveItemsFromCart *cartPayload `json:"removeItemsFromCart"`
	}
	vars := map[string]any{"keys": keys}
	session, err := c.do(ctx, removeItemsMutation, vars, session, &data)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}

	s, err := mutationCart(data.RemoveItemsFromCart)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}
	return s, session, nil
}

func (c *Client) EmptyCart(
	ctx context.Context, session string,
) (domain.CartSnapshot, string, error) {
	const op = "Client.EmptyCart"

	var data struct {
		EmptyCart *cartPayload `json:"emptyCart"`
	}
	session, err := c.do(ctx, emptyCartMutation, nil, session, &data)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}

	s, err := mutationCart(data.EmptyCart)
	if err != nil {
		return domain.CartSnapshot{}, session, fmt.Errorf("%s: %w", op, err)
	}
	return s, session, nil
}

func mutationCart(p *cartPayload) (domain.CartSnapshot, error) {
	if p == nil || p.Cart == nil {
		return domain.CartSnapshot{}, errNoCart
	}
	return ReshapeCart(p.Cart)
}
