package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/relayid"
)

type CartState int

const (
	CartIdle CartState = iota
	CartMutating
)

func (s CartState) String() string {
	if s == CartMutating {
		return "mutating"
	}
	return "idle"
}

// A CartController owns the cart snapshot of one browser session.
//
// Operations queue behind a one-slot gate, so the upstream never sees
// two concurrent calls for the session. A successful operation
// replaces the snapshot wholesale, a failed one leaves it untouched.
type CartController struct {
	gateway   port.CartGateway
	tokens    port.SessionTokenStore
	sessionID string
	gate      chan struct{}

	mu          sync.RWMutex
	state       CartState
	drawerOpen  bool
	snapshot    *domain.CartSnapshot
	token       string
	tokenLoaded bool
	lastErr     error
	lastUsed    time.Time
}

// NewCartController returns an Idle controller with a closed drawer
// and no snapshot. tokens may be nil.
func NewCartController(
	sessionID string, gateway port.CartGateway, tokens port.SessionTokenStore,
) *CartController {
	if gateway == nil {
		panic("NewCartController: nil gateway") // develop mistake
	}
	return &CartController{
		gateway:   gateway,
		tokens:    tokens,
		sessionID: sessionID,
		gate:      make(chan struct{}, 1),
		lastUsed:  time.Now(),
	}
}

// AddItem adds quantity of the product, or of its variation when
// variationRef is not empty, and opens the drawer on success.
//
// References are plain database IDs or relay global IDs.
func (c *CartController) AddItem(
	ctx context.Context, productRef string, quantity int, variationRef string,
) (domain.CartSnapshot, error) {
	const op = "CartController.AddItem"

	item, err := newAddToCart(productRef, quantity, variationRef)
	if err != nil {
		return domain.CartSnapshot{}, c.fail(fmt.Errorf("%s: %w", op, err))
	}

	s, err := c.mutate(ctx, func(ctx context.Context, token string) (domain.CartSnapshot, string, error) {
		return c.gateway.AddToCart(ctx, token, item)
	})
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	c.SetDrawer(true)
	return s, nil
}

// SetQuantity treats a quantity below one as [CartController.RemoveLine].
func (c *CartController) SetQuantity(
	ctx context.Context, lineKey string, quantity int,
) (domain.CartSnapshot, error) {
	const op = "CartController.SetQuantity"

	if quantity < 1 {
		s, err := c.RemoveLine(ctx, lineKey)
		if err != nil {
			return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	}

	if lineKey == "" {
		return domain.CartSnapshot{}, c.fail(
			fmt.Errorf("%s: %w", op, domain.ErrEmptyLineKey),
		)
	}

	items := []domain.LineQuantity{{Key: lineKey, Quantity: quantity}}
	s, err := c.mutate(ctx, func(ctx context.Context, token string) (domain.CartSnapshot, string, error) {
		return c.gateway.UpdateQuantities(ctx, token, items)
	})
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (c *CartController) RemoveLine(
	ctx context.Context, lineKey string,
) (domain.CartSnapshot, error) {
	const op = "CartController.RemoveLine"

	if lineKey == "" {
		return domain.CartSnapshot{}, c.fail(
			fmt.Errorf("%s: %w", op, domain.ErrEmptyLineKey),
		)
	}

	keys := []string{lineKey}
	s, err := c.mutate(ctx, func(ctx context.Context, token string) (domain.CartSnapshot, string, error) {
		return c.gateway.RemoveLines(ctx, token, keys)
	})
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (c *CartController) Clear(ctx context.Context) (domain.CartSnapshot, error) {
	const op = "CartController.Clear"

	s, err := c.mutate(ctx, c.gateway.EmptyCart)
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Refresh replaces the snapshot with the upstream cart.
// It queues like a mutation but does not enter Mutating.
func (c *CartController) Refresh(ctx context.Context) (domain.CartSnapshot, error) {
	const op = "CartController.Refresh"

	s, err := c.run(ctx, false, c.gateway.Cart)
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Cart returns the current snapshot, loading it on first use.
func (c *CartController) Cart(ctx context.Context) (domain.CartSnapshot, error) {
	if s, ok := c.Snapshot(); ok {
		return s, nil
	}
	return c.Refresh(ctx)
}

// Snapshot reports false until the first successful operation.
func (c *CartController) Snapshot() (domain.CartSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return domain.CartSnapshot{}, false
	}
	return *c.snapshot, true
}

func (c *CartController) ItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.ItemCount()
}

func (c *CartController) State() CartState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *CartController) DrawerOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drawerOpen
}

func (c *CartController) SetDrawer(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawerOpen = open
}

// LastError is the error of the latest failed operation,
// cleared by the next successful one.
func (c *CartController) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *CartController) idleSince() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUsed, c.state == CartIdle && len(c.gate) == 0
}

func (c *CartController) touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = now
}

type cartCall func(ctx context.Context, token string) (domain.CartSnapshot, string, error)

func (c *CartController) mutate(ctx context.Context, call cartCall) (domain.CartSnapshot, error) {
	return c.run(ctx, true, call)
}

func (c *CartController) run(
	ctx context.Context, mutation bool, call cartCall,
) (domain.CartSnapshot, error) {
	select {
	case c.gate <- struct{}{}:
	case <-ctx.Done():
		return domain.CartSnapshot{}, c.fail(ctx.Err())
	}
	defer func() { <-c.gate }()

	token := c.sessionToken(ctx)

	if mutation {
		c.setState(CartMutating)
	}

	s, newToken, err := call(ctx, token)
	if err != nil {
		c.mu.Lock()
		c.state = CartIdle
		c.lastErr = err
		c.mu.Unlock()
		return domain.CartSnapshot{}, err
	}

	c.mu.Lock()
	c.snapshot = &s
	c.state = CartIdle
	c.lastErr = nil
	if newToken != "" {
		c.token, c.tokenLoaded = newToken, true
	}
	c.mu.Unlock()

	if newToken != "" && newToken != token {
		c.saveToken(ctx, newToken)
	}
	return s, nil
}

func (c *CartController) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	return err
}

func (c *CartController) setState(s CartState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// sessionToken is called with the gate held.
func (c *CartController) sessionToken(ctx context.Context) string {
	const op = "CartController.sessionToken"

	c.mu.RLock()
	token, loaded := c.token, c.tokenLoaded
	c.mu.RUnlock()
	if loaded || c.tokens == nil {
		return token
	}

	token, err := c.tokens.LoadToken(ctx, c.sessionID)
	if err != nil {
		slog.With("op", op).Warn(
			"failed to load session token", "sessionID", c.sessionID, "err", err,
		)
		return ""
	}

	c.mu.Lock()
	c.token, c.tokenLoaded = token, true
	c.mu.Unlock()
	return token
}

func (c *CartController) saveToken(ctx context.Context, token string) {
	const op = "CartController.saveToken"

	if c.tokens == nil || token == "" {
		return
	}
	if err := c.tokens.SaveToken(ctx, c.sessionID, token); err != nil {
		slog.With("op", op).Warn(
			"failed to save session token", "sessionID", c.sessionID, "err", err,
		)
	}
}

func newAddToCart(productRef string, quantity int, variationRef string) (domain.AddToCart, error) {
	if quantity < 1 {
		return domain.AddToCart{}, domain.ErrInvalidQuantity
	}

	productID, err := relayid.Decode(productRef)
	if err != nil {
		return domain.AddToCart{}, fmt.Errorf("product %q: %w", productRef, err)
	}

	var variationID int
	if variationRef != "" {
		variationID, err = relayid.Decode(variationRef)
		if err != nil {
			return domain.AddToCart{}, fmt.Errorf("variation %q: %w", variationRef, err)
		}
	}

	return domain.AddToCart{
		ProductID:   productID,
		VariationID: variationID,
		Quantity:    quantity,
	}, nil
}

// IsInputError reports whether err was raised before any upstream call.
func IsInputError(err error) bool {
	return errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrEmptyLineKey) ||
		errors.Is(err, relayid.ErrInvalidID)
}
