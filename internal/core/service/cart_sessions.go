package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/port"
)

const DefaultCartIdleTTL = 30 * time.Minute

// CartSessions owns one [CartController] per browser session.
//
// Controllers idle longer than the TTL are evicted. The upstream
// session token survives eviction in the token store.
type CartSessions struct {
	gateway port.CartGateway
	tokens  port.SessionTokenStore
	idleTTL time.Duration
	now     func() time.Time

	mu          sync.Mutex
	controllers map[string]*CartController
}

// NewCartSessions returns an empty registry. tokens may be nil.
func NewCartSessions(
	gateway port.CartGateway, tokens port.SessionTokenStore, idleTTL time.Duration,
) *CartSessions {
	if gateway == nil {
		panic("NewCartSessions: nil gateway") // develop mistake
	}
	if idleTTL <= 0 {
		idleTTL = DefaultCartIdleTTL
	}
	return &CartSessions{
		gateway:     gateway,
		tokens:      tokens,
		idleTTL:     idleTTL,
		now:         time.Now,
		controllers: make(map[string]*CartController),
	}
}

// Controller returns the controller of sessionID, creating it on first use.
func (s *CartSessions) Controller(sessionID string) *CartController {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.controllers[sessionID]
	if !ok {
		c = NewCartController(sessionID, s.gateway, s.tokens)
		s.controllers[sessionID] = c
	}
	c.touch(s.now())
	return c
}

func (s *CartSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}

// Evict drops idle controllers unused for longer than the TTL
// and reports how many were dropped. Busy controllers are kept.
func (s *CartSessions) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	var n int
	for id, c := range s.controllers {
		lastUsed, idle := c.idleSince()
		if idle && lastUsed.Before(cutoff) {
			delete(s.controllers, id)
			n++
		}
	}
	return n
}

// Run evicts idle controllers every interval until ctx is done.
func (s *CartSessions) Run(ctx context.Context, interval time.Duration) {
	const op = "CartSessions.Run"
	log := slog.With("op", op)

	if interval <= 0 {
		interval = s.idleTTL / 2
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("running", "idleTTL", s.idleTTL)
	for {
		select {
		case <-ctx.Done():
			log.Info("stopped")
			return
		case <-ticker.C:
			if n := s.Evict(); n != 0 {
				log.Debug("evicted idle carts", "count", n)
			}
		}
	}
}
