package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductViewsSender = (*ViewsService)(nil)
var _ port.ProductViewsSaver = (*ViewsService)(nil)
var _ port.PopularityReader = (*ViewsService)(nil)

// A ViewsService routes product views through the event pipeline.
//
// Every dependency is optional: without a producer views are dropped,
// without a popularity reader counts are not found.
type ViewsService struct {
	producer   port.ProductViewsProducer
	storage    port.ProductViewsStorage
	popularity port.PopularityReader
	counter    port.ViewCounterProcessor
}

type ViewsOpt func(*ViewsService)

func ViewsProducerOpt(p port.ProductViewsProducer) ViewsOpt {
	return func(s *ViewsService) { s.producer = p }
}

func ViewsStorageOpt(st port.ProductViewsStorage) ViewsOpt {
	return func(s *ViewsService) { s.storage = st }
}

func ViewsPopularityOpt(r port.PopularityReader) ViewsOpt {
	return func(s *ViewsService) { s.popularity = r }
}

func ViewsCounterOpt(p port.ViewCounterProcessor) ViewsOpt {
	return func(s *ViewsService) { s.counter = p }
}

func NewViewsService(opts ...ViewsOpt) *ViewsService {
	var s ViewsService
	for _, opt := range opts {
		opt(&s)
	}
	return &s
}

// Run runs the view counter processor in a separate goroutine.
//
// Blocks current goroutine while the processor is preparing to ready state.
func (s *ViewsService) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.counter == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.counter.Run(ctx, stopFn, &wg)
	wg.Wait()
}

func (s *ViewsService) Close() {
	if s.counter != nil {
		s.counter.Close()
	}
}

func (s *ViewsService) SendView(ctx context.Context, v domain.ProductView) error {
	const op = "ViewsService.SendView"

	if s.producer == nil {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.producer.ProduceViews(ctx, []domain.ProductView{v})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *ViewsService) SaveViews(ctx context.Context, vs []domain.ProductView) error {
	const op = "ViewsService.SaveViews"

	if s.storage == nil {
		return fmt.Errorf("%s: views storage is not configured", op)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.storage.StoreViews(ctx, vs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *ViewsService) ViewCount(ctx context.Context, slug string) (int64, error) {
	const op = "ViewsService.ViewCount"

	if s.popularity == nil {
		return 0, fmt.Errorf("%s: view counts: %w", op, domain.ErrNotFound)
	}

	n, err := s.popularity.ViewCount(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
