package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.PopularityReader = (*PopularityView)(nil)

// viewTable reads a goka table.
type viewTable interface {
	Get(key string) (any, error)
	Recovered() bool
}

// A PopularityView serves view counts from the counter group table.
type PopularityView struct {
	gv    *goka.View
	table viewTable
}

func NewPopularityView(
	seedBrokers []string, groupTable string,
) (*PopularityView, error) {
	const op = "NewPopularityView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(groupTable)),
		viewCountCodec{},
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &PopularityView{gv: gv, table: gv}, nil
}

// Run blocks until ctx is done or the view fails.
func (v *PopularityView) Run(ctx context.Context) {
	const op = "PopularityView.Run"
	log := slog.With("op", op)

	log.Info("running")
	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

// ViewCount reports [domain.ErrNotFound] for slugs never viewed
// and while the table is recovering.
func (v *PopularityView) ViewCount(ctx context.Context, slug string) (int64, error) {
	const op = "PopularityView.ViewCount"

	if err := ctx.Err(); err != nil {
		return 0, opErr(err, op)
	}

	if !v.table.Recovered() {
		return 0, opErr(fmt.Errorf("table is recovering: %w", domain.ErrNotFound), op)
	}

	value, err := v.table.Get(slug)
	if err != nil {
		return 0, opErr(err, op)
	}

	if value == nil {
		return 0, opErr(domain.ErrNotFound, op)
	}

	n, ok := value.(viewCount)
	if !ok {
		return 0, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}
	return int64(n), nil
}
