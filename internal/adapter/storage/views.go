package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductViewsStorage = ProductViewsRepository{}

const insertViewQuery = `
	INSERT INTO product_views (
		visitor_id, product_id, slug, name,
		price_amount, currency_code, viewed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (visitor_id, product_id, viewed_at) DO NOTHING;
`

type ProductViewsRepository struct {
	sqldb sqldb
}

func NewProductViewsRepository(sqldb sqldb) ProductViewsRepository {
	return ProductViewsRepository{sqldb}
}

// StoreViews inserts the batch in one transaction. Redelivered views
// are ignored.
func (r ProductViewsRepository) StoreViews(
	ctx context.Context, vs []domain.ProductView,
) (storeErr error) {
	const op = "ProductViewsRepository.StoreViews"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(vs) == 0 {
		return nil
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}

		err := tx.Rollback()
		if err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertViewQuery)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, classifyErr(err))
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, v := range vs {
		_, err := stmt.ExecContext(ctx, viewArgs(v)...)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, classifyErr(err))
		}
	}

	log.Debug("views stored", "nViews", len(vs))
	return nil
}

func viewArgs(v domain.ProductView) []any {
	return []any{
		v.VisitorID,
		v.ProductID,
		v.Slug,
		v.Name,
		v.PriceAmount,
		v.CurrencyCode,
		v.ViewedAt.UTC(),
	}
}
