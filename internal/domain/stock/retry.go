package stock

import (
	"context"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
	"stockshift/pkg/logger"
)

// DefaultMaxRetries bounds the optimistic-update loop when config does
// not override it.
const DefaultMaxRetries = 5

// RetryPolicy applies a signed delta to a balance row under optimistic
// concurrency. Each attempt re-reads the row, computes the next
// quantity and issues a conditional update against the observed
// version. A lost race re-reads and retries up to MaxAttempts.
type RetryPolicy struct {
	Items       ItemRepository
	MaxAttempts int
}

func NewRetryPolicy(items ItemRepository, maxAttempts int) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxRetries
	}
	return &RetryPolicy{Items: items, MaxAttempts: maxAttempts}
}

// ApplyDelta updates the balance for (warehouse, variant) by delta and
// returns the resulting row. The row is created lazily on first touch;
// a negative delta against a missing row fails with insufficient stock
// rather than creating a negative balance.
func (p *RetryPolicy) ApplyDelta(ctx context.Context, warehouseID, variantID id.ID, delta int64) (*StockItem, error) {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		item, err := p.Items.Find(ctx, warehouseID, variantID)
		if err != nil {
			return nil, err
		}

		if item == nil {
			if delta < 0 {
				return nil, apperror.NewInsufficientStock(variantID.String(), -delta, 0)
			}
			candidate := NewStockItem(warehouseID, variantID)
			candidate.Quantity = delta
			ok, err := p.Items.Insert(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if ok {
				return candidate, nil
			}
			// Another writer created the row. Re-read and go through
			// the conditional-update path.
			logger.Debug(ctx, "stock item insert lost race, retrying",
				"warehouse_id", warehouseID, "variant_id", variantID, "attempt", attempt)
			continue
		}

		next := item.Quantity + delta
		if next < 0 {
			return nil, apperror.NewInsufficientStock(variantID.String(), -delta, item.Quantity)
		}

		ok, err := p.Items.UpdateQuantity(ctx, item.ID, next, item.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			item.Quantity = next
			item.Version++
			return item, nil
		}

		logger.Debug(ctx, "stock item version conflict, retrying",
			"warehouse_id", warehouseID, "variant_id", variantID,
			"observed_version", item.Version, "attempt", attempt)
	}

	return nil, apperror.NewConcurrencyConflict("stock_item", warehouseID.String()+"/"+variantID.String())
}
