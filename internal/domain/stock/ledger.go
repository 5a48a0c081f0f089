package stock

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockshift/internal/core/apperror"
	appctx "stockshift/internal/core/context"
	"stockshift/internal/core/id"
	"stockshift/internal/core/tx"
	"stockshift/pkg/logger"
)

// Ledger is the write path of the stock register. Every balance change
// goes through ApplyEvent: the event row, its lines and the touched
// balance rows commit in one transaction or not at all.
type Ledger struct {
	events     EventRepository
	items      ItemRepository
	warehouses WarehouseDirectory
	variants   VariantCatalog
	txManager  tx.Manager
	retry      *RetryPolicy
}

func NewLedger(
	events EventRepository,
	items ItemRepository,
	warehouses WarehouseDirectory,
	variants VariantCatalog,
	txManager tx.Manager,
	maxRetries int,
) *Ledger {
	return &Ledger{
		events:     events,
		items:      items,
		warehouses: warehouses,
		variants:   variants,
		txManager:  txManager,
		retry:      NewRetryPolicy(items, maxRetries),
	}
}

// ApplyEvent validates, records and materializes one stock event.
//
// With an idempotency key, resubmission of the same payload returns the
// stored event without side effects; the same key with a different
// payload is rejected. The unique index on the key column closes the
// window where two identical requests pass the lookup concurrently.
func (l *Ledger) ApplyEvent(ctx context.Context, input ApplyEventInput) (*StockEvent, error) {
	actor := appctx.GetActor(ctx)
	if actor == nil {
		return nil, apperror.NewForbidden("authenticated actor required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	hash := HashEventPayload(input)

	if key != "" {
		existing, err := l.events.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := resolveReplay(key, existing.PayloadHash, hash); err != nil {
				return nil, err
			}
			logger.Info(ctx, "stock event replayed by idempotency key",
				"event_id", existing.ID, "idempotency_key", key)
			return existing, nil
		}
	}

	warehouse, err := l.warehouses.Get(ctx, input.WarehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, apperror.NewNotFound("warehouse", input.WarehouseID.String())
	}
	if !warehouse.Active {
		return nil, apperror.NewWarehouseInactive(warehouse.ID.String())
	}

	occurredAt := input.OccurredAt.UTC()
	if input.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	for _, line := range input.Lines {
		variant, err := l.variants.Get(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, apperror.NewNotFound("variant", line.VariantID.String())
		}
		if !variant.Active {
			return nil, apperror.NewVariantInactive(variant.ID.String())
		}
		if variant.Expired(occurredAt) && !input.discardsExpired() {
			return nil, apperror.NewVariantInactive(variant.ID.String()).
				WithDetail("expired_at", variant.ExpiresAt)
		}
	}

	event := l.buildEvent(input, actor, key, hash, occurredAt)

	err = l.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		for _, line := range event.Lines {
			if _, err := l.retry.ApplyDelta(txCtx, event.WarehouseID, line.VariantID, event.SignedDelta(line)); err != nil {
				return err
			}
		}
		return l.events.Create(txCtx, event)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateIdempotencyKey) && key != "" {
			return l.recoverDuplicateKey(ctx, key, hash)
		}
		return nil, err
	}

	logger.Info(ctx, "stock event applied",
		"event_id", event.ID,
		"type", event.Type,
		"warehouse_id", event.WarehouseID,
		"lines", len(event.Lines),
		"reason_code", event.ReasonCode)
	return event, nil
}

func (l *Ledger) buildEvent(input ApplyEventInput, actor *appctx.ActorContext, key, hash string, occurredAt time.Time) *StockEvent {
	now := time.Now().UTC()
	event := &StockEvent{
		ID:          id.New(),
		Type:        input.Type,
		WarehouseID: input.WarehouseID,
		OccurredAt:  occurredAt,
		ReasonCode:  input.ReasonCode,
		Notes:       strings.TrimSpace(input.Notes),
		CreatedBy:   actor.ActorID,
		CreatedAt:   now,
	}
	if key != "" {
		event.IdempotencyKey = &key
		event.PayloadHash = &hash
	}
	event.Lines = make([]StockEventLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		event.Lines = append(event.Lines, StockEventLine{
			ID:        id.New(),
			EventID:   event.ID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			CreatedAt: now,
		})
	}
	return event
}

// recoverDuplicateKey handles the insert race: a concurrent request with
// the same key committed first. Re-read the winner and resolve it the
// same way as a pre-checked replay.
func (l *Ledger) recoverDuplicateKey(ctx context.Context, key, hash string) (*StockEvent, error) {
	existing, err := l.events.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NewConcurrencyConflict("stock_event", key)
	}
	if err := resolveReplay(key, existing.PayloadHash, hash); err != nil {
		return nil, err
	}
	logger.Info(ctx, "stock event replayed after duplicate key race",
		"event_id", existing.ID, "idempotency_key", key)
	return existing, nil
}

// GetEvent loads one event with its lines.
func (l *Ledger) GetEvent(ctx context.Context, eventID id.ID) (*StockEvent, error) {
	event, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperror.NewNotFound("stock_event", eventID.String())
	}
	return event, nil
}

// ListEvents returns events matching the filter, newest first.
func (l *Ledger) ListEvents(ctx context.Context, filter EventFilter) ([]*StockEvent, error) {
	return l.events.List(ctx, filter)
}

// GetBalance returns the materialized balance for a pair. A missing row
// reads as a zero balance, indistinguishable from a never-touched pair.
func (l *Ledger) GetBalance(ctx context.Context, warehouseID, variantID id.ID) (*StockItem, error) {
	item, err := l.items.Find(ctx, warehouseID, variantID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = &StockItem{
			WarehouseID: warehouseID,
			VariantID:   variantID,
			Quantity:    0,
		}
	}
	return item, nil
}

// ListBalances returns balances matching the filter.
func (l *Ledger) ListBalances(ctx context.Context, filter ItemFilter) ([]StockItem, error) {
	return l.items.List(ctx, filter)
}
