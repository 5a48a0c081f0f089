package stock

import (
	"context"
	"errors"
	"time"

	"stockshift/internal/core/id"
)

// ErrDuplicateIdempotencyKey is returned by repositories when an insert
// hits the unique index on idempotency_key. The unique index is the
// at-most-once backstop for duplicate submissions racing past the
// idempotency check; callers resolve the race by re-reading the key.
var ErrDuplicateIdempotencyKey = errors.New("stock: idempotency key already exists")

// EventRepository persists immutable stock events with their lines.
type EventRepository interface {
	// Create inserts the event and all its lines.
	Create(ctx context.Context, event *StockEvent) error
	// GetByID loads an event with lines, or nil when absent.
	GetByID(ctx context.Context, eventID id.ID) (*StockEvent, error)
	// FindByIdempotencyKey loads an event by key, or nil when absent.
	FindByIdempotencyKey(ctx context.Context, key string) (*StockEvent, error)
	// List returns events matching the filter, newest first.
	List(ctx context.Context, filter EventFilter) ([]*StockEvent, error)
}

// ItemRepository persists materialized balances. Quantity mutation goes
// exclusively through the conditional UpdateQuantity; there is no
// unconditional update.
type ItemRepository interface {
	// Find loads the balance row for the pair, or nil when absent.
	Find(ctx context.Context, warehouseID, variantID id.ID) (*StockItem, error)
	// Insert creates the row. Returns false without error when another
	// writer created the same (warehouse, variant) pair first.
	Insert(ctx context.Context, item *StockItem) (bool, error)
	// UpdateQuantity performs the optimistic write: the row is updated
	// only when its version still equals observedVersion. Returns false
	// without error when the version check lost the race.
	UpdateQuantity(ctx context.Context, itemID id.ID, newQuantity, observedVersion int64) (bool, error)
	// List returns balances matching the filter.
	List(ctx context.Context, filter ItemFilter) ([]StockItem, error)
}

// TransferRepository persists transfers with their lines.
type TransferRepository interface {
	Create(ctx context.Context, transfer *StockTransfer) error
	GetByID(ctx context.Context, transferID id.ID) (*StockTransfer, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*StockTransfer, error)
	// MarkConfirmed records confirmation metadata and the linked event
	// ids, guarded by status = DRAFT. Returns false without error when
	// the transfer is no longer a draft.
	MarkConfirmed(ctx context.Context, transfer *StockTransfer) (bool, error)
	// MarkCancelled transitions DRAFT to CANCELLED under the same guard.
	MarkCancelled(ctx context.Context, transferID id.ID) (bool, error)
	List(ctx context.Context, filter TransferFilter) ([]*StockTransfer, error)
}

// WarehouseRef is the slice of warehouse state the ledger depends on.
type WarehouseRef struct {
	ID     id.ID
	Code   string
	Active bool
}

// WarehouseDirectory resolves warehouse references. A nil result means
// the warehouse does not exist.
type WarehouseDirectory interface {
	Get(ctx context.Context, warehouseID id.ID) (*WarehouseRef, error)
}

// VariantRef is the slice of variant state the ledger depends on.
type VariantRef struct {
	ID        id.ID
	SKU       string
	Active    bool
	ExpiresAt *time.Time
}

// Expired reports whether the variant is past its expiry at the given time.
func (v VariantRef) Expired(at time.Time) bool {
	return v.ExpiresAt != nil && v.ExpiresAt.Before(at)
}

// VariantCatalog resolves variant references. A nil result means the
// variant does not exist.
type VariantCatalog interface {
	Get(ctx context.Context, variantID id.ID) (*VariantRef, error)
}

// EventFilter narrows ListEvents.
type EventFilter struct {
	Type         *EventType
	WarehouseID  *id.ID
	VariantID    *id.ID
	ReasonCode   *ReasonCode
	OccurredFrom *time.Time
	OccurredTo   *time.Time
	Limit        int
	Offset       int
}

// ItemFilter narrows balance listings.
type ItemFilter struct {
	WarehouseID *id.ID
	VariantID   *id.ID
	ExcludeZero bool
	Limit       int
	Offset      int
}

// TransferFilter narrows ListTransfers.
type TransferFilter struct {
	Status                 *TransferStatus
	OriginWarehouseID      *id.ID
	DestinationWarehouseID *id.ID
	OccurredFrom           *time.Time
	OccurredTo             *time.Time
	Limit                  int
	Offset                 int
}
