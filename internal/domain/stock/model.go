// Package stock implements the stock ledger: an append-only log of
// stock-affecting events, the materialized per-(warehouse, variant)
// balance derived from it, and the two-phase transfer protocol that
// moves quantity between warehouses atomically.
package stock

import (
	"time"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

// EventType defines the direction of a stock event.
type EventType string

const (
	EventInbound    EventType = "INBOUND"
	EventOutbound   EventType = "OUTBOUND"
	EventAdjustment EventType = "ADJUSTMENT"
)

// Valid reports whether the event type is known.
func (t EventType) Valid() bool {
	switch t {
	case EventInbound, EventOutbound, EventAdjustment:
		return true
	}
	return false
}

// ReasonCode classifies why a balance changed.
type ReasonCode string

const (
	ReasonPurchase        ReasonCode = "PURCHASE"
	ReasonSale            ReasonCode = "SALE"
	ReasonCountCorrection ReasonCode = "COUNT_CORRECTION"
	ReasonDamage          ReasonCode = "DAMAGE"
	ReasonDiscardExpired  ReasonCode = "DISCARD_EXPIRED"
	ReasonTransferOut     ReasonCode = "TRANSFER_OUT"
	ReasonTransferIn      ReasonCode = "TRANSFER_IN"
	ReasonOther           ReasonCode = "OTHER"
)

// Valid reports whether the reason code is known. An empty reason is allowed.
func (r ReasonCode) Valid() bool {
	switch r {
	case "", ReasonPurchase, ReasonSale, ReasonCountCorrection, ReasonDamage,
		ReasonDiscardExpired, ReasonTransferOut, ReasonTransferIn, ReasonOther:
		return true
	}
	return false
}

// StockEvent is an immutable audit record of one stock-affecting operation.
// Once persisted it is never mutated or deleted.
type StockEvent struct {
	ID             id.ID      `db:"id" json:"id"`
	Type           EventType  `db:"type" json:"type"`
	WarehouseID    id.ID      `db:"warehouse_id" json:"warehouseId"`
	OccurredAt     time.Time  `db:"occurred_at" json:"occurredAt"`
	ReasonCode     ReasonCode `db:"reason_code" json:"reasonCode,omitempty"`
	IdempotencyKey *string    `db:"idempotency_key" json:"idempotencyKey,omitempty"`
	PayloadHash    *string    `db:"payload_hash" json:"-"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	CreatedBy      string     `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`

	Lines []StockEventLine `db:"-" json:"lines"`
}

// StockEventLine is one variant/quantity entry of an event.
// INBOUND and OUTBOUND lines carry a positive magnitude; the sign is
// implied by the event type. ADJUSTMENT lines carry a signed quantity.
type StockEventLine struct {
	ID        id.ID     `db:"id" json:"id"`
	EventID   id.ID     `db:"event_id" json:"-"`
	VariantID id.ID     `db:"variant_id" json:"variantId"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SignedDelta returns the balance change a line applies given its event type.
func (e *StockEvent) SignedDelta(line StockEventLine) int64 {
	switch e.Type {
	case EventOutbound:
		return -line.Quantity
	default:
		return line.Quantity
	}
}

// StockItem is the materialized balance for one (warehouse, variant) pair.
// It is the single mutable resource under contention; the version counter
// backs the optimistic concurrency check. Created lazily at quantity zero,
// never deleted.
type StockItem struct {
	ID          id.ID     `db:"id" json:"id"`
	WarehouseID id.ID     `db:"warehouse_id" json:"warehouseId"`
	VariantID   id.ID     `db:"variant_id" json:"variantId"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	Version     int64     `db:"version" json:"version"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStockItem creates a zero-balance item for lazy materialization.
func NewStockItem(warehouseID, variantID id.ID) *StockItem {
	now := time.Now().UTC()
	return &StockItem{
		ID:          id.New(),
		WarehouseID: warehouseID,
		VariantID:   variantID,
		Quantity:    0,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyEventInput is a normalized apply-event request.
type ApplyEventInput struct {
	Type           EventType
	WarehouseID    id.ID
	OccurredAt     time.Time // zero value means "now"
	ReasonCode     ReasonCode
	Notes          string
	IdempotencyKey string
	Lines          []EventLineInput
}

// EventLineInput is one requested variant/quantity line.
type EventLineInput struct {
	VariantID id.ID
	Quantity  int64
}

// validate checks the structural rules that hold before any lookup:
// known type and reason, non-empty lines, per-type quantity sign rules,
// and no duplicated variant within one request.
func (in ApplyEventInput) validate() error {
	if !in.Type.Valid() {
		return apperror.NewInvalidPayload("unknown-event-type")
	}
	if !in.ReasonCode.Valid() {
		return apperror.NewInvalidPayload("unknown-reason-code")
	}
	if id.IsNil(in.WarehouseID) {
		return apperror.NewInvalidPayload("warehouse-required")
	}
	if len(in.Lines) == 0 {
		return apperror.NewInvalidPayload("empty-lines")
	}

	seen := make(map[id.ID]struct{}, len(in.Lines))
	for _, line := range in.Lines {
		if id.IsNil(line.VariantID) {
			return apperror.NewInvalidPayload("variant-required")
		}
		if _, dup := seen[line.VariantID]; dup {
			// Duplicate variants in one event are ambiguous: reject, never merge.
			return apperror.NewInvalidPayload("duplicate-variant-line")
		}
		seen[line.VariantID] = struct{}{}

		switch in.Type {
		case EventInbound, EventOutbound:
			if line.Quantity <= 0 {
				return apperror.NewInvalidPayload("quantity-must-be-positive")
			}
		case EventAdjustment:
			if line.Quantity == 0 {
				return apperror.NewInvalidPayload("quantity-must-not-be-zero")
			}
		}
	}
	return nil
}

// signedDelta resolves the balance change for one requested line.
func (in ApplyEventInput) signedDelta(line EventLineInput) int64 {
	if in.Type == EventOutbound {
		return -line.Quantity
	}
	return line.Quantity
}

// discardsExpired reports whether the event is allowed to move expired stock.
func (in ApplyEventInput) discardsExpired() bool {
	return in.Type == EventAdjustment && in.ReasonCode == ReasonDiscardExpired
}
