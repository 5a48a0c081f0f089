package stock

import (
	"time"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

// TransferStatus is the lifecycle state of a stock transfer.
type TransferStatus string

const (
	TransferDraft     TransferStatus = "DRAFT"
	TransferConfirmed TransferStatus = "CONFIRMED"
	TransferCancelled TransferStatus = "CANCELLED"
)

// Valid reports whether the status is known.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferDraft, TransferConfirmed, TransferCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s TransferStatus) Terminal() bool {
	return s == TransferConfirmed || s == TransferCancelled
}

// StockTransfer records a movement intent between two warehouses.
// Created in DRAFT, it transitions exactly once to CONFIRMED or
// CANCELLED and is immutable afterwards. Balance effects exist only
// through the pair of stock events linked on confirmation.
type StockTransfer struct {
	ID                     id.ID          `db:"id" json:"id"`
	OriginWarehouseID      id.ID          `db:"origin_warehouse_id" json:"originWarehouseId"`
	DestinationWarehouseID id.ID          `db:"destination_warehouse_id" json:"destinationWarehouseId"`
	Status                 TransferStatus `db:"status" json:"status"`
	OccurredAt             time.Time      `db:"occurred_at" json:"occurredAt"`
	IdempotencyKey         *string        `db:"idempotency_key" json:"idempotencyKey,omitempty"`
	PayloadHash            *string        `db:"payload_hash" json:"-"`
	Notes                  string         `db:"notes" json:"notes,omitempty"`
	CreatedBy              string         `db:"created_by" json:"createdBy"`
	CreatedAt              time.Time      `db:"created_at" json:"createdAt"`
	ConfirmedBy            *string        `db:"confirmed_by" json:"confirmedBy,omitempty"`
	ConfirmedAt            *time.Time     `db:"confirmed_at" json:"confirmedAt,omitempty"`
	OutboundEventID        *id.ID         `db:"outbound_event_id" json:"outboundEventId,omitempty"`
	InboundEventID         *id.ID         `db:"inbound_event_id" json:"inboundEventId,omitempty"`

	Lines []StockTransferLine `db:"-" json:"lines"`
}

// StockTransferLine is one variant/quantity entry of a transfer.
// Quantity is always a positive magnitude.
type StockTransferLine struct {
	ID         id.ID     `db:"id" json:"id"`
	TransferID id.ID     `db:"transfer_id" json:"-"`
	VariantID  id.ID     `db:"variant_id" json:"variantId"`
	Quantity   int64     `db:"quantity" json:"quantity"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// EnsureDraft guards state transitions: confirming or cancelling anything
// but a DRAFT is rejected, never retried.
func (t *StockTransfer) EnsureDraft() error {
	if t.Status != TransferDraft {
		return apperror.NewTransferNotDraft(t.ID.String(), string(t.Status))
	}
	return nil
}

// CreateTransferInput is a normalized create-draft request.
type CreateTransferInput struct {
	OriginWarehouseID      id.ID
	DestinationWarehouseID id.ID
	OccurredAt             time.Time // zero value means "now"
	Notes                  string
	IdempotencyKey         string
	Lines                  []TransferLineInput
}

// TransferLineInput is one requested variant/quantity line.
type TransferLineInput struct {
	VariantID id.ID
	Quantity  int64
}

func (in CreateTransferInput) validate() error {
	if id.IsNil(in.OriginWarehouseID) || id.IsNil(in.DestinationWarehouseID) {
		return apperror.NewInvalidPayload("warehouse-required")
	}
	if in.OriginWarehouseID == in.DestinationWarehouseID {
		return apperror.NewSameWarehouseTransfer()
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
			return apperror.NewInvalidPayload("duplicate-variant-line")
		}
		seen[line.VariantID] = struct{}{}
		if line.Quantity <= 0 {
			return apperror.NewInvalidPayload("quantity-must-be-positive")
		}
	}
	return nil
}
