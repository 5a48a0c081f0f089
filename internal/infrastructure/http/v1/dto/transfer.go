package dto

import (
	"time"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
	"stockshift/internal/domain/stock"
)

// CreateTransferRequest is the payload for creating a transfer draft.
type CreateTransferRequest struct {
	OriginWarehouseID      string                `json:"originWarehouseId" binding:"required"`
	DestinationWarehouseID string                `json:"destinationWarehouseId" binding:"required"`
	OccurredAt             *time.Time            `json:"occurredAt"`
	Notes                  string                `json:"notes"`
	Lines                  []TransferLineRequest `json:"lines" binding:"required"`
}

// TransferLineRequest is one variant/quantity line of a transfer request.
type TransferLineRequest struct {
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// ToInput converts the request into a domain input.
func (r CreateTransferRequest) ToInput(idempotencyKey string) (stock.CreateTransferInput, error) {
	origin, err := id.Parse(r.OriginWarehouseID)
	if err != nil {
		return stock.CreateTransferInput{}, apperror.NewValidation("invalid origin warehouse id").
			WithDetail("originWarehouseId", r.OriginWarehouseID)
	}
	destination, err := id.Parse(r.DestinationWarehouseID)
	if err != nil {
		return stock.CreateTransferInput{}, apperror.NewValidation("invalid destination warehouse id").
			WithDetail("destinationWarehouseId", r.DestinationWarehouseID)
	}
	input := stock.CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Notes:                  r.Notes,
		IdempotencyKey:         idempotencyKey,
	}
	if r.OccurredAt != nil {
		input.OccurredAt = *r.OccurredAt
	}
	for _, line := range r.Lines {
		variantID, err := id.Parse(line.VariantID)
		if err != nil {
			return stock.CreateTransferInput{}, apperror.NewValidation("invalid variant id").
				WithDetail("variantId", line.VariantID)
		}
		input.Lines = append(input.Lines, stock.TransferLineInput{
			VariantID: variantID,
			Quantity:  line.Quantity,
		})
	}
	return input, nil
}

// TransferResponse represents a stock transfer in API responses.
type TransferResponse struct {
	ID                     string                 `json:"id"`
	OriginWarehouseID      string                 `json:"originWarehouseId"`
	DestinationWarehouseID string                 `json:"destinationWarehouseId"`
	Status                 string                 `json:"status"`
	OccurredAt             time.Time              `json:"occurredAt"`
	IdempotencyKey         *string                `json:"idempotencyKey,omitempty"`
	Notes                  string                 `json:"notes,omitempty"`
	CreatedBy              string                 `json:"createdBy"`
	CreatedAt              time.Time              `json:"createdAt"`
	ConfirmedBy            *string                `json:"confirmedBy,omitempty"`
	ConfirmedAt            *time.Time             `json:"confirmedAt,omitempty"`
	OutboundEventID        *string                `json:"outboundEventId,omitempty"`
	InboundEventID         *string                `json:"inboundEventId,omitempty"`
	Lines                  []TransferLineResponse `json:"lines"`
}

// TransferLineResponse is one line of a transfer response.
type TransferLineResponse struct {
	ID        string `json:"id"`
	VariantID string `json:"variantId"`
	Quantity  int64  `json:"quantity"`
}

// FromTransfer converts a domain transfer to a response DTO.
func FromTransfer(t *stock.StockTransfer) TransferResponse {
	resp := TransferResponse{
		ID:                     t.ID.String(),
		OriginWarehouseID:      t.OriginWarehouseID.String(),
		DestinationWarehouseID: t.DestinationWarehouseID.String(),
		Status:                 string(t.Status),
		OccurredAt:             t.OccurredAt,
		IdempotencyKey:         t.IdempotencyKey,
		Notes:                  t.Notes,
		CreatedBy:              t.CreatedBy,
		CreatedAt:              t.CreatedAt,
		ConfirmedBy:            t.ConfirmedBy,
		ConfirmedAt:            t.ConfirmedAt,
	}
	if t.OutboundEventID != nil {
		s := t.OutboundEventID.String()
		resp.OutboundEventID = &s
	}
	if t.InboundEventID != nil {
		s := t.InboundEventID.String()
		resp.InboundEventID = &s
	}
	for _, line := range t.Lines {
		resp.Lines = append(resp.Lines, TransferLineResponse{
			ID:        line.ID.String(),
			VariantID: line.VariantID.String(),
			Quantity:  line.Quantity,
		})
	}
	return resp
}

// FromTransfers converts a slice of domain transfers.
func FromTransfers(transfers []*stock.StockTransfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, FromTransfer(t))
	}
	return out
}
