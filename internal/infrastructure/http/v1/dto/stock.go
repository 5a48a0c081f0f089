package dto

import (
	"time"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
	"stockshift/internal/domain/stock"
)

// ApplyEventRequest is the payload for applying a stock event.
type ApplyEventRequest struct {
	Type       string             `json:"type" binding:"required"`
	ReasonCode string             `json:"reasonCode"`
	OccurredAt *time.Time         `json:"occurredAt"`
	Notes      string             `json:"notes"`
	Lines      []EventLineRequest `json:"lines" binding:"required"`
}

// EventLineRequest is one variant/quantity line of a request.
type EventLineRequest struct {
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// ToInput converts the request into a domain input. The idempotency key
// comes from the X-Idempotency-Key header, not the body.
func (r ApplyEventRequest) ToInput(warehouseID id.ID, idempotencyKey string) (stock.ApplyEventInput, error) {
	input := stock.ApplyEventInput{
		Type:           stock.EventType(r.Type),
		WarehouseID:    warehouseID,
		ReasonCode:     stock.ReasonCode(r.ReasonCode),
		Notes:          r.Notes,
		IdempotencyKey: idempotencyKey,
	}
	if r.OccurredAt != nil {
		input.OccurredAt = *r.OccurredAt
	}
	for _, line := range r.Lines {
		variantID, err := id.Parse(line.VariantID)
		if err != nil {
			return stock.ApplyEventInput{}, apperror.NewValidation("invalid variant id").
				WithDetail("variantId", line.VariantID)
		}
		input.Lines = append(input.Lines, stock.EventLineInput{
			VariantID: variantID,
			Quantity:  line.Quantity,
		})
	}
	return input, nil
}

// EventResponse represents a stock event in API responses.
type EventResponse struct {
	ID             string              `json:"id"`
	Type           string              `json:"type"`
	WarehouseID    string              `json:"warehouseId"`
	OccurredAt     time.Time           `json:"occurredAt"`
	ReasonCode     string              `json:"reasonCode,omitempty"`
	IdempotencyKey *string             `json:"idempotencyKey,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	CreatedBy      string              `json:"createdBy"`
	CreatedAt      time.Time           `json:"createdAt"`
	Lines          []EventLineResponse `json:"lines"`
}

// EventLineResponse is one line of an event response.
type EventLineResponse struct {
	ID        string `json:"id"`
	VariantID string `json:"variantId"`
	Quantity  int64  `json:"quantity"`
}

// FromEvent converts a domain event to a response DTO.
func FromEvent(e *stock.StockEvent) EventResponse {
	resp := EventResponse{
		ID:             e.ID.String(),
		Type:           string(e.Type),
		WarehouseID:    e.WarehouseID.String(),
		OccurredAt:     e.OccurredAt,
		ReasonCode:     string(e.ReasonCode),
		IdempotencyKey: e.IdempotencyKey,
		Notes:          e.Notes,
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
	}
	for _, line := range e.Lines {
		resp.Lines = append(resp.Lines, EventLineResponse{
			ID:        line.ID.String(),
			VariantID: line.VariantID.String(),
			Quantity:  line.Quantity,
		})
	}
	return resp
}

// FromEvents converts a slice of domain events.
func FromEvents(events []*stock.StockEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, FromEvent(e))
	}
	return out
}

// ItemResponse represents a materialized balance in API responses.
type ItemResponse struct {
	WarehouseID string `json:"warehouseId"`
	VariantID   string `json:"variantId"`
	Quantity    int64  `json:"quantity"`
	Version     int64  `json:"version"`
}

// FromItem converts a domain balance to a response DTO.
func FromItem(item *stock.StockItem) ItemResponse {
	return ItemResponse{
		WarehouseID: item.WarehouseID.String(),
		VariantID:   item.VariantID.String(),
		Quantity:    item.Quantity,
		Version:     item.Version,
	}
}

// FromItems converts a slice of balances.
func FromItems(items []stock.StockItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, FromItem(&items[i]))
	}
	return out
}
