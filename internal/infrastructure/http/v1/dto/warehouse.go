package dto

import (
	"time"

	"stockshift/internal/domain/catalogs/warehouse"
)

// CreateWarehouseRequest is the payload for registering a warehouse.
type CreateWarehouseRequest struct {
	Code    string  `json:"code" binding:"required"`
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
}

// ToInput converts the request into a service input.
func (r CreateWarehouseRequest) ToInput() warehouse.CreateInput {
	return warehouse.CreateInput{
		Code:    r.Code,
		Name:    r.Name,
		Address: r.Address,
	}
}

// UpdateWarehouseRequest carries partial warehouse updates.
// Absent fields stay unchanged.
type UpdateWarehouseRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Active  *bool   `json:"active"`
}

// ToInput converts the request into a service input.
func (r UpdateWarehouseRequest) ToInput() warehouse.UpdateInput {
	return warehouse.UpdateInput{
		Name:    r.Name,
		Address: r.Address,
		Active:  r.Active,
	}
}

// WarehouseResponse represents a warehouse in API responses.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromWarehouse converts a domain warehouse to a response DTO.
func FromWarehouse(w *warehouse.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID.String(),
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// FromWarehouses converts a slice of warehouses.
func FromWarehouses(list []*warehouse.Warehouse) []WarehouseResponse {
	out := make([]WarehouseResponse, 0, len(list))
	for _, w := range list {
		out = append(out, FromWarehouse(w))
	}
	return out
}
