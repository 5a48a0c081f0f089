package warehouse

import (
	"context"

	"stockshift/internal/core/id"
)

// ListFilter narrows warehouse listings.
type ListFilter struct {
	Active *bool
	Search string
	Limit  int
	Offset int
}

// Repository defines the interface for warehouse persistence.
type Repository interface {
	Create(ctx context.Context, w *Warehouse) error
	Update(ctx context.Context, w *Warehouse) error
	// GetByID returns nil when the warehouse does not exist.
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	GetByCode(ctx context.Context, code string) (*Warehouse, error)
	List(ctx context.Context, filter ListFilter) ([]*Warehouse, error)
}
