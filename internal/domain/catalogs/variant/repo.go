package variant

import (
	"context"

	"stockshift/internal/core/id"
)

// ListFilter narrows variant listings.
type ListFilter struct {
	Active *bool
	Search string
	Limit  int
	Offset int
}

// Repository defines the interface for variant persistence.
type Repository interface {
	Create(ctx context.Context, v *Variant) error
	Update(ctx context.Context, v *Variant) error
	// GetByID returns nil when the variant does not exist.
	GetByID(ctx context.Context, variantID id.ID) (*Variant, error)
	GetBySKU(ctx context.Context, sku string) (*Variant, error)
	List(ctx context.Context, filter ListFilter) ([]*Variant, error)
}
