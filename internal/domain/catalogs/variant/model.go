// Package variant provides the product variant catalog. A variant is
// the sellable unit stock is tracked against: one SKU with optional
// barcode and shelf-life data.
package variant

import (
	"strings"
	"time"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

// Variant represents a stock-keeping unit.
type Variant struct {
	ID        id.ID      `db:"id" json:"id"`
	SKU       string     `db:"sku" json:"sku"`
	Name      string     `db:"name" json:"name"`
	Barcode   *string    `db:"barcode" json:"barcode,omitempty"`
	Active    bool       `db:"active" json:"active"`
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// New creates an active variant with required fields.
func New(sku, name string) *Variant {
	now := time.Now().UTC()
	return &Variant{
		ID:        id.New(),
		SKU:       strings.TrimSpace(sku),
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields.
func (v *Variant) Validate() error {
	if strings.TrimSpace(v.SKU) == "" {
		return apperror.NewValidation("variant sku is required").
			WithDetail("field", "sku")
	}
	if strings.TrimSpace(v.Name) == "" {
		return apperror.NewValidation("variant name is required").
			WithDetail("field", "name")
	}
	return nil
}
