package dto

import (
	"time"

	"stockshift/internal/domain/catalogs/variant"
)

// CreateVariantRequest is the payload for registering a variant.
type CreateVariantRequest struct {
	SKU       string     `json:"sku" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	Barcode   *string    `json:"barcode"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// ToInput converts the request into a service input.
func (r CreateVariantRequest) ToInput() variant.CreateInput {
	return variant.CreateInput{
		SKU:       r.SKU,
		Name:      r.Name,
		Barcode:   r.Barcode,
		ExpiresAt: r.ExpiresAt,
	}
}

// UpdateVariantRequest carries partial variant updates.
// Absent fields stay unchanged.
type UpdateVariantRequest struct {
	Name      *string    `json:"name"`
	Barcode   *string    `json:"barcode"`
	Active    *bool      `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// ToInput converts the request into a service input.
func (r UpdateVariantRequest) ToInput() variant.UpdateInput {
	return variant.UpdateInput{
		Name:      r.Name,
		Barcode:   r.Barcode,
		Active:    r.Active,
		ExpiresAt: r.ExpiresAt,
	}
}

// VariantResponse represents a variant in API responses.
type VariantResponse struct {
	ID        string     `json:"id"`
	SKU       string     `json:"sku"`
	Name      string     `json:"name"`
	Barcode   *string    `json:"barcode,omitempty"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FromVariant converts a domain variant to a response DTO.
func FromVariant(v *variant.Variant) VariantResponse {
	return VariantResponse{
		ID:        v.ID.String(),
		SKU:       v.SKU,
		Name:      v.Name,
		Barcode:   v.Barcode,
		Active:    v.Active,
		ExpiresAt: v.ExpiresAt,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// FromVariants converts a slice of variants.
func FromVariants(list []*variant.Variant) []VariantResponse {
	out := make([]VariantResponse, 0, len(list))
	for _, v := range list {
		out = append(out, FromVariant(v))
	}
	return out
}
