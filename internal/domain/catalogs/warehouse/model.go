// Package warehouse provides the warehouse catalog: the physical
// locations stock events and transfers reference.
package warehouse

import (
	"strings"
	"time"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates an active warehouse with required fields.
func New(code, name string) *Warehouse {
	now := time.Now().UTC()
	return &Warehouse{
		ID:        id.New(),
		Code:      strings.TrimSpace(code),
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields.
func (w *Warehouse) Validate() error {
	if strings.TrimSpace(w.Code) == "" {
		return apperror.NewValidation("warehouse code is required").
			WithDetail("field", "code")
	}
	if strings.TrimSpace(w.Name) == "" {
		return apperror.NewValidation("warehouse name is required").
			WithDetail("field", "name")
	}
	return nil
}
