package variant

import (
	"context"
	"strings"
	"time"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
	"stockshift/internal/core/tx"
	"stockshift/internal/domain/stock"
	"stockshift/pkg/logger"
)

// Service provides business logic for the variant catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreateInput carries the fields of a new variant.
type CreateInput struct {
	SKU       string
	Name      string
	Barcode   *string
	ExpiresAt *time.Time
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Variant, error) {
	v := New(input.SKU, input.Name)
	v.Barcode = input.Barcode
	v.ExpiresAt = input.ExpiresAt
	if err := v.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBySKU(ctx, v.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflict("variant sku already exists").
			WithDetail("sku", v.SKU)
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, v)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "variant created", "variant_id", v.ID, "sku", v.SKU)
	return v, nil
}

// UpdateInput carries mutable variant fields. Nil fields stay unchanged.
type UpdateInput struct {
	Name      *string
	Barcode   *string
	Active    *bool
	ExpiresAt *time.Time
}

func (s *Service) Update(ctx context.Context, variantID id.ID, input UpdateInput) (*Variant, error) {
	v, err := s.Get(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		v.Name = strings.TrimSpace(*input.Name)
	}
	if input.Barcode != nil {
		v.Barcode = input.Barcode
	}
	if input.Active != nil {
		v.Active = *input.Active
	}
	if input.ExpiresAt != nil {
		v.ExpiresAt = input.ExpiresAt
	}
	v.UpdatedAt = time.Now().UTC()

	if err := v.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.repo.Update(txCtx, v)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "variant updated", "variant_id", v.ID, "active", v.Active)
	return v, nil
}

func (s *Service) Get(ctx context.Context, variantID id.ID) (*Variant, error) {
	v, err := s.repo.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperror.NewNotFound("variant", variantID.String())
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Variant, error) {
	return s.repo.List(ctx, filter)
}

// Catalog adapts the variant catalog to the lookup boundary the stock
// ledger depends on.
type Catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) Get(ctx context.Context, variantID id.ID) (*stock.VariantRef, error) {
	v, err := c.repo.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return &stock.VariantRef{ID: v.ID, SKU: v.SKU, Active: v.Active, ExpiresAt: v.ExpiresAt}, nil
}
