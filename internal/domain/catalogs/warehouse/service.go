package warehouse

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

// Service provides business logic for the warehouse catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreateInput carries the fields of a new warehouse.
type CreateInput struct {
	Code    string
	Name    string
	Address *string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Warehouse, error) {
	w := New(input.Code, input.Name)
	w.Address = input.Address
	if err := w.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCode(ctx, w.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflict("warehouse code already exists").
			WithDetail("code", w.Code)
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, w)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "warehouse created", "warehouse_id", w.ID, "code", w.Code)
	return w, nil
}

// UpdateInput carries mutable warehouse fields. Nil fields stay unchanged.
type UpdateInput struct {
	Name    *string
	Address *string
	Active  *bool
}

func (s *Service) Update(ctx context.Context, warehouseID id.ID, input UpdateInput) (*Warehouse, error) {
	w, err := s.Get(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		w.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		w.Address = input.Address
	}
	if input.Active != nil {
		w.Active = *input.Active
	}
	w.UpdatedAt = time.Now().UTC()

	if err := w.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.repo.Update(txCtx, w)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "warehouse updated", "warehouse_id", w.ID, "active", w.Active)
	return w, nil
}

func (s *Service) Get(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	w, err := s.repo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return w, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Warehouse, error) {
	return s.repo.List(ctx, filter)
}

// Directory adapts the catalog to the lookup boundary the stock ledger
// depends on.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) Get(ctx context.Context, warehouseID id.ID) (*stock.WarehouseRef, error) {
	w, err := d.repo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}
	return &stock.WarehouseRef{ID: w.ID, Code: w.Code, Active: w.Active}, nil
}
