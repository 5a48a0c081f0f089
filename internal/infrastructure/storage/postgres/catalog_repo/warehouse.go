// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockshift/internal/core/id"
	"stockshift/internal/domain/catalogs/warehouse"
	"stockshift/internal/infrastructure/storage/postgres"
)

const warehouseTable = "warehouses"

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ warehouse.Repository = (*WarehouseRepo)(nil)

func NewWarehouseRepo(txm *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *WarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	q := r.builder.Insert(warehouseTable).
		Columns("id", "code", "name", "address", "active", "created_at", "updated_at").
		Values(w.ID, w.Code, w.Name, w.Address, w.Active, w.CreatedAt, w.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

func (r *WarehouseRepo) Update(ctx context.Context, w *warehouse.Warehouse) error {
	q := r.builder.Update(warehouseTable).
		Set("name", w.Name).
		Set("address", w.Address).
		Set("active", w.Active).
		Set("updated_at", w.UpdatedAt).
		Where(squirrel.Eq{"id": w.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	return nil
}

func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return r.getOne(ctx, squirrel.Eq{"id": warehouseID})
}

func (r *WarehouseRepo) GetByCode(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code})
}

func (r *WarehouseRepo) getOne(ctx context.Context, where squirrel.Eq) (*warehouse.Warehouse, error) {
	q := r.builder.Select("id", "code", "name", "address", "active", "created_at", "updated_at").
		From(warehouseTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w warehouse.Warehouse
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

func (r *WarehouseRepo) List(ctx context.Context, filter warehouse.ListFilter) ([]*warehouse.Warehouse, error) {
	q := r.builder.Select("id", "code", "name", "address", "active", "created_at", "updated_at").
		From(warehouseTable).
		OrderBy("code")

	if filter.Active != nil {
		q = q.Where(squirrel.Eq{"active": *filter.Active})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var warehouses []*warehouse.Warehouse
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouses: %w", err)
	}
	return warehouses, nil
}
