package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockshift/internal/core/id"
	"stockshift/internal/domain/catalogs/variant"
	"stockshift/internal/infrastructure/storage/postgres"
)

const variantTable = "variants"

// VariantRepo implements variant.Repository.
type VariantRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ variant.Repository = (*VariantRepo)(nil)

func NewVariantRepo(txm *postgres.TxManager) *VariantRepo {
	return &VariantRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *VariantRepo) Create(ctx context.Context, v *variant.Variant) error {
	q := r.builder.Insert(variantTable).
		Columns("id", "sku", "name", "barcode", "active", "expires_at", "created_at", "updated_at").
		Values(v.ID, v.SKU, v.Name, v.Barcode, v.Active, v.ExpiresAt, v.CreatedAt, v.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert variant: %w", err)
	}
	return nil
}

func (r *VariantRepo) Update(ctx context.Context, v *variant.Variant) error {
	q := r.builder.Update(variantTable).
		Set("name", v.Name).
		Set("barcode", v.Barcode).
		Set("active", v.Active).
		Set("expires_at", v.ExpiresAt).
		Set("updated_at", v.UpdatedAt).
		Where(squirrel.Eq{"id": v.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update variant: %w", err)
	}
	return nil
}

func (r *VariantRepo) GetByID(ctx context.Context, variantID id.ID) (*variant.Variant, error) {
	return r.getOne(ctx, squirrel.Eq{"id": variantID})
}

func (r *VariantRepo) GetBySKU(ctx context.Context, sku string) (*variant.Variant, error) {
	return r.getOne(ctx, squirrel.Eq{"sku": sku})
}

func (r *VariantRepo) getOne(ctx context.Context, where squirrel.Eq) (*variant.Variant, error) {
	q := r.builder.Select(variantColumns()...).
		From(variantTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v variant.Variant
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return &v, nil
}

func (r *VariantRepo) List(ctx context.Context, filter variant.ListFilter) ([]*variant.Variant, error) {
	q := r.builder.Select(variantColumns()...).
		From(variantTable).
		OrderBy("sku")

	if filter.Active != nil {
		q = q.Where(squirrel.Eq{"active": *filter.Active})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"sku": pattern},
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

	var variants []*variant.Variant
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &variants, sql, args...); err != nil {
		return nil, fmt.Errorf("select variants: %w", err)
	}
	return variants, nil
}

func variantColumns() []string {
	return []string{"id", "sku", "name", "barcode", "active", "expires_at", "created_at", "updated_at"}
}
