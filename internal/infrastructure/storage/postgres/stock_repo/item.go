package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockshift/internal/core/id"
	"stockshift/internal/domain/stock"
	"stockshift/internal/infrastructure/storage/postgres"
)

const itemsTable = "stock_items"

// ItemRepo implements stock.ItemRepository. Quantity writes go through
// the conditional UPDATE guarded by the version column; the row count
// tells the caller whether it won the race.
type ItemRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.ItemRepository = (*ItemRepo)(nil)

func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ItemRepo) Find(ctx context.Context, warehouseID, variantID id.ID) (*stock.StockItem, error) {
	q := r.builder.Select(itemColumns()...).
		From(itemsTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"variant_id":   variantID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item stock.StockItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return &item, nil
}

func (r *ItemRepo) Insert(ctx context.Context, item *stock.StockItem) (bool, error) {
	// ON CONFLICT DO NOTHING: losing the creation race is a normal
	// outcome the retry loop handles by re-reading.
	q := r.builder.Insert(itemsTable).
		Columns("id", "warehouse_id", "variant_id", "quantity", "version", "created_at", "updated_at").
		Values(item.ID, item.WarehouseID, item.VariantID, item.Quantity, item.Version, item.CreatedAt, item.UpdatedAt).
		Suffix("ON CONFLICT (warehouse_id, variant_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert stock item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ItemRepo) UpdateQuantity(ctx context.Context, itemID id.ID, newQuantity, observedVersion int64) (bool, error) {
	q := r.builder.Update(itemsTable).
		Set("quantity", newQuantity).
		Set("version", observedVersion+1).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":      itemID,
			"version": observedVersion,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update stock item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ItemRepo) List(ctx context.Context, filter stock.ItemFilter) ([]stock.StockItem, error) {
	q := r.builder.Select(itemColumns()...).
		From(itemsTable).
		OrderBy("warehouse_id", "variant_id")

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.VariantID != nil {
		q = q.Where(squirrel.Eq{"variant_id": *filter.VariantID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
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

	var items []stock.StockItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock items: %w", err)
	}
	return items, nil
}

func itemColumns() []string {
	return []string{"id", "warehouse_id", "variant_id", "quantity", "version", "created_at", "updated_at"}
}
