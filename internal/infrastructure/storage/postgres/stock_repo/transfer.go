package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockshift/internal/core/id"
	"stockshift/internal/domain/stock"
	"stockshift/internal/infrastructure/storage/postgres"
)

const (
	transfersTable     = "stock_transfers"
	transferLinesTable = "stock_transfer_lines"
)

// TransferRepo implements stock.TransferRepository. Status transitions
// are guarded by WHERE status = 'DRAFT'; the row count reports whether
// the transition happened.
type TransferRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.TransferRepository = (*TransferRepo)(nil)

func NewTransferRepo(txm *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TransferRepo) Create(ctx context.Context, transfer *stock.StockTransfer) error {
	q := r.builder.Insert(transfersTable).
		Columns("id", "origin_warehouse_id", "destination_warehouse_id", "status",
			"occurred_at", "idempotency_key", "payload_hash", "notes",
			"created_by", "created_at").
		Values(transfer.ID, transfer.OriginWarehouseID, transfer.DestinationWarehouseID, transfer.Status,
			transfer.OccurredAt, transfer.IdempotencyKey, transfer.PayloadHash, transfer.Notes,
			transfer.CreatedBy, transfer.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert transfer: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isDuplicateKey(err) {
			return stock.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert transfer: %w", err)
	}

	lq := r.builder.Insert(transferLinesTable).
		Columns("id", "transfer_id", "variant_id", "quantity", "created_at")
	for _, line := range transfer.Lines {
		lq = lq.Values(line.ID, line.TransferID, line.VariantID, line.Quantity, line.CreatedAt)
	}

	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert transfer lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transfer lines: %w", err)
	}

	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, transferID id.ID) (*stock.StockTransfer, error) {
	return r.getOne(ctx, squirrel.Eq{"id": transferID})
}

func (r *TransferRepo) FindByIdempotencyKey(ctx context.Context, key string) (*stock.StockTransfer, error) {
	return r.getOne(ctx, squirrel.Eq{"idempotency_key": key})
}

func (r *TransferRepo) getOne(ctx context.Context, where squirrel.Eq) (*stock.StockTransfer, error) {
	q := r.builder.Select(transferColumns()...).
		From(transfersTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transfer stock.StockTransfer
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &transfer, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}

	if err := r.loadLines(ctx, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *TransferRepo) loadLines(ctx context.Context, transfer *stock.StockTransfer) error {
	q := r.builder.Select("id", "transfer_id", "variant_id", "quantity", "created_at").
		From(transferLinesTable).
		Where(squirrel.Eq{"transfer_id": transfer.ID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &transfer.Lines, sql, args...); err != nil {
		return fmt.Errorf("select transfer lines: %w", err)
	}
	return nil
}

func (r *TransferRepo) MarkConfirmed(ctx context.Context, transfer *stock.StockTransfer) (bool, error) {
	q := r.builder.Update(transfersTable).
		Set("status", stock.TransferConfirmed).
		Set("confirmed_by", transfer.ConfirmedBy).
		Set("confirmed_at", transfer.ConfirmedAt).
		Set("outbound_event_id", transfer.OutboundEventID).
		Set("inbound_event_id", transfer.InboundEventID).
		Where(squirrel.Eq{
			"id":     transfer.ID,
			"status": stock.TransferDraft,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("confirm transfer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TransferRepo) MarkCancelled(ctx context.Context, transferID id.ID) (bool, error) {
	q := r.builder.Update(transfersTable).
		Set("status", stock.TransferCancelled).
		Where(squirrel.Eq{
			"id":     transferID,
			"status": stock.TransferDraft,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("cancel transfer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TransferRepo) List(ctx context.Context, filter stock.TransferFilter) ([]*stock.StockTransfer, error) {
	q := r.builder.Select(transferColumns()...).
		From(transfersTable).
		OrderBy("created_at DESC", "id DESC")

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.OriginWarehouseID != nil {
		q = q.Where(squirrel.Eq{"origin_warehouse_id": *filter.OriginWarehouseID})
	}
	if filter.DestinationWarehouseID != nil {
		q = q.Where(squirrel.Eq{"destination_warehouse_id": *filter.DestinationWarehouseID})
	}
	if filter.OccurredFrom != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.OccurredFrom})
	}
	if filter.OccurredTo != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *filter.OccurredTo})
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

	var transfers []*stock.StockTransfer
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &transfers, sql, args...); err != nil {
		return nil, fmt.Errorf("select transfers: %w", err)
	}

	for _, transfer := range transfers {
		if err := r.loadLines(ctx, transfer); err != nil {
			return nil, err
		}
	}
	return transfers, nil
}

func transferColumns() []string {
	return []string{
		"id", "origin_warehouse_id", "destination_warehouse_id", "status",
		"occurred_at", "idempotency_key", "payload_hash", "notes",
		"created_by", "created_at", "confirmed_by", "confirmed_at",
		"outbound_event_id", "inbound_event_id",
	}
}
