// Package stock_repo provides PostgreSQL implementations for the stock
// ledger repositories.
package stock_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockshift/internal/core/id"
	"stockshift/internal/domain/stock"
	"stockshift/internal/infrastructure/storage/postgres"
)

const (
	eventsTable     = "stock_events"
	eventLinesTable = "stock_event_lines"
)

const uniqueViolation = "23505"

// isDuplicateKey reports whether err is a unique violation on an
// idempotency key index.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// EventRepo implements stock.EventRepository.
type EventRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.EventRepository = (*EventRepo)(nil)

func NewEventRepo(txm *postgres.TxManager) *EventRepo {
	return &EventRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *EventRepo) Create(ctx context.Context, event *stock.StockEvent) error {
	q := r.builder.Insert(eventsTable).
		Columns("id", "type", "warehouse_id", "occurred_at", "reason_code",
			"idempotency_key", "payload_hash", "notes", "created_by", "created_at").
		Values(event.ID, event.Type, event.WarehouseID, event.OccurredAt, event.ReasonCode,
			event.IdempotencyKey, event.PayloadHash, event.Notes, event.CreatedBy, event.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert event: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isDuplicateKey(err) {
			return stock.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert event: %w", err)
	}

	// Fast path: COPY when inside a transaction, which ApplyEvent
	// always is.
	if r.txm.GetTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		columns := []string{"id", "event_id", "variant_id", "quantity", "created_at"}
		rows := make([][]any, 0, len(event.Lines))
		for _, line := range event.Lines {
			rows = append(rows, []any{line.ID, line.EventID, line.VariantID, line.Quantity, line.CreatedAt})
		}
		if _, err := inserter.CopyFromSlice(ctx, eventLinesTable, columns, rows); err != nil {
			return fmt.Errorf("copy event lines: %w", err)
		}
		return nil
	}

	lq := r.builder.Insert(eventLinesTable).
		Columns("id", "event_id", "variant_id", "quantity", "created_at")
	for _, line := range event.Lines {
		lq = lq.Values(line.ID, line.EventID, line.VariantID, line.Quantity, line.CreatedAt)
	}

	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert event lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert event lines: %w", err)
	}

	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, eventID id.ID) (*stock.StockEvent, error) {
	return r.getOne(ctx, squirrel.Eq{"id": eventID})
}

func (r *EventRepo) FindByIdempotencyKey(ctx context.Context, key string) (*stock.StockEvent, error) {
	return r.getOne(ctx, squirrel.Eq{"idempotency_key": key})
}

func (r *EventRepo) getOne(ctx context.Context, where squirrel.Eq) (*stock.StockEvent, error) {
	q := r.builder.Select(eventColumns()...).
		From(eventsTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var event stock.StockEvent
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &event, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if err := r.loadLines(ctx, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepo) loadLines(ctx context.Context, event *stock.StockEvent) error {
	q := r.builder.Select("id", "event_id", "variant_id", "quantity", "created_at").
		From(eventLinesTable).
		Where(squirrel.Eq{"event_id": event.ID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &event.Lines, sql, args...); err != nil {
		return fmt.Errorf("select event lines: %w", err)
	}
	return nil
}

func (r *EventRepo) List(ctx context.Context, filter stock.EventFilter) ([]*stock.StockEvent, error) {
	q := r.builder.Select(eventColumns()...).
		From(eventsTable).
		OrderBy("occurred_at DESC", "id DESC")

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.ReasonCode != nil {
		q = q.Where(squirrel.Eq{"reason_code": *filter.ReasonCode})
	}
	if filter.VariantID != nil {
		q = q.Where(squirrel.Expr(
			"id IN (SELECT event_id FROM "+eventLinesTable+" WHERE variant_id = ?)",
			*filter.VariantID))
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

	var events []*stock.StockEvent
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &events, sql, args...); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}

	for _, event := range events {
		if err := r.loadLines(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func eventColumns() []string {
	return []string{
		"id", "type", "warehouse_id", "occurred_at", "reason_code",
		"idempotency_key", "payload_hash", "notes", "created_by", "created_at",
	}
}
