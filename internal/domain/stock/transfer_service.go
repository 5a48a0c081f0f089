package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockshift/internal/core/apperror"
	appctx "stockshift/internal/core/context"
	"stockshift/internal/core/id"
	"stockshift/internal/core/tx"
	"stockshift/pkg/logger"
)

// TransferService drives the two-phase transfer protocol. A draft
// reserves nothing and touches no balances; confirmation materializes
// the movement as an OUTBOUND event at the origin and an INBOUND event
// at the destination inside a single transaction.
type TransferService struct {
	transfers  TransferRepository
	warehouses WarehouseDirectory
	variants   VariantCatalog
	ledger     *Ledger
	txManager  tx.Manager
}

func NewTransferService(
	transfers TransferRepository,
	warehouses WarehouseDirectory,
	variants VariantCatalog,
	ledger *Ledger,
	txManager tx.Manager,
) *TransferService {
	return &TransferService{
		transfers:  transfers,
		warehouses: warehouses,
		variants:   variants,
		ledger:     ledger,
		txManager:  txManager,
	}
}

// CreateDraft validates and records a transfer in DRAFT status.
// Idempotency keys are scoped to draft creation: replaying the same
// payload returns the stored draft regardless of its current status.
func (s *TransferService) CreateDraft(ctx context.Context, input CreateTransferInput) (*StockTransfer, error) {
	actor := appctx.GetActor(ctx)
	if actor == nil {
		return nil, apperror.NewForbidden("authenticated actor required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	hash := HashTransferPayload(input)

	if key != "" {
		existing, err := s.transfers.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := resolveReplay(key, existing.PayloadHash, hash); err != nil {
				return nil, err
			}
			logger.Info(ctx, "transfer draft replayed by idempotency key",
				"transfer_id", existing.ID, "idempotency_key", key)
			return existing, nil
		}
	}

	if _, err := s.resolveActiveWarehouse(ctx, input.OriginWarehouseID); err != nil {
		return nil, err
	}
	if _, err := s.resolveActiveWarehouse(ctx, input.DestinationWarehouseID); err != nil {
		return nil, err
	}

	occurredAt := input.OccurredAt.UTC()
	if input.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	for _, line := range input.Lines {
		variant, err := s.variants.Get(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, apperror.NewNotFound("variant", line.VariantID.String())
		}
		if !variant.Active {
			return nil, apperror.NewVariantInactive(variant.ID.String())
		}
	}

	now := time.Now().UTC()
	transfer := &StockTransfer{
		ID:                     id.New(),
		OriginWarehouseID:      input.OriginWarehouseID,
		DestinationWarehouseID: input.DestinationWarehouseID,
		Status:                 TransferDraft,
		OccurredAt:             occurredAt,
		Notes:                  strings.TrimSpace(input.Notes),
		CreatedBy:              actor.ActorID,
		CreatedAt:              now,
	}
	if key != "" {
		transfer.IdempotencyKey = &key
		transfer.PayloadHash = &hash
	}
	transfer.Lines = make([]StockTransferLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		transfer.Lines = append(transfer.Lines, StockTransferLine{
			ID:         id.New(),
			TransferID: transfer.ID,
			VariantID:  line.VariantID,
			Quantity:   line.Quantity,
			CreatedAt:  now,
		})
	}

	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.transfers.Create(txCtx, transfer)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateIdempotencyKey) && key != "" {
			return s.recoverDuplicateKey(ctx, key, hash)
		}
		return nil, err
	}

	logger.Info(ctx, "transfer draft created",
		"transfer_id", transfer.ID,
		"origin_warehouse_id", transfer.OriginWarehouseID,
		"destination_warehouse_id", transfer.DestinationWarehouseID,
		"lines", len(transfer.Lines))
	return transfer, nil
}

func (s *TransferService) recoverDuplicateKey(ctx context.Context, key, hash string) (*StockTransfer, error) {
	existing, err := s.transfers.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NewConcurrencyConflict("stock_transfer", key)
	}
	if err := resolveReplay(key, existing.PayloadHash, hash); err != nil {
		return nil, err
	}
	logger.Info(ctx, "transfer draft replayed after duplicate key race",
		"transfer_id", existing.ID, "idempotency_key", key)
	return existing, nil
}

// Confirm executes a draft transfer. The outbound event, the inbound
// event and the status transition commit together; insufficient stock
// at the origin rolls everything back and the transfer stays DRAFT.
func (s *TransferService) Confirm(ctx context.Context, transferID id.ID) (*StockTransfer, error) {
	actor := appctx.GetActor(ctx)
	if actor == nil {
		return nil, apperror.NewForbidden("authenticated actor required")
	}

	var confirmed *StockTransfer
	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		transfer, err := s.transfers.GetByID(txCtx, transferID)
		if err != nil {
			return err
		}
		if transfer == nil {
			return apperror.NewNotFound("stock_transfer", transferID.String())
		}
		if err := transfer.EnsureDraft(); err != nil {
			return err
		}

		origin, err := s.resolveActiveWarehouse(txCtx, transfer.OriginWarehouseID)
		if err != nil {
			return err
		}
		destination, err := s.resolveActiveWarehouse(txCtx, transfer.DestinationWarehouseID)
		if err != nil {
			return err
		}

		lines := make([]EventLineInput, 0, len(transfer.Lines))
		for _, line := range transfer.Lines {
			lines = append(lines, EventLineInput{VariantID: line.VariantID, Quantity: line.Quantity})
		}

		outbound, err := s.ledger.ApplyEvent(txCtx, ApplyEventInput{
			Type:        EventOutbound,
			WarehouseID: transfer.OriginWarehouseID,
			OccurredAt:  transfer.OccurredAt,
			ReasonCode:  ReasonTransferOut,
			Notes:       fmt.Sprintf("Transfer %s to %s", transfer.ID, destination.Code),
			Lines:       lines,
		})
		if err != nil {
			return err
		}

		inbound, err := s.ledger.ApplyEvent(txCtx, ApplyEventInput{
			Type:        EventInbound,
			WarehouseID: transfer.DestinationWarehouseID,
			OccurredAt:  transfer.OccurredAt,
			ReasonCode:  ReasonTransferIn,
			Notes:       fmt.Sprintf("Transfer %s from %s", transfer.ID, origin.Code),
			Lines:       lines,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		transfer.Status = TransferConfirmed
		transfer.ConfirmedBy = &actor.ActorID
		transfer.ConfirmedAt = &now
		transfer.OutboundEventID = &outbound.ID
		transfer.InboundEventID = &inbound.ID

		ok, err := s.transfers.MarkConfirmed(txCtx, transfer)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewTransferNotDraft(transfer.ID.String(), string(transfer.Status))
		}

		confirmed = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer confirmed",
		"transfer_id", confirmed.ID,
		"outbound_event_id", confirmed.OutboundEventID,
		"inbound_event_id", confirmed.InboundEventID)
	return confirmed, nil
}

// Cancel voids a draft transfer. No balances are touched.
func (s *TransferService) Cancel(ctx context.Context, transferID id.ID) (*StockTransfer, error) {
	actor := appctx.GetActor(ctx)
	if actor == nil {
		return nil, apperror.NewForbidden("authenticated actor required")
	}

	var cancelled *StockTransfer
	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		transfer, err := s.transfers.GetByID(txCtx, transferID)
		if err != nil {
			return err
		}
		if transfer == nil {
			return apperror.NewNotFound("stock_transfer", transferID.String())
		}
		if err := transfer.EnsureDraft(); err != nil {
			return err
		}

		ok, err := s.transfers.MarkCancelled(txCtx, transfer.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewTransferNotDraft(transfer.ID.String(), string(transfer.Status))
		}

		transfer.Status = TransferCancelled
		cancelled = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer cancelled", "transfer_id", cancelled.ID)
	return cancelled, nil
}

// GetTransfer loads one transfer with its lines.
func (s *TransferService) GetTransfer(ctx context.Context, transferID id.ID) (*StockTransfer, error) {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, apperror.NewNotFound("stock_transfer", transferID.String())
	}
	return transfer, nil
}

// ListTransfers returns transfers matching the filter.
func (s *TransferService) ListTransfers(ctx context.Context, filter TransferFilter) ([]*StockTransfer, error) {
	return s.transfers.List(ctx, filter)
}

func (s *TransferService) resolveActiveWarehouse(ctx context.Context, warehouseID id.ID) (*WarehouseRef, error) {
	warehouse, err := s.warehouses.Get(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	if !warehouse.Active {
		return nil, apperror.NewWarehouseInactive(warehouse.ID.String())
	}
	return warehouse, nil
}
