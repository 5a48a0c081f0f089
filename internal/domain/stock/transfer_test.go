package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

func transferFixture(t *testing.T) (*fixture, context.Context, id.ID, id.ID, id.ID) {
	t.Helper()
	f := newFixture()
	ctx := actorCtx()
	origin := f.warehouses.add("WH-ORIGIN", true)
	destination := f.warehouses.add("WH-DEST", true)
	variantID := f.variants.add("SKU-001", true, nil)
	return f, ctx, origin, destination, variantID
}

func TestCreateDraft(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)

	transfer, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, TransferDraft, transfer.Status)
	assert.Equal(t, "test-operator", transfer.CreatedBy)
	require.Len(t, transfer.Lines, 1)

	// Drafts never touch balances: creating one with no stock anywhere is fine.
	items, err := f.items.List(ctx, ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateDraft_SameWarehouse(t *testing.T) {
	f, ctx, origin, _, variantID := transferFixture(t)

	_, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: origin,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 5}},
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeSameWarehouseTransfer, appErr.Code)
}

func TestCreateDraft_InactiveDestination(t *testing.T) {
	f, ctx, origin, _, variantID := transferFixture(t)
	closed := f.warehouses.add("WH-CLOSED", false)

	_, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: closed,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 5}},
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeWarehouseInactive, appErr.Code)
}

func TestCreateDraft_IdempotentReplay(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)

	input := CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		IdempotencyKey:         "xfer-1",
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 5}},
	}

	first, err := f.service.CreateDraft(ctx, input)
	require.NoError(t, err)

	second, err := f.service.CreateDraft(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Same key, different payload is a conflict.
	input.Lines = []TransferLineInput{{VariantID: variantID, Quantity: 6}}
	_, err = f.service.CreateDraft(ctx, input)
	require.Error(t, err)
	assert.True(t, apperror.IsIdempotencyConflict(err))
}

func TestCreateDraft_ReplayAfterConfirm(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)
	seedStock(t, f, ctx, origin, variantID, 10)

	input := CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		IdempotencyKey:         "xfer-1",
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 5}},
	}

	draft, err := f.service.CreateDraft(ctx, input)
	require.NoError(t, err)
	_, err = f.service.Confirm(ctx, draft.ID)
	require.NoError(t, err)

	// Replaying the create returns the now-confirmed transfer; it does
	// not spawn a second draft.
	replayed, err := f.service.CreateDraft(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, replayed.ID)
	assert.Equal(t, TransferConfirmed, replayed.Status)
}

func TestConfirm_MovesStock(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)
	seedStock(t, f, ctx, origin, variantID, 10)

	draft, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 4}},
	})
	require.NoError(t, err)

	confirmed, err := f.service.Confirm(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, TransferConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.OutboundEventID)
	require.NotNil(t, confirmed.InboundEventID)
	require.NotNil(t, confirmed.ConfirmedBy)
	assert.Equal(t, "test-operator", *confirmed.ConfirmedBy)

	originItem, err := f.items.Find(ctx, origin, variantID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), originItem.Quantity)

	destinationItem, err := f.items.Find(ctx, destination, variantID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), destinationItem.Quantity)

	// The linked events carry transfer reason codes.
	outbound, err := f.events.GetByID(ctx, *confirmed.OutboundEventID)
	require.NoError(t, err)
	assert.Equal(t, EventOutbound, outbound.Type)
	assert.Equal(t, ReasonTransferOut, outbound.ReasonCode)

	inbound, err := f.events.GetByID(ctx, *confirmed.InboundEventID)
	require.NoError(t, err)
	assert.Equal(t, EventInbound, inbound.Type)
	assert.Equal(t, ReasonTransferIn, inbound.ReasonCode)
}

func TestConfirm_InsufficientStockRollsBack(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)
	seedStock(t, f, ctx, origin, variantID, 3)

	draft, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = f.service.Confirm(ctx, draft.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing moved and the transfer is still confirmable.
	originItem, findErr := f.items.Find(ctx, origin, variantID)
	require.NoError(t, findErr)
	assert.Equal(t, int64(3), originItem.Quantity)

	destinationItem, findErr := f.items.Find(ctx, destination, variantID)
	require.NoError(t, findErr)
	assert.Nil(t, destinationItem)

	stored, findErr := f.service.GetTransfer(ctx, draft.ID)
	require.NoError(t, findErr)
	assert.Equal(t, TransferDraft, stored.Status)

	// Topping up the origin lets the same draft confirm.
	seedStock(t, f, ctx, origin, variantID, 2)
	_, err = f.service.Confirm(ctx, draft.ID)
	require.NoError(t, err)
}

func TestConfirm_NotDraft(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)
	seedStock(t, f, ctx, origin, variantID, 10)

	draft, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 4}},
	})
	require.NoError(t, err)

	_, err = f.service.Confirm(ctx, draft.ID)
	require.NoError(t, err)

	// Second confirm is rejected, not replayed, and moves no stock.
	_, err = f.service.Confirm(ctx, draft.ID)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeTransferNotDraft, appErr.Code)

	originItem, findErr := f.items.Find(ctx, origin, variantID)
	require.NoError(t, findErr)
	assert.Equal(t, int64(6), originItem.Quantity)
}

func TestCancel(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)

	draft, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 4}},
	})
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, TransferCancelled, cancelled.Status)

	// Cancelling twice, or confirming a cancelled transfer, is rejected.
	_, err = f.service.Cancel(ctx, draft.ID)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeTransferNotDraft, appErr.Code)

	_, err = f.service.Confirm(ctx, draft.ID)
	require.Error(t, err)
	appErr, _ = apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeTransferNotDraft, appErr.Code)
}

func TestConfirm_RequiresActor(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)

	draft, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 4}},
	})
	require.NoError(t, err)

	_, err = f.service.Confirm(context.Background(), draft.ID)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

// Receive 100, ship 30, transfer 50, expect 20 at origin and 50 at
// destination with a four-event trail.
func TestLedgerAndTransferFlow(t *testing.T) {
	f, ctx, origin, destination, variantID := transferFixture(t)

	_, err := f.ledger.ApplyEvent(ctx, ApplyEventInput{
		Type:        EventInbound,
		WarehouseID: origin,
		ReasonCode:  ReasonPurchase,
		Lines:       []EventLineInput{{VariantID: variantID, Quantity: 100}},
	})
	require.NoError(t, err)

	_, err = f.ledger.ApplyEvent(ctx, ApplyEventInput{
		Type:        EventOutbound,
		WarehouseID: origin,
		ReasonCode:  ReasonSale,
		Lines:       []EventLineInput{{VariantID: variantID, Quantity: 30}},
	})
	require.NoError(t, err)

	draft, err := f.service.CreateDraft(ctx, CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines:                  []TransferLineInput{{VariantID: variantID, Quantity: 50}},
	})
	require.NoError(t, err)
	_, err = f.service.Confirm(ctx, draft.ID)
	require.NoError(t, err)

	originItem, err := f.items.Find(ctx, origin, variantID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), originItem.Quantity)

	destinationItem, err := f.items.Find(ctx, destination, variantID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), destinationItem.Quantity)

	events, err := f.events.List(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func seedStock(t *testing.T, f *fixture, ctx context.Context, warehouseID, variantID id.ID, quantity int64) {
	t.Helper()
	_, err := f.ledger.ApplyEvent(ctx, ApplyEventInput{
		Type:        EventInbound,
		WarehouseID: warehouseID,
		ReasonCode:  ReasonPurchase,
		Lines:       []EventLineInput{{VariantID: variantID, Quantity: quantity}},
	})
	require.NoError(t, err)
}
