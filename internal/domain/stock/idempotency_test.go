package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

func TestHashEventPayload_LineOrderIrrelevant(t *testing.T) {
	warehouseID := id.New()
	variantA, variantB := id.New(), id.New()

	first := HashEventPayload(ApplyEventInput{
		Type:        EventInbound,
		WarehouseID: warehouseID,
		Lines: []EventLineInput{
			{VariantID: variantA, Quantity: 1},
			{VariantID: variantB, Quantity: 2},
		},
	})
	second := HashEventPayload(ApplyEventInput{
		Type:        EventInbound,
		WarehouseID: warehouseID,
		Lines: []EventLineInput{
			{VariantID: variantB, Quantity: 2},
			{VariantID: variantA, Quantity: 1},
		},
	})
	assert.Equal(t, first, second)
}

func TestHashEventPayload_OccurredAtExcluded(t *testing.T) {
	warehouseID := id.New()
	variantID := id.New()
	base := ApplyEventInput{
		Type:        EventInbound,
		WarehouseID: warehouseID,
		Lines:       []EventLineInput{{VariantID: variantID, Quantity: 1}},
	}
	withTime := base
	withTime.OccurredAt = time.Now().UTC()

	assert.Equal(t, HashEventPayload(base), HashEventPayload(withTime))
}

func TestHashEventPayload_SensitiveToContent(t *testing.T) {
	warehouseID := id.New()
	variantID := id.New()
	base := ApplyEventInput{
		Type:        EventInbound,
		WarehouseID: warehouseID,
		ReasonCode:  ReasonPurchase,
		Notes:       "restock",
		Lines:       []EventLineInput{{VariantID: variantID, Quantity: 1}},
	}

	changed := base
	changed.Lines = []EventLineInput{{VariantID: variantID, Quantity: 2}}
	assert.NotEqual(t, HashEventPayload(base), HashEventPayload(changed))

	changed = base
	changed.Type = EventOutbound
	assert.NotEqual(t, HashEventPayload(base), HashEventPayload(changed))

	changed = base
	changed.ReasonCode = ReasonOther
	assert.NotEqual(t, HashEventPayload(base), HashEventPayload(changed))

	changed = base
	changed.Notes = "different"
	assert.NotEqual(t, HashEventPayload(base), HashEventPayload(changed))
}

func TestHashEventPayload_NotesWhitespaceNormalized(t *testing.T) {
	warehouseID := id.New()
	variantID := id.New()
	base := ApplyEventInput{
		Type:        EventInbound,
		WarehouseID: warehouseID,
		Notes:       "restock",
		Lines:       []EventLineInput{{VariantID: variantID, Quantity: 1}},
	}
	padded := base
	padded.Notes = "  restock  "

	assert.Equal(t, HashEventPayload(base), HashEventPayload(padded))
}

func TestHashTransferPayload_Stable(t *testing.T) {
	origin, destination := id.New(), id.New()
	variantA, variantB := id.New(), id.New()

	first := HashTransferPayload(CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		Lines: []TransferLineInput{
			{VariantID: variantA, Quantity: 3},
			{VariantID: variantB, Quantity: 4},
		},
	})
	second := HashTransferPayload(CreateTransferInput{
		OriginWarehouseID:      origin,
		DestinationWarehouseID: destination,
		OccurredAt:             time.Now().UTC(),
		Lines: []TransferLineInput{
			{VariantID: variantB, Quantity: 4},
			{VariantID: variantA, Quantity: 3},
		},
	})
	assert.Equal(t, first, second)

	swapped := HashTransferPayload(CreateTransferInput{
		OriginWarehouseID:      destination,
		DestinationWarehouseID: origin,
		Lines: []TransferLineInput{
			{VariantID: variantA, Quantity: 3},
			{VariantID: variantB, Quantity: 4},
		},
	})
	assert.NotEqual(t, first, swapped)
}

func TestResolveReplay(t *testing.T) {
	hash := "abc123"
	other := "def456"

	require.NoError(t, resolveReplay("key", &hash, hash))

	err := resolveReplay("key", &hash, other)
	require.Error(t, err)
	assert.True(t, apperror.IsIdempotencyConflict(err))

	// A record stored without a hash never matches a keyed retry.
	err = resolveReplay("key", nil, hash)
	require.Error(t, err)
	assert.True(t, apperror.IsIdempotencyConflict(err))
}
