package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

func TestRetryPolicy_LazyRowCreation(t *testing.T) {
	items := newMemItemRepo()
	policy := NewRetryPolicy(items, 3)
	warehouseID, variantID := id.New(), id.New()

	item, err := policy.ApplyDelta(context.Background(), warehouseID, variantID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.Quantity)
	assert.Equal(t, int64(1), item.Version)
}

func TestRetryPolicy_NegativeDeltaOnMissingRow(t *testing.T) {
	items := newMemItemRepo()
	policy := NewRetryPolicy(items, 3)

	_, err := policy.ApplyDelta(context.Background(), id.New(), id.New(), -4)
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(4), appErr.Details["requested"])
	assert.Equal(t, int64(0), appErr.Details["available"])
}

func TestRetryPolicy_VersionBumpsPerUpdate(t *testing.T) {
	items := newMemItemRepo()
	policy := NewRetryPolicy(items, 3)
	warehouseID, variantID := id.New(), id.New()
	ctx := context.Background()

	_, err := policy.ApplyDelta(ctx, warehouseID, variantID, 10)
	require.NoError(t, err)

	item, err := policy.ApplyDelta(ctx, warehouseID, variantID, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.Quantity)
	assert.Equal(t, int64(2), item.Version)

	item, err = policy.ApplyDelta(ctx, warehouseID, variantID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), item.Quantity)
	assert.Equal(t, int64(3), item.Version)
}

func TestRetryPolicy_RecoversFromLostRaces(t *testing.T) {
	items := newMemItemRepo()
	policy := NewRetryPolicy(items, 5)
	warehouseID, variantID := id.New(), id.New()
	ctx := context.Background()

	_, err := policy.ApplyDelta(ctx, warehouseID, variantID, 10)
	require.NoError(t, err)

	// Two lost races still leave headroom within five attempts.
	items.failUpdates = 2
	item, err := policy.ApplyDelta(ctx, warehouseID, variantID, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(9), item.Quantity)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	items := newMemItemRepo()
	policy := NewRetryPolicy(items, 3)
	warehouseID, variantID := id.New(), id.New()
	ctx := context.Background()

	_, err := policy.ApplyDelta(ctx, warehouseID, variantID, 10)
	require.NoError(t, err)

	items.failUpdates = 3
	_, err = policy.ApplyDelta(ctx, warehouseID, variantID, -1)
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrencyConflict(err))

	// Balance untouched after exhaustion.
	item, findErr := items.Find(ctx, warehouseID, variantID)
	require.NoError(t, findErr)
	assert.Equal(t, int64(10), item.Quantity)
}

func TestRetryPolicy_DefaultsAttempts(t *testing.T) {
	policy := NewRetryPolicy(newMemItemRepo(), 0)
	assert.Equal(t, DefaultMaxRetries, policy.MaxAttempts)
}
