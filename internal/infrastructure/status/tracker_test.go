package status

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
)

func TestMemoryTrackerKeepsLatestPerSupplier(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	require.NoError(t, tracker.Set(ctx, RunStatus{SupplierCode: "A113", State: syncdomain.StateProcessing}))
	require.NoError(t, tracker.Set(ctx, RunStatus{SupplierCode: "A113", State: syncdomain.StateCompleted}))

	states, err := tracker.List(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, syncdomain.StateCompleted, states[0].State)
	assert.False(t, states[0].UpdatedAt.IsZero())
}

func TestMemoryTrackerListSorted(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	for _, code := range []string{"Z900", "A113", "A360"} {
		require.NoError(t, tracker.Set(ctx, RunStatus{SupplierCode: code, State: syncdomain.StateIdle}))
	}

	states, err := tracker.List(ctx)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, "A113", states[0].SupplierCode)
	assert.Equal(t, "A360", states[1].SupplierCode)
	assert.Equal(t, "Z900", states[2].SupplierCode)
}

func TestSortBySupplier(t *testing.T) {
	statuses := []RunStatus{
		{SupplierCode: "Z900"},
		{SupplierCode: "A113"},
		{SupplierCode: "A360"},
	}
	sortBySupplier(statuses)
	assert.Equal(t, "A113", statuses[0].SupplierCode)
	assert.Equal(t, "A360", statuses[1].SupplierCode)
	assert.Equal(t, "Z900", statuses[2].SupplierCode)
}

func TestMemoryTrackerEmpty(t *testing.T) {
	states, err := NewMemoryTracker().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, states)
}
