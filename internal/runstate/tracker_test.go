package runstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/infrastructure/kvstore"
)

func TestTrackerProgressRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := NewTracker(kvstore.NewMemory(), nil)

	update := domain.Progress{
		Current:        3,
		Total:          15,
		CurrentAccount: "peer3",
		Status:         domain.StatusAnalyzing,
		Stage:          domain.StageAnalyzing,
	}
	require.NoError(t, tracker.WriteProgress(ctx, "alice", update))

	got, err := tracker.Progress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, update, got)

	// The fixed key is overwritten, not appended.
	update.Current = 4
	update.CurrentAccount = "peer4"
	require.NoError(t, tracker.WriteProgress(ctx, "alice", update))

	got, err = tracker.Progress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Current)
	assert.Equal(t, "peer4", got.CurrentAccount)
}

func TestTrackerCancellationFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := NewTracker(kvstore.NewMemory(), nil)

	cancelled, err := tracker.Cancelled(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, cancelled, "missing flag means not cancelled")

	require.NoError(t, tracker.RequestCancel(ctx, "alice"))

	cancelled, err = tracker.Cancelled(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, cancelled)

	// Flags are per-account.
	cancelled, err = tracker.Cancelled(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, cancelled)

	require.NoError(t, tracker.ClearCancel(ctx, "alice"))
	cancelled, err = tracker.Cancelled(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, cancelled)
}
