package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
)

func TestUpsertLocation_LastWriteWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice", "alice")

	require.NoError(t, db.UpsertLocation(ctx, &model.LocationSummary{UserID: "alice", LocalDate: "2026-10-18", LocationVariance: 0.8}))
	s := &model.LocationSummary{UserID: "alice", LocalDate: "2026-10-18", LocationVariance: 0.25}
	require.NoError(t, db.UpsertLocation(ctx, s))
	assert.False(t, s.UpdatedAt.IsZero())

	got, err := db.GetLocation(ctx, "alice", "2026-10-18")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got.LocationVariance, 1e-9)

	_, err = db.GetLocation(ctx, "alice", "2026-10-17")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = db.UpsertLocation(ctx, &model.LocationSummary{UserID: "alice", LocalDate: "2026-10-16", LocationVariance: -1})
	assert.Error(t, err, "negative variance violates CHECK")
}

func TestLocationRange_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice", "alice")
	createTestUser(t, db, "bob", "bob")

	for _, d := range []string{"2026-10-01", "2026-10-10", "2026-10-12", "2026-10-20"} {
		require.NoError(t, db.UpsertLocation(ctx, &model.LocationSummary{UserID: "alice", LocalDate: d, LocationVariance: 1}))
	}
	require.NoError(t, db.UpsertLocation(ctx, &model.LocationSummary{UserID: "bob", LocalDate: "2026-10-11", LocationVariance: 1}))

	got, err := db.LocationRange(ctx, "alice", "2026-10-10", "2026-10-12")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-10-12", got[0].LocalDate)
	assert.Equal(t, "2026-10-10", got[1].LocalDate)

	none, err := db.LocationRange(ctx, "alice", "2026-11-01", "2026-11-30")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
