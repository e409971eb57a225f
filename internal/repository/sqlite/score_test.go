package sqlite

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
)

func TestCreateScore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice", "alice")

	s := &model.DailyScore{
		UserID:            "alice",
		ScoreDate:         "2026-10-18",
		MentalHealthScore: 72,
		MentalDetails:     json.RawMessage(`{"mood":"calm"}`),
	}
	require.NoError(t, db.CreateScore(ctx, s))
	assert.Len(t, s.ID, 20, "xid string length")
	assert.False(t, s.CreatedAt.IsZero())

	dup := &model.DailyScore{UserID: "alice", ScoreDate: "2026-10-18", MentalHealthScore: 10}
	assert.ErrorIs(t, db.CreateScore(ctx, dup), apperror.ErrAlreadyExists)
}

func TestUpdateScore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice", "alice")

	missing := &model.DailyScore{UserID: "alice", ScoreDate: "2026-10-18", MentalHealthScore: 50}
	assert.ErrorIs(t, db.UpdateScore(ctx, missing), apperror.ErrNotFound)

	orig := &model.DailyScore{UserID: "alice", ScoreDate: "2026-10-18", MentalHealthScore: 50}
	require.NoError(t, db.CreateScore(ctx, orig))

	upd := &model.DailyScore{
		UserID:            "alice",
		ScoreDate:         "2026-10-18",
		MentalHealthScore: 90,
		MentalDetails:     json.RawMessage(`{"sleep":8}`),
	}
	require.NoError(t, db.UpdateScore(ctx, upd))
	assert.Equal(t, orig.ID, upd.ID)

	got, err := db.ScoresBetween(ctx, "alice", "2026-10-18", "2026-10-18")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 90, got[0].MentalHealthScore)
	assert.JSONEq(t, `{"sleep":8}`, string(got[0].MentalDetails))
}

func TestScoresBetween(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice", "alice")

	for _, d := range []string{"2026-10-01", "2026-10-10", "2026-10-17", "2026-10-18"} {
		require.NoError(t, db.CreateScore(ctx, &model.DailyScore{UserID: "alice", ScoreDate: d, MentalHealthScore: 60}))
	}

	got, err := db.ScoresBetween(ctx, "alice", "2026-10-10", "2026-10-17")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-10-17", got[0].ScoreDate)
	assert.Equal(t, "2026-10-10", got[1].ScoreDate)
	assert.JSONEq(t, `{}`, string(got[0].MentalDetails))
}
