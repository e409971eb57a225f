package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

var _ repository.ScoreRepository = (*DB)(nil)

// CreateScore inserts the score for one day. score.ID and the timestamps are
// filled in on success.
//
// ID GENERATION WITH xid:
// xid IDs are 20 URL-safe characters and sort by creation time, so a list
// ordered by id is also ordered by insertion.
func (db *DB) CreateScore(ctx context.Context, score *model.DailyScore) error {
	now := time.Now().UTC()
	id := xid.New().String()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO daily_scores (id, user_id, score_date, mental_health_score, mental_details, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, score_date) DO NOTHING`,
		id,
		score.UserID,
		score.ScoreDate,
		score.MentalHealthScore,
		detailsText(score.MentalDetails),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating score for %s on %s: %w", score.UserID, score.ScoreDate, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.AlreadyExists(fmt.Sprintf("a score for %s already exists", score.ScoreDate))
	}

	score.ID = id
	score.CreatedAt = now
	score.UpdatedAt = now
	return nil
}

// UpdateScore replaces the score and details of an existing day.
// Returns apperror.ErrNotFound if there is no score for that day.
func (db *DB) UpdateScore(ctx context.Context, score *model.DailyScore) error {
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx,
		`UPDATE daily_scores
		 SET mental_health_score = ?, mental_details = ?, updated_at = ?
		 WHERE user_id = ? AND score_date = ?
		 RETURNING id, created_at`,
		score.MentalHealthScore,
		detailsText(score.MentalDetails),
		now,
		score.UserID,
		score.ScoreDate,
	).Scan(&score.ID, timestamp{&score.CreatedAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("score", score.ScoreDate)
		}
		return fmt.Errorf("sqlite: updating score for %s on %s: %w", score.UserID, score.ScoreDate, err)
	}

	score.UpdatedAt = now
	return nil
}

// ScoresBetween returns the scores dated from..to inclusive, newest first.
func (db *DB) ScoresBetween(ctx context.Context, userID, from, to string) ([]model.DailyScore, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, score_date, mental_health_score, mental_details, created_at, updated_at
		 FROM daily_scores
		 WHERE user_id = ? AND score_date BETWEEN ? AND ?
		 ORDER BY score_date DESC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing scores of %s: %w", userID, err)
	}
	defer rows.Close()

	scores := []model.DailyScore{}
	for rows.Next() {
		var (
			s       model.DailyScore
			details string
		)
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.ScoreDate,
			&s.MentalHealthScore,
			&details,
			timestamp{&s.CreatedAt},
			timestamp{&s.UpdatedAt},
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning score: %w", err)
		}
		s.MentalDetails = []byte(details)
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func detailsText(details []byte) string {
	if len(details) == 0 {
		return "{}"
	}
	return string(details)
}
