package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

var _ repository.LocationRepository = (*DB)(nil)

// UpsertLocation stores the summary for one day, replacing any earlier one.
func (db *DB) UpsertLocation(ctx context.Context, s *model.LocationSummary) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO location_summary (user_id, local_date, location_variance, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, local_date) DO UPDATE SET
		   location_variance = excluded.location_variance,
		   updated_at = excluded.updated_at`,
		s.UserID, s.LocalDate, s.LocationVariance, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting location summary for %s on %s: %w", s.UserID, s.LocalDate, err)
	}

	s.UpdatedAt = now
	return nil
}

// GetLocation returns one day.
// Returns apperror.ErrNotFound if nothing was reported for that day.
func (db *DB) GetLocation(ctx context.Context, userID, date string) (*model.LocationSummary, error) {
	s, err := scanLocation(db.conn.QueryRowContext(ctx,
		`SELECT user_id, local_date, location_variance, updated_at
		 FROM location_summary
		 WHERE user_id = ? AND local_date = ?`,
		userID, date,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("location summary", date)
		}
		return nil, fmt.Errorf("sqlite: getting location summary for %s on %s: %w", userID, date, err)
	}
	return s, nil
}

func (db *DB) LocationRange(ctx context.Context, userID, from, to string) ([]model.LocationSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, local_date, location_variance, updated_at
		 FROM location_summary
		 WHERE user_id = ? AND local_date BETWEEN ? AND ?
		 ORDER BY local_date DESC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing location summaries of %s: %w", userID, err)
	}
	defer rows.Close()

	list := []model.LocationSummary{}
	for rows.Next() {
		s, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning location summary: %w", err)
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func scanLocation(s scanner) (*model.LocationSummary, error) {
	var l model.LocationSummary
	if err := s.Scan(&l.UserID, &l.LocalDate, &l.LocationVariance, timestamp{&l.UpdatedAt}); err != nil {
		return nil, err
	}
	return &l, nil
}
