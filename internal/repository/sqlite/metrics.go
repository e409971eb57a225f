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

var _ repository.MetricsRepository = (*DB)(nil)

// UpsertMetrics stores the metrics for one day, replacing any earlier report.
func (db *DB) UpsertMetrics(ctx context.Context, m *model.DeviceMetrics) error {
	return upsertMetrics(ctx, db.conn, m)
}

// UpsertMetricsBatch stores several days in one transaction. If any row fails
// nothing is written.
func (db *DB) UpsertMetricsBatch(ctx context.Context, rows []model.DeviceMetrics) ([]model.DeviceMetrics, error) {
	saved := make([]model.DeviceMetrics, len(rows))
	copy(saved, rows)

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		for i := range saved {
			if err := upsertMetrics(ctx, tx, &saved[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func upsertMetrics(ctx context.Context, q querier, m *model.DeviceMetrics) error {
	now := time.Now().UTC()

	var unlocks sql.NullInt64
	if m.UnlockCount != nil {
		unlocks = sql.NullInt64{Int64: int64(*m.UnlockCount), Valid: true}
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO device_metrics (user_id, local_date, screen_time_minutes, unlock_count, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, local_date) DO UPDATE SET
		   screen_time_minutes = excluded.screen_time_minutes,
		   unlock_count = excluded.unlock_count,
		   updated_at = excluded.updated_at`,
		m.UserID,
		m.LocalDate,
		m.ScreenTimeMinutes,
		unlocks,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting metrics for %s on %s: %w", m.UserID, m.LocalDate, err)
	}

	m.UpdatedAt = now
	return nil
}

// GetMetrics returns one day of metrics.
// Returns apperror.ErrNotFound if nothing was reported for that day.
func (db *DB) GetMetrics(ctx context.Context, userID, date string) (*model.DeviceMetrics, error) {
	m, err := scanMetrics(db.conn.QueryRowContext(ctx,
		`SELECT user_id, local_date, screen_time_minutes, unlock_count, updated_at
		 FROM device_metrics
		 WHERE user_id = ? AND local_date = ?`,
		userID, date,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("device metrics", date)
		}
		return nil, fmt.Errorf("sqlite: getting metrics for %s on %s: %w", userID, date, err)
	}
	return m, nil
}

// MetricsRange returns the days from..to inclusive, oldest first.
func (db *DB) MetricsRange(ctx context.Context, userID, from, to string) ([]model.DeviceMetrics, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, local_date, screen_time_minutes, unlock_count, updated_at
		 FROM device_metrics
		 WHERE user_id = ? AND local_date BETWEEN ? AND ?
		 ORDER BY local_date`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing metrics of %s: %w", userID, err)
	}
	defer rows.Close()

	list := []model.DeviceMetrics{}
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning metrics: %w", err)
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// DeleteMetrics removes one day.
func (db *DB) DeleteMetrics(ctx context.Context, userID, date string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM device_metrics WHERE user_id = ? AND local_date = ?`,
		userID, date,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting metrics for %s on %s: %w", userID, date, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("device metrics", date)
	}
	return nil
}

func scanMetrics(s scanner) (*model.DeviceMetrics, error) {
	var (
		m       model.DeviceMetrics
		unlocks sql.NullInt64
	)
	if err := s.Scan(&m.UserID, &m.LocalDate, &m.ScreenTimeMinutes, &unlocks, timestamp{&m.UpdatedAt}); err != nil {
		return nil, err
	}
	if unlocks.Valid {
		n := int(unlocks.Int64)
		m.UnlockCount = &n
	}
	return &m, nil
}
