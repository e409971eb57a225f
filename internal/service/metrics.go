package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

const (
	// DefaultMetricsWindowDays is the range returned when the caller gives
	// no bounds: today and the 13 days before it.
	DefaultMetricsWindowDays = 14

	MaxMetricsBatch = 366
)

// MetricsService stores the phone usage reported by the client each day.
type MetricsService struct {
	repo   repository.MetricsRepository
	cal    Calendar
	logger *slog.Logger
}

func NewMetricsService(repo repository.MetricsRepository, cal Calendar, logger *slog.Logger) *MetricsService {
	return &MetricsService{
		repo:   repo,
		cal:    cal,
		logger: logger,
	}
}

// check validates one row and stamps it with the caller's ID. A row that
// names a different user is refused outright.
func (s *MetricsService) check(me model.Principal, m *model.DeviceMetrics) error {
	if m.UserID != "" && m.UserID != me.UserID {
		return apperror.Forbidden("cannot write metrics for another user")
	}
	m.UserID = me.UserID

	day, err := s.cal.ParseDate("local_date", m.LocalDate)
	if err != nil {
		return err
	}
	m.LocalDate = day.Format(model.DateLayout)

	if m.ScreenTimeMinutes < 0 {
		return apperror.ValidationFailed("screen_time_minutes", "screen_time_minutes must not be negative")
	}
	if m.UnlockCount != nil && *m.UnlockCount < 0 {
		return apperror.ValidationFailed("unlock_count", "unlock_count must not be negative")
	}
	return nil
}

// Upsert stores one day of metrics, replacing any earlier report.
func (s *MetricsService) Upsert(ctx context.Context, me model.Principal, m model.DeviceMetrics) (*model.DeviceMetrics, error) {
	if err := s.check(me, &m); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertMetrics(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertBatch validates every row before writing any, then stores them all
// in one unit of work.
func (s *MetricsService) UpsertBatch(ctx context.Context, me model.Principal, rows []model.DeviceMetrics) ([]model.DeviceMetrics, error) {
	if len(rows) == 0 {
		return nil, apperror.ValidationFailed("rows", "at least one row is required")
	}
	if len(rows) > MaxMetricsBatch {
		return nil, apperror.ValidationFailed("rows",
			fmt.Sprintf("at most %d rows per batch", MaxMetricsBatch))
	}

	checked := make([]model.DeviceMetrics, len(rows))
	for i, row := range rows {
		if err := s.check(me, &row); err != nil {
			return nil, err
		}
		checked[i] = row
	}

	saved, err := s.repo.UpsertMetricsBatch(ctx, checked)
	if err != nil {
		return nil, err
	}

	s.logger.Info("device metrics batch stored",
		slog.String("user_id", me.UserID),
		slog.Int("rows", len(saved)),
	)
	return saved, nil
}

func (s *MetricsService) Get(ctx context.Context, me model.Principal, date string) (*model.DeviceMetrics, error) {
	day, err := s.cal.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	return s.repo.GetMetrics(ctx, me.UserID, day.Format(model.DateLayout))
}

// Range returns the days from..to inclusive. A missing to means today; a
// missing from means DefaultMetricsWindowDays before to.
func (s *MetricsService) Range(ctx context.Context, me model.Principal, from, to string) ([]model.DeviceMetrics, error) {
	end := s.cal.Today()
	if strings.TrimSpace(to) != "" {
		var err error
		if end, err = s.cal.ParseDate("to", to); err != nil {
			return nil, err
		}
	}

	start := end.AddDate(0, 0, -(DefaultMetricsWindowDays - 1))
	if strings.TrimSpace(from) != "" {
		var err error
		if start, err = s.cal.ParseDate("from", from); err != nil {
			return nil, err
		}
	}

	if start.After(end) {
		return nil, apperror.ValidationFailed("from", "from must not be after to")
	}
	return s.repo.MetricsRange(ctx, me.UserID, start.Format(model.DateLayout), end.Format(model.DateLayout))
}

func (s *MetricsService) Delete(ctx context.Context, me model.Principal, date string) error {
	day, err := s.cal.ParseDate("date", date)
	if err != nil {
		return err
	}
	return s.repo.DeleteMetrics(ctx, me.UserID, day.Format(model.DateLayout))
}
