package service

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

// DefaultLocationWindowDays is the range returned when the caller gives no
// bounds: today and the 13 days before it.
const DefaultLocationWindowDays = 14

// LocationService stores the daily movement summary computed on the device.
type LocationService struct {
	repo   repository.LocationRepository
	cal    Calendar
	logger *slog.Logger
}

func NewLocationService(repo repository.LocationRepository, cal Calendar, logger *slog.Logger) *LocationService {
	return &LocationService{
		repo:   repo,
		cal:    cal,
		logger: logger,
	}
}

// Upsert stores the summary for one day, replacing any earlier report.
func (s *LocationService) Upsert(ctx context.Context, me model.Principal, in model.LocationSummary) (*model.LocationSummary, error) {
	day, err := s.cal.ParseDate("local_date", in.LocalDate)
	if err != nil {
		return nil, err
	}

	v := in.LocationVariance
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperror.ValidationFailed("location_variance", "location_variance must be a finite number")
	}
	if v < 0 {
		return nil, apperror.ValidationFailed("location_variance", "location_variance must not be negative")
	}

	summary := model.LocationSummary{
		UserID:           me.UserID,
		LocalDate:        day.Format(model.DateLayout),
		LocationVariance: v,
	}
	if err := s.repo.UpsertLocation(ctx, &summary); err != nil {
		return nil, err
	}

	s.logger.Debug("location summary stored",
		slog.String("user_id", me.UserID),
		slog.String("local_date", summary.LocalDate),
	)
	return &summary, nil
}

func (s *LocationService) Get(ctx context.Context, me model.Principal, date string) (*model.LocationSummary, error) {
	day, err := s.cal.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	return s.repo.GetLocation(ctx, me.UserID, day.Format(model.DateLayout))
}

// Range returns the days from..to inclusive, newest first. A missing to
// means today; a missing from means DefaultLocationWindowDays before to.
func (s *LocationService) Range(ctx context.Context, me model.Principal, from, to string) ([]model.LocationSummary, error) {
	end := s.cal.Today()
	if strings.TrimSpace(to) != "" {
		var err error
		if end, err = s.cal.ParseDate("to", to); err != nil {
			return nil, err
		}
	}

	start := end.AddDate(0, 0, -(DefaultLocationWindowDays - 1))
	if strings.TrimSpace(from) != "" {
		var err error
		if start, err = s.cal.ParseDate("from", from); err != nil {
			return nil, err
		}
	}

	if start.After(end) {
		return nil, apperror.ValidationFailed("from", "from must not be after to")
	}
	return s.repo.LocationRange(ctx, me.UserID, start.Format(model.DateLayout), end.Format(model.DateLayout))
}
