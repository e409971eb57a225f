package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

const (
	// RecentWindowDays is how far back Recent looks, counted from today.
	RecentWindowDays = 28

	MaxFlowerNameLength = 200
)

// GardenService tracks the weekly gardens. Week boundaries are ISO weeks in
// the calendar's time zone.
type GardenService struct {
	repo   repository.GardenRepository
	users  repository.UserRepository
	cal    Calendar
	logger *slog.Logger
}

func NewGardenService(repo repository.GardenRepository, users repository.UserRepository, cal Calendar, logger *slog.Logger) *GardenService {
	return &GardenService{
		repo:   repo,
		users:  users,
		cal:    cal,
		logger: logger,
	}
}

// Checkin plants flower in the slot for date. An empty date means today.
// Dates in earlier weeks are allowed and land in that week's row.
func (s *GardenService) Checkin(ctx context.Context, me model.Principal, date, flower, pot string) (*model.WeeklyGarden, error) {
	flower = strings.TrimSpace(flower)
	if flower == "" {
		return nil, apperror.ValidationFailed("flower_name", "flower_name is required")
	}
	if utf8.RuneCountInString(flower) > MaxFlowerNameLength {
		return nil, apperror.ValidationFailed("flower_name",
			fmt.Sprintf("flower_name must be %d characters or less", MaxFlowerNameLength))
	}

	day := s.cal.Today()
	if strings.TrimSpace(date) != "" {
		var err error
		if day, err = s.cal.ParseDate("date", date); err != nil {
			return nil, err
		}
	}

	in := repository.CheckinInput{
		UserID:     me.UserID,
		WeekMonday: model.WeekMonday(day).Format(model.DateLayout),
		Weekday:    model.ISOWeekday(day),
		Flower:     flower,
		PotImage:   strings.TrimSpace(pot),
	}
	g, err := s.repo.Checkin(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("garden check-in",
		slog.String("user_id", me.UserID),
		slog.String("week_monday", in.WeekMonday),
		slog.Int("weekday", in.Weekday),
		slog.Int("earned", g.EarnedCount),
	)
	return g, nil
}

// ThisWeek returns the caller's garden for the current week. A week without
// check-ins comes back as an empty shell, never as NotFound.
func (s *GardenService) ThisWeek(ctx context.Context, me model.Principal) (*model.WeeklyGarden, error) {
	return s.week(ctx, me.UserID, model.WeekMonday(s.cal.Today()))
}

// UserWeek returns another user's garden for the current week.
func (s *GardenService) UserWeek(ctx context.Context, userID string) (*model.WeeklyGarden, error) {
	userID, err := requireID("userId", userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.week(ctx, userID, model.WeekMonday(s.cal.Today()))
}

func (s *GardenService) week(ctx context.Context, userID string, monday time.Time) (*model.WeeklyGarden, error) {
	g, err := s.repo.GetWeek(ctx, userID, monday.Format(model.DateLayout))
	if errors.Is(err, apperror.ErrNotFound) {
		return model.EmptyGarden(userID, monday), nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Recent returns the caller's weeks that start within the last
// RecentWindowDays days, newest first.
func (s *GardenService) Recent(ctx context.Context, me model.Principal) ([]model.WeeklyGarden, error) {
	from := model.WeekMonday(s.cal.Today().AddDate(0, 0, -RecentWindowDays))
	return s.repo.ListSince(ctx, me.UserID, from.Format(model.DateLayout))
}

// FriendsToday lists the caller's friends who have checked in today.
func (s *GardenService) FriendsToday(ctx context.Context, me model.Principal) ([]model.FriendCheckin, error) {
	today := s.cal.Today()
	checkins, err := s.repo.FriendsCheckins(ctx, me.UserID,
		model.WeekMonday(today).Format(model.DateLayout), model.ISOWeekday(today))
	if err != nil {
		return nil, err
	}

	date := today.Format(model.DateLayout)
	for i := range checkins {
		checkins[i].CheckedInAt = date
	}
	return checkins, nil
}
