package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

const (
	MinScore = 0
	MaxScore = 100

	DefaultScoreDays = 7
	MaxScoreDays     = 366
)

// ScoreService stores one self-reported mental health score per user per day.
type ScoreService struct {
	repo   repository.ScoreRepository
	cal    Calendar
	logger *slog.Logger
}

func NewScoreService(repo repository.ScoreRepository, cal Calendar, logger *slog.Logger) *ScoreService {
	return &ScoreService{
		repo:   repo,
		cal:    cal,
		logger: logger,
	}
}

// ScoreInput is a score as submitted by the client.
type ScoreInput struct {
	Date    string
	Score   int
	Details json.RawMessage
}

func (s *ScoreService) validate(me model.Principal, in ScoreInput) (*model.DailyScore, error) {
	day, err := s.cal.ParseDate("score_date", in.Date)
	if err != nil {
		return nil, err
	}
	if in.Score < MinScore || in.Score > MaxScore {
		return nil, apperror.ValidationFailed("mental_health_score",
			fmt.Sprintf("mental_health_score must be between %d and %d", MinScore, MaxScore))
	}

	details := bytes.TrimSpace(in.Details)
	if len(details) == 0 || bytes.Equal(details, []byte("null")) {
		details = []byte("{}")
	}
	if !json.Valid(details) || details[0] != '{' {
		return nil, apperror.ValidationFailed("mental_details", "mental_details must be a JSON object")
	}

	return &model.DailyScore{
		UserID:            me.UserID,
		ScoreDate:         day.Format(model.DateLayout),
		MentalHealthScore: in.Score,
		MentalDetails:     details,
	}, nil
}

// Create records the score for a day that has none yet.
func (s *ScoreService) Create(ctx context.Context, me model.Principal, in ScoreInput) (*model.DailyScore, error) {
	score, err := s.validate(me, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateScore(ctx, score); err != nil {
		return nil, err
	}

	s.logger.Info("score recorded",
		slog.String("user_id", me.UserID),
		slog.String("date", score.ScoreDate),
	)
	return score, nil
}

// Update replaces an existing day's score.
func (s *ScoreService) Update(ctx context.Context, me model.Principal, in ScoreInput) (*model.DailyScore, error) {
	score, err := s.validate(me, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateScore(ctx, score); err != nil {
		return nil, err
	}
	return score, nil
}

// ByDate returns the caller's score for one day, as a list of zero or one.
func (s *ScoreService) ByDate(ctx context.Context, me model.Principal, date string) ([]model.DailyScore, error) {
	day, err := s.cal.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	d := day.Format(model.DateLayout)
	return s.repo.ScoresBetween(ctx, me.UserID, d, d)
}

// LastDays returns the caller's scores for the last days days, today included.
// Zero means DefaultScoreDays.
func (s *ScoreService) LastDays(ctx context.Context, me model.Principal, days int) ([]model.DailyScore, error) {
	if days == 0 {
		days = DefaultScoreDays
	}
	if days < 1 || days > MaxScoreDays {
		return nil, apperror.ValidationFailed("days",
			fmt.Sprintf("days must be between 1 and %d", MaxScoreDays))
	}

	today := s.cal.Today()
	from := today.AddDate(0, 0, -(days - 1))
	return s.repo.ScoresBetween(ctx, me.UserID, from.Format(model.DateLayout), today.Format(model.DateLayout))
}
