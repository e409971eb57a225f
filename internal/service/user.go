package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

const MaxUsernameLength = 50

// UserService owns user profiles. Accounts are never registered explicitly:
// the first authenticated request creates the row from the principal.
type UserService struct {
	repo   repository.UserRepository
	cal    Calendar
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, cal Calendar, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		cal:    cal,
		logger: logger,
	}
}

// EnsureUser creates the caller's row on first sight. The IdP claims only
// seed the profile; later edits are never overwritten.
func (s *UserService) EnsureUser(ctx context.Context, p model.Principal) error {
	if strings.TrimSpace(p.UserID) == "" {
		return apperror.Unauthorized("token has no subject")
	}

	username := strings.TrimSpace(p.DisplayName)
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		username = ""
	}

	user := &model.User{
		ID:          p.UserID,
		Username:    username,
		DisplayName: p.DisplayName,
		IconURL:     p.IconURL,
		Email:       p.Email,
	}
	if err := s.repo.EnsureUser(ctx, user); err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, me model.Principal) (*model.User, error) {
	return s.repo.GetUserByID(ctx, me.UserID)
}

// GetByID returns any user's profile.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	id, err := requireID("userId", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

// UpdateMe applies a partial profile update for the caller.
func (s *UserService) UpdateMe(ctx context.Context, me model.Principal, patch model.UserPatch) (*model.User, error) {
	if patch.Empty() {
		return nil, apperror.ValidationFailed("body", "no fields to update")
	}

	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if name == "" {
			return nil, apperror.ValidationFailed("username", "username must not be empty")
		}
		if utf8.RuneCountInString(name) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
		}
		patch.Username = &name
	}
	if patch.Birthday != nil && *patch.Birthday != "" {
		if _, err := s.cal.ParseDate("birthday", *patch.Birthday); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.UpdateUser(ctx, me.UserID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("user_id", me.UserID))
	return user, nil
}

// Search looks a user up by username, ignoring case.
func (s *UserService) Search(ctx context.Context, username string) ([]model.PublicProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	return s.repo.SearchByUsername(ctx, username)
}
