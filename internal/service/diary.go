package service

import (
	"context"
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
	DefaultDiaryPageSize = 20
	MaxDiaryPageSize     = 100

	MaxDiaryContentLength = 5000
	MaxMoodLength         = 32
	MaxCommentLength      = 1000
	MaxEmojiLength        = 16
)

// DiaryInput is a new entry as submitted. Blank fields are dropped.
type DiaryInput struct {
	Content  *string
	Mood     *string
	MediaURL *string
}

// PageInput is the raw paging query of a diary feed. Before is an RFC 3339
// timestamp or a YYYY-MM-DD date; a date means midnight of that day.
type PageInput struct {
	Limit  int
	Before string
}

// DiaryService owns diary entries and the reactions and comments on them.
// Any signed-in user may read, react to and comment on any entry; only the
// author of an entry or comment may delete it.
type DiaryService struct {
	repo   repository.DiaryRepository
	users  repository.UserRepository
	cal    Calendar
	logger *slog.Logger
}

func NewDiaryService(repo repository.DiaryRepository, users repository.UserRepository, cal Calendar, logger *slog.Logger) *DiaryService {
	return &DiaryService{
		repo:   repo,
		users:  users,
		cal:    cal,
		logger: logger,
	}
}

// Create posts a new entry for the caller.
func (s *DiaryService) Create(ctx context.Context, me model.Principal, in DiaryInput) (*model.DiaryEntry, error) {
	entry := model.DiaryEntry{
		UserID:   me.UserID,
		Content:  trimmed(in.Content),
		Mood:     trimmed(in.Mood),
		MediaURL: trimmed(in.MediaURL),
	}
	if entry.Content == nil && entry.Mood == nil && entry.MediaURL == nil {
		return nil, apperror.ValidationFailed("content", "content, mood or media_url is required")
	}
	if err := maxRunes("content", entry.Content, MaxDiaryContentLength); err != nil {
		return nil, err
	}
	if err := maxRunes("mood", entry.Mood, MaxMoodLength); err != nil {
		return nil, err
	}

	if err := s.repo.CreateEntry(ctx, &entry); err != nil {
		return nil, err
	}

	s.logger.Info("diary entry created",
		slog.String("user_id", me.UserID),
		slog.String("entry_id", entry.ID),
	)
	return &entry, nil
}

// Mine lists the caller's own entries, newest first.
func (s *DiaryService) Mine(ctx context.Context, me model.Principal, in PageInput) ([]model.DiaryEntry, error) {
	page, err := s.page(in)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEntriesByUser(ctx, me.UserID, me.UserID, page)
}

// ByUser lists another user's entries, newest first.
func (s *DiaryService) ByUser(ctx context.Context, me model.Principal, userID string, in PageInput) ([]model.DiaryEntry, error) {
	userID, err := requireID("userId", userID)
	if err != nil {
		return nil, err
	}
	page, err := s.page(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListEntriesByUser(ctx, userID, me.UserID, page)
}

// Friends lists the entries of the caller's accepted friends, newest first.
func (s *DiaryService) Friends(ctx context.Context, me model.Principal, in PageInput) ([]model.DiaryEntry, error) {
	page, err := s.page(in)
	if err != nil {
		return nil, err
	}
	return s.repo.ListFriendsEntries(ctx, me.UserID, page)
}

func (s *DiaryService) Delete(ctx context.Context, me model.Principal, entryID string) error {
	entryID, err := requireID("entryId", entryID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, me.UserID, entryID); err != nil {
		return err
	}

	s.logger.Info("diary entry deleted",
		slog.String("user_id", me.UserID),
		slog.String("entry_id", entryID),
	)
	return nil
}

// React adds the caller's emoji to an entry. created is false when the
// caller had already left the same emoji there.
func (s *DiaryService) React(ctx context.Context, me model.Principal, entryID, emoji string) (r *model.DiaryReaction, created bool, err error) {
	entryID, err = requireID("entryId", entryID)
	if err != nil {
		return nil, false, err
	}
	emoji, err = s.emoji(emoji)
	if err != nil {
		return nil, false, err
	}

	r = &model.DiaryReaction{EntryID: entryID, UserID: me.UserID, Emoji: emoji}
	created, err = s.repo.AddReaction(ctx, r)
	if err != nil {
		return nil, false, err
	}
	return r, created, nil
}

func (s *DiaryService) Unreact(ctx context.Context, me model.Principal, entryID, emoji string) error {
	entryID, err := requireID("entryId", entryID)
	if err != nil {
		return err
	}
	emoji, err = s.emoji(emoji)
	if err != nil {
		return err
	}
	return s.repo.RemoveReaction(ctx, me.UserID, entryID, emoji)
}

// Comment adds a comment to an entry. A comment is a text body, an emoji,
// or both.
func (s *DiaryService) Comment(ctx context.Context, me model.Principal, entryID string, body, emoji *string) (*model.DiaryComment, error) {
	entryID, err := requireID("entryId", entryID)
	if err != nil {
		return nil, err
	}

	c := model.DiaryComment{
		EntryID: entryID,
		UserID:  me.UserID,
		Body:    trimmed(body),
		Emoji:   trimmed(emoji),
	}
	if c.Body == nil && c.Emoji == nil {
		return nil, apperror.ValidationFailed("body", "body or emoji is required")
	}
	if err := maxRunes("body", c.Body, MaxCommentLength); err != nil {
		return nil, err
	}
	if err := maxRunes("emoji", c.Emoji, MaxEmojiLength); err != nil {
		return nil, err
	}

	if err := s.repo.AddComment(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Comments lists the comments on an entry, oldest first.
func (s *DiaryService) Comments(ctx context.Context, entryID string) ([]model.DiaryComment, error) {
	entryID, err := requireID("entryId", entryID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, entryID)
}

func (s *DiaryService) DeleteComment(ctx context.Context, me model.Principal, entryID, commentID string) error {
	entryID, err := requireID("entryId", entryID)
	if err != nil {
		return err
	}
	commentID, err = requireID("commentId", commentID)
	if err != nil {
		return err
	}
	return s.repo.DeleteComment(ctx, me.UserID, entryID, commentID)
}

func (s *DiaryService) page(in PageInput) (model.DiaryPage, error) {
	page := model.DiaryPage{Limit: in.Limit}
	switch {
	case page.Limit == 0:
		page.Limit = DefaultDiaryPageSize
	case page.Limit < 0 || page.Limit > MaxDiaryPageSize:
		return page, apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between 1 and %d", MaxDiaryPageSize))
	}

	before := strings.TrimSpace(in.Before)
	if before == "" {
		return page, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, before); err == nil {
		page.Before = t
		return page, nil
	}
	day, err := s.cal.ParseDate("before", before)
	if err != nil {
		return page, apperror.ValidationFailed("before", "before must be an RFC 3339 timestamp or YYYY-MM-DD")
	}
	page.Before = day
	return page, nil
}

func (s *DiaryService) emoji(emoji string) (string, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return "", apperror.ValidationFailed("emoji", "emoji is required")
	}
	if utf8.RuneCountInString(emoji) > MaxEmojiLength {
		return "", apperror.ValidationFailed("emoji",
			fmt.Sprintf("emoji must be %d characters or less", MaxEmojiLength))
	}
	return emoji, nil
}

// trimmed returns nil for a nil or blank value and the trimmed value
// otherwise.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func maxRunes(field string, s *string, limit int) error {
	if s != nil && utf8.RuneCountInString(*s) > limit {
		return apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, limit))
	}
	return nil
}
