// Package repository declares the storage interfaces the services depend on.
// The sqlite subpackage is the only implementation; services and their tests
// never import it.
package repository

import (
	"context"

	"github.com/sakif/vines-backend/internal/model"
)

type UserRepository interface {
	// EnsureUser inserts the user if no row with that ID exists. Existing
	// rows are left untouched.
	EnsureUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	SearchByUsername(ctx context.Context, username string) ([]model.PublicProfile, error)
}

type FriendRepository interface {
	// CreateRequest inserts a pending edge from -> to and returns it together
	// with the receiver's profile.
	CreateRequest(ctx context.Context, fromID, toID string) (*model.FriendRequest, error)
	ListRequests(ctx context.Context, me string, dir model.Direction) ([]model.FriendRequest, error)
	// AcceptRequest flips requester -> me to accepted and mirrors it, as one
	// unit of work.
	AcceptRequest(ctx context.Context, requesterID, me string) error
	DeclineRequest(ctx context.Context, requesterID, me string) error
	CancelRequest(ctx context.Context, me, receiverID string) error
	ListFriends(ctx context.Context, me string) ([]model.Friend, error)
	RemoveFriend(ctx context.Context, me, other string) (int64, error)
	GetStatus(ctx context.Context, from, to string) (model.FriendStatus, error)
}

// CheckinInput is one garden check-in, already resolved to its ISO week.
type CheckinInput struct {
	UserID     string
	WeekMonday string // YYYY-MM-DD
	Weekday    int    // 1 = Monday .. 7 = Sunday
	Flower     string
	PotImage   string // empty means "no pot"
}

type GardenRepository interface {
	Checkin(ctx context.Context, in CheckinInput) (*model.WeeklyGarden, error)
	GetWeek(ctx context.Context, userID, weekMonday string) (*model.WeeklyGarden, error)
	ListSince(ctx context.Context, userID, fromMonday string) ([]model.WeeklyGarden, error)
	FriendsCheckins(ctx context.Context, userID, weekMonday string, weekday int) ([]model.FriendCheckin, error)
}

type ScoreRepository interface {
	CreateScore(ctx context.Context, score *model.DailyScore) error
	UpdateScore(ctx context.Context, score *model.DailyScore) error
	ScoresBetween(ctx context.Context, userID, from, to string) ([]model.DailyScore, error)
}

type MetricsRepository interface {
	UpsertMetrics(ctx context.Context, m *model.DeviceMetrics) error
	// UpsertMetricsBatch writes every row or none of them.
	UpsertMetricsBatch(ctx context.Context, rows []model.DeviceMetrics) ([]model.DeviceMetrics, error)
	GetMetrics(ctx context.Context, userID, date string) (*model.DeviceMetrics, error)
	MetricsRange(ctx context.Context, userID, from, to string) ([]model.DeviceMetrics, error)
	DeleteMetrics(ctx context.Context, userID, date string) error
}

type DiaryRepository interface {
	CreateEntry(ctx context.Context, e *model.DiaryEntry) error
	// ListEntriesByUser returns userID's entries, newest first, decorated
	// for viewer.
	ListEntriesByUser(ctx context.Context, userID, viewer string, page model.DiaryPage) ([]model.DiaryEntry, error)
	// ListFriendsEntries returns the entries of me's accepted friends.
	ListFriendsEntries(ctx context.Context, me string, page model.DiaryPage) ([]model.DiaryEntry, error)
	DeleteEntry(ctx context.Context, me, entryID string) error
	// AddReaction reports false when the same reaction was already there.
	AddReaction(ctx context.Context, r *model.DiaryReaction) (bool, error)
	RemoveReaction(ctx context.Context, me, entryID, emoji string) error
	AddComment(ctx context.Context, c *model.DiaryComment) error
	ListComments(ctx context.Context, entryID string) ([]model.DiaryComment, error)
	DeleteComment(ctx context.Context, me, entryID, commentID string) error
}

type LocationRepository interface {
	UpsertLocation(ctx context.Context, s *model.LocationSummary) error
	GetLocation(ctx context.Context, userID, date string) (*model.LocationSummary, error)
	// LocationRange returns the days from..to inclusive, newest first.
	LocationRange(ctx context.Context, userID, from, to string) ([]model.LocationSummary, error)
}
