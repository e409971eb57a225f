package service

import (
	"context"
	"log/slog"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

// FriendService enforces the friendship state machine:
//
//	(none) --send--> pending --accept--> accepted (both directions)
//	                    |  \--decline--> rejected
//	                    \----cancel----> (none)
//	accepted --remove--> (none)
//
// The state itself lives in the repository; this layer validates the
// participants and logs transitions.
type FriendService struct {
	repo   repository.FriendRepository
	logger *slog.Logger
}

func NewFriendService(repo repository.FriendRepository, logger *slog.Logger) *FriendService {
	return &FriendService{
		repo:   repo,
		logger: logger,
	}
}

// other validates the counterpart of a friendship operation.
func (s *FriendService) other(me model.Principal, id string) (string, error) {
	id, err := requireID("userId", id)
	if err != nil {
		return "", err
	}
	if id == me.UserID {
		return "", apperror.ValidationFailed("userId", "you cannot befriend yourself")
	}
	return id, nil
}

// Send creates a pending request from the caller to toID.
func (s *FriendService) Send(ctx context.Context, me model.Principal, toID string) (*model.FriendRequest, error) {
	toID, err := requireID("toUserId", toID)
	if err != nil {
		return nil, err
	}
	if toID == me.UserID {
		return nil, apperror.ValidationFailed("toUserId", "you cannot send a friend request to yourself")
	}

	req, err := s.repo.CreateRequest(ctx, me.UserID, toID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("friend request sent",
		slog.String("from", me.UserID),
		slog.String("to", toID),
	)
	return req, nil
}

// ListRequests lists pending requests. Unknown directions list both.
func (s *FriendService) ListRequests(ctx context.Context, me model.Principal, direction string) ([]model.FriendRequest, error) {
	return s.repo.ListRequests(ctx, me.UserID, model.ParseDirection(direction))
}

// Accept accepts the pending request requesterID sent to the caller.
func (s *FriendService) Accept(ctx context.Context, me model.Principal, requesterID string) error {
	requesterID, err := s.other(me, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.AcceptRequest(ctx, requesterID, me.UserID); err != nil {
		return err
	}

	s.logger.Info("friend request accepted",
		slog.String("requester", requesterID),
		slog.String("receiver", me.UserID),
	)
	return nil
}

// Decline rejects the pending request requesterID sent to the caller.
func (s *FriendService) Decline(ctx context.Context, me model.Principal, requesterID string) error {
	requesterID, err := s.other(me, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.DeclineRequest(ctx, requesterID, me.UserID); err != nil {
		return err
	}

	s.logger.Info("friend request declined",
		slog.String("requester", requesterID),
		slog.String("receiver", me.UserID),
	)
	return nil
}

// Cancel withdraws the caller's pending request to receiverID.
func (s *FriendService) Cancel(ctx context.Context, me model.Principal, receiverID string) error {
	receiverID, err := s.other(me, receiverID)
	if err != nil {
		return err
	}
	return s.repo.CancelRequest(ctx, me.UserID, receiverID)
}

func (s *FriendService) ListFriends(ctx context.Context, me model.Principal) ([]model.Friend, error) {
	return s.repo.ListFriends(ctx, me.UserID)
}

// Remove deletes every edge between the caller and otherID and returns how
// many rows went away. Removing a non-friend is not an error.
func (s *FriendService) Remove(ctx context.Context, me model.Principal, otherID string) (int64, error) {
	otherID, err := s.other(me, otherID)
	if err != nil {
		return 0, err
	}

	n, err := s.repo.RemoveFriend(ctx, me.UserID, otherID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("friend removed",
		slog.String("user_id", me.UserID),
		slog.String("other", otherID),
		slog.Int64("removed", n),
	)
	return n, nil
}

// Status reports both directed edges between the caller and otherID.
func (s *FriendService) Status(ctx context.Context, me model.Principal, otherID string) (*model.FriendshipStatus, error) {
	otherID, err := s.other(me, otherID)
	if err != nil {
		return nil, err
	}

	out, err := s.repo.GetStatus(ctx, me.UserID, otherID)
	if err != nil {
		return nil, err
	}
	in, err := s.repo.GetStatus(ctx, otherID, me.UserID)
	if err != nil {
		return nil, err
	}
	return &model.FriendshipStatus{UserID: otherID, Outgoing: out, Incoming: in}, nil
}
