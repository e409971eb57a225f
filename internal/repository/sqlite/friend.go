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

var _ repository.FriendRepository = (*DB)(nil)

// CreateRequest inserts a pending edge fromID -> toID.
//
// The receiver lookup, the reverse-edge check and the insert run in one
// transaction, so two users sending each other a request at the same moment
// cannot both end up with a pending row.
func (db *DB) CreateRequest(ctx context.Context, fromID, toID string) (*model.FriendRequest, error) {
	var req *model.FriendRequest

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		receiver, err := getUser(ctx, tx, toID)
		if err != nil {
			return err
		}

		reverse, err := edgeStatus(ctx, tx, toID, fromID)
		if err != nil {
			return err
		}
		switch reverse {
		case model.FriendPending:
			return apperror.AlreadyExists("this user has already sent you a friend request")
		case model.FriendAccepted:
			return apperror.AlreadyExists("already friends")
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO friendships (user_id, friend_id, status, created_at)
			 VALUES (?, ?, 'pending', ?)
			 ON CONFLICT (user_id, friend_id) DO NOTHING`,
			fromID, toID, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting friend request %s -> %s: %w", fromID, toID, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.AlreadyExists("request already exists")
		}

		req = &model.FriendRequest{
			RequesterID:   fromID,
			ReceiverID:    toID,
			Status:        model.FriendPending,
			CreatedAt:     now,
			OtherUserID:   receiver.ID,
			OtherUsername: receiver.Username,
			OtherIconURL:  receiver.IconURL,
			Direction:     model.DirectionOutgoing,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns pending requests involving me, newest first.
func (db *DB) ListRequests(ctx context.Context, me string, dir model.Direction) ([]model.FriendRequest, error) {
	const incoming = `
		SELECT f.user_id, f.friend_id, f.status, f.created_at,
		       u.user_id, u.username, u.icon_url, 'incoming'
		FROM friendships f
		JOIN users u ON u.user_id = f.user_id
		WHERE f.friend_id = ? AND f.status = 'pending'`
	const outgoing = `
		SELECT f.user_id, f.friend_id, f.status, f.created_at,
		       u.user_id, u.username, u.icon_url, 'outgoing'
		FROM friendships f
		JOIN users u ON u.user_id = f.friend_id
		WHERE f.user_id = ? AND f.status = 'pending'`

	var (
		query string
		args  []any
	)
	switch dir {
	case model.DirectionIncoming:
		query, args = incoming, []any{me}
	case model.DirectionOutgoing:
		query, args = outgoing, []any{me}
	default:
		query, args = incoming+" UNION ALL "+outgoing, []any{me, me}
	}

	rows, err := db.conn.QueryContext(ctx, query+` ORDER BY 4 DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s friend requests: %w", dir, err)
	}
	defer rows.Close()

	requests := []model.FriendRequest{}
	for rows.Next() {
		var r model.FriendRequest
		if err := rows.Scan(
			&r.RequesterID,
			&r.ReceiverID,
			&r.Status,
			timestamp{&r.CreatedAt},
			&r.OtherUserID,
			&r.OtherUsername,
			&r.OtherIconURL,
			&r.Direction,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning friend request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// AcceptRequest turns the pending edge requesterID -> me into a friendship.
//
// THE TWO WRITES:
//  1. flip (requester, me) from pending to accepted
//  2. upsert (me, requester) as accepted, whatever state it was in
//
// Both run in one transaction. If the flip touches no row, somebody else got
// there first (cancel, decline, an earlier accept), so the row is read back to
// tell the caller which: gone is NotFound, rejected is NotPending. An edge that
// is already accepted is treated as a repeat accept and falls through to the
// mirror upsert, which leaves a healthy pair unchanged and repairs a broken
// one.
func (db *DB) AcceptRequest(ctx context.Context, requesterID, me string) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE friendships SET status = 'accepted'
			 WHERE user_id = ? AND friend_id = ? AND status = 'pending'`,
			requesterID, me,
		)
		if err != nil {
			return fmt.Errorf("sqlite: accepting friend request %s -> %s: %w", requesterID, me, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}

		if n == 0 {
			status, err := edgeStatus(ctx, tx, requesterID, me)
			if err != nil {
				return err
			}
			switch status {
			case model.FriendNone:
				return apperror.NotFound("friend request", requesterID)
			case model.FriendAccepted:
				// repeat accept
			default:
				return apperror.NotPending("friend request", requesterID, string(status))
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO friendships (user_id, friend_id, status, created_at)
			 VALUES (?, ?, 'accepted', ?)
			 ON CONFLICT (user_id, friend_id) DO UPDATE SET status = 'accepted'`,
			me, requesterID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: mirroring friendship %s -> %s: %w", me, requesterID, err)
		}
		return nil
	})
}

// DeclineRequest marks the pending edge requesterID -> me as rejected.
func (db *DB) DeclineRequest(ctx context.Context, requesterID, me string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE friendships SET status = 'rejected'
		 WHERE user_id = ? AND friend_id = ? AND status = 'pending'`,
		requesterID, me,
	)
	if err != nil {
		return fmt.Errorf("sqlite: declining friend request %s -> %s: %w", requesterID, me, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("friend request", requesterID)
	}
	return nil
}

// CancelRequest deletes the pending edge me -> receiverID.
func (db *DB) CancelRequest(ctx context.Context, me, receiverID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM friendships
		 WHERE user_id = ? AND friend_id = ? AND status = 'pending'`,
		me, receiverID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: cancelling friend request %s -> %s: %w", me, receiverID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("friend request", receiverID)
	}
	return nil
}

// ListFriends returns my accepted friends ordered by username.
func (db *DB) ListFriends(ctx context.Context, me string) ([]model.Friend, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.user_id, u.username, u.display_name, u.icon_url, f.created_at
		 FROM friendships f
		 JOIN users u ON u.user_id = f.friend_id
		 WHERE f.user_id = ? AND f.status = 'accepted'
		 ORDER BY u.username, u.user_id`,
		me,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing friends of %s: %w", me, err)
	}
	defer rows.Close()

	friends := []model.Friend{}
	for rows.Next() {
		var f model.Friend
		if err := rows.Scan(&f.ID, &f.Username, &f.DisplayName, &f.IconURL, timestamp{&f.Since}); err != nil {
			return nil, fmt.Errorf("sqlite: scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// RemoveFriend deletes both edges between me and other in a single statement
// and reports how many rows went away (0, 1 or 2).
func (db *DB) RemoveFriend(ctx context.Context, me, other string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM friendships
		 WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		me, other, other, me,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: removing friendship %s <-> %s: %w", me, other, err)
	}
	return rowsAffected(res)
}

// GetStatus returns the status of the edge from -> to, or FriendNone.
func (db *DB) GetStatus(ctx context.Context, from, to string) (model.FriendStatus, error) {
	return edgeStatus(ctx, db.conn, from, to)
}

func edgeStatus(ctx context.Context, q querier, from, to string) (model.FriendStatus, error) {
	var status model.FriendStatus
	err := q.QueryRowContext(ctx,
		`SELECT status FROM friendships WHERE user_id = ? AND friend_id = ?`,
		from, to,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FriendNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: reading edge %s -> %s: %w", from, to, err)
	}
	return status, nil
}
