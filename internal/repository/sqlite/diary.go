package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

var _ repository.DiaryRepository = (*DB)(nil)

const entryColumns = `e.entry_id, e.user_id, e.content, e.mood, e.media_url, e.created_at, e.updated_at, u.username, u.icon_url`

// CreateEntry inserts e. e.ID, the timestamps and the author's profile
// fields are filled in on success.
func (db *DB) CreateEntry(ctx context.Context, e *model.DiaryEntry) error {
	now := time.Now().UTC()
	id := xid.New().String()

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		author, err := getUser(ctx, tx, e.UserID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO diary_entries (entry_id, user_id, content, mood, media_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, e.UserID, nullStringPtr(e.Content), nullStringPtr(e.Mood), nullStringPtr(e.MediaURL), now, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating diary entry for %s: %w", e.UserID, err)
		}

		e.ID = id
		e.CreatedAt = now
		e.UpdatedAt = now
		e.Username = author.Username
		e.IconURL = author.IconURL
		e.Reactions = []model.ReactionCount{}
		return nil
	})
}

func (db *DB) ListEntriesByUser(ctx context.Context, userID, viewer string, page model.DiaryPage) ([]model.DiaryEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM diary_entries e
		JOIN users u ON u.user_id = e.user_id
		WHERE e.user_id = ?`
	args := []any{userID}

	entries, err := db.listEntries(ctx, query, args, page)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing diary entries of %s: %w", userID, err)
	}
	if err := db.decorateEntries(ctx, entries, viewer); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFriendsEntries only follows accepted edges out of me. Pending and
// rejected requests do not open anyone's diary.
func (db *DB) ListFriendsEntries(ctx context.Context, me string, page model.DiaryPage) ([]model.DiaryEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM diary_entries e
		JOIN friendships f ON f.friend_id = e.user_id
		JOIN users u ON u.user_id = e.user_id
		WHERE f.user_id = ? AND f.status = 'accepted'`
	args := []any{me}

	entries, err := db.listEntries(ctx, query, args, page)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing friends' diary entries for %s: %w", me, err)
	}
	if err := db.decorateEntries(ctx, entries, me); err != nil {
		return nil, err
	}
	return entries, nil
}

// listEntries appends the paging clause to query and scans the rows. The
// rows are closed before it returns so the single connection is free for
// the follow-up queries.
func (db *DB) listEntries(ctx context.Context, query string, args []any, page model.DiaryPage) ([]model.DiaryEntry, error) {
	if !page.Before.IsZero() {
		query += ` AND e.created_at < ?`
		args = append(args, page.Before.UTC())
	}
	query += ` ORDER BY e.created_at DESC, e.entry_id DESC LIMIT ?`
	args = append(args, page.Limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.DiaryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// decorateEntries fills in the reaction counts, the comment count and the
// viewer's Reacted flag.
func (db *DB) decorateEntries(ctx context.Context, entries []model.DiaryEntry, viewer string) error {
	if len(entries) == 0 {
		return nil
	}

	index := make(map[string]*model.DiaryEntry, len(entries))
	ids := make([]any, len(entries))
	for i := range entries {
		entries[i].Reactions = []model.ReactionCount{}
		index[entries[i].ID] = &entries[i]
		ids[i] = entries[i].ID
	}
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"

	err := eachRow(ctx, db.conn,
		`SELECT entry_id, emoji, COUNT(*) AS n
		 FROM diary_reactions
		 WHERE entry_id IN `+in+`
		 GROUP BY entry_id, emoji
		 ORDER BY entry_id, n DESC, emoji`,
		ids,
		func(rows *sql.Rows) error {
			var (
				entryID string
				rc      model.ReactionCount
			)
			if err := rows.Scan(&entryID, &rc.Emoji, &rc.Count); err != nil {
				return err
			}
			e := index[entryID]
			e.Reactions = append(e.Reactions, rc)
			return nil
		})
	if err != nil {
		return fmt.Errorf("sqlite: counting diary reactions: %w", err)
	}

	err = eachRow(ctx, db.conn,
		`SELECT entry_id, COUNT(*)
		 FROM diary_comments
		 WHERE entry_id IN `+in+`
		 GROUP BY entry_id`,
		ids,
		func(rows *sql.Rows) error {
			var (
				entryID string
				n       int
			)
			if err := rows.Scan(&entryID, &n); err != nil {
				return err
			}
			index[entryID].CommentCount = n
			return nil
		})
	if err != nil {
		return fmt.Errorf("sqlite: counting diary comments: %w", err)
	}

	err = eachRow(ctx, db.conn,
		`SELECT DISTINCT entry_id
		 FROM diary_reactions
		 WHERE user_id = ? AND entry_id IN `+in,
		append([]any{viewer}, ids...),
		func(rows *sql.Rows) error {
			var entryID string
			if err := rows.Scan(&entryID); err != nil {
				return err
			}
			index[entryID].Reacted = true
			return nil
		})
	if err != nil {
		return fmt.Errorf("sqlite: loading viewer reactions: %w", err)
	}
	return nil
}

// DeleteEntry removes one of me's entries together with its reactions and
// comments. Someone else's entry is reported as not found.
func (db *DB) DeleteEntry(ctx context.Context, me, entryID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM diary_entries WHERE entry_id = ? AND user_id = ?`,
		entryID, me,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting diary entry %s: %w", entryID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("diary entry", entryID)
	}
	return nil
}

// AddReaction records r unless the same user already left that emoji on the
// entry, in which case r gets the original timestamp and false is returned.
func (db *DB) AddReaction(ctx context.Context, r *model.DiaryReaction) (bool, error) {
	var created bool

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := entryExists(ctx, tx, r.EntryID); err != nil {
			return err
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO diary_reactions (entry_id, user_id, emoji, created_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (entry_id, user_id, emoji) DO NOTHING`,
			r.EntryID, r.UserID, r.Emoji, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: adding reaction to %s: %w", r.EntryID, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 1 {
			created = true
			r.CreatedAt = now
			return nil
		}

		err = tx.QueryRowContext(ctx,
			`SELECT created_at FROM diary_reactions WHERE entry_id = ? AND user_id = ? AND emoji = ?`,
			r.EntryID, r.UserID, r.Emoji,
		).Scan(timestamp{&r.CreatedAt})
		if err != nil {
			return fmt.Errorf("sqlite: reading reaction on %s: %w", r.EntryID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (db *DB) RemoveReaction(ctx context.Context, me, entryID, emoji string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM diary_reactions WHERE entry_id = ? AND user_id = ? AND emoji = ?`,
		entryID, me, emoji,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing reaction from %s: %w", entryID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("diary reaction", emoji)
	}
	return nil
}

// AddComment inserts c. c.ID, the timestamps and the commenter's profile
// fields are filled in on success.
func (db *DB) AddComment(ctx context.Context, c *model.DiaryComment) error {
	now := time.Now().UTC()
	id := xid.New().String()

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := entryExists(ctx, tx, c.EntryID); err != nil {
			return err
		}
		author, err := getUser(ctx, tx, c.UserID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO diary_comments (comment_id, entry_id, user_id, body, emoji, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, c.EntryID, c.UserID, nullStringPtr(c.Body), nullStringPtr(c.Emoji), now, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: adding comment to %s: %w", c.EntryID, err)
		}

		c.ID = id
		c.CreatedAt = now
		c.UpdatedAt = now
		c.Username = author.Username
		c.IconURL = author.IconURL
		return nil
	})
}

// ListComments returns the comments on an entry, oldest first.
// Returns apperror.ErrNotFound if the entry does not exist.
func (db *DB) ListComments(ctx context.Context, entryID string) ([]model.DiaryComment, error) {
	if err := entryExists(ctx, db.conn, entryID); err != nil {
		return nil, err
	}

	comments := []model.DiaryComment{}
	err := eachRow(ctx, db.conn,
		`SELECT c.comment_id, c.entry_id, c.user_id, c.body, c.emoji, c.created_at, c.updated_at, u.username, u.icon_url
		 FROM diary_comments c
		 JOIN users u ON u.user_id = c.user_id
		 WHERE c.entry_id = ?
		 ORDER BY c.created_at, c.comment_id`,
		[]any{entryID},
		func(rows *sql.Rows) error {
			var (
				c           model.DiaryComment
				body, emoji sql.NullString
			)
			err := rows.Scan(&c.ID, &c.EntryID, &c.UserID, &body, &emoji,
				timestamp{&c.CreatedAt}, timestamp{&c.UpdatedAt}, &c.Username, &c.IconURL)
			if err != nil {
				return err
			}
			c.Body = stringPtr(body)
			c.Emoji = stringPtr(emoji)
			comments = append(comments, c)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments on %s: %w", entryID, err)
	}
	return comments, nil
}

// DeleteComment removes one of me's comments on entryID.
func (db *DB) DeleteComment(ctx context.Context, me, entryID, commentID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM diary_comments WHERE comment_id = ? AND entry_id = ? AND user_id = ?`,
		commentID, entryID, me,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", commentID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("diary comment", commentID)
	}
	return nil
}

func entryExists(ctx context.Context, q querier, entryID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM diary_entries WHERE entry_id = ?`, entryID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("diary entry", entryID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: looking up diary entry %s: %w", entryID, err)
	}
	return nil
}

// eachRow runs query and calls fn for every row, closing the rows before it
// returns.
func eachRow(ctx context.Context, q querier, query string, args []any, fn func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanEntry(s scanner) (*model.DiaryEntry, error) {
	var (
		e                       model.DiaryEntry
		content, mood, mediaURL sql.NullString
	)
	err := s.Scan(&e.ID, &e.UserID, &content, &mood, &mediaURL,
		timestamp{&e.CreatedAt}, timestamp{&e.UpdatedAt}, &e.Username, &e.IconURL)
	if err != nil {
		return nil, err
	}
	e.Content = stringPtr(content)
	e.Mood = stringPtr(mood)
	e.MediaURL = stringPtr(mediaURL)
	return &e, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
