package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `user_id, username, display_name, icon_url, email, birthday, phone, created_at, updated_at`

// EnsureUser inserts the user if it is not there yet.
//
// ON CONFLICT DO NOTHING keeps whatever the user has edited since the first
// login: identity provider claims only seed the row, they never overwrite it.
func (db *DB) EnsureUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		user.ID,
		user.Username,
		user.DisplayName,
		user.IconURL,
		user.Email,
		user.Birthday,
		user.Phone,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: ensuring user %s: %w", user.ID, err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, db.conn, id)
}

func getUser(ctx context.Context, q querier, id string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// UpdateUser applies the non-nil fields of patch and returns the updated row.
func (db *DB) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if patch.Empty() {
		return db.GetUserByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	set("username", patch.Username)
	set("display_name", patch.DisplayName)
	set("icon_url", patch.IconURL)
	set("email", patch.Email)
	set("birthday", patch.Birthday)
	set("phone", patch.Phone)

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	// Column names come from the fixed list above, never from input.
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+`
		 WHERE user_id = ?
		 RETURNING `+userColumns,
		args...,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}
	return u, nil
}

// SearchByUsername returns users whose username matches exactly, ignoring
// case. Users that never picked a username are not searchable.
func (db *DB) SearchByUsername(ctx context.Context, username string) ([]model.PublicProfile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, username, display_name, icon_url
		 FROM users
		 WHERE lower(username) = lower(?) AND username <> ''
		 ORDER BY user_id`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching users by username: %w", err)
	}
	defer rows.Close()

	profiles := []model.PublicProfile{}
	for rows.Next() {
		var p model.PublicProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.IconURL); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.IconURL,
		&u.Email,
		&u.Birthday,
		&u.Phone,
		timestamp{&u.CreatedAt},
		timestamp{&u.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
