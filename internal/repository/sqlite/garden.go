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

var _ repository.GardenRepository = (*DB)(nil)

const gardenColumns = `user_id, week_monday, pot_image,
	image1, image2, image3, image4, image5, image6, image7,
	created_at, updated_at`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// slotColumn maps an ISO weekday to its image column. The name is
// interpolated into SQL, so it must only ever come from this function.
func slotColumn(weekday int) (string, error) {
	if weekday < 1 || weekday > model.DaysPerWeek {
		return "", fmt.Errorf("sqlite: weekday %d out of range", weekday)
	}
	return fmt.Sprintf("image%d", weekday), nil
}

// Checkin writes a flower into the week's day slot.
//
// FIRST WRITE WINS:
// On a new week the row is inserted with just this slot (and the pot) set.
// When the row already exists, each column is merged with
// COALESCE(existing, incoming): a slot that is already filled keeps its value,
// an empty one takes the new flower. A second check-in for the same day, even
// with a different flower, therefore changes nothing but updated_at. The merge
// happens inside one statement, so concurrent check-ins cannot lose a slot.
func (db *DB) Checkin(ctx context.Context, in repository.CheckinInput) (*model.WeeklyGarden, error) {
	col, err := slotColumn(in.Weekday)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(
		`INSERT INTO weekly_garden (user_id, week_monday, pot_image, %[1]s, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, week_monday) DO UPDATE SET
		   %[1]s = COALESCE(weekly_garden.%[1]s, excluded.%[1]s),
		   pot_image = COALESCE(weekly_garden.pot_image, excluded.pot_image),
		   updated_at = excluded.updated_at
		 RETURNING %[2]s`,
		col, gardenColumns,
	)

	g, err := scanGarden(db.conn.QueryRowContext(ctx, query,
		in.UserID,
		in.WeekMonday,
		nullString(in.PotImage),
		in.Flower,
		now,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking in %s for week %s day %d: %w", in.UserID, in.WeekMonday, in.Weekday, err)
	}
	return g, nil
}

// GetWeek returns the garden row for one week.
// Returns apperror.ErrNotFound if the user has no check-ins that week.
func (db *DB) GetWeek(ctx context.Context, userID, weekMonday string) (*model.WeeklyGarden, error) {
	g, err := scanGarden(db.conn.QueryRowContext(ctx,
		`SELECT `+gardenColumns+`
		 FROM weekly_garden
		 WHERE user_id = ? AND week_monday = ?`,
		userID, weekMonday,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("garden week", weekMonday)
		}
		return nil, fmt.Errorf("sqlite: getting garden %s/%s: %w", userID, weekMonday, err)
	}
	return g, nil
}

// ListSince returns every week starting on or after fromMonday, newest first.
// week_monday is stored as YYYY-MM-DD, so text comparison is date order.
func (db *DB) ListSince(ctx context.Context, userID, fromMonday string) ([]model.WeeklyGarden, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+gardenColumns+`
		 FROM weekly_garden
		 WHERE user_id = ? AND week_monday >= ?
		 ORDER BY week_monday DESC`,
		userID, fromMonday,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing gardens of %s since %s: %w", userID, fromMonday, err)
	}
	defer rows.Close()

	gardens := []model.WeeklyGarden{}
	for rows.Next() {
		g, err := scanGarden(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning garden: %w", err)
		}
		gardens = append(gardens, *g)
	}
	return gardens, rows.Err()
}

// FriendsCheckins returns the accepted friends of userID whose garden for
// weekMonday has the given day slot filled. Friends without a flower that day
// are left out.
func (db *DB) FriendsCheckins(ctx context.Context, userID, weekMonday string, weekday int) ([]model.FriendCheckin, error) {
	col, err := slotColumn(weekday)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT u.user_id, u.username, u.icon_url, g.%[1]s
		 FROM friendships f
		 JOIN users u ON u.user_id = f.friend_id
		 JOIN weekly_garden g ON g.user_id = f.friend_id AND g.week_monday = ?
		 WHERE f.user_id = ? AND f.status = 'accepted' AND g.%[1]s IS NOT NULL
		 ORDER BY u.username, u.user_id`, col),
		weekMonday, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing friends' check-ins for %s: %w", userID, err)
	}
	defer rows.Close()

	checkins := []model.FriendCheckin{}
	for rows.Next() {
		var c model.FriendCheckin
		if err := rows.Scan(&c.UserID, &c.Username, &c.IconURL, &c.Flower); err != nil {
			return nil, fmt.Errorf("sqlite: scanning friend check-in: %w", err)
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

func scanGarden(s scanner) (*model.WeeklyGarden, error) {
	var (
		g                model.WeeklyGarden
		pot              sql.NullString
		slots            [model.DaysPerWeek]sql.NullString
		created, updated time.Time
	)
	err := s.Scan(
		&g.UserID,
		&g.WeekMonday,
		&pot,
		&slots[0], &slots[1], &slots[2], &slots[3], &slots[4], &slots[5], &slots[6],
		timestamp{&created},
		timestamp{&updated},
	)
	if err != nil {
		return nil, err
	}

	g.PotImage = stringPtr(pot)
	g.Image1 = stringPtr(slots[0])
	g.Image2 = stringPtr(slots[1])
	g.Image3 = stringPtr(slots[2])
	g.Image4 = stringPtr(slots[3])
	g.Image5 = stringPtr(slots[4])
	g.Image6 = stringPtr(slots[5])
	g.Image7 = stringPtr(slots[6])
	g.CreatedAt = &created
	g.UpdatedAt = &updated
	g.CountEarned()
	return &g, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
