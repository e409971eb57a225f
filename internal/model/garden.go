package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// DaysPerWeek is the number of day slots in a WeeklyGarden.
const DaysPerWeek = 7

// WeeklyGarden is a user's garden for one ISO week. Image1..Image7 hold the
// flower checked in on Monday..Sunday; PotImage is the pot decoration. Each
// slot is written at most once per week: the first check-in wins.
type WeeklyGarden struct {
	UserID      string     `json:"user_id"`
	WeekMonday  string     `json:"week_monday"`
	PotImage    *string    `json:"pot_image"`
	Image1      *string    `json:"image1"`
	Image2      *string    `json:"image2"`
	Image3      *string    `json:"image3"`
	Image4      *string    `json:"image4"`
	Image5      *string    `json:"image5"`
	Image6      *string    `json:"image6"`
	Image7      *string    `json:"image7"`
	EarnedCount int        `json:"earned_count"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// EmptyGarden returns the shell rendered for a week with no check-ins yet.
// It is never persisted.
func EmptyGarden(userID string, weekMonday time.Time) *WeeklyGarden {
	return &WeeklyGarden{
		UserID:     userID,
		WeekMonday: weekMonday.Format(DateLayout),
	}
}

// Slots returns the seven day slots, Monday first.
func (g *WeeklyGarden) Slots() []*string {
	return []*string{g.Image1, g.Image2, g.Image3, g.Image4, g.Image5, g.Image6, g.Image7}
}

// Slot returns the flower for the given ISO weekday (1 = Monday).
func (g *WeeklyGarden) Slot(weekday int) *string {
	if weekday < 1 || weekday > DaysPerWeek {
		return nil
	}
	return g.Slots()[weekday-1]
}

// CountEarned sets EarnedCount to the number of filled day slots.
func (g *WeeklyGarden) CountEarned() {
	n := 0
	for _, s := range g.Slots() {
		if s != nil {
			n++
		}
	}
	g.EarnedCount = n
}

// FriendCheckin is a friend's flower for today.
type FriendCheckin struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	IconURL     string `json:"icon_url"`
	Flower      string `json:"flower_url"`
	CheckedInAt string `json:"checked_in_at"`
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// ISOWeekday returns the ISO-8601 day number of t: Monday = 1 .. Sunday = 7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekMonday returns midnight of the ISO Monday of the week containing t, in
// t's location.
func WeekMonday(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(ISOWeekday(t) - 1))
}
