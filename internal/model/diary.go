package model

import "time"

// DiaryEntry is one diary post. Content, Mood and MediaURL are each optional
// but at least one is set.
//
// Username, IconURL and the reaction fields are filled in when entries are
// listed; they are not stored on the entry itself.
type DiaryEntry struct {
	ID        string    `json:"entry_id"`
	UserID    string    `json:"user_id"`
	Content   *string   `json:"content"`
	Mood      *string   `json:"mood"`
	MediaURL  *string   `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string          `json:"username"`
	IconURL      string          `json:"icon_url"`
	Reactions    []ReactionCount `json:"reactions"`
	CommentCount int             `json:"comment_count"`
	// Reacted reports whether the viewer left at least one reaction.
	Reacted bool `json:"reacted"`
}

// ReactionCount is how many users reacted to an entry with one emoji.
type ReactionCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// DiaryReaction is a single user's emoji on an entry.
type DiaryReaction struct {
	EntryID   string    `json:"entry_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// DiaryComment is a reply to an entry: a text body, an emoji, or both.
type DiaryComment struct {
	ID        string    `json:"comment_id"`
	EntryID   string    `json:"entry_id"`
	UserID    string    `json:"user_id"`
	Body      *string   `json:"body"`
	Emoji     *string   `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Username  string    `json:"username"`
	IconURL   string    `json:"icon_url"`
}

// DiaryPage selects a slice of a feed ordered newest first. A zero Before
// starts from the newest entry.
type DiaryPage struct {
	Limit  int
	Before time.Time
}
