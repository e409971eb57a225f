// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account. The ID is issued by the external identity
// provider and is never generated here; the row is created the first time a
// verified principal reaches the API.
type User struct {
	ID          string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	IconURL     string    `json:"icon_url"`
	Email       string    `json:"email"`
	Birthday    string    `json:"birthday"` // YYYY-MM-DD or empty
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicProfile is the projection of a User that other users may see.
type PublicProfile struct {
	ID          string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	IconURL     string `json:"icon_url"`
}

// UserPatch carries a partial profile update. A nil field is left unchanged.
type UserPatch struct {
	Username    *string
	DisplayName *string
	IconURL     *string
	Email       *string
	Birthday    *string
	Phone       *string
}

// Empty reports whether the patch would change nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.DisplayName == nil && p.IconURL == nil &&
		p.Email == nil && p.Birthday == nil && p.Phone == nil
}
