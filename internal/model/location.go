package model

import "time"

// LocationSummary is how much a user moved around on one local calendar day,
// reduced on the device to a single variance figure. Raw coordinates never
// reach the server.
type LocationSummary struct {
	UserID           string    `json:"user_id"`
	LocalDate        string    `json:"local_date"`
	LocationVariance float64   `json:"location_variance"`
	UpdatedAt        time.Time `json:"updated_at"`
}
