package model

import "time"

// DeviceMetrics is the phone usage reported for one local calendar day.
// Writes for the same day replace the previous values.
type DeviceMetrics struct {
	UserID            string    `json:"user_id"`
	LocalDate         string    `json:"local_date"`
	ScreenTimeMinutes float64   `json:"screen_time_minutes"`
	UnlockCount       *int      `json:"unlock_count"`
	UpdatedAt         time.Time `json:"updated_at"`
}
