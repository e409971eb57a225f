package model

import (
	"encoding/json"
	"time"
)

// DailyScore is a user's self-reported mental health score for one day.
// MentalDetails is an opaque JSON object supplied by the client.
type DailyScore struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	ScoreDate         string          `json:"score_date"`
	MentalHealthScore int             `json:"mental_health_score"`
	MentalDetails     json.RawMessage `json:"mental_details"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
