package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/service"
)

// ScoreHandler serves /api/scores.
type ScoreHandler struct {
	scores *service.ScoreService
	logger *slog.Logger
}

func NewScoreHandler(scores *service.ScoreService, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scores: scores, logger: logger}
}

// scoreBody is shared by create and update. The score is a pointer because
// 0 is a valid value and "required" would reject it otherwise.
type scoreBody struct {
	ScoreDate     string          `json:"score_date" validate:"omitempty,datetime=2006-01-02"`
	Score         *int            `json:"mental_health_score" validate:"required,gte=0,lte=100"`
	MentalDetails json.RawMessage `json:"mental_details"`
}

// HandleCreate records the caller's score for a day.
//
// HTTP: POST /api/scores
// REQUEST BODY: {"score_date": "2026-10-14", "mental_health_score": 72, "mental_details": {...}}
// RESPONSE: 201 with the stored score, 409 when the day already has one.
func (h *ScoreHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body scoreBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if body.ScoreDate == "" {
		writeError(w, h.logger, apperror.ValidationFailed("score_date", "score_date is required"))
		return
	}

	score, err := h.scores.Create(r.Context(), me, service.ScoreInput{
		Date:    body.ScoreDate,
		Score:   *body.Score,
		Details: body.MentalDetails,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, score)
}

// HandleUpdate replaces the score of {date}. A score_date in the body is
// ignored; the path wins.
//
// HTTP: PUT /api/scores/{date}
func (h *ScoreHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body scoreBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	score, err := h.scores.Update(r.Context(), me, service.ScoreInput{
		Date:    chi.URLParam(r, "date"),
		Score:   *body.Score,
		Details: body.MentalDetails,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// HandleList returns scores for ?date=YYYY-MM-DD, or for the last ?days=N
// days (7 when neither is given).
//
// HTTP: GET /api/scores
func (h *ScoreHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	if date := q.Get("date"); date != "" {
		scores, err := h.scores.ByDate(r.Context(), me, date)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, scores)
		return
	}

	days := 0
	if raw := q.Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, h.logger, apperror.ValidationFailed("days", "days must be a whole number"))
			return
		}
	}

	scores, err := h.scores.LastDays(r.Context(), me, days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
