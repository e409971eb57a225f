package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vines-backend/internal/service"
)

// GardenHandler serves /api/garden.
type GardenHandler struct {
	garden *service.GardenService
	logger *slog.Logger
}

func NewGardenHandler(garden *service.GardenService, logger *slog.Logger) *GardenHandler {
	return &GardenHandler{garden: garden, logger: logger}
}

type checkinBody struct {
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	FlowerName string `json:"flower_name" validate:"required,max=200"`
	PotImage   string `json:"pot_image" validate:"omitempty,max=500"`
}

// HandleCheckin plants today's (or the given day's) flower.
//
// HTTP: POST /api/garden/checkin
// REQUEST BODY: {"date": "2026-10-12", "flower_name": "rose", "pot_image": "terracotta"}
// date and pot_image are optional. RESPONSE: 200 with the full week row.
func (h *GardenHandler) HandleCheckin(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body checkinBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	g, err := h.garden.Checkin(r.Context(), me, body.Date, body.FlowerName, body.PotImage)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleThisWeek returns the caller's garden for the current week.
//
// HTTP: GET /api/garden/week
func (h *GardenHandler) HandleThisWeek(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	g, err := h.garden.ThisWeek(r.Context(), me)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleRecent returns the caller's recent weeks, newest first.
//
// HTTP: GET /api/garden/recent
func (h *GardenHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	gardens, err := h.garden.Recent(r.Context(), me)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, gardens)
}

// HandleFriendsToday lists the friends who checked in today.
//
// HTTP: GET /api/garden/friends-today
func (h *GardenHandler) HandleFriendsToday(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	checkins, err := h.garden.FriendsToday(r.Context(), me)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, checkins)
}

// HandleUserWeek returns another user's garden for the current week.
//
// HTTP: GET /api/garden/user/{userId}/week
func (h *GardenHandler) HandleUserWeek(w http.ResponseWriter, r *http.Request) {
	g, err := h.garden.UserWeek(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
