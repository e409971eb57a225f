package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/service"
)

// LocationHandler serves /api/location/summary.
type LocationHandler struct {
	location *service.LocationService
	logger   *slog.Logger
}

func NewLocationHandler(location *service.LocationService, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{location: location, logger: logger}
}

type locationBody struct {
	LocalDate        string   `json:"local_date" validate:"required,datetime=2006-01-02"`
	LocationVariance *float64 `json:"location_variance" validate:"required,gte=0"`
}

// HandleUpsert stores the movement summary for one day, replacing what was
// there.
//
// HTTP: POST /api/location/summary
// REQUEST BODY: {"local_date": "2026-10-14", "location_variance": 0.0031}
func (h *LocationHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body locationBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	s, err := h.location.Upsert(r.Context(), me, model.LocationSummary{
		LocalDate:        body.LocalDate,
		LocationVariance: *body.LocationVariance,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleGet returns one day when ?date= is given and a newest-first range
// otherwise. With no bounds the range is the last two weeks.
//
// HTTP: GET /api/location/summary?date=
// HTTP: GET /api/location/summary?from=&to=
func (h *LocationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	if date := q.Get("date"); date != "" {
		s, err := h.location.Get(r.Context(), me, date)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
		return
	}

	list, err := h.location.Range(r.Context(), me, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
