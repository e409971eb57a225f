package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/service"
)

// MetricsHandler serves /api/metrics/device.
type MetricsHandler struct {
	metrics *service.MetricsService
	logger  *slog.Logger
}

func NewMetricsHandler(metrics *service.MetricsService, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, logger: logger}
}

type metricsBody struct {
	UserID            string   `json:"user_id" validate:"omitempty,max=128"`
	LocalDate         string   `json:"local_date" validate:"required,datetime=2006-01-02"`
	ScreenTimeMinutes *float64 `json:"screen_time_minutes" validate:"required,gte=0"`
	UnlockCount       *int     `json:"unlock_count" validate:"omitempty,gte=0"`
}

func (b metricsBody) toModel() model.DeviceMetrics {
	return model.DeviceMetrics{
		UserID:            b.UserID,
		LocalDate:         b.LocalDate,
		ScreenTimeMinutes: *b.ScreenTimeMinutes,
		UnlockCount:       b.UnlockCount,
	}
}

type metricsBatchBody struct {
	Rows []metricsBody `json:"rows" validate:"required,min=1,max=366,dive"`
}

// BatchResponse is returned by the batch upsert.
type BatchResponse struct {
	Count int                   `json:"count"`
	Rows  []model.DeviceMetrics `json:"rows"`
}

// HandleUpsert stores one day of usage, replacing what was there.
//
// HTTP: POST /api/metrics/device
// REQUEST BODY: {"local_date": "2026-10-14", "screen_time_minutes": 212.5, "unlock_count": 80}
// RESPONSE: 200 with the stored row, 403 if user_id names someone else.
func (h *MetricsHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body metricsBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	m, err := h.metrics.Upsert(r.Context(), me, body.toModel())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleBatch stores several days at once; either all rows are written or
// none.
//
// HTTP: POST /api/metrics/device/batch
// REQUEST BODY: {"rows": [{...}, {...}]}
func (h *MetricsHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body metricsBatchBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows := make([]model.DeviceMetrics, 0, len(body.Rows))
	for _, b := range body.Rows {
		rows = append(rows, b.toModel())
	}

	stored, err := h.metrics.UpsertBatch(r.Context(), me, rows)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchResponse{Count: len(stored), Rows: stored})
}

// HandleRange returns the caller's metrics between from and to.
//
// HTTP: GET /api/metrics/device?from=&to=
func (h *MetricsHandler) HandleRange(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	rows, err := h.metrics.Range(r.Context(), me, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleGet returns one day of the caller's metrics.
//
// HTTP: GET /api/metrics/device/{date}
func (h *MetricsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	m, err := h.metrics.Get(r.Context(), me, chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleDelete removes one day of the caller's metrics.
//
// HTTP: DELETE /api/metrics/device/{date}
func (h *MetricsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.metrics.Delete(r.Context(), me, chi.URLParam(r, "date")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
