package http

import (
	"net/http"
)

func (h *Handler) sensorLatest(w http.ResponseWriter, r *http.Request) {
	reading := h.sensors.Latest()
	writeSuccess(w, http.StatusOK, map[string]any{
		"reading":    reading,
		"greenhouse": h.sensors.Meta(),
	})
}

func (h *Handler) sensorHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	series, err := h.sensors.History(q.Get("range"), q.Get("interval"))
	if err != nil {
		writeMappedError(r.Context(), w, "sensor_history", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"readings":   series,
		"greenhouse": h.sensors.Meta(),
	})
}

func (h *Handler) sensorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sensors.Stats()
	if err != nil {
		writeMappedError(r.Context(), w, "sensor_stats", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"stats":      stats,
		"greenhouse": h.sensors.Meta(),
	})
}
