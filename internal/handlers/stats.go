package handlers

import (
	"net/http"
	"time"
)

// StatsHandler serves the health probe and the live-counts endpoint.
type StatsHandler struct {
	dispatcher *Dispatcher
	startedAt  time.Time
}

func NewStatsHandler(dispatcher *Dispatcher) *StatsHandler {
	return &StatsHandler{dispatcher: dispatcher, startedAt: time.Now()}
}

func (h *StatsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.dispatcher.Stats())
}
