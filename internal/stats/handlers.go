package stats

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler serves the read-only stats endpoints.
type Handler struct {
	collector *Collector
	log       *slog.Logger
}

func NewHandler(collector *Collector, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{collector: collector, log: log}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/stats", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/active-games", h.handleActiveGames).Methods(http.MethodGet)
}

func (h *Handler) handleStats(w http.ResponseWriter, req *http.Request) {
	s, err := h.collector.Summary(req.Context())
	if err != nil {
		h.log.Error("stats summary failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handleActiveGames(w http.ResponseWriter, req *http.Request) {
	games, err := h.collector.ActiveGames(req.Context())
	if err != nil {
		h.log.Error("active games listing failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "stats unavailable")
		return
	}
	if games == nil {
		games = []RoomInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}
