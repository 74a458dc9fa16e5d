package api

import (
	"net/http"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}

// TodoHandler serves the to-do statistics.
type TodoHandler struct {
	deps TodoDependencies
	rw   *responder
}

type todoStatsResponse struct {
	AddedTodos int64 `json:"added_todos"`
}

// HandleStatistics handles GET /statistics requests.
func (h *TodoHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.AddedTodos(r.Context())
	if err != nil {
		h.rw.fail(w, r, "todo", err)
		return
	}
	writeJSON(w, http.StatusOK, todoStatsResponse{AddedTodos: n})
}
