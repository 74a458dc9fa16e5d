package api

import "net/http"

// DiagnosesHandler serves the diagnosis catalog.
type DiagnosesHandler struct {
	deps DiagnosisDependencies
	rw   *responder
}

// HandleList handles GET /api/diagnoses requests.
func (h *DiagnosesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ds, err := h.deps.Diagnoses(r.Context())
	if err != nil {
		h.rw.fail(w, r, "diagnosis", err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}
