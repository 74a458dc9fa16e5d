package api

import (
	"net/http"

	"github.com/okian/patientor/internal/domain/normalize"
)

// PatientsHandler serves patients and their entries.
type PatientsHandler struct {
	deps         PatientDependencies
	rw           *responder
	maxBodyBytes int64
}

// HandleList handles GET /api/patients. Only non-sensitive fields are sent.
func (h *PatientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ps, err := h.deps.ListPatients(r.Context())
	if err != nil {
		h.rw.fail(w, r, "patient", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// HandleGet handles GET /api/patients/{id}.
func (h *PatientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Patient(r.Context(), r.PathValue("id"))
	if err != nil {
		h.rw.fail(w, r, "patient", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleCreate handles POST /api/patients.
func (h *PatientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		h.rw.fail(w, r, "patient", err)
		return
	}
	np, err := normalize.PatientJSON(body)
	if err != nil {
		h.rw.fail(w, r, "patient", err)
		return
	}
	p, err := h.deps.AddPatient(r.Context(), np)
	if err != nil {
		h.rw.fail(w, r, "patient", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleAddEntry handles POST /api/patients/{id}/entries.
func (h *PatientsHandler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		h.rw.fail(w, r, "entry", err)
		return
	}
	e, err := normalize.EntryJSON(body)
	if err != nil {
		h.rw.fail(w, r, "entry", err)
		return
	}
	stored, err := h.deps.AddEntry(r.Context(), r.PathValue("id"), e)
	if err != nil {
		h.rw.fail(w, r, "entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}
