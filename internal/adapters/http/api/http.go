// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/okian/patientor/internal/adapters/repository"
	service "github.com/okian/patientor/internal/app"
	"github.com/okian/patientor/internal/domain/model"
	"github.com/okian/patientor/internal/domain/normalize"
	"github.com/okian/patientor/pkg/logger"
	"github.com/okian/patientor/pkg/metrics"
)

const defaultMaxBodyBytes = 1 << 20

// PatientDependencies are the patient operations the handlers need.
type PatientDependencies interface {
	ListPatients(ctx context.Context) ([]model.NonSensitivePatient, error)
	Patient(ctx context.Context, id string) (model.Patient, error)
	AddPatient(ctx context.Context, p model.NewPatient) (model.Patient, error)
	AddEntry(ctx context.Context, patientID string, e model.Entry) (model.Entry, error)
}

// DiagnosisDependencies exposes the diagnosis catalog.
type DiagnosisDependencies interface {
	Diagnoses(ctx context.Context) ([]model.Diagnosis, error)
}

// TodoDependencies exposes the to-do statistics counter.
type TodoDependencies interface {
	AddedTodos(ctx context.Context) (int64, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PatientDependencies
	DiagnosisDependencies
	TodoDependencies
}

// Option configures the Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for unexpected failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxBodyBytes int64
	logger       logger.Logger

	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	todoHandler      *TodoHandler
	patientsHandler  *PatientsHandler
	diagnosesHandler *DiagnosesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxBodyBytes: defaultMaxBodyBytes, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	rw := &responder{logger: s.logger}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.todoHandler = &TodoHandler{deps: deps, rw: rw}
	s.patientsHandler = &PatientsHandler{deps: deps, rw: rw, maxBodyBytes: s.maxBodyBytes}
	s.diagnosesHandler = &DiagnosesHandler{deps: deps, rw: rw}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /statistics", MetricsMiddleware(s.todoHandler.HandleStatistics, "statistics"))

	mux.HandleFunc("GET /api/ping", MetricsMiddleware(s.healthHandler.HandlePing, "ping"))
	mux.HandleFunc("GET /api/diagnoses", MetricsMiddleware(s.diagnosesHandler.HandleList, "diagnoses"))
	mux.HandleFunc("GET /api/patients", MetricsMiddleware(s.patientsHandler.HandleList, "patients"))
	mux.HandleFunc("POST /api/patients", MetricsMiddleware(s.patientsHandler.HandleCreate, "patients"))
	mux.HandleFunc("GET /api/patients/{id}", MetricsMiddleware(s.patientsHandler.HandleGet, "patient"))
	mux.HandleFunc("POST /api/patients/{id}/entries", MetricsMiddleware(s.patientsHandler.HandleAddEntry, "entries"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// responder maps service errors to HTTP responses.
type responder struct {
	logger logger.Logger
}

// fail writes the response for err. kind labels validation metrics
// ("patient" or "entry").
func (rw *responder) fail(w http.ResponseWriter, r *http.Request, kind string, err error) {
	var (
		verr   *normalize.ValidationError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		field := verr.Field
		if field == "" {
			field = "body"
		}
		metrics.RecordValidationFailure(kind, field)
		writeError(w, http.StatusBadRequest, "bad_request", verr)
	case errors.As(err, &tooBig):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", ErrPayloadTooLarge)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrCounterUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		rw.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, err
	}
	return body, nil
}
