// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/patientor/internal/adapters/counter"
	"github.com/okian/patientor/internal/adapters/repository"
	"github.com/okian/patientor/internal/domain/model"
	"github.com/okian/patientor/pkg/logger"
	"github.com/okian/patientor/pkg/metrics"
)

// TodoCounter reads an integer counter from the key-value store.
type TodoCounter interface {
	Get(ctx context.Context, key string) (int64, error)
}

// Service implements the API dependencies for patient records and to-do
// statistics.
type Service struct {
	mu sync.RWMutex

	patients  repository.PatientRepository
	diagnoses repository.DiagnosisCatalog
	todos     TodoCounter

	// Configuration
	todoKey  string
	seedData bool

	// State
	started bool
	seeded  repository.SeedResult

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPatientRepository sets the patient store. Defaults to an in-memory store.
func WithPatientRepository(r repository.PatientRepository) Option {
	return func(s *Service) {
		if r != nil {
			s.patients = r
		}
	}
}

// WithDiagnosisCatalog sets the diagnosis catalog. Defaults to an in-memory catalog.
func WithDiagnosisCatalog(c repository.DiagnosisCatalog) Option {
	return func(s *Service) {
		if c != nil {
			s.diagnoses = c
		}
	}
}

// WithTodoCounter sets the counter read by AddedTodos.
func WithTodoCounter(c TodoCounter) Option {
	return func(s *Service) {
		if c != nil {
			s.todos = c
		}
	}
}

// WithTodoCounterKey sets the key read by AddedTodos.
func WithTodoCounterKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.todoKey = key
		}
	}
}

// WithSeedData controls whether Start loads the bundled records.
func WithSeedData(enabled bool) Option {
	return func(s *Service) {
		s.seedData = enabled
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		patients:  repository.NewMemoryStore(),
		diagnoses: repository.NewMemoryCatalog(),
		todoKey:   "added_todos",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start seeds the stores when enabled and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting patientor service...")

	if s.seedData {
		if err := s.seed(ctx); err != nil {
			return err
		}
	}
	s.refreshGauges(ctx)

	s.started = true
	s.logger.Info(ctx, "patientor service started", logger.Bool("seeded", s.seedData))
	return nil
}

func (s *Service) seed(ctx context.Context) error {
	catalog, _ := s.diagnoses.(*repository.MemoryCatalog)
	restorer, _ := s.patients.(repository.Restorer)
	if catalog == nil {
		s.logger.Warn(ctx, "diagnosis catalog does not accept seed data")
	}
	if restorer == nil {
		s.logger.Warn(ctx, "patient repository does not accept seed data")
	}

	res, err := repository.LoadSeed(ctx, restorer, catalog)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.seeded = res
	s.logger.Info(ctx, "seed data loaded",
		logger.Int("patients", res.Patients),
		logger.Int("skipped", res.Skipped),
		logger.Int("diagnoses", res.Diagnoses),
	)
	return nil
}

func (s *Service) refreshGauges(ctx context.Context) {
	if n, err := s.patients.Count(ctx); err == nil {
		metrics.UpdatePatientsTotal(n)
	}
	if ds, err := s.diagnoses.Diagnoses(ctx); err == nil {
		metrics.UpdateDiagnosesTotal(len(ds))
	}
}

// Stop marks the service stopped. Connection pools belong to the caller.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping patientor service...")

	s.started = false
	s.logger.Info(context.Background(), "patientor service stopped")
}

// ListPatients returns every patient without ssn and entries.
func (s *Service) ListPatients(ctx context.Context) ([]model.NonSensitivePatient, error) {
	ps, err := s.patients.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.NonSensitivePatient, len(ps))
	for i, p := range ps {
		out[i] = p.NonSensitive()
	}
	return out, nil
}

// Patient returns the full record for id.
func (s *Service) Patient(ctx context.Context, id string) (model.Patient, error) {
	return s.patients.Find(ctx, id)
}

// AddPatient stores a normalized patient and returns it with its new id.
func (s *Service) AddPatient(ctx context.Context, np model.NewPatient) (model.Patient, error) {
	p, err := s.patients.Append(ctx, np)
	if err != nil {
		s.log().Error(ctx, "add patient failed", logger.Error(err))
		return model.Patient{}, err
	}
	metrics.RecordPatientCreated()
	if n, err := s.patients.Count(ctx); err == nil {
		metrics.UpdatePatientsTotal(n)
	}
	s.log().Info(ctx, "patient added", logger.String("id", p.ID))
	return p, nil
}

// AddEntry appends a normalized entry to the patient's record.
func (s *Service) AddEntry(ctx context.Context, patientID string, e model.Entry) (model.Entry, error) {
	stored, err := s.patients.AppendEntry(ctx, patientID, e)
	if err != nil {
		s.log().Warn(ctx, "add entry failed",
			logger.String("patient", patientID),
			logger.Error(err),
		)
		return nil, err
	}
	metrics.RecordEntryCreated(string(stored.Type()))
	s.log().Info(ctx, "entry added",
		logger.String("patient", patientID),
		logger.String("id", stored.Base().ID),
		logger.String("type", string(stored.Type())),
	)
	return stored, nil
}

// Diagnoses returns the diagnosis catalog.
func (s *Service) Diagnoses(ctx context.Context) ([]model.Diagnosis, error) {
	return s.diagnoses.Diagnoses(ctx)
}

// AddedTodos reads the to-do counter.
func (s *Service) AddedTodos(ctx context.Context) (int64, error) {
	if s.todos == nil {
		return 0, ErrCounterUnavailable
	}
	n, err := s.todos.Get(ctx, s.todoKey)
	if errors.Is(err, counter.ErrUnavailable) {
		return 0, fmt.Errorf("%w: %w", ErrCounterUnavailable, err)
	}
	return n, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"seedData":       s.seedData,
		"todoCounterKey": s.todoKey,
	}
	if !s.started {
		return stats
	}

	if n, err := s.patients.Count(ctx); err == nil {
		stats["patients"] = n
		metrics.UpdatePatientsTotal(n)
	}
	if ds, err := s.diagnoses.Diagnoses(ctx); err == nil {
		stats["diagnoses"] = len(ds)
		metrics.UpdateDiagnosesTotal(len(ds))
	}
	if s.seedData {
		stats["seededPatients"] = s.seeded.Patients
	}
	return stats
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}
