package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/patientor/internal/domain/model"
	"github.com/okian/patientor/pkg/metrics"
)

const memoryStoreName = "memory"

// MemoryStore is an in-memory PatientRepository. It is safe for concurrent
// use and hands out copies, so callers cannot mutate stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	patients []model.Patient
	index    map[string]int
	opts     options
}

var (
	_ PatientRepository = (*MemoryStore)(nil)
	_ Restorer          = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int),
		opts:  applyOptions(opts),
	}
}

func observe(store, op string, start time.Time) {
	metrics.RecordRepositoryOperation(store, op, float64(time.Since(start).Microseconds())/1000)
}

// Find returns a copy of the patient with the given id.
func (s *MemoryStore) Find(_ context.Context, id string) (model.Patient, error) {
	defer observe(memoryStoreName, "find", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return model.Patient{}, fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}
	return s.patients[i].Clone(), nil
}

// List returns copies of every patient in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]model.Patient, error) {
	defer observe(memoryStoreName, "list", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Patient, len(s.patients))
	for i, p := range s.patients {
		out[i] = p.Clone()
	}
	return out, nil
}

// Append stores p under a fresh id.
func (s *MemoryStore) Append(_ context.Context, p model.NewPatient) (model.Patient, error) {
	defer observe(memoryStoreName, "append", time.Now())
	stored := model.Patient{ID: s.opts.newID(), NewPatient: p}.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[stored.ID]; exists {
		return model.Patient{}, fmt.Errorf("patient %s: %w", stored.ID, ErrDuplicate)
	}
	s.index[stored.ID] = len(s.patients)
	s.patients = append(s.patients, stored)
	return stored.Clone(), nil
}

// AppendEntry assigns e an id and appends it to the patient's history.
func (s *MemoryStore) AppendEntry(_ context.Context, patientID string, e model.Entry) (model.Entry, error) {
	defer observe(memoryStoreName, "append_entry", time.Now())
	stored := e.WithID(s.opts.newID())

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[patientID]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", patientID, ErrNotFound)
	}
	s.patients[i].Entries = append(s.patients[i].Entries, stored)
	return stored.WithID(stored.Base().ID), nil
}

// Count returns the number of stored patients.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patients), nil
}

// Restore inserts p as given, keeping its id and entries.
func (s *MemoryStore) Restore(_ context.Context, p model.Patient) error {
	stored := p.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[stored.ID]; exists {
		return fmt.Errorf("patient %s: %w", stored.ID, ErrDuplicate)
	}
	s.index[stored.ID] = len(s.patients)
	s.patients = append(s.patients, stored)
	return nil
}
