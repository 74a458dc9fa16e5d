// Package repository stores patients, their encounter entries and the
// diagnosis catalog.
package repository

import (
	"context"

	"github.com/okian/patientor/internal/domain/model"
)

// PatientRepository provides read/append access to patients.
//
// Implementations assign identities: Append gives the patient an id and
// AppendEntry gives the entry one. Entries are never removed or reordered.
type PatientRepository interface {
	// Find returns the patient with the given id, or ErrNotFound.
	Find(ctx context.Context, id string) (model.Patient, error)

	// List returns every patient in insertion order.
	List(ctx context.Context) ([]model.Patient, error)

	// Append stores a new patient and returns it with its id.
	Append(ctx context.Context, p model.NewPatient) (model.Patient, error)

	// AppendEntry adds an entry to the end of a patient's history and
	// returns it with its id. Returns ErrNotFound for an unknown patient;
	// nothing is stored in that case.
	AppendEntry(ctx context.Context, patientID string, e model.Entry) (model.Entry, error)

	// Count returns the number of stored patients.
	Count(ctx context.Context) (int, error)
}

// Restorer inserts fully formed patients, ids included. Used for seeding.
type Restorer interface {
	// Restore returns ErrDuplicate if a patient with the same id exists.
	Restore(ctx context.Context, p model.Patient) error
}

// DiagnosisCatalog exposes the known diagnoses.
type DiagnosisCatalog interface {
	// Diagnoses returns the catalog ordered by code.
	Diagnoses(ctx context.Context) ([]model.Diagnosis, error)

	// Diagnosis returns one diagnosis by code, or ErrNotFound.
	Diagnosis(ctx context.Context, code string) (model.Diagnosis, error)
}
