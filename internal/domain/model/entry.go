// Package model contains domain models passed between layers.
package model

import (
	"github.com/goccy/go-json"
)

// EntryType discriminates the encounter entry variants.
type EntryType string

// Known entry types. Matching is exact and case-sensitive.
const (
	HealthCheckType            EntryType = "HealthCheck"
	OccupationalHealthcareType EntryType = "OccupationalHealthcare"
	HospitalType               EntryType = "Hospital"
)

// EntryTypes lists every accepted discriminant.
var EntryTypes = []EntryType{HealthCheckType, OccupationalHealthcareType, HospitalType}

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case HealthCheckType, OccupationalHealthcareType, HospitalType:
		return true
	}
	return false
}

// HealthCheckRating is the ordered risk level recorded by a health check.
type HealthCheckRating int

// Rating levels. Healthy is zero and is a legitimate value.
const (
	Healthy      HealthCheckRating = 0
	LowRisk      HealthCheckRating = 1
	HighRisk     HealthCheckRating = 2
	CriticalRisk HealthCheckRating = 3
)

// Valid reports whether r is one of the four defined levels.
func (r HealthCheckRating) Valid() bool {
	return r >= Healthy && r <= CriticalRisk
}

func (r HealthCheckRating) String() string {
	switch r {
	case Healthy:
		return "Healthy"
	case LowRisk:
		return "LowRisk"
	case HighRisk:
		return "HighRisk"
	case CriticalRisk:
		return "CriticalRisk"
	}
	return "Unknown"
}

// BaseEntry holds the fields shared by every entry variant.
//
// A nil DiagnosisCodes means no codes were supplied; a non-nil empty slice
// is an explicit empty list. The two encode differently.
type BaseEntry struct {
	ID             string
	Description    string
	Date           string
	Specialist     string
	DiagnosisCodes []string
}

// Base returns the shared fields.
func (b BaseEntry) Base() BaseEntry { return b }

func (b BaseEntry) clone() BaseEntry {
	if b.DiagnosisCodes != nil {
		codes := make([]string, len(b.DiagnosisCodes))
		copy(codes, b.DiagnosisCodes)
		b.DiagnosisCodes = codes
	}
	return b
}

// Entry is one encounter in a patient's history. The set of
// implementations is closed: HealthCheckEntry, OccupationalHealthcareEntry
// and HospitalEntry.
type Entry interface {
	Type() EntryType
	Base() BaseEntry
	// WithID returns a copy of the entry carrying the given identity.
	WithID(id string) Entry
	isEntry()
}

// HealthCheckEntry is a general checkup.
type HealthCheckEntry struct {
	BaseEntry
	HealthCheckRating HealthCheckRating
}

// SickLeave is the interval an occupational visit signed the patient off for.
type SickLeave struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// OccupationalHealthcareEntry is an occupational-health visit.
type OccupationalHealthcareEntry struct {
	BaseEntry
	EmployerName string
	SickLeave    *SickLeave
}

// Discharge records how a hospital stay ended.
type Discharge struct {
	Date     string `json:"date"`
	Criteria string `json:"criteria"`
}

// HospitalEntry is a hospital stay.
type HospitalEntry struct {
	BaseEntry
	Discharge Discharge
}

func (HealthCheckEntry) Type() EntryType            { return HealthCheckType }
func (OccupationalHealthcareEntry) Type() EntryType { return OccupationalHealthcareType }
func (HospitalEntry) Type() EntryType               { return HospitalType }

func (HealthCheckEntry) isEntry()            {}
func (OccupationalHealthcareEntry) isEntry() {}
func (HospitalEntry) isEntry()               {}

func (e HealthCheckEntry) WithID(id string) Entry {
	e.BaseEntry = e.BaseEntry.clone()
	e.ID = id
	return e
}

func (e OccupationalHealthcareEntry) WithID(id string) Entry {
	e.BaseEntry = e.BaseEntry.clone()
	e.ID = id
	if e.SickLeave != nil {
		sl := *e.SickLeave
		e.SickLeave = &sl
	}
	return e
}

func (e HospitalEntry) WithID(id string) Entry {
	e.BaseEntry = e.BaseEntry.clone()
	e.ID = id
	return e
}

// baseWire is the JSON layout of the shared fields, discriminant included.
type baseWire struct {
	ID             string    `json:"id,omitempty"`
	Type           EntryType `json:"type"`
	Description    string    `json:"description"`
	Date           string    `json:"date"`
	Specialist     string    `json:"specialist"`
	DiagnosisCodes *[]string `json:"diagnosisCodes,omitempty"`
}

func wireOf(b BaseEntry, t EntryType) baseWire {
	w := baseWire{
		ID:          b.ID,
		Type:        t,
		Description: b.Description,
		Date:        b.Date,
		Specialist:  b.Specialist,
	}
	if b.DiagnosisCodes != nil {
		codes := b.DiagnosisCodes
		w.DiagnosisCodes = &codes
	}
	return w
}

// MarshalJSON encodes the entry with its "type" discriminant.
func (e HealthCheckEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		baseWire
		HealthCheckRating HealthCheckRating `json:"healthCheckRating"`
	}{wireOf(e.BaseEntry, HealthCheckType), e.HealthCheckRating})
}

// MarshalJSON encodes the entry with its "type" discriminant.
func (e OccupationalHealthcareEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		baseWire
		EmployerName string     `json:"employerName"`
		SickLeave    *SickLeave `json:"sickLeave,omitempty"`
	}{wireOf(e.BaseEntry, OccupationalHealthcareType), e.EmployerName, e.SickLeave})
}

// MarshalJSON encodes the entry with its "type" discriminant.
func (e HospitalEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		baseWire
		Discharge Discharge `json:"discharge"`
	}{wireOf(e.BaseEntry, HospitalType), e.Discharge})
}
