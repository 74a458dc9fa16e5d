// Package normalize turns untyped request payloads into validated domain
// records.
//
// Every function here is pure: the input is read-only, nothing is stored,
// and the same payload always yields the same result. A payload either
// normalizes completely or yields a *ValidationError and no record.
package normalize

import (
	"github.com/okian/patientor/internal/domain/model"
	"github.com/tidwall/gjson"
)

// EntryJSON normalizes a raw JSON request body into an entry.
func EntryJSON(body []byte) (model.Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, invalid("", "Malformed JSON payload")
	}
	return Entry(gjson.ParseBytes(body))
}

// Entry validates payload and builds the entry variant named by its "type"
// field. The type is checked first, then description, date, specialist and
// diagnosis codes, then the variant fields; the first failure is returned.
// The result carries no id.
func Entry(payload gjson.Result) (model.Entry, error) {
	entryType, err := parseEntryType(payload.Get("type"))
	if err != nil {
		return nil, err
	}
	base, err := parseBase(payload)
	if err != nil {
		return nil, err
	}

	switch entryType {
	case model.HealthCheckType:
		rating, err := parseRating(payload.Get("healthCheckRating"))
		if err != nil {
			return nil, err
		}
		return model.HealthCheckEntry{BaseEntry: base, HealthCheckRating: rating}, nil

	case model.OccupationalHealthcareType:
		employer, err := parseString("employerName", payload.Get("employerName"))
		if err != nil {
			return nil, err
		}
		sickLeave, err := parseSickLeave(payload.Get("sickLeave"))
		if err != nil {
			return nil, err
		}
		return model.OccupationalHealthcareEntry{BaseEntry: base, EmployerName: employer, SickLeave: sickLeave}, nil

	case model.HospitalType:
		discharge, err := parseDischarge(payload.Get("discharge"))
		if err != nil {
			return nil, err
		}
		return model.HospitalEntry{BaseEntry: base, Discharge: discharge}, nil
	}
	// parseEntryType only lets known types through.
	panic("normalize: unhandled entry type " + string(entryType))
}

func parseBase(payload gjson.Result) (model.BaseEntry, error) {
	description, err := parseString("description", payload.Get("description"))
	if err != nil {
		return model.BaseEntry{}, err
	}
	date, err := parseDate("date", payload.Get("date"))
	if err != nil {
		return model.BaseEntry{}, err
	}
	specialist, err := parseString("specialist", payload.Get("specialist"))
	if err != nil {
		return model.BaseEntry{}, err
	}
	codes, err := parseCodes(payload.Get("diagnosisCodes"))
	if err != nil {
		return model.BaseEntry{}, err
	}
	return model.BaseEntry{
		Description:    description,
		Date:           date,
		Specialist:     specialist,
		DiagnosisCodes: codes,
	}, nil
}

// StoredEntry normalizes a previously stored entry and restores its id.
// A stored entry without an id is rejected.
func StoredEntry(payload gjson.Result) (model.Entry, error) {
	id, err := parseString("id", payload.Get("id"))
	if err != nil {
		return nil, err
	}
	e, err := Entry(payload)
	if err != nil {
		return nil, err
	}
	return e.WithID(id), nil
}

// PatientJSON normalizes a raw JSON request body into a new patient.
func PatientJSON(body []byte) (model.NewPatient, error) {
	if !gjson.ValidBytes(body) {
		return model.NewPatient{}, invalid("", "Malformed JSON payload")
	}
	return Patient(gjson.ParseBytes(body))
}

// Patient validates name, dateOfBirth, ssn, gender and occupation, in that
// order. Any entries in the payload are ignored; the new patient starts
// with an empty history.
func Patient(payload gjson.Result) (model.NewPatient, error) {
	name, err := parseString("name", payload.Get("name"))
	if err != nil {
		return model.NewPatient{}, err
	}
	dob, err := parseDate("dateOfBirth", payload.Get("dateOfBirth"))
	if err != nil {
		return model.NewPatient{}, err
	}
	ssn, err := parseString("ssn", payload.Get("ssn"))
	if err != nil {
		return model.NewPatient{}, err
	}
	gender, err := parseGender(payload.Get("gender"))
	if err != nil {
		return model.NewPatient{}, err
	}
	occupation, err := parseString("occupation", payload.Get("occupation"))
	if err != nil {
		return model.NewPatient{}, err
	}
	return model.NewPatient{
		Name:        name,
		DateOfBirth: dob,
		SSN:         ssn,
		Gender:      gender,
		Occupation:  occupation,
		Entries:     []model.Entry{},
	}, nil
}
