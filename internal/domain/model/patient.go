package model

// Gender is the biological-sex category of a patient.
type Gender string

// Accepted genders.
const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

// Genders lists every accepted gender.
var Genders = []Gender{Male, Female, Other}

// Valid reports whether g is one of the accepted genders.
func (g Gender) Valid() bool {
	switch g {
	case Male, Female, Other:
		return true
	}
	return false
}

// NewPatient is a validated patient that has not been stored yet.
type NewPatient struct {
	Name        string  `json:"name"`
	DateOfBirth string  `json:"dateOfBirth"`
	SSN         string  `json:"ssn"`
	Gender      Gender  `json:"gender"`
	Occupation  string  `json:"occupation"`
	Entries     []Entry `json:"entries"`
}

// Patient is a stored patient. Entries are append-only and kept in
// insertion order.
type Patient struct {
	ID string `json:"id"`
	NewPatient
}

// NonSensitive strips the SSN and entries.
func (p Patient) NonSensitive() NonSensitivePatient {
	return NonSensitivePatient{
		ID:          p.ID,
		Name:        p.Name,
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		Occupation:  p.Occupation,
	}
}

// Clone returns a copy that shares no mutable state with p.
func (p Patient) Clone() Patient {
	entries := make([]Entry, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = e.WithID(e.Base().ID)
	}
	p.Entries = entries
	return p
}

// NonSensitivePatient is the public listing shape of a patient.
type NonSensitivePatient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
	Occupation  string `json:"occupation"`
}
