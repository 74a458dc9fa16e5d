package loadtest

import "time"

// Config holds configuration for a load test run.
type Config struct {
	BaseURL           string        // Base URL of the service
	Patients          int           // Patients to create
	EntriesPerPatient int           // Entries posted for each patient
	InvalidRatio      float64       // Share of entries that are deliberately invalid
	Workers           int           // Concurrent HTTP workers
	Timeout           time.Duration // HTTP request timeout
	Seed              uint64        // Seed for the payload generator
	OutputFile        string        // Optional file receiving the generated payloads
}

// Stats holds run statistics.
type Stats struct {
	PatientsCreated  int
	EntriesSubmitted int
	EntriesAccepted  int
	EntriesRejected  int
	EntriesFailed    int
	UnexpectedStatus int
	StartTime        time.Time
	Duration         time.Duration
}

// job is one entry submission and the status it should produce.
type job struct {
	PatientID string `json:"patientId"`
	Body      string `json:"body"`
	Valid     bool   `json:"valid"`
}
