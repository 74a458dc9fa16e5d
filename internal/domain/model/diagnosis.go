package model

// Diagnosis is a catalog entry referenced by code from encounter entries.
// Entries may carry codes that are not in the catalog.
type Diagnosis struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Latin string `json:"latin,omitempty"`
}
