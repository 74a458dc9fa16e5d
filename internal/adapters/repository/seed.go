package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/okian/patientor/internal/domain/model"
	"github.com/okian/patientor/internal/domain/normalize"
	"github.com/tidwall/gjson"
)

//go:embed seed/*.json
var seedFS embed.FS

// SeedResult reports what LoadSeed inserted.
type SeedResult struct {
	Patients  int
	Skipped   int
	Diagnoses int
}

// LoadSeed fills catalog with the bundled diagnoses and restores the bundled
// patients into patients. Patients already present are skipped, so seeding a
// persistent store twice is harmless. Seed records go through the same
// normalizers as API input.
func LoadSeed(ctx context.Context, patients Restorer, catalog *MemoryCatalog) (SeedResult, error) {
	var res SeedResult

	if catalog != nil {
		ds, err := SeedDiagnoses()
		if err != nil {
			return res, err
		}
		catalog.Add(ds...)
		res.Diagnoses = len(ds)
	}

	if patients == nil {
		return res, nil
	}
	ps, err := SeedPatients()
	if err != nil {
		return res, err
	}
	for _, p := range ps {
		err := patients.Restore(ctx, p)
		switch {
		case errors.Is(err, ErrDuplicate):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("restore seed patient %s: %w", p.ID, err)
		default:
			res.Patients++
		}
	}
	return res, nil
}

// SeedDiagnoses decodes the bundled diagnosis catalog.
func SeedDiagnoses() ([]model.Diagnosis, error) {
	data, err := seedFS.ReadFile("seed/diagnoses.json")
	if err != nil {
		return nil, fmt.Errorf("read seed diagnoses: %w", err)
	}
	var ds []model.Diagnosis
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode seed diagnoses: %w", err)
	}
	return ds, nil
}

// SeedPatients decodes and validates the bundled patients.
func SeedPatients() ([]model.Patient, error) {
	data, err := seedFS.ReadFile("seed/patients.json")
	if err != nil {
		return nil, fmt.Errorf("read seed patients: %w", err)
	}
	return DecodePatients(data)
}

// DecodePatients parses a JSON array of stored patients, ids included.
func DecodePatients(data []byte) ([]model.Patient, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("decode patients: malformed JSON")
	}
	var (
		out    []model.Patient
		decErr error
	)
	gjson.ParseBytes(data).ForEach(func(_, raw gjson.Result) bool {
		p, err := decodePatient(raw)
		if err != nil {
			decErr = err
			return false
		}
		out = append(out, p)
		return true
	})
	return out, decErr
}

func decodePatient(raw gjson.Result) (model.Patient, error) {
	id := raw.Get("id").String()
	if id == "" {
		return model.Patient{}, errors.New("decode patient: missing id")
	}
	np, err := normalize.Patient(raw)
	if err != nil {
		return model.Patient{}, fmt.Errorf("decode patient %s: %w", id, err)
	}
	for _, e := range raw.Get("entries").Array() {
		entry, err := normalize.StoredEntry(e)
		if err != nil {
			return model.Patient{}, fmt.Errorf("decode patient %s entry: %w", id, err)
		}
		np.Entries = append(np.Entries, entry)
	}
	return model.Patient{ID: id, NewPatient: np}, nil
}
