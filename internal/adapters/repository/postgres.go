package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okian/patientor/internal/domain/model"
	"github.com/okian/patientor/internal/domain/normalize"
	"github.com/okian/patientor/pkg/metrics"
	"github.com/tidwall/gjson"
)

const postgresStoreName = "postgres"

// querier is the subset of *pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is a PatientRepository backed by PostgreSQL. Entries are
// kept as JSONB payloads and decoded through the entry normalizer on read,
// so a row that no longer validates surfaces as an error instead of a
// half-built record.
type PostgresStore struct {
	db   querier
	opts options
}

var (
	_ PatientRepository = (*PostgresStore)(nil)
	_ Restorer          = (*PostgresStore)(nil)
)

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(db querier, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, opts: applyOptions(opts)}
}

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	position      BIGSERIAL,
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	date_of_birth TEXT NOT NULL,
	ssn           TEXT NOT NULL,
	gender        TEXT NOT NULL,
	occupation    TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS patient_entries (
	position   BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	patient_id TEXT NOT NULL REFERENCES patients(id),
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS patient_entries_patient_idx ON patient_entries (patient_id, position);
`

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const patientCols = `id, name, date_of_birth, ssn, gender, occupation`

func scanPatient(row pgx.Row) (model.Patient, error) {
	var (
		p      model.Patient
		gender string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.DateOfBirth, &p.SSN, &gender, &p.Occupation); err != nil {
		return model.Patient{}, err
	}
	p.Gender = model.Gender(gender)
	p.Entries = []model.Entry{}
	return p, nil
}

func decodeEntry(payload []byte) (model.Entry, error) {
	e, err := normalize.StoredEntry(gjson.ParseBytes(payload))
	if err != nil {
		return nil, fmt.Errorf("decode stored entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) fail(op string, err error) error {
	if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicate) {
		metrics.RecordRepositoryError(postgresStoreName, op)
	}
	return err
}

// Find loads a patient and its entries.
func (s *PostgresStore) Find(ctx context.Context, id string) (model.Patient, error) {
	defer observe(postgresStoreName, "find", time.Now())

	p, err := scanPatient(s.db.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Patient{}, s.fail("find", fmt.Errorf("find patient %s: %w", id, err))
	}

	rows, err := s.db.Query(ctx, `SELECT payload FROM patient_entries WHERE patient_id = $1 ORDER BY position`, id)
	if err != nil {
		return model.Patient{}, s.fail("find", fmt.Errorf("find entries %s: %w", id, err))
	}
	defer rows.Close()
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return model.Patient{}, s.fail("find", err)
		}
		e, err := decodeEntry(payload)
		if err != nil {
			return model.Patient{}, s.fail("find", err)
		}
		p.Entries = append(p.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return model.Patient{}, s.fail("find", err)
	}
	return p, nil
}

// List loads every patient with entries, in insertion order.
func (s *PostgresStore) List(ctx context.Context) ([]model.Patient, error) {
	defer observe(postgresStoreName, "list", time.Now())

	rows, err := s.db.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY position`)
	if err != nil {
		return nil, s.fail("list", fmt.Errorf("list patients: %w", err))
	}
	var (
		patients []model.Patient
		index    = make(map[string]int)
	)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			rows.Close()
			return nil, s.fail("list", err)
		}
		index[p.ID] = len(patients)
		patients = append(patients, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, s.fail("list", err)
	}

	entryRows, err := s.db.Query(ctx, `SELECT patient_id, payload FROM patient_entries ORDER BY position`)
	if err != nil {
		return nil, s.fail("list", fmt.Errorf("list entries: %w", err))
	}
	defer entryRows.Close()
	for entryRows.Next() {
		var (
			patientID string
			payload   []byte
		)
		if err := entryRows.Scan(&patientID, &payload); err != nil {
			return nil, s.fail("list", err)
		}
		i, ok := index[patientID]
		if !ok {
			// Patient inserted after the first query.
			continue
		}
		e, err := decodeEntry(payload)
		if err != nil {
			return nil, s.fail("list", err)
		}
		patients[i].Entries = append(patients[i].Entries, e)
	}
	if err := entryRows.Err(); err != nil {
		return nil, s.fail("list", err)
	}
	return patients, nil
}

// Append inserts a new patient under a fresh id. Entries on p are stored
// with fresh ids as well.
func (s *PostgresStore) Append(ctx context.Context, p model.NewPatient) (model.Patient, error) {
	defer observe(postgresStoreName, "append", time.Now())

	stored := model.Patient{ID: s.opts.newID(), NewPatient: p}
	entries := make([]model.Entry, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = e.WithID(s.opts.newID())
	}
	stored.Entries = entries

	if err := s.insert(ctx, stored); err != nil {
		return model.Patient{}, s.fail("append", err)
	}
	return stored, nil
}

// AppendEntry inserts e for an existing patient.
func (s *PostgresStore) AppendEntry(ctx context.Context, patientID string, e model.Entry) (model.Entry, error) {
	defer observe(postgresStoreName, "append_entry", time.Now())

	stored := e.WithID(s.opts.newID())
	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO patient_entries (id, patient_id, payload)
		SELECT $1, $2, $3::jsonb
		WHERE EXISTS (SELECT 1 FROM patients WHERE id = $2)`,
		stored.Base().ID, patientID, string(payload),
	)
	if err != nil {
		return nil, s.fail("append_entry", fmt.Errorf("insert entry: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("patient %s: %w", patientID, ErrNotFound)
	}
	return stored, nil
}

// Count returns the number of stored patients.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, s.fail("count", fmt.Errorf("count patients: %w", err))
	}
	return n, nil
}

// Restore inserts p with its own ids.
func (s *PostgresStore) Restore(ctx context.Context, p model.Patient) error {
	if err := s.insert(ctx, p); err != nil {
		return s.fail("restore", err)
	}
	return nil
}

// insert writes a patient and its entries in one transaction.
func (s *PostgresStore) insert(ctx context.Context, p model.Patient) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		INSERT INTO patients (`+patientCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.DateOfBirth, p.SSN, string(p.Gender), p.Occupation,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %s: %w", p.ID, ErrDuplicate)
	}

	for _, e := range p.Entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO patient_entries (id, patient_id, payload) VALUES ($1, $2, $3::jsonb)`,
			e.Base().ID, p.ID, string(payload),
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
