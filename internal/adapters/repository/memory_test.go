package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/patientor/internal/domain/model"
)

func newPatient(name string) model.NewPatient {
	return model.NewPatient{
		Name:        name,
		DateOfBirth: "1980-01-01",
		SSN:         "010180-000A",
		Gender:      model.Female,
		Occupation:  "Engineer",
		Entries:     []model.Entry{},
	}
}

func checkup(desc string) model.Entry {
	return model.HealthCheckEntry{
		BaseEntry:         model.BaseEntry{Description: desc, Date: "2023-01-05", Specialist: "Dr. X"},
		HealthCheckRating: model.LowRisk,
	}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("expected empty store, got %d", n)
	}

	p, err := store.Append(ctx, newPatient("Ada"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected an assigned id")
	}

	found, err := store.Find(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Name != "Ada" || found.SSN != "010180-000A" {
		t.Errorf("unexpected patient: %+v", found)
	}

	if _, err := store.Find(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
}

func TestMemoryStore_AppendEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p, _ := store.Append(ctx, newPatient("Ada"))

	first, err := store.AppendEntry(ctx, p.ID, checkup("first"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.AppendEntry(ctx, p.ID, checkup("second"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Base().ID == "" || second.Base().ID == "" || first.Base().ID == second.Base().ID {
		t.Fatalf("expected distinct ids, got %q and %q", first.Base().ID, second.Base().ID)
	}

	found, _ := store.Find(ctx, p.ID)
	if len(found.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(found.Entries))
	}
	if found.Entries[0].Base().Description != "first" || found.Entries[1].Base().Description != "second" {
		t.Error("entries are not in insertion order")
	}

	if _, err := store.AppendEntry(ctx, "missing", checkup("lost")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	all, _ := store.List(ctx)
	for _, p := range all {
		for _, e := range p.Entries {
			if e.Base().Description == "lost" {
				t.Error("entry for unknown patient was stored")
			}
		}
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p, _ := store.Append(ctx, newPatient("Ada"))
	_, _ = store.AppendEntry(ctx, p.ID, model.HospitalEntry{
		BaseEntry: model.BaseEntry{Description: "d", Date: "2023-01-01", Specialist: "s", DiagnosisCodes: []string{"S62.5"}},
		Discharge: model.Discharge{Date: "2023-01-02", Criteria: "ok"},
	})

	found, _ := store.Find(ctx, p.ID)
	found.Name = "changed"
	found.Entries[0].Base().DiagnosisCodes[0] = "changed"
	found.Entries = append(found.Entries, checkup("extra"))

	again, _ := store.Find(ctx, p.ID)
	if again.Name != "Ada" {
		t.Errorf("name leaked through copy: %q", again.Name)
	}
	if len(again.Entries) != 1 {
		t.Errorf("entries leaked through copy: %d", len(again.Entries))
	}
	if again.Entries[0].Base().DiagnosisCodes[0] != "S62.5" {
		t.Error("diagnosis codes leaked through copy")
	}
}

func TestMemoryStore_ListOrderAndRestore(t *testing.T) {
	ctx := context.Background()
	ids := []string{"id-1", "id-2", "id-3"}
	next := 0
	store := NewMemoryStore(WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))

	if err := store.Restore(ctx, model.Patient{ID: "seeded", NewPatient: newPatient("Seed")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Restore(ctx, model.Patient{ID: "seeded", NewPatient: newPatient("Again")}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	a, _ := store.Append(ctx, newPatient("A"))
	b, _ := store.Append(ctx, newPatient("B"))
	if a.ID != "id-1" || b.ID != "id-2" {
		t.Errorf("unexpected ids %q %q", a.ID, b.ID)
	}

	all, _ := store.List(ctx)
	got := make([]string, len(all))
	for i, p := range all {
		got[i] = p.Name
	}
	if fmt.Sprint(got) != "[Seed A B]" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p, _ := store.Append(ctx, newPatient("Ada"))

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := store.AppendEntry(ctx, p.ID, checkup("c")); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				_, _ = store.Find(ctx, p.ID)
			}
		}()
	}
	wg.Wait()

	found, _ := store.Find(ctx, p.ID)
	if len(found.Entries) != workers*perWorker {
		t.Errorf("expected %d entries, got %d", workers*perWorker, len(found.Entries))
	}
	seen := make(map[string]bool)
	for _, e := range found.Entries {
		if seen[e.Base().ID] {
			t.Fatalf("duplicate entry id %s", e.Base().ID)
		}
		seen[e.Base().ID] = true
	}
}
