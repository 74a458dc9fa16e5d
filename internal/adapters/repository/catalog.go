package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/patientor/internal/domain/model"
)

// MemoryCatalog is an in-memory DiagnosisCatalog keyed by code.
type MemoryCatalog struct {
	mu     sync.RWMutex
	byCode map[string]model.Diagnosis
}

var _ DiagnosisCatalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog creates a catalog holding ds. Later duplicates of a code
// replace earlier ones.
func NewMemoryCatalog(ds ...model.Diagnosis) *MemoryCatalog {
	c := &MemoryCatalog{byCode: make(map[string]model.Diagnosis, len(ds))}
	c.Add(ds...)
	return c
}

// Add inserts or replaces diagnoses.
func (c *MemoryCatalog) Add(ds ...model.Diagnosis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range ds {
		c.byCode[d.Code] = d
	}
}

// Diagnoses returns the catalog ordered by code.
func (c *MemoryCatalog) Diagnoses(_ context.Context) ([]model.Diagnosis, error) {
	c.mu.RLock()
	out := make([]model.Diagnosis, 0, len(c.byCode))
	for _, d := range c.byCode {
		out = append(out, d)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Diagnosis looks up a single code.
func (c *MemoryCatalog) Diagnosis(_ context.Context, code string) (model.Diagnosis, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byCode[code]
	if !ok {
		return model.Diagnosis{}, fmt.Errorf("diagnosis %s: %w", code, ErrNotFound)
	}
	return d, nil
}

// Len returns the number of diagnoses.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byCode)
}
