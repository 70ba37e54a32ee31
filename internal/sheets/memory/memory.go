package memory

import (
	"context"
	"fmt"
	"sync"

	"horas/internal/core"
	"horas/internal/services"
)

// Store is an in-memory stand-in for the Google Sheets mirror, used by
// tests and local development without credentials.
type Store struct {
	mu        sync.Mutex
	rows      map[string]core.Imputation
	summaries map[int]services.YearSummary
}

func New() *Store {
	return &Store{
		rows:      make(map[string]core.Imputation),
		summaries: make(map[int]services.YearSummary),
	}
}

// Append stores the row and returns a synthetic reference.
func (s *Store) Append(_ context.Context, imp core.Imputation) (string, error) {
	if err := imp.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[imp.ID] = imp
	return fmt.Sprintf("mem:%s", imp.ID), nil
}

// Delete removes the row. Missing ids are not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *Store) WriteYearSummary(_ context.Context, summary services.YearSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.Year] = summary
	return nil
}

// Row returns the mirrored row, if present.
func (s *Store) Row(id string) (core.Imputation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	imp, ok := s.rows[id]
	return imp, ok
}

// Len reports how many rows are mirrored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Summary returns the stored year summary, if present.
func (s *Store) Summary(year int) (services.YearSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[year]
	return sum, ok
}
