// Package ledger holds the in-memory working set of imputation records
// that the aggregation engine computes over. The ledger is versioned:
// every mutation bumps the version, which callers use to invalidate
// memoized aggregates.
package ledger

import (
	"sync"

	"horas/internal/core"
)

type Ledger struct {
	mu      sync.RWMutex
	byID    map[string]core.Imputation
	version uint64
}

func New() *Ledger {
	return &Ledger{byID: make(map[string]core.Imputation)}
}

// FromRecords builds a ledger pre-populated with the given records,
// e.g. a snapshot loaded from persistent storage at startup.
func FromRecords(records []core.Imputation) *Ledger {
	l := New()
	for _, imp := range records {
		l.byID[imp.ID] = imp
	}
	return l
}

// Upsert inserts the record if its id is unseen, otherwise replaces the
// stored record wholesale. There is no partial merge: the caller supplies
// the complete record including unedited fields.
func (l *Ledger) Upsert(imp core.Imputation) error {
	if err := imp.Validate(); err != nil {
		return err
	}
	if imp.ID == "" {
		return &core.ValidationError{Field: "id", Reason: "empty"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[imp.ID] = imp
	l.version++
	return nil
}

// Delete removes the record with the given id. Deleting an absent id is a
// no-op and does not bump the version.
func (l *Ledger) Delete(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[id]; !ok {
		return
	}
	delete(l.byID, id)
	l.version++
}

// Get returns the record with the given id.
func (l *Ledger) Get(id string) (core.Imputation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	imp, ok := l.byID[id]
	return imp, ok
}

// Query returns every record matching the conjunction of the filter's
// supplied predicates. Records are returned by value; queries never
// mutate the ledger.
func (l *Ledger) Query(f core.ImputationFilter) []core.Imputation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.Imputation
	for _, imp := range l.byID {
		if f.Matches(imp) {
			out = append(out, imp)
		}
	}
	return out
}

// Len returns the number of stored records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// Version returns the mutation counter. Aggregates memoized under an
// older version are stale.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// AnyWithType reports whether any record references the given task type.
func (l *Ledger) AnyWithType(typeID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, imp := range l.byID {
		if imp.Type == typeID {
			return true
		}
	}
	return false
}

// AnyWithTask reports whether any record references the given task.
func (l *Ledger) AnyWithTask(taskID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, imp := range l.byID {
		if imp.TaskID == taskID {
			return true
		}
	}
	return false
}

// TotalHours sums the seven day cells of an imputation, treating absent
// cells as zero.
func TotalHours(imp core.Imputation) float64 {
	return imp.Hours.Total()
}
