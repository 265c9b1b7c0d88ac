// Package status tracks the most recent sync run state per supplier so the
// admin surface can report progress across instances.
package status

import (
	"context"
	"sort"
	"sync"
	"time"

	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
)

// RunStatus is the externally visible snapshot of one supplier's latest run
type RunStatus struct {
	SupplierCode  string                  `json:"supplier_code"`
	RunID         string                  `json:"run_id"`
	State         syncdomain.RunState     `json:"state"`
	StartedAt     time.Time               `json:"started_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Counts        syncdomain.EntityCounts `json:"counts"`
	TotalFailures int                     `json:"total_failures"`
	Message       string                  `json:"message,omitempty"`
}

// Tracker records run status snapshots keyed by supplier code
type Tracker interface {
	Set(ctx context.Context, status RunStatus) error
	List(ctx context.Context) ([]RunStatus, error)
}

// MemoryTracker is the in-process Tracker used in development and tests
type MemoryTracker struct {
	mu     sync.RWMutex
	states map[string]RunStatus
}

// NewMemoryTracker creates an empty in-memory tracker
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{states: make(map[string]RunStatus)}
}

// Set stores the latest snapshot for the supplier
func (t *MemoryTracker) Set(_ context.Context, status RunStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	status.UpdatedAt = time.Now()
	t.states[status.SupplierCode] = status
	return nil
}

// List returns all snapshots sorted by supplier code
func (t *MemoryTracker) List(_ context.Context) ([]RunStatus, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RunStatus, 0, len(t.states))
	for _, s := range t.states {
		out = append(out, s)
	}
	sortBySupplier(out)
	return out, nil
}

// sortBySupplier orders snapshots by supplier code so listings are stable
// regardless of the backing store's iteration order.
func sortBySupplier(statuses []RunStatus) {
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].SupplierCode < statuses[j].SupplierCode
	})
}
