package sync

import (
	"time"

	"github.com/google/uuid"
)

// MaxReportedFailures caps the failure list carried by a run report; the
// total count keeps increasing past the cap.
const MaxReportedFailures = 100

// Counters tracks upsert outcomes for one entity kind
type Counters struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Add accumulates another counter set
func (c *Counters) Add(other Counters) {
	c.Created += other.Created
	c.Updated += other.Updated
	c.Skipped += other.Skipped
}

// Total returns the number of processed records
func (c Counters) Total() int {
	return c.Created + c.Updated + c.Skipped
}

// EntityCounts groups counters per entity kind
type EntityCounts struct {
	Suppliers  Counters `json:"suppliers"`
	Categories Counters `json:"categories"`
	Products   Counters `json:"products"`
	Variants   Counters `json:"variants"`
	Images     Counters `json:"images"`
}

// ItemFailure is one accumulated per-item error with enough context to re-run
// just the failed subset.
type ItemFailure struct {
	ProductCode string `json:"product_code"`
	URL         string `json:"url,omitempty"`
	Message     string `json:"message"`
}

// RunReport is the result of one supplier sync run. It is always returned to
// the caller, never persisted by the engine.
type RunReport struct {
	RunID         uuid.UUID     `json:"run_id"`
	SupplierCode  string        `json:"supplier_code"`
	State         RunState      `json:"state"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Counts        EntityCounts  `json:"counts"`
	Failures      []ItemFailure `json:"failures,omitempty"`
	TotalFailures int           `json:"total_failures"`
	Message       string        `json:"message,omitempty"`
}

// NewRunReport starts a report for one supplier run
func NewRunReport(supplierCode string) *RunReport {
	return &RunReport{
		RunID:        uuid.New(),
		SupplierCode: supplierCode,
		State:        StateIdle,
		StartedAt:    time.Now(),
	}
}

// Transition moves the report to the next state when the edge is valid
func (r *RunReport) Transition(next RunState) bool {
	if !r.State.CanTransitionTo(next) {
		return false
	}
	r.State = next
	if next.IsTerminal() {
		r.FinishedAt = time.Now()
	}
	return true
}

// AddFailure appends one item failure, honoring the report cap.
// Not safe for concurrent use; the orchestrator serializes access.
func (r *RunReport) AddFailure(f ItemFailure) {
	r.TotalFailures++
	if len(r.Failures) < MaxReportedFailures {
		r.Failures = append(r.Failures, f)
	}
}

// HasFailures reports whether any item failed during the run
func (r *RunReport) HasFailures() bool {
	return r.TotalFailures > 0
}
