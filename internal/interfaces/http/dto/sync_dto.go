package dto

import (
	"time"

	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
	"github.com/catalogsync/backend/internal/infrastructure/status"
)

// RunReportResponse represents the outcome of one supplier sync run
type RunReportResponse struct {
	RunID         string                   `json:"run_id"`
	SupplierCode  string                   `json:"supplier_code"`
	State         string                   `json:"state"`
	StartedAt     time.Time                `json:"started_at"`
	FinishedAt    time.Time                `json:"finished_at"`
	Counts        syncdomain.EntityCounts  `json:"counts"`
	Failures      []syncdomain.ItemFailure `json:"failures,omitempty"`
	TotalFailures int                      `json:"total_failures"`
	Message       string                   `json:"message,omitempty"`
}

// FromRunReport maps a run report to its response representation
func FromRunReport(r *syncdomain.RunReport) RunReportResponse {
	return RunReportResponse{
		RunID:         r.RunID.String(),
		SupplierCode:  r.SupplierCode,
		State:         string(r.State),
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Counts:        r.Counts,
		Failures:      r.Failures,
		TotalFailures: r.TotalFailures,
		Message:       r.Message,
	}
}

// FromRunReports maps a batch of run reports
func FromRunReports(reports []*syncdomain.RunReport) []RunReportResponse {
	out := make([]RunReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, FromRunReport(r))
	}
	return out
}

// ConnectionResponse represents the feed connectivity probe result
type ConnectionResponse struct {
	Status         string   `json:"status"`
	SuppliersFound int      `json:"suppliers_found"`
	Suppliers      []string `json:"suppliers,omitempty"`
}

// SupplierStatusResponse represents the latest run snapshot for a supplier
type SupplierStatusResponse struct {
	SupplierCode  string                  `json:"supplier_code"`
	RunID         string                  `json:"run_id"`
	State         string                  `json:"state"`
	StartedAt     time.Time               `json:"started_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Counts        syncdomain.EntityCounts `json:"counts"`
	TotalFailures int                     `json:"total_failures"`
	Message       string                  `json:"message,omitempty"`
}

// FromRunStatuses maps tracker snapshots to their response representation
func FromRunStatuses(statuses []status.RunStatus) []SupplierStatusResponse {
	out := make([]SupplierStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, SupplierStatusResponse{
			SupplierCode:  s.SupplierCode,
			RunID:         s.RunID,
			State:         string(s.State),
			StartedAt:     s.StartedAt,
			UpdatedAt:     s.UpdatedAt,
			Counts:        s.Counts,
			TotalFailures: s.TotalFailures,
			Message:       s.Message,
		})
	}
	return out
}
