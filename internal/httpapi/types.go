package httpapi

import "leadparser-engine/internal/domain"

type RunStatus struct {
	Running   bool             `json:"running"`
	LastRunAt string           `json:"last_run_at"`
	LastOkAt  string           `json:"last_ok_at"`
	LastError string           `json:"last_error"`
	LastStats *domain.RunStats `json:"last_stats,omitempty"`
}
