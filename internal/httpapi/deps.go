// Package httpapi exposes the local dashboard API: stored leads, run
// status, an on-demand run trigger, and an SSE stream of run progress.
// It binds to localhost only; there is no auth layer.
package httpapi

import (
	"context"
	"sync/atomic"

	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/events"
	"leadparser-engine/internal/store"
)

type Deps struct {
	Store store.LeadStore

	Hub *events.Hub

	// Atomic store of RunStatus
	Status *atomic.Value

	// Run entrypoint (inject for testability)
	RunPipeline func(ctx context.Context) (domain.RunStats, error)
}
