package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"leadparser-engine/internal/domain"
)

type RunHandler struct {
	Status      *atomic.Value // RunStatus
	RunPipeline func(ctx context.Context) (domain.RunStats, error)

	// Owns the single-run guarantee; RunStatus.Running is only the
	// reported view of it.
	running *atomic.Bool
}

func (h RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	st := h.Status.Load().(RunStatus)
	writeJSON(w, st)
}

func (h RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	// CAS so two concurrent triggers cannot both start a run and
	// double-spend the rate budget.
	if !h.running.CompareAndSwap(false, true) {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	st := h.Status.Load().(RunStatus)
	h.Status.Store(RunStatus{
		Running:   true,
		LastRunAt: time.Now().Format(time.RFC3339),
		LastOkAt:  st.LastOkAt,
	})

	go func() {
		stats, err := h.RunPipeline(context.Background())

		now := time.Now().Format(time.RFC3339)
		next := h.Status.Load().(RunStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastStats = &stats
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		h.Status.Store(next)
		h.running.Store(false)
	}()

	writeJSON(w, map[string]any{"ok": true})
}
