package httpapi

import (
	"net/http"
	"sync/atomic"
)

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	lh := LeadsHandler{Store: d.Store, Hub: d.Hub}
	mux.HandleFunc("/leads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    lh.List,
		http.MethodDelete: lh.Clear,
	}))
	mux.HandleFunc("/leads/summary", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Summary,
	}))

	rh := RunHandler{Status: d.Status, RunPipeline: d.RunPipeline, running: new(atomic.Bool)}
	mux.HandleFunc("/run/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Get,
	}))
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Trigger,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
