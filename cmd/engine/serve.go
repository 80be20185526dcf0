package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"leadparser-engine/internal/config"
	"leadparser-engine/internal/events"
	"leadparser-engine/internal/httpapi"
	"leadparser-engine/internal/pipeline"
	"leadparser-engine/internal/store"
)

// serve runs the local dashboard API until ctx is cancelled. Pipeline runs
// are triggered through POST /run and stream progress over /events.
func serve(ctx context.Context, addr string, cfg config.Config, apiKey string, st store.LeadStore) {
	hub := events.NewHub()
	p := pipeline.New(cfg, apiKey, st, hub)

	var status atomic.Value
	status.Store(httpapi.RunStatus{})

	mux := httpapi.NewMux(httpapi.Deps{
		Store:       st,
		Hub:         hub,
		Status:      &status,
		RunPipeline: p.Run,
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[engine] api listening on http://%s", ln.Addr())

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
