package httpapi

import (
	"net"
	"net/http"
	"strconv"

	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/events"
	"leadparser-engine/internal/store"
)

type LeadsHandler struct {
	Store store.LeadStore
	Hub   *events.Hub
}

// leadView adds the presentation tier on top of the stored lead.
type leadView struct {
	domain.Lead
	Tier domain.Tier `json:"tier"`
}

func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOpts{Niche: q.Get("niche")}
	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_min_score", "min_score must be an integer")
			return
		}
		opts.MinScore = n
	}

	leads, err := h.Store.List(r.Context(), opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	views := make([]leadView, 0, len(leads))
	for _, l := range leads {
		views = append(views, leadView{Lead: l, Tier: domain.TierFor(l.LeadScore)})
	}
	writeJSON(w, views)
}

func (h LeadsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sums, err := h.Store.Summary(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "summary_failed", err.Error())
		return
	}
	writeJSON(w, sums)
}

// Clear wipes the store. Destructive, so it only answers loopback callers.
func (h LeadsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host != "127.0.0.1" && host != "::1" && host != "localhost" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.Store.Clear(r.Context()); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "clear_failed", err.Error())
		return
	}
	h.Hub.Publish(events.Make("store_cleared", nil))
	w.WriteHeader(http.StatusNoContent)
}
