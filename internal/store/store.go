// Package store persists qualified leads keyed by their identity hash and
// rejects re-insertion of already-seen identities.
package store

import (
	"context"

	"leadparser-engine/internal/domain"
)

type UpsertResult int

const (
	Inserted UpsertResult = iota
	Duplicate
)

func (r UpsertResult) String() string {
	if r == Duplicate {
		return "duplicate"
	}
	return "inserted"
}

type ListOpts struct {
	Niche    string // empty = all niches
	MinScore int
}

type NicheSummary struct {
	Niche    string  `json:"niche"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

// LeadStore is the dedup boundary of the pipeline. Upsert must behave as an
// atomic test-and-set per identity key even under concurrent writers.
// List returns leads ordered by lead_score descending, ties broken by
// identity key ascending so downstream exports are deterministic.
type LeadStore interface {
	Upsert(ctx context.Context, lead domain.Lead) (UpsertResult, error)
	List(ctx context.Context, opts ListOpts) ([]domain.Lead, error)
	Clear(ctx context.Context) error
	Summary(ctx context.Context) ([]NicheSummary, error)

	StartSession(ctx context.Context, niches []string) (int64, error)
	EndSession(ctx context.Context, id int64, stats domain.RunStats) error

	Close() error
}
