// Package pipeline drives a full acquisition run: scrape each configured
// niche, filter, enrich, score, persist, then export one CSV snapshot.
// Niches run sequentially so rate-limit budgets stay predictable and only
// one niche's candidate set is in memory at a time.
package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"leadparser-engine/internal/config"
	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/enrich"
	"leadparser-engine/internal/events"
	"leadparser-engine/internal/export"
	"leadparser-engine/internal/normalize"
	"leadparser-engine/internal/pitch"
	"leadparser-engine/internal/rank"
	"leadparser-engine/internal/scrape/places"
	"leadparser-engine/internal/scrape/util"
	"leadparser-engine/internal/store"
)

// enrichWorkers bounds in-flight provider lookups per niche. Pacing is still
// governed by the shared SourceLimiter, this only caps goroutines.
const enrichWorkers = 4

type Pipeline struct {
	cfg     config.Config
	scraper *places.Scraper
	chain   *enrich.Chain
	scorer  rank.Scorer
	pitches pitch.Engine
	store   store.LeadStore
	hub     *events.Hub

	mu    sync.Mutex
	state State
}

// New wires the run components from config. The store is opened by the
// caller so it can be shared with export-only invocations.
func New(cfg config.Config, apiKey string, st store.LeadStore, hub *events.Hub) *Pipeline {
	limiter := util.NewSourceLimiter(cfg.Scraping.RequestsPerSec, cfg.Scraping.Burst)
	timeout := time.Duration(cfg.Scraping.RequestTimeoutSec) * time.Second

	scraper := places.New(places.Config{
		APIKey:         apiKey,
		PageTokenDelay: time.Duration(cfg.Scraping.PageTokenDelayMS) * time.Millisecond,
		RequestTimeout: timeout,
	}, limiter)

	return &Pipeline{
		cfg:     cfg,
		scraper: scraper,
		chain:   enrich.NewChain(enrich.FromConfig(cfg), limiter, timeout),
		scorer:  rank.NewWeightScorer(cfg),
		pitches: pitch.New(cfg),
		store:   st,
		hub:     hub,
		state:   StateIdle,
	}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run executes the full pipeline over every configured niche. Per-candidate
// errors are logged and absorbed; the run aborts only when the primary
// source is unavailable or the caller cancels ctx. The returned stats are
// valid even on error and carry the first fatal error verbatim.
func (p *Pipeline) Run(ctx context.Context) (domain.RunStats, error) {
	var stats domain.RunStats

	sessionID, err := p.store.StartSession(ctx, p.cfg.Niches)
	if err != nil {
		log.Printf("[pipeline] session bookkeeping unavailable: %v", err)
	}

	p.hub.Publish(events.Make(events.TypeRunStarted, map[string]any{"niches": p.cfg.Niches}))

	fail := func(cause error) (domain.RunStats, error) {
		stats.FatalError = cause.Error()
		p.setState(StateFailed)
		p.endSession(sessionID, stats)
		p.hub.Publish(events.Make(events.TypeRunFailed, stats))
		return stats, cause
	}

	for _, niche := range p.cfg.Niches {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		ns, err := p.runNiche(ctx, niche)
		stats.Add(ns)
		p.hub.Publish(events.Make(events.TypeNicheDone, ns))
		if err != nil {
			return fail(err)
		}
		log.Printf("[pipeline] niche %q: found=%d qualified=%d persisted=%d duplicates=%d errors=%d",
			niche, ns.Found, ns.Qualified, ns.Persisted, ns.Duplicates, ns.Errors)
	}

	p.setState(StateExporting)
	path, err := p.Export(ctx)
	if err != nil {
		return fail(err)
	}
	log.Printf("[pipeline] exported snapshot to %s", path)

	p.endSession(sessionID, stats)
	p.setState(StateIdle)
	p.hub.Publish(events.Make(events.TypeRunFinished, stats))
	return stats, nil
}

func (p *Pipeline) endSession(id int64, stats domain.RunStats) {
	if id == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.store.EndSession(ctx, id, stats); err != nil {
		log.Printf("[pipeline] closing session %d: %v", id, err)
	}
}

// runNiche walks one niche through every phase. The returned error is fatal
// for the run; everything recoverable is logged and counted instead.
func (p *Pipeline) runNiche(ctx context.Context, niche string) (domain.NicheStats, error) {
	ns := domain.NicheStats{Niche: niche}
	loc := p.cfg.Location

	p.setState(StateScraping)
	cands, err := p.scraper.Search(ctx, niche, loc.City, loc.State, p.cfg.Scraping.MaxResultsPerNiche)
	if err != nil {
		var pageErr *places.PageError
		switch {
		case errors.Is(err, places.ErrSourceUnavailable):
			return ns, err
		case ctx.Err() != nil:
			return ns, ctx.Err()
		case errors.As(err, &pageErr):
			// Pagination aborted; keep what we have.
			log.Printf("[pipeline] niche %q: %v (continuing with %d partial results)", niche, err, len(cands))
			ns.Errors++
		default:
			log.Printf("[pipeline] niche %q search failed: %v", niche, err)
			ns.Errors++
		}
	}
	ns.Found = len(cands)

	p.setState(StateFiltering)
	kept := p.filter(cands)

	p.setState(StateEnriching)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichWorkers)
	for i := range kept {
		i := i
		g.Go(func() error {
			kept[i] = p.chain.Enrich(gctx, kept[i])
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return ns, err
	}

	p.setState(StateScoring)
	scores := make([]int, len(kept))
	for i, c := range kept {
		scores[i] = p.scorer.Score(c)
	}

	p.setState(StatePersisting)
	dateAdded := time.Now().UTC().Format("2006-01-02")
	for i, c := range kept {
		if err := ctx.Err(); err != nil {
			return ns, err
		}
		if !p.qualifies(c, scores[i]) {
			continue
		}
		ns.Qualified++

		lead := domain.Lead{
			IdentityKey: domain.IdentityKey(c.Name, c.City),
			Niche:       c.Niche,
			Name:        c.Name,
			Phone:       c.Phone,
			Address:     c.Address,
			City:        c.City,
			State:       c.State,
			Zip:         c.Zip,
			Rating:      c.Rating,
			ReviewCount: c.ReviewCount,
			Website:     c.Website,
			GMBLink:     c.GMBLink,
			Source:      c.Source,
			DateAdded:   dateAdded,
			LeadScore:   scores[i],
			PitchText:   p.pitches.Render(c.Niche, c),
			Notes:       c.Notes,
		}

		res, err := p.store.Upsert(ctx, lead)
		if err != nil {
			log.Printf("[pipeline] upsert %q failed: %v", lead.Name, err)
			ns.Errors++
			continue
		}
		switch res {
		case store.Inserted:
			ns.Persisted++
		case store.Duplicate:
			ns.Duplicates++
		}
	}

	return ns, nil
}

// filter normalizes each candidate in place and drops the ones that can
// never qualify: website present (under the default policy), or reviews or
// rating outside the configured bounds. Candidates still missing a phone
// pass through so the enrichment chain gets a shot at them.
func (p *Pipeline) filter(cands []domain.Candidate) []domain.Candidate {
	f := p.cfg.Filters
	loc := p.cfg.Location

	var kept []domain.Candidate
	for _, c := range cands {
		parts := normalize.AddressWithFallback(c.Address, loc.City, loc.State)
		c.City, c.State, c.Zip = parts.City, parts.State, parts.Zip
		c.Phone = normalize.Phone(c.Phone)

		if f.ExcludeWithWebsite && strings.TrimSpace(c.Website) != "" {
			continue
		}
		if c.ReviewCount < f.MinReviews || c.ReviewCount > f.MaxReviews {
			continue
		}
		if c.Rating < f.MinRating || c.Rating > f.MaxRating {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// qualifies is the final promotion gate, evaluated on post-enrichment
// state. Phone is mandatory: a candidate the chain could not find a number
// for is dropped here, not by the chain. The website check repeats after
// enrichment because the chain may have discovered a site the primary
// source did not list; such a business is no longer a lead.
func (p *Pipeline) qualifies(c domain.Candidate, score int) bool {
	if strings.TrimSpace(c.Phone) == "" {
		return false
	}
	if p.cfg.Filters.ExcludeWithWebsite && strings.TrimSpace(c.Website) != "" {
		return false
	}
	return score >= p.cfg.Filters.MinLeadScore
}

// Export writes the current store contents to the timestamped CSV and the
// leads_latest.csv copy. Pure projection; the store is never mutated.
func (p *Pipeline) Export(ctx context.Context) (string, error) {
	leads, err := p.store.List(ctx, store.ListOpts{})
	if err != nil {
		return "", err
	}
	snap := export.Build(leads)
	return export.WriteFiles(p.cfg.Export.OutputDir, snap, time.Now())
}
