package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"leadparser-engine/internal/config"
	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/enrich"
	"leadparser-engine/internal/pitch"
	"leadparser-engine/internal/rank"
	"leadparser-engine/internal/scrape/places"
	"leadparser-engine/internal/scrape/util"
	"leadparser-engine/internal/store"
)

type fakeBusiness struct {
	name    string
	phone   string
	website string
	reviews int
	rating  float64
}

// fakeSource serves scripted search results per niche plus per-place
// details.
type fakeSource struct {
	byNiche map[string][]fakeBusiness
}

func (f *fakeSource) handler() http.Handler {
	detail := map[string]fakeBusiness{}
	for _, businesses := range f.byNiche {
		for _, b := range businesses {
			detail[b.name] = b
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		var results []map[string]any
		for niche, businesses := range f.byNiche {
			if !strings.HasPrefix(query, niche+" in ") {
				continue
			}
			for _, b := range businesses {
				results = append(results, map[string]any{
					"place_id":           b.name,
					"name":               b.name,
					"formatted_address":  "123 Main St, Austin, TX 78701",
					"rating":             b.rating,
					"user_ratings_total": b.reviews,
				})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": results})
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		b := detail[r.URL.Query().Get("place_id")]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"result": map[string]any{
				"formatted_phone_number": b.phone,
				"website":                b.website,
				"url":                    "https://maps.example/" + b.name,
			},
		})
	})
	return mux
}

func testPipeline(t *testing.T, cfg config.Config, src *fakeSource) (*Pipeline, store.LeadStore) {
	t.Helper()

	srv := httptest.NewServer(src.handler())
	t.Cleanup(srv.Close)

	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	limiter := util.NewSourceLimiter(1000, 100)
	p := &Pipeline{
		cfg: cfg,
		scraper: places.New(places.Config{
			APIKey:         "test-key",
			BaseURL:        srv.URL,
			PageTokenDelay: time.Millisecond,
		}, limiter),
		chain:   enrich.NewChain(nil, limiter, time.Second),
		scorer:  rank.NewWeightScorer(cfg),
		pitches: pitch.New(cfg),
		store:   st,
		state:   StateIdle,
	}
	return p, st
}

func testCfg(t *testing.T, niches ...string) config.Config {
	cfg := config.Default()
	cfg.Niches = niches
	cfg.Location = config.Location{City: "Austin", State: "TX"}
	cfg.Export.OutputDir = t.TempDir()
	return cfg
}

func TestRunQualifyingFilter(t *testing.T) {
	src := &fakeSource{byNiche: map[string][]fakeBusiness{
		"plumbers": {
			{name: "Joes Plumbing", phone: "(512) 555-0001", reviews: 5, rating: 3.2},
			{name: "WebCo Plumbing", phone: "(512) 555-0002", website: "http://x.com", reviews: 5, rating: 3.2},
			{name: "Silent Plumbing", phone: "", reviews: 5, rating: 3.2},
		},
	}}
	p, st := testPipeline(t, testCfg(t, "plumbers"), src)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if stats.Total != 3 {
		t.Errorf("found = %d, want 3", stats.Total)
	}
	if stats.Qualified != 1 || stats.New != 1 {
		t.Errorf("qualified/new = %d/%d, want 1/1", stats.Qualified, stats.New)
	}

	leads, err := st.List(context.Background(), store.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 1 || leads[0].Name != "Joes Plumbing" {
		t.Fatalf("persisted leads = %+v", leads)
	}

	l := leads[0]
	if l.Phone != "(512) 555-0001" {
		t.Errorf("phone = %q", l.Phone)
	}
	if l.City != "Austin" || l.State != "TX" || l.Zip != "78701" {
		t.Errorf("address not normalized: %+v", l)
	}
	// 8 reviews bucket + 9 rating + 3 no website + 7 high-value niche
	if l.LeadScore != 27 {
		t.Errorf("score = %d, want 27", l.LeadScore)
	}
	if l.PitchText == "" || !strings.Contains(l.PitchText, "Joes Plumbing") {
		t.Errorf("pitch = %q", l.PitchText)
	}
}

type stubProvider struct {
	name    string
	contact enrich.Contact
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Lookup(ctx context.Context, name, city string) (enrich.Contact, error) {
	return s.contact, nil
}

func TestRunDropsLeadsWithEnrichedWebsite(t *testing.T) {
	// The primary source lists no website, so the candidate survives
	// filtering; the chain then finds one. The promotion gate must still
	// reject it under the default policy.
	src := &fakeSource{byNiche: map[string][]fakeBusiness{
		"plumbers": {{name: "Joes Plumbing", phone: "(512) 555-0001", reviews: 5, rating: 3.2}},
	}}
	p, st := testPipeline(t, testCfg(t, "plumbers"), src)
	p.chain = enrich.NewChain([]enrich.Provider{
		stubProvider{name: "stub", contact: enrich.Contact{Website: "http://found.example"}},
	}, util.NewSourceLimiter(1000, 100), time.Second)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Qualified != 0 || stats.New != 0 {
		t.Errorf("qualified/new = %d/%d, want 0/0", stats.Qualified, stats.New)
	}

	leads, err := st.List(context.Background(), store.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 0 {
		t.Fatalf("lead with enrichment-found website persisted: %+v", leads)
	}
}

func TestRunCountsDuplicatesAcrossNiches(t *testing.T) {
	// The same business shows up under two niches; one lead, one duplicate.
	src := &fakeSource{byNiche: map[string][]fakeBusiness{
		"plumbers": {{name: "Joes Plumbing", phone: "(512) 555-0001", reviews: 5, rating: 3.2}},
		"roofers":  {{name: "Joes Plumbing", phone: "(512) 555-0001", reviews: 5, rating: 3.2}},
	}}
	p, _ := testPipeline(t, testCfg(t, "plumbers", "roofers"), src)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.New != 1 || stats.Duplicates != 1 {
		t.Errorf("new/duplicates = %d/%d, want 1/1", stats.New, stats.Duplicates)
	}
	if len(stats.Niches) != 2 {
		t.Fatalf("niche stats = %+v", stats.Niches)
	}
	if stats.Niches[0].Persisted != 1 || stats.Niches[1].Duplicates != 1 {
		t.Errorf("per-niche stats = %+v", stats.Niches)
	}
}

func TestRunWritesExport(t *testing.T) {
	cfg := testCfg(t, "plumbers")
	src := &fakeSource{byNiche: map[string][]fakeBusiness{
		"plumbers": {{name: "Joes Plumbing", phone: "(512) 555-0001", reviews: 5, rating: 3.2}},
	}}
	p, _ := testPipeline(t, cfg, src)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(cfg.Export.OutputDir, "leads_latest.csv"))
	if err != nil {
		t.Fatalf("export missing: %v", err)
	}
	if !strings.Contains(string(b), "Joes Plumbing") {
		t.Errorf("export content:\n%s", b)
	}

	if p.State() != StateIdle {
		t.Errorf("state after run = %s, want idle", p.State())
	}
}

func TestRunFatalWithoutCredentials(t *testing.T) {
	cfg := testCfg(t, "plumbers")
	p, _ := testPipeline(t, cfg, &fakeSource{})
	p.scraper = places.New(places.Config{}, util.NewSourceLimiter(1000, 100))

	stats, err := p.Run(context.Background())
	if !errors.Is(err, places.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if stats.FatalError == "" {
		t.Error("stats should carry the fatal error verbatim")
	}
	if p.State() != StateFailed {
		t.Errorf("state = %s, want failed", p.State())
	}
}

func TestRunCancelledBetweenNiches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := testPipeline(t, testCfg(t, "plumbers"), &fakeSource{})
	_, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFilterKeepsPhonelessForEnrichment(t *testing.T) {
	p, _ := testPipeline(t, testCfg(t, "plumbers"), &fakeSource{})

	kept := p.filter([]domain.Candidate{
		{Name: "NoPhone", Address: "1 Elm St, Austin, TX 78701", Rating: 3.0, ReviewCount: 2},
		{Name: "HasSite", Address: "2 Elm St, Austin, TX 78701", Website: "http://x.com"},
	})
	if len(kept) != 1 || kept[0].Name != "NoPhone" {
		t.Fatalf("kept = %+v", kept)
	}
	if kept[0].City != "Austin" || kept[0].State != "TX" {
		t.Errorf("address not normalized during filtering: %+v", kept[0])
	}
}

func TestFilterReviewAndRatingBounds(t *testing.T) {
	cfg := testCfg(t, "plumbers")
	cfg.Filters.MinReviews = 1
	cfg.Filters.MaxReviews = 50
	cfg.Filters.MinRating = 2.0
	p, _ := testPipeline(t, cfg, &fakeSource{})

	kept := p.filter([]domain.Candidate{
		{Name: "TooMany", ReviewCount: 51, Rating: 3.0},
		{Name: "TooFew", ReviewCount: 0, Rating: 3.0},
		{Name: "TooLow", ReviewCount: 10, Rating: 1.5},
		{Name: "Good", ReviewCount: 10, Rating: 3.0},
	})
	if len(kept) != 1 || kept[0].Name != "Good" {
		t.Errorf("kept = %+v", kept)
	}
}
