package store

import (
	"context"
	"path/filepath"
	"testing"

	"leadparser-engine/internal/domain"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func lead(name, city, niche string, score int) domain.Lead {
	return domain.Lead{
		IdentityKey: domain.IdentityKey(name, city),
		Niche:       niche,
		Name:        name,
		City:        city,
		Phone:       "(512) 555-1234",
		DateAdded:   "2026-08-30",
		LeadScore:   score,
	}
}

func TestUpsertDeduplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := lead("Joe's Plumbing", "Austin", "plumbers", 27)
	res, err := s.Upsert(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if res != Inserted {
		t.Fatalf("first upsert = %s, want inserted", res)
	}

	// Same identity with different attributes: first write wins.
	second := lead("Joe's Plumbing", "Austin", "plumbers", 5)
	second.Phone = "(512) 999-0000"
	res, err = s.Upsert(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if res != Duplicate {
		t.Fatalf("second upsert = %s, want duplicate", res)
	}

	leads, err := s.List(ctx, ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(leads))
	}
	if leads[0].LeadScore != 27 || leads[0].Phone != "(512) 555-1234" {
		t.Errorf("duplicate overwrote the original: %+v", leads[0])
	}
}

func TestUpsertSameNameDifferentCity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Upsert(ctx, lead("Ace Plumbing", "Austin", "plumbers", 20)); err != nil {
		t.Fatal(err)
	}
	res, err := s.Upsert(ctx, lead("Ace Plumbing", "Dallas", "plumbers", 20))
	if err != nil {
		t.Fatal(err)
	}
	if res != Inserted {
		t.Errorf("different city is a different identity, got %s", res)
	}
}

func TestListOrderingAndFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, l := range []domain.Lead{
		lead("Low", "Austin", "plumbers", 5),
		lead("High", "Austin", "plumbers", 27),
		lead("Mid", "Austin", "roofers", 15),
	} {
		if _, err := s.Upsert(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	leads, err := s.List(ctx, ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 3 {
		t.Fatalf("got %d leads", len(leads))
	}
	for i := 1; i < len(leads); i++ {
		if leads[i].LeadScore > leads[i-1].LeadScore {
			t.Fatalf("not sorted by score desc: %d before %d", leads[i-1].LeadScore, leads[i].LeadScore)
		}
	}

	byNiche, err := s.List(ctx, ListOpts{Niche: "roofers"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byNiche) != 1 || byNiche[0].Name != "Mid" {
		t.Errorf("niche filter: %+v", byNiche)
	}

	byScore, err := s.List(ctx, ListOpts{MinScore: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(byScore) != 2 {
		t.Errorf("min-score filter returned %d leads, want 2", len(byScore))
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Upsert(ctx, lead("Joe's", "Austin", "plumbers", 20)); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	leads, err := s.List(ctx, ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 0 {
		t.Errorf("store not empty after clear: %d leads", len(leads))
	}
}

func TestSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, l := range []domain.Lead{
		lead("A", "Austin", "plumbers", 10),
		lead("B", "Austin", "plumbers", 20),
		lead("C", "Austin", "roofers", 9),
	} {
		if _, err := s.Upsert(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	sums, err := s.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries", len(sums))
	}
	if sums[0].Niche != "plumbers" || sums[0].Count != 2 || sums[0].AvgScore != 15 {
		t.Errorf("plumbers summary: %+v", sums[0])
	}
	if sums[1].Niche != "roofers" || sums[1].Count != 1 {
		t.Errorf("roofers summary: %+v", sums[1])
	}
}

func TestSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.StartSession(ctx, []string{"plumbers", "roofers"})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("session id should be non-zero")
	}

	stats := domain.RunStats{Total: 40, New: 12, Duplicates: 3, Errors: 1}
	if err := s.EndSession(ctx, id, stats); err != nil {
		t.Fatal(err)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(ctx, lead("Joe's", "Austin", "plumbers", 20)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	again, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	leads, err := again.List(ctx, ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 1 {
		t.Errorf("reopened store lost data: %d leads", len(leads))
	}
}
