package pitch

import (
	"strings"
	"testing"

	"leadparser-engine/internal/config"
	"leadparser-engine/internal/domain"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Location.City = "Austin"
	cfg.PitchTemplates = map[string]string{
		"default":  "Hi {name}, quick question about your {niche} business in {city}.",
		"Plumbers": "Hey {name}, {review_count} reviews at {rating} stars leaves room to grow.",
	}
	return cfg
}

func TestRenderNicheMatch(t *testing.T) {
	e := New(testConfig())

	c := domain.Candidate{Name: "Joe's Plumbing", City: "Austin", ReviewCount: 5, Rating: 3.2}

	// Lookup is case-insensitive exact match on the niche name.
	got := e.Render("plumbers", c)
	want := "Hey Joe's Plumbing, 5 reviews at 3.2 stars leaves room to grow."
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderFallsBackToDefault(t *testing.T) {
	e := New(testConfig())

	c := domain.Candidate{Name: "Sweet Crumbs", City: "Dallas"}
	got := e.Render("bakery", c)
	want := "Hi Sweet Crumbs, quick question about your bakery business in Dallas."
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}

	// "plumber" (singular) is not an exact match for the "Plumbers" template.
	got = e.Render("plumber", c)
	if !strings.HasPrefix(got, "Hi Sweet Crumbs") {
		t.Errorf("partial niche name should use the default template, got %q", got)
	}
}

func TestRenderEmptyFields(t *testing.T) {
	e := New(testConfig())

	got := e.Render("bakery", domain.Candidate{})
	if !strings.Contains(got, "Hi there,") {
		t.Errorf("empty name should render as \"there\", got %q", got)
	}
	if !strings.Contains(got, "in Austin") {
		t.Errorf("empty city should fall back to the configured city, got %q", got)
	}
}

func TestRenderUnratedOmitsRating(t *testing.T) {
	e := New(testConfig())

	got := e.Render("plumbers", domain.Candidate{Name: "Joe", ReviewCount: 0, Rating: 0})
	if strings.Contains(got, "0 stars") {
		t.Errorf("zero rating should render empty, got %q", got)
	}
}
