package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Error() string {
	return "config validation failed:\n- " + strings.Join(v.Errors, "\n- ")
}

// Placeholders the pitch templates may reference. Anything else is a
// configuration error reported here, not at render time.
var pitchPlaceholders = map[string]bool{
	"name":         true,
	"city":         true,
	"niche":        true,
	"review_count": true,
	"rating":       true,
}

// NormalizeAndValidate returns a normalized copy plus accumulated
// errors/warnings.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Niches = trimList(out.Niches)
	out.Scoring.HighValueNiches = trimList(out.Scoring.HighValueNiches)

	// ---- Validation rules ----

	if strings.TrimSpace(out.Location.City) == "" {
		res.addErr("location.city is required")
	}
	if strings.TrimSpace(out.Location.State) == "" {
		res.addErr("location.state is required")
	}
	if len(out.Niches) == 0 {
		res.addErr("niches must list at least one niche")
	}

	if out.Scraping.MaxResultsPerNiche <= 0 {
		res.addErr("scraping.max_results_per_niche must be > 0")
	}
	if out.Scraping.PageTokenDelayMS < 0 {
		res.addErr("scraping.page_token_delay_ms must be >= 0")
	} else if out.Scraping.PageTokenDelayMS < 1000 {
		res.addWarn("scraping.page_token_delay_ms is below 1000; the source may reject page tokens.")
	}
	if out.Scraping.RequestsPerSec <= 0 {
		res.addErr("scraping.requests_per_sec must be > 0")
	}
	if out.Scraping.RequestTimeoutSec <= 0 {
		res.addErr("scraping.request_timeout_sec must be > 0")
	}

	if out.Filters.MinReviews > out.Filters.MaxReviews {
		res.addErr("filters.min_reviews exceeds filters.max_reviews")
	}
	if out.Filters.MinRating > out.Filters.MaxRating {
		res.addErr("filters.min_rating exceeds filters.max_rating")
	}
	if !out.Filters.ExcludeWithWebsite {
		res.addWarn("filters.exclude_with_website is false; leads with websites will be kept.")
	}

	w := out.Scoring.Weights
	if w.MaxScore <= 0 {
		res.addErr("scoring.weights.max_score must be > 0")
	}
	for _, p := range []struct {
		name string
		v    int
	}{
		{"no_reviews", w.NoReviews},
		{"very_few_reviews", w.VeryFewReviews},
		{"few_reviews", w.FewReviews},
		{"some_reviews", w.SomeReviews},
		{"many_reviews", w.ManyReviews},
		{"low_rating_bonus", w.LowRatingBonus},
		{"med_rating_bonus", w.MedRatingBonus},
		{"no_website_bonus", w.NoWebsiteBonus},
		{"high_value_niche_bonus", w.HighValueNiche},
	} {
		if p.v < 0 {
			res.addErr("scoring.weights.%s must be >= 0", p.name)
		}
	}

	if _, ok := out.PitchTemplates["default"]; !ok {
		res.addErr("pitch_templates.default is required")
	}
	for niche, tmpl := range out.PitchTemplates {
		for _, ph := range extractPlaceholders(tmpl) {
			if !pitchPlaceholders[ph] {
				res.addErr("pitch_templates[%q] references unknown placeholder {%s}", niche, ph)
			}
		}
	}

	enabled := 0
	seenProv := map[string]bool{}
	for i, p := range out.Providers {
		name := strings.TrimSpace(strings.ToLower(p.Name))
		if name == "" {
			res.addErr("providers[%d].name is required", i)
			continue
		}
		if seenProv[name] {
			res.addWarn("provider %q listed more than once; only the first position is used.", name)
		}
		seenProv[name] = true
		out.Providers[i].Name = name
		if p.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		res.addWarn("no enrichment providers enabled; candidates missing a phone will be dropped.")
	}

	switch out.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(out.Database.Path) == "" {
			res.addErr("database.path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(out.Database.DSN) == "" {
			res.addErr("database.dsn is required for the postgres driver")
		}
	default:
		res.addErr("database.driver must be sqlite or postgres, got %q", out.Database.Driver)
	}

	return out, res
}

// extractPlaceholders returns the {names} used in a template.
func extractPlaceholders(tmpl string) []string {
	var out []string
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			return out
		}
		rest := tmpl[open+1:]
		close := strings.IndexByte(rest, '}')
		if close < 0 {
			return out
		}
		name := rest[:close]
		if name != "" && !strings.ContainsAny(name, " {") {
			out = append(out, name)
		}
		tmpl = rest[close+1:]
	}
}
