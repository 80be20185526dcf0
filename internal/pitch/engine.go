// Package pitch renders the templated outreach note attached to each lead.
package pitch

import (
	"strconv"
	"strings"

	"leadparser-engine/internal/config"
	"leadparser-engine/internal/domain"
)

// Engine selects a template by niche (case-insensitive exact match, falling
// back to "default") and substitutes {name} {city} {niche} {review_count}
// {rating}. Templates are validated at config load, so rendering never
// fails.
type Engine struct {
	templates map[string]string // keys lowercased
	fallback  string
	city      string
}

func New(cfg config.Config) Engine {
	e := Engine{
		templates: make(map[string]string, len(cfg.PitchTemplates)),
		city:      cfg.Location.City,
	}
	for niche, tmpl := range cfg.PitchTemplates {
		key := strings.ToLower(strings.TrimSpace(niche))
		if key == "default" {
			e.fallback = tmpl
			continue
		}
		e.templates[key] = tmpl
	}
	return e
}

func (e Engine) Render(niche string, c domain.Candidate) string {
	tmpl, ok := e.templates[strings.ToLower(strings.TrimSpace(niche))]
	if !ok {
		tmpl = e.fallback
	}

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = "there"
	}
	city := strings.TrimSpace(c.City)
	if city == "" {
		city = e.city
	}
	rating := ""
	if c.Rating > 0 {
		rating = strconv.FormatFloat(c.Rating, 'f', -1, 64)
	}

	r := strings.NewReplacer(
		"{name}", name,
		"{city}", city,
		"{niche}", niche,
		"{review_count}", strconv.Itoa(c.ReviewCount),
		"{rating}", rating,
	)
	return strings.TrimSpace(r.Replace(tmpl))
}
