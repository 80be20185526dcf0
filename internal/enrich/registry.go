package enrich

import (
	"log"

	"leadparser-engine/internal/config"
)

// FromConfig builds the provider list in configured order, skipping
// disabled and unknown names.
func FromConfig(cfg config.Config) []Provider {
	var out []Provider
	for _, flag := range cfg.Providers {
		if !flag.Enabled {
			continue
		}
		switch flag.Name {
		case "yelp":
			out = append(out, NewYelp())
		case "yellow_pages":
			out = append(out, NewYellowPages())
		case "bbb":
			out = append(out, NewBBB())
		case "directory411":
			out = append(out, NewDirectory411(cfg.Location.State))
		default:
			log.Printf("[enrich] unknown provider %q skipped", flag.Name)
		}
	}
	return out
}
