// config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Location struct {
	City  string `yaml:"city"`
	State string `yaml:"state"`
}

// ScoringWeights override the default lead-score policy. Load() merges the
// file on top of Default(), so omitted weights keep their defaults.
type ScoringWeights struct {
	NoReviews      int `yaml:"no_reviews"`       // 0 reviews
	VeryFewReviews int `yaml:"very_few_reviews"` // 1-10
	FewReviews     int `yaml:"few_reviews"`      // 11-25
	SomeReviews    int `yaml:"some_reviews"`     // 26-50
	ManyReviews    int `yaml:"many_reviews"`     // >50
	LowRatingBonus int `yaml:"low_rating_bonus"` // (0, 3.5]
	MedRatingBonus int `yaml:"med_rating_bonus"` // (3.5, 4.0]
	NoWebsiteBonus int `yaml:"no_website_bonus"`
	HighValueNiche int `yaml:"high_value_niche_bonus"`
	MaxScore       int `yaml:"max_score"`
}

type Filters struct {
	MinReviews         int     `yaml:"min_reviews"`
	MaxReviews         int     `yaml:"max_reviews"`
	MinRating          float64 `yaml:"min_rating"`
	MaxRating          float64 `yaml:"max_rating"`
	ExcludeWithWebsite bool    `yaml:"exclude_with_website"`
	MinLeadScore       int     `yaml:"min_lead_score"`
}

type ProviderFlag struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Location Location `yaml:"location"`
	Niches   []string `yaml:"niches"`

	Scraping struct {
		MaxResultsPerNiche int     `yaml:"max_results_per_niche"`
		PageTokenDelayMS   int     `yaml:"page_token_delay_ms"` // cooldown before a next-page token is usable
		RequestTimeoutSec  int     `yaml:"request_timeout_sec"`
		RequestsPerSec     float64 `yaml:"requests_per_sec"` // per-source pacing budget
		Burst              int     `yaml:"burst"`
	} `yaml:"scraping"`

	Filters Filters `yaml:"filters"`

	Scoring struct {
		Weights         ScoringWeights `yaml:"weights"`
		HighValueNiches []string       `yaml:"high_value_niches"`
	} `yaml:"scoring"`

	// Template text keyed by niche name; "default" is the fallback.
	PitchTemplates map[string]string `yaml:"pitch_templates"`

	// Enrichment providers, tried strictly in listed order.
	Providers []ProviderFlag `yaml:"providers"`

	Database struct {
		Driver string `yaml:"driver"` // sqlite | postgres
		Path   string `yaml:"path"`   // sqlite file path
		DSN    string `yaml:"dsn"`    // postgres connection string
	} `yaml:"database"`

	Export struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"export"`
}

// Default returns the built-in configuration. The qualifying-filter default
// (exclude_with_website=true) lives here and nowhere else.
func Default() Config {
	var cfg Config
	cfg.App.DataDir = "."
	cfg.Location = Location{City: "Austin", State: "TX"}
	cfg.Niches = []string{"plumbers"}
	cfg.Scraping.MaxResultsPerNiche = 60
	cfg.Scraping.PageTokenDelayMS = 2000
	cfg.Scraping.RequestTimeoutSec = 15
	cfg.Scraping.RequestsPerSec = 0.5
	cfg.Scraping.Burst = 1
	cfg.Filters = Filters{
		MinReviews:         0,
		MaxReviews:         9999,
		MinRating:          0,
		MaxRating:          5,
		ExcludeWithWebsite: true,
		MinLeadScore:       0,
	}
	cfg.Scoring.Weights = ScoringWeights{
		NoReviews:      10,
		VeryFewReviews: 8,
		FewReviews:     5,
		SomeReviews:    3,
		ManyReviews:    1,
		LowRatingBonus: 9,
		MedRatingBonus: 4,
		NoWebsiteBonus: 3,
		HighValueNiche: 7,
		MaxScore:       30,
	}
	cfg.Scoring.HighValueNiches = []string{
		"plumber", "hvac", "roofing", "electrician", "landscaping",
	}
	cfg.PitchTemplates = map[string]string{
		"default": "Hi {name}, I help local businesses in {city} grow their " +
			"customer base through better online presence. Would you have 10 minutes to chat?",
	}
	cfg.Providers = []ProviderFlag{
		{Name: "yelp", Enabled: true},
		{Name: "yellow_pages", Enabled: true},
		{Name: "bbb", Enabled: true},
		{Name: "directory411", Enabled: true},
	}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = "leads.db"
	cfg.Export.OutputDir = "data"
	return cfg
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
