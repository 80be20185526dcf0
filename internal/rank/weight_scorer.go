// rank/weight_scorer.go
package rank

import (
	"strings"

	"leadparser-engine/internal/config"
	"leadparser-engine/internal/domain"
)

// WeightScorer computes the outreach priority score from the configured
// weights. Scoring is deterministic: the same review count, rating, website
// presence, and niche always produce the same value.
type WeightScorer struct {
	Weights         config.ScoringWeights
	HighValueNiches []string
}

func NewWeightScorer(cfg config.Config) WeightScorer {
	return WeightScorer{
		Weights:         cfg.Scoring.Weights,
		HighValueNiches: cfg.Scoring.HighValueNiches,
	}
}

func (s WeightScorer) Score(c domain.Candidate) int {
	w := s.Weights
	score := 0

	// Fewer reviews means a bigger gap in online presence.
	switch {
	case c.ReviewCount == 0:
		score += w.NoReviews
	case c.ReviewCount <= 10:
		score += w.VeryFewReviews
	case c.ReviewCount <= 25:
		score += w.FewReviews
	case c.ReviewCount <= 50:
		score += w.SomeReviews
	default:
		score += w.ManyReviews
	}

	// A rating of 0 means "no rating" and earns nothing; 4+ businesses
	// already do well online.
	switch {
	case c.Rating > 0 && c.Rating <= 3.5:
		score += w.LowRatingBonus
	case c.Rating > 3.5 && c.Rating <= 4.0:
		score += w.MedRatingBonus
	}

	if strings.TrimSpace(c.Website) == "" {
		score += w.NoWebsiteBonus
	}

	if s.isHighValue(c.Niche) {
		score += w.HighValueNiche
	}

	// Clamping is part of the contract, not an accident.
	if score > w.MaxScore {
		score = w.MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s WeightScorer) isHighValue(niche string) bool {
	n := strings.ToLower(niche)
	for _, hv := range s.HighValueNiches {
		hv = strings.ToLower(strings.TrimSpace(hv))
		if hv == "" {
			continue
		}
		if strings.Contains(n, hv) {
			return true
		}
	}
	return false
}
