package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Candidate is an in-flight business record during a pipeline run. It is
// mutated through enrichment and normalization and either dropped or
// promoted to a Lead.
type Candidate struct {
	Niche        string
	Name         string
	Address      string
	City         string
	State        string
	Zip          string
	Phone        string
	Website      string
	Rating       float64
	ReviewCount  int
	GMBLink      string
	Source       string // which provider(s) supplied phone/website
	Notes        string
	DiscoveredAt time.Time
}

// Lead is the persisted, qualified form of a Candidate.
type Lead struct {
	IdentityKey  string  `json:"identity_key"`
	Niche        string  `json:"niche"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"review_count"`
	Website      string  `json:"website"`
	GMBLink      string  `json:"gmb_link"`
	Source       string  `json:"source"`
	DateAdded    string  `json:"date_added"` // calendar date of first persistence, YYYY-MM-DD
	LeadScore    int     `json:"lead_score"`
	PitchText    string  `json:"pitch_text"`
	Notes        string  `json:"notes"`
	CallStatus   string  `json:"call_status"`    // caller-settable, never written by the pipeline
	FollowUpDate string  `json:"follow_up_date"` // caller-settable, never written by the pipeline
}

// IdentityKey builds the stable dedup hash from normalized business name and
// city. Source-local place IDs are deliberately not used: the same business
// can arrive from multiple sources with different IDs.
func IdentityKey(name, city string) string {
	raw := strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(city))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

type Tier string

const (
	TierHot    Tier = "HOT"
	TierWarm   Tier = "WARM"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// TierFor maps a lead score to the outreach priority tier shown by
// presentation layers.
func TierFor(score int) Tier {
	switch {
	case score >= 18:
		return TierHot
	case score >= 12:
		return TierWarm
	case score >= 7:
		return TierMedium
	default:
		return TierLow
	}
}

// NicheStats is the per-niche slice of a run report.
type NicheStats struct {
	Niche      string `json:"niche"`
	Found      int    `json:"found"`
	Qualified  int    `json:"qualified"`
	Persisted  int    `json:"persisted"`
	Duplicates int    `json:"duplicates"`
	Errors     int    `json:"errors"`
}

// RunStats summarizes a full pipeline run.
type RunStats struct {
	Niches     []NicheStats `json:"niches"`
	Total      int          `json:"total"`
	Qualified  int          `json:"qualified"`
	New        int          `json:"new"`
	Duplicates int          `json:"duplicates"`
	Errors     int          `json:"errors"`
	FatalError string       `json:"fatal_error,omitempty"`
}

func (s *RunStats) Add(n NicheStats) {
	s.Niches = append(s.Niches, n)
	s.Total += n.Found
	s.Qualified += n.Qualified
	s.New += n.Persisted
	s.Duplicates += n.Duplicates
	s.Errors += n.Errors
}
