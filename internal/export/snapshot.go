// Package export projects the stored leads into a flat tabular snapshot:
// one group per niche, one "All Leads" group, and a per-niche summary.
// Building a snapshot never touches the store; rendering the same snapshot
// twice produces byte-identical output.
package export

import (
	"sort"
	"strconv"

	"leadparser-engine/internal/domain"
)

// Header is the fixed column order consumed by dashboards.
var Header = []string{
	"name", "phone", "niche", "city", "state", "address",
	"rating", "review_count", "lead_score", "gmb_link", "date_added",
}

type Group struct {
	Name  string
	Leads []domain.Lead
}

type Summary struct {
	Niche    string
	Count    int
	AvgScore float64
}

type Snapshot struct {
	Groups    []Group // one per niche, sorted by niche name
	All       Group   // every lead
	Summaries []Summary
}

// Build groups leads by niche and computes the summary. Rows are ordered by
// lead_score descending with identity key ascending as the tiebreak, so the
// output is stable across calls.
func Build(leads []domain.Lead) Snapshot {
	sorted := make([]domain.Lead, len(leads))
	copy(sorted, leads)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].LeadScore != sorted[j].LeadScore {
			return sorted[i].LeadScore > sorted[j].LeadScore
		}
		return sorted[i].IdentityKey < sorted[j].IdentityKey
	})

	byNiche := map[string][]domain.Lead{}
	var niches []string
	for _, l := range sorted {
		if _, ok := byNiche[l.Niche]; !ok {
			niches = append(niches, l.Niche)
		}
		byNiche[l.Niche] = append(byNiche[l.Niche], l)
	}
	sort.Strings(niches)

	snap := Snapshot{All: Group{Name: "All Leads", Leads: sorted}}
	for _, n := range niches {
		group := byNiche[n]
		snap.Groups = append(snap.Groups, Group{Name: n, Leads: group})

		total := 0
		for _, l := range group {
			total += l.LeadScore
		}
		avg := float64(total) / float64(len(group))
		snap.Summaries = append(snap.Summaries, Summary{
			Niche:    n,
			Count:    len(group),
			AvgScore: avg,
		})
	}
	return snap
}

// Row flattens a lead into the Header column order.
func Row(l domain.Lead) []string {
	return []string{
		l.Name,
		l.Phone,
		l.Niche,
		l.City,
		l.State,
		l.Address,
		formatRating(l.Rating),
		strconv.Itoa(l.ReviewCount),
		strconv.Itoa(l.LeadScore),
		l.GMBLink,
		l.DateAdded,
	}
}

func formatRating(r float64) string {
	if r == 0 {
		return ""
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
