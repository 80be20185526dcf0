package normalize

import (
	"regexp"
	"strings"
)

// AddressParts are the components of a single-line US address. Missing
// fields are empty strings.
type AddressParts struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Covers the common map-source format: "123 Main St, Austin, TX 78701, USA".
var addressRe = regexp.MustCompile(
	`^([^,]+),\s*([^,]+),\s*([A-Za-z]{2})(?:\s+(\d{5}(?:-\d{4})?))?(?:,\s*USA)?\s*$`)

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

var stateAbbr = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI",
	"minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND",
	"ohio": "OH", "oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
}

// Address splits a single-line US address into components. Unparsable
// addresses degrade to partially filled or zero-value parts.
func Address(raw string) AddressParts {
	var out AddressParts

	raw = CleanText(raw)
	if raw == "" {
		return out
	}

	if m := addressRe.FindStringSubmatch(raw); m != nil {
		out.Street = strings.TrimSpace(m[1])
		out.City = strings.TrimSpace(m[2])
		out.State = strings.ToUpper(m[3])
		out.Zip = m[4]
		return out
	}

	// Best effort: split on commas.
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch {
	case len(parts) >= 3:
		out.Street = parts[0]
		out.City = parts[1]
		stateZip := strings.TrimSpace(strings.NewReplacer("USA", "", "usa", "").Replace(parts[len(parts)-1]))
		tokens := strings.Fields(stateZip)
		if len(tokens) > 0 {
			tok := strings.ToUpper(tokens[0])
			if abbr, ok := stateAbbr[strings.ToLower(tokens[0])]; ok {
				tok = abbr
			}
			out.State = tok
		}
		if len(tokens) >= 2 && zipRe.MatchString(tokens[1]) {
			out.Zip = tokens[1]
		}
	case len(parts) == 2:
		out.Street = parts[0]
		out.City = parts[1]
	default:
		out.Street = raw
	}
	return out
}

// AddressWithFallback parses raw and fills missing city/state from the
// configured location.
func AddressWithFallback(raw, city, state string) AddressParts {
	out := Address(raw)
	if out.City == "" {
		out.City = city
	}
	if out.State == "" {
		out.State = state
	}
	return out
}

// CleanText collapses whitespace, including non-breaking spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
