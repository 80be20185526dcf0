// Package enrich fills missing contact fields on candidates by querying an
// ordered fallback list of free secondary directory sources.
package enrich

import (
	"context"
	"errors"
	"regexp"
)

// Contact holds whatever fields a provider managed to find. Empty fields
// stay unknown.
type Contact struct {
	Phone   string
	Website string
}

func (c Contact) Empty() bool { return c.Phone == "" && c.Website == "" }

// ErrNotFound is the normal miss outcome; providers return it instead of
// inventing data.
var ErrNotFound = errors.New("enrich: not found")

// Provider is a single secondary lookup source. New providers register in
// the chain by implementing this; nothing in the orchestrator changes.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, name, city string) (Contact, error)
}

var phoneRe = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
