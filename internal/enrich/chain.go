package enrich

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"

	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/normalize"
	"leadparser-engine/internal/scrape/util"
)

// note set on candidates that end the chain without a phone.
const phoneNeededNote = "Phone Number Needed - Manual Research Required"

type lookupEntry struct {
	Contact  Contact
	NotFound bool
}

// Chain tries providers strictly in order and stops at the first one that
// supplies the missing field(s). Provider failures are treated as misses;
// the chain never aborts a candidate.
type Chain struct {
	providers []Provider
	limiter   *util.SourceLimiter
	timeout   time.Duration
	cache     *otter.Cache[string, lookupEntry]
}

func NewChain(providers []Provider, limiter *util.SourceLimiter, timeout time.Duration) *Chain {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cache := otter.Must(&otter.Options[string, lookupEntry]{
		MaximumSize:      10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, lookupEntry](time.Hour),
	})
	return &Chain{
		providers: providers,
		limiter:   limiter,
		timeout:   timeout,
		cache:     cache,
	}
}

// Enrich fills missing phone/website on c where possible and returns it.
// Candidates that already have both fields pass through untouched.
func (ch *Chain) Enrich(ctx context.Context, c domain.Candidate) domain.Candidate {
	needPhone := strings.TrimSpace(c.Phone) == ""
	needSite := strings.TrimSpace(c.Website) == ""
	if !needPhone && !needSite {
		return c
	}

	for _, p := range ch.providers {
		found, err := ch.lookup(ctx, p, c.Name, c.City)
		if err != nil {
			// Timeout/error means "not found"; move down the chain.
			log.Printf("[enrich:%s] lookup failed for %q: %v", p.Name(), c.Name, err)
			continue
		}
		if found.Empty() {
			continue
		}

		filled := false
		if needPhone && found.Phone != "" {
			if phone := normalize.Phone(found.Phone); phone != "" {
				c.Phone = phone
				needPhone = false
				filled = true
			}
		}
		if needSite && found.Website != "" {
			c.Website = strings.TrimSpace(found.Website)
			needSite = false
			filled = true
		}
		if filled {
			c.Source = c.Source + " + " + p.Name()
			c.Notes = strings.TrimSpace(strings.TrimSuffix(
				strings.ReplaceAll(c.Notes, phoneNeededNote, ""), " |"))
			// First useful provider wins; the chain does not keep querying
			// the rest for completeness.
			break
		}
	}

	if needPhone && !strings.Contains(c.Notes, phoneNeededNote) {
		if c.Notes != "" {
			c.Notes += " | "
		}
		c.Notes += phoneNeededNote
	}
	return c
}

// lookup wraps one provider call with the shared limiter, a per-call
// timeout, and the run-level cache.
func (ch *Chain) lookup(ctx context.Context, p Provider, name, city string) (Contact, error) {
	key := p.Name() + "|" + strings.ToLower(name) + "|" + strings.ToLower(city)
	if entry, ok := ch.cache.GetIfPresent(key); ok {
		if entry.NotFound {
			return Contact{}, ErrNotFound
		}
		return entry.Contact, nil
	}

	if err := ch.limiter.Wait(ctx, p.Name()); err != nil {
		return Contact{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, ch.timeout)
	defer cancel()

	found, err := p.Lookup(cctx, name, city)
	if err != nil {
		// Cache hard misses only; transient errors should be retried on the
		// next encounter of the same business.
		if errors.Is(err, ErrNotFound) {
			ch.cache.Set(key, lookupEntry{NotFound: true})
		}
		return Contact{}, err
	}

	ch.cache.Set(key, lookupEntry{Contact: found})
	return found, nil
}
