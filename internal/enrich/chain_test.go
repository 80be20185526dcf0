package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/scrape/util"
)

type fakeProvider struct {
	name    string
	contact Contact
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Lookup(ctx context.Context, name, city string) (Contact, error) {
	f.calls++
	if f.err != nil {
		return Contact{}, f.err
	}
	return f.contact, nil
}

func testChain(providers ...Provider) *Chain {
	return NewChain(providers, util.NewSourceLimiter(1000, 10), time.Second)
}

func TestChainShortCircuits(t *testing.T) {
	a := &fakeProvider{name: "a", err: ErrNotFound}
	b := &fakeProvider{name: "b", contact: Contact{Phone: "(512) 555-1234"}}
	c := &fakeProvider{name: "c", contact: Contact{Phone: "(512) 555-9999"}}

	ch := testChain(a, b, c)
	got := ch.Enrich(context.Background(), domain.Candidate{Name: "Joe's", City: "Austin", Source: "Google Maps"})

	if got.Phone != "(512) 555-1234" {
		t.Errorf("phone = %q, want the first provider hit", got.Phone)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("a/b calls = %d/%d, want 1/1", a.calls, b.calls)
	}
	if c.calls != 0 {
		t.Errorf("chain must stop at the first hit; c was called %d times", c.calls)
	}
	if got.Source != "Google Maps + b" {
		t.Errorf("source = %q", got.Source)
	}
}

func TestChainSkipsCompleteCandidates(t *testing.T) {
	a := &fakeProvider{name: "a", contact: Contact{Phone: "(512) 555-1234"}}
	ch := testChain(a)

	in := domain.Candidate{Name: "Joe's", City: "Austin", Phone: "(512) 111-2222", Website: "http://x.com"}
	got := ch.Enrich(context.Background(), in)

	if a.calls != 0 {
		t.Errorf("complete candidate should not trigger lookups, got %d", a.calls)
	}
	if got.Phone != in.Phone {
		t.Errorf("phone changed: %q", got.Phone)
	}
}

func TestChainFailsSoft(t *testing.T) {
	boom := &fakeProvider{name: "boom", err: errors.New("connect timeout")}
	b := &fakeProvider{name: "b", contact: Contact{Phone: "(512) 555-1234"}}

	ch := testChain(boom, b)
	got := ch.Enrich(context.Background(), domain.Candidate{Name: "Joe's", City: "Austin"})

	if got.Phone != "(512) 555-1234" {
		t.Errorf("provider error must not abort the candidate, phone = %q", got.Phone)
	}
}

func TestChainNotesMissingPhone(t *testing.T) {
	a := &fakeProvider{name: "a", err: ErrNotFound}
	ch := testChain(a)

	got := ch.Enrich(context.Background(), domain.Candidate{Name: "Joe's", City: "Austin"})
	if !strings.Contains(got.Notes, "Phone Number Needed") {
		t.Errorf("notes = %q, want the manual-research marker", got.Notes)
	}
}

func TestChainDropsUnparsablePhones(t *testing.T) {
	a := &fakeProvider{name: "a", contact: Contact{Phone: "call us!"}}
	b := &fakeProvider{name: "b", contact: Contact{Phone: "(512) 555-1234"}}

	ch := testChain(a, b)
	got := ch.Enrich(context.Background(), domain.Candidate{Name: "Joe's", City: "Austin"})
	if got.Phone != "(512) 555-1234" {
		t.Errorf("unparsable phone should not satisfy the chain, got %q", got.Phone)
	}
}

func TestChainCachesMisses(t *testing.T) {
	a := &fakeProvider{name: "a", err: ErrNotFound}
	b := &fakeProvider{name: "b", contact: Contact{Phone: "(512) 555-1234"}}
	ch := testChain(a, b)

	c := domain.Candidate{Name: "Joe's", City: "Austin"}
	ch.Enrich(context.Background(), c)
	ch.Enrich(context.Background(), c)

	if a.calls != 1 {
		t.Errorf("hard misses should be cached, a called %d times", a.calls)
	}
}

func TestChainCachesWrappedMisses(t *testing.T) {
	// Providers that add context around the sentinel still count as hard
	// misses for the cache.
	a := &fakeProvider{name: "a", err: fmt.Errorf("yelp page for %q: %w", "Joe's", ErrNotFound)}
	ch := testChain(a)

	c := domain.Candidate{Name: "Joe's", City: "Austin"}
	ch.Enrich(context.Background(), c)
	ch.Enrich(context.Background(), c)

	if a.calls != 1 {
		t.Errorf("wrapped miss not cached, a called %d times", a.calls)
	}
}

func TestChainFillsWebsiteOnly(t *testing.T) {
	a := &fakeProvider{name: "a", contact: Contact{Website: "http://joes.example"}}
	ch := testChain(a)

	in := domain.Candidate{Name: "Joe's", City: "Austin", Phone: "(512) 111-2222"}
	got := ch.Enrich(context.Background(), in)
	if got.Website != "http://joes.example" {
		t.Errorf("website = %q", got.Website)
	}
	if got.Phone != in.Phone {
		t.Errorf("phone must be untouched, got %q", got.Phone)
	}
}
