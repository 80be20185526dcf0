package enrich

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// BBB searches the Better Business Bureau directory. Accredited businesses
// usually list a phone; websites show up occasionally as outbound links.
type BBB struct {
	baseURL string
	hc      *http.Client
}

func NewBBB() *BBB {
	return &BBB{
		baseURL: "https://www.bbb.org",
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BBB) Name() string { return "bbb" }

func (b *BBB) Lookup(ctx context.Context, name, city string) (Contact, error) {
	q := url.Values{}
	q.Set("find_text", name)
	q.Set("find_loc", city)
	doc, err := fetchDoc(ctx, b.hc, b.baseURL+"/search?"+q.Encode())
	if err != nil {
		return Contact{}, err
	}

	var out Contact
	for _, sel := range []string{`a[href^="tel:"]`, `[class*="phone"]`, `[itemprop="telephone"]`} {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if href, ok := s.Attr("href"); ok && strings.HasPrefix(href, "tel:") {
				if m := phoneRe.FindString(strings.TrimPrefix(href, "tel:")); m != "" {
					out.Phone = m
					return false
				}
			}
			if m := phoneRe.FindString(s.Text()); m != "" {
				out.Phone = m
				return false
			}
			return true
		})
		if out.Phone != "" {
			break
		}
	}

	// Result cards link the business's own site with a "Visit Website" anchor.
	doc.Find(`a[href^="http"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.Text()), "Visit Website") {
			return true
		}
		if href, ok := s.Attr("href"); ok && !strings.Contains(href, "bbb.org") {
			out.Website = href
			return false
		}
		return true
	})

	if out.Empty() {
		return Contact{}, ErrNotFound
	}
	return out, nil
}
