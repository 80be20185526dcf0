package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Directory411 hits the 411.com business pages directly. The URL scheme
// needs a state code, which comes from the configured location.
type Directory411 struct {
	baseURL string
	state   string
	hc      *http.Client
}

func NewDirectory411(state string) *Directory411 {
	return &Directory411{
		baseURL: "https://www.411.com",
		state:   strings.ToUpper(strings.TrimSpace(state)),
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *Directory411) Name() string { return "directory411" }

func (d *Directory411) Lookup(ctx context.Context, name, city string) (Contact, error) {
	u := fmt.Sprintf("%s/business/%s/%s-%s/", d.baseURL, slugify(name), slugify(city), d.state)
	doc, err := fetchDoc(ctx, d.hc, u)
	if err != nil {
		return Contact{}, err
	}

	var out Contact
	for _, sel := range []string{`[class*="phone"]`, `a[href^="tel:"]`, `[itemprop="telephone"]`} {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if href, ok := s.Attr("href"); ok && strings.HasPrefix(href, "tel:") {
				out.Phone = strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
				return false
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

	if out.Empty() {
		return Contact{}, ErrNotFound
	}
	return out, nil
}
