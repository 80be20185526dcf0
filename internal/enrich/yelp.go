package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Yelp looks a business up on the public Yelp search page. Business pages
// often carry both the phone number and an outbound website link.
type Yelp struct {
	baseURL string
	hc      *http.Client
}

func NewYelp() *Yelp {
	return &Yelp{
		baseURL: "https://www.yelp.com",
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (y *Yelp) Name() string { return "yelp" }

func (y *Yelp) Lookup(ctx context.Context, name, city string) (Contact, error) {
	q := url.Values{}
	q.Set("find_desc", name)
	q.Set("find_loc", city)
	doc, err := fetchDoc(ctx, y.hc, y.baseURL+"/search?"+q.Encode())
	if err != nil {
		return Contact{}, err
	}

	var out Contact

	// Phone is usually rendered next to the first result card.
	doc.Find(`[class*="phone"], p[data-testid="phone"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if m := phoneRe.FindString(sel.Text()); m != "" {
			out.Phone = m
			return false
		}
		return true
	})
	if out.Phone == "" {
		if m := phoneRe.FindString(doc.Find("main").Text()); m != "" {
			out.Phone = m
		}
	}

	// Outbound business-site links go through /biz_redir?url=...
	doc.Find(`a[href*="biz_redir"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		if target := u.Query().Get("url"); target != "" {
			out.Website = target
			return false
		}
		return true
	})

	if out.Empty() {
		return Contact{}, ErrNotFound
	}
	return out, nil
}

// fetchDoc GETs a page and parses it. Shared by the HTML providers.
func fetchDoc(ctx context.Context, hc *http.Client, u string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
