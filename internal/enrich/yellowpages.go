package enrich

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// YellowPages searches the yellowpages.com directory. Phone numbers only;
// the directory rarely links the business's own site.
type YellowPages struct {
	baseURL string
	hc      *http.Client
}

func NewYellowPages() *YellowPages {
	return &YellowPages{
		baseURL: "https://www.yellowpages.com",
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (yp *YellowPages) Name() string { return "yellow_pages" }

func (yp *YellowPages) Lookup(ctx context.Context, name, city string) (Contact, error) {
	q := url.Values{}
	q.Set("search_terms", name)
	q.Set("geo_location_terms", city)
	doc, err := fetchDoc(ctx, yp.hc, yp.baseURL+"/search?"+q.Encode())
	if err != nil {
		return Contact{}, err
	}

	var out Contact
	for _, sel := range []string{"div.phones", "div.phone", `a[href^="tel:"]`, `[itemprop="telephone"]`} {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if href, ok := s.Attr("href"); ok && len(href) > 4 && href[:4] == "tel:" {
				if m := phoneRe.FindString(href[4:]); m != "" {
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

	if out.Empty() {
		return Contact{}, ErrNotFound
	}
	return out, nil
}
