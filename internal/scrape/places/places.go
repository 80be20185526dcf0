// Package places queries the primary map/places text-search source for a
// niche and location, paginating through result pages and hydrating each
// result with a per-place detail fetch.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/scrape/util"
)

// ErrSourceUnavailable means the primary source cannot be queried at all
// (missing credentials). It is fatal and aborts the run before scraping.
var ErrSourceUnavailable = errors.New("places: api key not configured")

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// PageError marks an aborted pagination. Results collected before the bad
// page are still returned alongside it.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("places: page %d fetch failed: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

type Config struct {
	APIKey         string
	BaseURL        string // override for tests
	PageTokenDelay time.Duration
	RequestTimeout time.Duration
}

type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.SourceLimiter
}

func New(cfg Config, limiter *util.SourceLimiter) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Scraper{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.RequestTimeout},
		limiter: limiter,
	}
}

// Available reports whether the source can be queried at all.
func (s *Scraper) Available() bool { return s.cfg.APIKey != "" }

// Wire shapes of the text-search and details endpoints.

type searchResult struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Rating           float64 `json:"rating"`
	UserRatingsTotal int     `json:"user_ratings_total"`
}

type searchResponse struct {
	Results       []searchResult `json:"results"`
	NextPageToken string         `json:"next_page_token"`
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
}

type detailsResponse struct {
	Result struct {
		FormattedPhoneNumber string `json:"formatted_phone_number"`
		Website              string `json:"website"`
		URL                  string `json:"url"`
	} `json:"result"`
	Status string `json:"status"`
}

// Search queries the source for "<niche> in <city>, <state>" and returns up
// to max candidates. A fresh call always re-issues the query from the first
// page; the sequence is not restartable mid-stream.
//
// Between page fetches it waits the source-mandated cooldown so the
// next-page token has become valid. On a malformed or error page it stops
// paginating and returns the candidates collected so far together with a
// *PageError.
func (s *Scraper) Search(ctx context.Context, niche, city, state string, max int) ([]domain.Candidate, error) {
	if !s.Available() {
		return nil, ErrSourceUnavailable
	}

	query := fmt.Sprintf("%s in %s, %s", niche, city, state)
	log.Printf("[places] searching %q", query)

	var out []domain.Candidate
	token := ""
	page := 0

	for len(out) < max {
		page++
		if token != "" {
			// Page tokens only become valid after a fixed delay; using one
			// early gets the request rejected.
			if err := util.Cooldown(ctx, s.cfg.PageTokenDelay); err != nil {
				return out, err
			}
		}

		resp, err := s.fetchPage(ctx, query, token, page)
		if err != nil {
			if page == 1 {
				return nil, &PageError{Page: page, Err: err}
			}
			log.Printf("[places] aborting pagination for %q: %v", niche, err)
			return out, &PageError{Page: page, Err: err}
		}

		for _, r := range resp.Results {
			if len(out) >= max {
				break
			}
			c := s.hydrate(ctx, r, niche)
			out = append(out, c)
		}

		token = resp.NextPageToken
		if token == "" {
			break
		}
	}

	log.Printf("[places] %d candidates for %q over %d page(s)", len(out), niche, page)
	return out, nil
}

// fetchPage issues one text-search request. Only the first page is retried:
// the source's mid-pagination error states are not transient-safe.
func (s *Scraper) fetchPage(ctx context.Context, query, token string, page int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("key", s.cfg.APIKey)
	if token != "" {
		q.Set("pagetoken", token)
	} else {
		q.Set("query", query)
	}
	u := s.cfg.BaseURL + "/textsearch/json?" + q.Encode()

	var resp searchResponse
	fetch := func() error {
		if err := s.limiter.Wait(ctx, "places"); err != nil {
			return err
		}
		return s.getJSON(ctx, u, &resp)
	}

	var err error
	if page == 1 {
		err = retry.Do(fetch,
			retry.Context(ctx),
			retry.Attempts(3),
			retry.Delay(time.Second),
			retry.MaxDelay(10*time.Second),
			retry.DelayType(retry.FullJitterBackoffDelay),
			retry.OnRetry(func(n uint, err error) {
				log.Printf("[places] retrying search (attempt %d): %v", n+1, err)
			}),
		)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK", "ZERO_RESULTS":
		return &resp, nil
	default:
		return nil, fmt.Errorf("source status %s: %s", resp.Status, resp.ErrorMessage)
	}
}

// hydrate fetches phone/website for one result. Detail failures leave those
// fields empty; the enrichment chain gets a chance at them later.
func (s *Scraper) hydrate(ctx context.Context, r searchResult, niche string) domain.Candidate {
	c := domain.Candidate{
		Niche:        niche,
		Name:         r.Name,
		Address:      r.FormattedAddress,
		Rating:       r.Rating,
		ReviewCount:  r.UserRatingsTotal,
		Source:       "Google Maps",
		DiscoveredAt: time.Now().UTC(),
	}

	q := url.Values{}
	q.Set("key", s.cfg.APIKey)
	q.Set("place_id", r.PlaceID)
	q.Set("fields", "formatted_phone_number,website,url")
	u := s.cfg.BaseURL + "/details/json?" + q.Encode()

	var resp detailsResponse
	err := retry.Do(func() error {
		if err := s.limiter.Wait(ctx, "places"); err != nil {
			return err
		}
		return s.getJSON(ctx, u, &resp)
	},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
	)
	if err != nil || resp.Status != "OK" {
		log.Printf("[places] detail fetch failed for %q: status=%q err=%v", r.Name, resp.Status, err)
		return c
	}

	c.Phone = resp.Result.FormattedPhoneNumber
	c.Website = resp.Result.Website
	c.GMBLink = resp.Result.URL
	return c
}

func (s *Scraper) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "LeadParser/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
