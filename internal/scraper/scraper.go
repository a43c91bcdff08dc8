// Package scraper pulls the public reviews page and extracts review records.
// The extraction is deliberately thin: one fetch, stable selectors, no
// pagination clicking.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mwalser/flugblick/internal/httputil"
	"github.com/mwalser/flugblick/internal/metrics"
	"github.com/mwalser/flugblick/internal/models"
	"github.com/mwalser/flugblick/internal/store"
)

// Scraper fetches the reviews page and merges new reviews into the store.
type Scraper struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// New creates a scraper for the given reviews page URL.
func New(url string) *Scraper {
	return &Scraper{
		url:    url,
		client: httputil.NewClient(),
		now:    time.Now,
	}
}

// Run fetches the page, extracts reviews and merges them into the snapshot.
// Returns how many reviews were new. Existing IDs are never duplicated or
// overwritten.
func (s *Scraper) Run(ctx context.Context, st *store.Store) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch reviews page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("fetch reviews page: status %d: %s", resp.StatusCode, string(b))
	}

	reviews, err := s.parse(resp.Body)
	if err != nil {
		return 0, err
	}

	_, added, err := st.MergeReviews(reviews)
	if err != nil {
		return 0, err
	}
	metrics.ReviewsScrapedTotal.Add(float64(added))
	return added, nil
}

// parse extracts reviews from the page HTML. Records without an id or with an
// out-of-range rating are skipped rather than half-imported.
func (s *Scraper) parse(r io.Reader) ([]models.Review, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse reviews page: %w", err)
	}

	scrapedAt := s.now().UTC()
	var reviews []models.Review
	doc.Find("div.review").Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("data-review-id")
		if !ok || id == "" {
			return
		}
		rating, err := strconv.Atoi(sel.AttrOr("data-rating", ""))
		if err != nil || rating < 1 || rating > 5 {
			return
		}

		review := models.Review{
			ID:         id,
			Author:     strings.TrimSpace(sel.Find(".review-author").First().Text()),
			Rating:     rating,
			Text:       strings.TrimSpace(sel.Find(".review-text").First().Text()),
			Translated: sel.Find(".review-translated").Length() > 0,
			ScrapedAt:  scrapedAt,
		}
		sel.Find("img.review-photo").Each(func(_ int, img *goquery.Selection) {
			if src, ok := img.Attr("src"); ok && src != "" {
				review.Images = append(review.Images, src)
			}
		})
		reviews = append(reviews, review)
	})

	return reviews, nil
}
