package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwalser/flugblick/internal/models"
)

const (
	reviewsFile = "reviews.json"
	cacheFile   = "analysis_cache.json"
)

// Store reads and writes the flat JSON snapshots: the scraped review corpus
// and the per-review analysis cache. Both are read fully and written
// wholesale; there are no partial or append writes. Concurrent writers are
// the caller's problem and must be serialized.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// LoadReviews returns the review corpus in scrape order. A missing snapshot
// is an empty corpus, not an error.
func (s *Store) LoadReviews() ([]models.Review, error) {
	var reviews []models.Review
	if err := s.load(reviewsFile, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// SaveReviews replaces the review snapshot.
func (s *Store) SaveReviews(reviews []models.Review) error {
	return s.save(reviewsFile, reviews)
}

// MergeReviews appends reviews whose IDs are not already present, preserving
// existing entries untouched. Returns the merged corpus and how many entries
// were new. Re-scraping the same page never duplicates a review.
func (s *Store) MergeReviews(scraped []models.Review) ([]models.Review, int, error) {
	existing, err := s.LoadReviews()
	if err != nil {
		return nil, 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.ID] = true
	}
	added := 0
	for _, r := range scraped {
		if seen[r.ID] {
			continue
		}
		existing = append(existing, r)
		seen[r.ID] = true
		added++
	}
	if added > 0 {
		if err := s.SaveReviews(existing); err != nil {
			return nil, 0, err
		}
	}
	return existing, added, nil
}

// LoadAnalysisCache returns the analysis cache. A missing snapshot (first run)
// is an empty cache, not an error.
func (s *Store) LoadAnalysisCache() (models.AnalysisCache, error) {
	cache := models.AnalysisCache{}
	if err := s.load(cacheFile, &cache); err != nil {
		return nil, err
	}
	return cache, nil
}

// SaveAnalysisCache replaces the whole cache snapshot atomically. A failed
// write leaves the previous snapshot intact.
func (s *Store) SaveAnalysisCache(cache models.AnalysisCache) error {
	return s.save(cacheFile, cache)
}

func (s *Store) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// save writes to a temp file in the same directory and renames it over the
// snapshot, so a crash mid-write never corrupts the previous state.
func (s *Store) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
