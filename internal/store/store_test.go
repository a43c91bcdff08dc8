package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwalser/flugblick/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadReviews_MissingFile(t *testing.T) {
	s := newTestStore(t)
	reviews, err := s.LoadReviews()
	if err != nil {
		t.Fatalf("missing snapshot should not error: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("expected empty corpus, got %d", len(reviews))
	}
}

func TestLoadAnalysisCache_MissingFile(t *testing.T) {
	s := newTestStore(t)
	cache, err := s.LoadAnalysisCache()
	if err != nil {
		t.Fatalf("missing cache should not error: %v", err)
	}
	if len(cache) != 0 {
		t.Errorf("expected empty cache, got %d entries", len(cache))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := []models.Review{
		{ID: "r1", Author: "Anna", Rating: 5, Text: "Unforgettable!", ScrapedAt: time.Unix(1700000000, 0).UTC()},
		{ID: "r2", Author: "Ben", Rating: 3, Text: "Windy day.", Translated: true, ScrapedAt: time.Unix(1700000100, 0).UTC()},
	}
	if err := s.SaveReviews(in); err != nil {
		t.Fatal(err)
	}
	out, err := s.LoadReviews()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "r1" || out[1].Author != "Ben" || !out[1].Translated {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestMergeReviews_NoDuplicates(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveReviews([]models.Review{{ID: "r1", Author: "Anna", Rating: 5}}); err != nil {
		t.Fatal(err)
	}

	merged, added, err := s.MergeReviews([]models.Review{
		{ID: "r1", Author: "Anna (rescraped)", Rating: 4},
		{ID: "r2", Author: "Ben", Rating: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if len(merged) != 2 {
		t.Fatalf("merged corpus has %d entries, want 2", len(merged))
	}
	// Existing entries are immutable: the rescrape must not overwrite r1.
	if merged[0].Author != "Anna" || merged[0].Rating != 5 {
		t.Errorf("existing review mutated: %+v", merged[0])
	}
}

func TestSaveAnalysisCache_Atomic(t *testing.T) {
	s := newTestStore(t)
	cache := models.AnalysisCache{
		"r1": {Sentiment: models.SentimentScores{OverallExperience: 90}},
	}
	if err := s.SaveAnalysisCache(cache); err != nil {
		t.Fatal(err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(filepath.Join(s.dir, cacheFile)))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != cacheFile {
			t.Errorf("unexpected leftover file %s", e.Name())
		}
	}

	got, err := s.LoadAnalysisCache()
	if err != nil {
		t.Fatal(err)
	}
	if got["r1"].Sentiment.OverallExperience != 90 {
		t.Errorf("cache round trip mismatch: %+v", got)
	}
}
