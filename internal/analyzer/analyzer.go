// Package analyzer enriches scraped reviews with LLM-derived structure and
// folds the cached results into corpus-level analytics.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/mwalser/flugblick/internal/llm"
	"github.com/mwalser/flugblick/internal/metrics"
	"github.com/mwalser/flugblick/internal/models"
	"github.com/mwalser/flugblick/internal/store"
)

const callTimeout = 30 * time.Second

const systemPrompt = `You analyze customer reviews of a tandem paragliding operation.
Respond with exactly one JSON object and nothing else. No prose, no code fences.`

// Analyzer runs the sequential, rate-limited analysis loop. Reviews are
// processed strictly one at a time; the inter-call delay is a courtesy to the
// upstream API, not a correctness requirement.
type Analyzer struct {
	completer llm.Completer

	// sleep and delay are injectable for tests.
	sleep func(time.Duration)
	delay func() time.Duration
}

// New creates an analyzer over the given completion provider.
func New(completer llm.Completer) *Analyzer {
	return &Analyzer{
		completer: completer,
		sleep:     time.Sleep,
		delay: func() time.Duration {
			return time.Second + time.Duration(rand.Int63n(int64(time.Second)))
		},
	}
}

// Result is the outcome of one analysis batch.
type Result struct {
	NewlyAnalyzed int
	Cache         models.AnalysisCache
	Analytics     models.AggregatedAnalytics
}

// Analyze processes every review missing from the cache, or every review when
// analyzeAll is set, in corpus order. A failed model call or unparseable
// response never aborts the batch: the review gets a degraded entry derived
// from its star rating and the loop continues. The updated cache is returned;
// persisting it is the caller's job (see Run).
func (a *Analyzer) Analyze(ctx context.Context, reviews []models.Review, cache models.AnalysisCache, analyzeAll bool) Result {
	if cache == nil {
		cache = models.AnalysisCache{}
	}

	var work []models.Review
	for _, r := range reviews {
		if analyzeAll {
			work = append(work, r)
			continue
		}
		if _, ok := cache[r.ID]; !ok {
			work = append(work, r)
		}
	}

	for i, r := range work {
		if i > 0 {
			a.sleep(a.delay())
		}
		cache[r.ID] = a.analyzeOne(ctx, r)
	}

	return Result{
		NewlyAnalyzed: len(work),
		Cache:         cache,
		Analytics:     Aggregate(cache),
	}
}

// Run is the full batch operation: load the cache, analyze, persist the whole
// cache atomically. A write failure is fatal for the run; the previous on-disk
// snapshot stays valid.
func (a *Analyzer) Run(ctx context.Context, st *store.Store, analyzeAll bool) (Result, error) {
	reviews, err := st.LoadReviews()
	if err != nil {
		return Result{}, err
	}
	cache, err := st.LoadAnalysisCache()
	if err != nil {
		return Result{}, err
	}
	res := a.Analyze(ctx, reviews, cache, analyzeAll)
	if err := st.SaveAnalysisCache(res.Cache); err != nil {
		return Result{}, fmt.Errorf("persist analysis cache: %w", err)
	}
	return res, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, r models.Review) models.ReviewAnalysis {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	start := time.Now()
	raw, err := a.completer.Complete(callCtx, systemPrompt, buildPrompt(r))
	metrics.LLMCallLatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues("analyze", "error").Inc()
		metrics.ReviewsAnalyzedTotal.WithLabelValues("degraded").Inc()
		log.Printf("analyze %s: model call failed, recording degraded entry: %v", r.ID, err)
		return degradedAnalysis(r)
	}
	metrics.LLMCallsTotal.WithLabelValues("analyze", "ok").Inc()

	analysis, ok := parseAnalysis(raw)
	if !ok {
		metrics.ReviewsAnalyzedTotal.WithLabelValues("degraded").Inc()
		log.Printf("analyze %s: unparseable model output, recording degraded entry", r.ID)
		return degradedAnalysis(r)
	}
	metrics.ReviewsAnalyzedTotal.WithLabelValues("ok").Inc()
	analysis.AnalyzedAt = time.Now().UTC()
	return analysis
}

func buildPrompt(r models.Review) string {
	return fmt.Sprintf(`Analyze this review.

Reviewer: %s
Stars: %d/5
Review: %s

Return one JSON object with this exact shape:
{
  "sentiment": {"overallExperience": 0-100, "safetyConfidence": 0-100, "staffFriendliness": 0-100, "valueForMoney": 0-100},
  "topics": {"safety": bool, "equipment": bool, "weather": bool, "booking": bool, "photos": bool},
  "positiveHighlights": ["short phrase", ...],
  "concerns": ["short phrase", ...],
  "hiddenCosts": ["short phrase", ...],
  "suggestions": ["short phrase", ...],
  "keyWords": ["word", ...],
  "pilots": [{"name": "...", "rating": 1-5, "confidence": "high|medium|low",
              "sentiment": {"overallExperience": 0-100, "safetyConfidence": 0-100, "staffFriendliness": 0-100, "valueForMoney": 0-100},
              "highlights": [...], "concerns": [...]}]
}
Only include pilots actually named in the text.`, r.Author, r.Rating, r.Text)
}

// parseAnalysis decodes model output that is probably JSON, possibly wrapped
// in prose or code fences. It tries the raw text first, then the largest
// brace-delimited substring. Absent fields keep their zero values.
func parseAnalysis(raw string) (models.ReviewAnalysis, bool) {
	var analysis models.ReviewAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err == nil {
		return normalize(analysis), true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.ReviewAnalysis{}, false
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &analysis); err != nil {
		return models.ReviewAnalysis{}, false
	}
	return normalize(analysis), true
}

// normalize gives every list-valued field an explicit empty default and pins
// confidence tags to the known set.
func normalize(a models.ReviewAnalysis) models.ReviewAnalysis {
	a.PositiveHighlights = orEmpty(a.PositiveHighlights)
	a.Concerns = orEmpty(a.Concerns)
	a.HiddenCosts = orEmpty(a.HiddenCosts)
	a.Suggestions = orEmpty(a.Suggestions)
	a.KeyWords = orEmpty(a.KeyWords)
	if a.Pilots == nil {
		a.Pilots = []models.PilotMention{}
	}
	for i := range a.Pilots {
		a.Pilots[i].Highlights = orEmpty(a.Pilots[i].Highlights)
		a.Pilots[i].Concerns = orEmpty(a.Pilots[i].Concerns)
		switch c := strings.ToLower(a.Pilots[i].Confidence); c {
		case "high", "medium", "low":
			a.Pilots[i].Confidence = c
		default:
			a.Pilots[i].Confidence = "low"
		}
	}
	return a
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// degradedAnalysis derives a minimal entry from the star rating alone so the
// review still ends up cached after a failed call or unparseable output.
func degradedAnalysis(r models.Review) models.ReviewAnalysis {
	return models.ReviewAnalysis{
		Sentiment: models.SentimentScores{
			OverallExperience: r.Rating * 20,
			SafetyConfidence:  50,
			StaffFriendliness: 50,
			ValueForMoney:     50,
		},
		PositiveHighlights: []string{},
		Concerns:           []string{},
		HiddenCosts:        []string{},
		Suggestions:        []string{},
		KeyWords:           []string{},
		Pilots:             []models.PilotMention{},
		Degraded:           true,
		AnalyzedAt:         time.Now().UTC(),
	}
}
