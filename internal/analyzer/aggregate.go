package analyzer

import (
	"math"
	"sort"
	"strings"

	"github.com/mwalser/flugblick/internal/models"
)

const (
	topPhrases    = 5
	topWords      = 30
	maxListLength = 10
)

// Aggregate folds the analysis cache into corpus-level statistics. It is a
// pure function of the cache: an unchanged cache always yields identical
// output. Review IDs are scanned in ascending order, which is also the
// "first seen" order used for tie-breaking and deduplication.
func Aggregate(cache models.AnalysisCache) models.AggregatedAnalytics {
	out := models.AggregatedAnalytics{
		TopPositiveHighlights: []models.PhraseCount{},
		TopConcerns:           []models.PhraseCount{},
		WordCloud:             []models.PhraseCount{},
		HiddenCosts:           []string{},
		Suggestions:           []string{},
		Pilots:                map[string]models.PilotStats{},
	}
	if len(cache) == 0 {
		return out
	}

	ids := make([]string, 0, len(cache))
	for id := range cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sent sentimentSums
	highlights := newTally()
	concerns := newTally()
	words := newTally()
	hiddenCosts := newDedup()
	suggestions := newDedup()
	pilots := map[string]*pilotAccum{}
	var pilotOrder []string

	for _, id := range ids {
		a := cache[id]
		out.AnalyzedReviews++
		sent.add(a.Sentiment)

		if a.Topics.Safety {
			out.Topics.Safety++
		}
		if a.Topics.Equipment {
			out.Topics.Equipment++
		}
		if a.Topics.Weather {
			out.Topics.Weather++
		}
		if a.Topics.Booking {
			out.Topics.Booking++
		}
		if a.Topics.Photos {
			out.Topics.Photos++
		}

		for _, p := range a.PositiveHighlights {
			highlights.add(p)
		}
		for _, p := range a.Concerns {
			concerns.add(p)
		}
		for _, w := range a.KeyWords {
			words.add(strings.ToLower(w))
		}
		for _, s := range a.HiddenCosts {
			hiddenCosts.add(s)
		}
		for _, s := range a.Suggestions {
			suggestions.add(s)
		}

		for _, m := range a.Pilots {
			acc, ok := pilots[m.Name]
			if !ok {
				acc = &pilotAccum{highlights: newTally(), concerns: newTally()}
				pilots[m.Name] = acc
				pilotOrder = append(pilotOrder, m.Name)
			}
			acc.mentions++
			acc.ratings = append(acc.ratings, m.Rating)
			acc.ratingSum += m.Rating
			acc.sent.add(m.Sentiment)
			if len(acc.reviewIDs) == 0 || acc.reviewIDs[len(acc.reviewIDs)-1] != id {
				acc.reviewIDs = append(acc.reviewIDs, id)
			}
			for _, h := range m.Highlights {
				acc.highlights.add(h)
			}
			for _, c := range m.Concerns {
				acc.concerns.add(c)
			}
		}
	}

	n := out.AnalyzedReviews
	out.AverageSentiment = sent.mean(n)
	out.TopPositiveHighlights = highlights.top(topPhrases)
	out.TopConcerns = concerns.top(topPhrases)
	out.WordCloud = words.top(topWords)
	out.HiddenCosts = hiddenCosts.list(maxListLength)
	out.Suggestions = suggestions.list(maxListLength)

	for _, name := range pilotOrder {
		acc := pilots[name]
		out.Pilots[name] = models.PilotStats{
			TotalMentions:    acc.mentions,
			Ratings:          acc.ratings,
			AverageRating:    float64(acc.ratingSum) / float64(acc.mentions),
			ReviewIDs:        acc.reviewIDs,
			AverageSentiment: acc.sent.mean(acc.mentions),
			TopHighlights:    acc.highlights.top(topPhrases),
			TopConcerns:      acc.concerns.top(topPhrases),
		}
	}

	return out
}

type sentimentSums struct {
	overall, safety, staff, value int
}

// add accumulates one analysis. A zero-valued (absent) metric contributes 0 to
// the sum rather than being skipped; the mean is biased low for sparse data by
// design.
func (s *sentimentSums) add(v models.SentimentScores) {
	s.overall += v.OverallExperience
	s.safety += v.SafetyConfidence
	s.staff += v.StaffFriendliness
	s.value += v.ValueForMoney
}

func (s *sentimentSums) mean(n int) models.SentimentScores {
	if n == 0 {
		return models.SentimentScores{}
	}
	round := func(sum int) int {
		return int(math.Round(float64(sum) / float64(n)))
	}
	return models.SentimentScores{
		OverallExperience: round(s.overall),
		SafetyConfidence:  round(s.safety),
		StaffFriendliness: round(s.staff),
		ValueForMoney:     round(s.value),
	}
}

// tally counts exact-string phrase occurrences, remembering first-seen order
// so ranking ties break stably.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: map[string]int{}}
}

func (t *tally) add(s string) {
	if _, ok := t.counts[s]; !ok {
		t.order = append(t.order, s)
	}
	t.counts[s]++
}

func (t *tally) top(n int) []models.PhraseCount {
	ranked := make([]models.PhraseCount, 0, len(t.order))
	for _, s := range t.order {
		ranked = append(ranked, models.PhraseCount{Phrase: s, Count: t.counts[s]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// dedup collects strings by exact equality, preserving first-seen order.
type dedup struct {
	seen  map[string]bool
	order []string
}

func newDedup() *dedup {
	return &dedup{seen: map[string]bool{}}
}

func (d *dedup) add(s string) {
	if d.seen[s] {
		return
	}
	d.seen[s] = true
	d.order = append(d.order, s)
}

func (d *dedup) list(limit int) []string {
	out := d.order
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []string{}
	}
	return out
}

type pilotAccum struct {
	mentions   int
	ratings    []int
	ratingSum  int
	reviewIDs  []string
	sent       sentimentSums
	highlights *tally
	concerns   *tally
}
