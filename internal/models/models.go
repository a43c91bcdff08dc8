package models

import "time"

// Review is one scraped customer review. Reviews are immutable once written;
// the ID is the dedupe key across scrape runs.
type Review struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	Rating     int       `json:"rating"` // stars, 1-5
	Text       string    `json:"text"`
	Images     []string  `json:"images,omitempty"`
	Translated bool      `json:"translated"`
	ScrapedAt  time.Time `json:"scrapedAt"`
}

// SentimentScores holds the four 0-100 sentiment metrics the analyzer extracts,
// used both per-review and per-pilot.
type SentimentScores struct {
	OverallExperience int `json:"overallExperience"`
	SafetyConfidence  int `json:"safetyConfidence"`
	StaffFriendliness int `json:"staffFriendliness"`
	ValueForMoney     int `json:"valueForMoney"`
}

// TopicFlags marks which recurring topics a review touches.
type TopicFlags struct {
	Safety    bool `json:"safety"`
	Equipment bool `json:"equipment"`
	Weather   bool `json:"weather"`
	Booking   bool `json:"booking"`
	Photos    bool `json:"photos"`
}

// PilotMention is a named pilot extracted from one review. Name is the exact
// string the model produced and is the cross-review join key; "Max" and
// "Max K." are distinct pilots as far as aggregation is concerned.
type PilotMention struct {
	Name       string          `json:"name"`
	Rating     int             `json:"rating"`     // 1-5
	Confidence string          `json:"confidence"` // high, medium, low
	Sentiment  SentimentScores `json:"sentiment"`
	Highlights []string        `json:"highlights,omitempty"`
	Concerns   []string        `json:"concerns,omitempty"`
}

// ReviewAnalysis is the structured enrichment of one review. Exactly zero or
// one per review ID; entries are only ever replaced by an explicit re-analysis.
type ReviewAnalysis struct {
	Sentiment          SentimentScores `json:"sentiment"`
	Topics             TopicFlags      `json:"topics"`
	PositiveHighlights []string        `json:"positiveHighlights"`
	Concerns           []string        `json:"concerns"`
	HiddenCosts        []string        `json:"hiddenCosts"`
	Suggestions        []string        `json:"suggestions"`
	KeyWords           []string        `json:"keyWords"`
	Pilots             []PilotMention  `json:"pilots"`
	// Degraded marks entries built from the star rating alone after a failed
	// model call or unparseable output. Informational only.
	Degraded   bool      `json:"degraded,omitempty"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// AnalysisCache maps review ID to its analysis. Read fully, mutated in memory,
// rewritten wholesale.
type AnalysisCache map[string]ReviewAnalysis

// PhraseCount is a ranked phrase with its occurrence count.
type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// PilotStats is the cross-review rollup for one pilot name.
type PilotStats struct {
	TotalMentions    int             `json:"totalMentions"`
	Ratings          []int           `json:"ratings"`
	AverageRating    float64         `json:"averageRating"` // unrounded; one decimal at display
	ReviewIDs        []string        `json:"reviewIds"`
	AverageSentiment SentimentScores `json:"averageSentiment"`
	TopHighlights    []PhraseCount   `json:"topHighlights"`
	TopConcerns      []PhraseCount   `json:"topConcerns"`
}

// TopicCounts counts how many analyses flag each topic.
type TopicCounts struct {
	Safety    int `json:"safety"`
	Equipment int `json:"equipment"`
	Weather   int `json:"weather"`
	Booking   int `json:"booking"`
	Photos    int `json:"photos"`
}

// AggregatedAnalytics is the corpus-wide rollup, recomputed on demand from the
// cache and never persisted.
type AggregatedAnalytics struct {
	AnalyzedReviews       int                   `json:"analyzedReviews"`
	AverageSentiment      SentimentScores       `json:"averageSentiment"`
	Topics                TopicCounts           `json:"topics"`
	TopPositiveHighlights []PhraseCount         `json:"topPositiveHighlights"`
	TopConcerns           []PhraseCount         `json:"topConcerns"`
	WordCloud             []PhraseCount         `json:"wordCloud"`
	HiddenCosts           []string              `json:"hiddenCosts"`
	Suggestions           []string              `json:"suggestions"`
	Pilots                map[string]PilotStats `json:"pilots"`
}

// WeatherSample is one hourly observation extracted from the forecast feed.
type WeatherSample struct {
	Time          time.Time `json:"time"`
	Temperature   float64   `json:"temperature"`   // degC
	Dewpoint      float64   `json:"dewpoint"`      // degC
	Precipitation float64   `json:"precipitation"` // mm
	WindSpeed     float64   `json:"windSpeed"`     // km/h
	WindDirection float64   `json:"windDirection"` // degrees, 0=360=north
	CloudCover    float64   `json:"cloudCover"`    // percent
}
