package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForecastFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flugblick_forecast_fetches_total",
			Help: "Total forecast provider fetches",
		},
		[]string{"status"},
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flugblick_llm_calls_total",
			Help: "Total LLM completion calls",
		},
		[]string{"operation", "status"},
	)

	LLMCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flugblick_llm_call_latency_seconds",
			Help:    "LLM completion call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ReviewsAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flugblick_reviews_analyzed_total",
			Help: "Reviews analyzed, by outcome",
		},
		[]string{"outcome"},
	)

	ReviewsScrapedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flugblick_reviews_scraped_total",
			Help: "New reviews added by the scraper",
		},
	)
)
