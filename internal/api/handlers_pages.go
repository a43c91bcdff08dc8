package api

import (
	"log"
	"net/http"

	"github.com/mwalser/flugblick/internal/analyzer"
	"github.com/mwalser/flugblick/internal/models"
	"github.com/mwalser/flugblick/internal/weather"
)

// IndexData backs the landing page: today's conditions plus corpus counts.
type IndexData struct {
	Today         *weather.ForecastDay
	OverallClass  string
	ReviewCount   int
	AnalyzedCount int
}

type WeatherPageData struct {
	Days []weather.ForecastDay
}

type ReviewsPageData struct {
	Reviews []models.Review
}

type AnalyticsPageData struct {
	Analytics       models.AggregatedAnalytics
	AnalyzerEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := IndexData{}
	if days, err := s.forecasts.Fetch(r.Context(), 1); err != nil {
		log.Printf("fetch forecast: %v", err)
	} else if len(days) > 0 {
		data.Today = &days[0]
		data.OverallClass = overallClass(days[0].Score.Total)
	}

	if reviews, err := s.store.LoadReviews(); err == nil {
		data.ReviewCount = len(reviews)
	}
	if cache, err := s.store.LoadAnalysisCache(); err == nil {
		data.AnalyzedCount = len(cache)
	}

	s.renderPage(w, "index.html", data)
}

func (s *Server) handleWeatherPage(w http.ResponseWriter, r *http.Request) {
	days, err := s.forecasts.Fetch(r.Context(), defaultForecastDays)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.renderPage(w, "weather.html", WeatherPageData{Days: days})
}

func (s *Server) handleReviewsPage(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.store.LoadReviews()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderPage(w, "reviews.html", ReviewsPageData{Reviews: reviews})
}

func (s *Server) handleAnalyticsPage(w http.ResponseWriter, r *http.Request) {
	cache, err := s.store.LoadAnalysisCache()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderPage(w, "analytics.html", AnalyticsPageData{
		Analytics:       analyzer.Aggregate(cache),
		AnalyzerEnabled: s.analyzer != nil,
	})
}

func overallClass(total int) string {
	switch {
	case total >= 90:
		return "optimal"
	case total >= 50:
		return "acceptable"
	default:
		return "poor"
	}
}
