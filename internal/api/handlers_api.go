package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mwalser/flugblick/internal/analyzer"
	"github.com/mwalser/flugblick/internal/marketing"
)

const defaultForecastDays = 5

func (s *Server) handleAPITakeoff(w http.ResponseWriter, r *http.Request) {
	days := defaultForecastDays
	if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 && d <= 14 {
		days = d
	}
	forecast, err := s.forecasts.Fetch(r.Context(), days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, forecast)
}

func (s *Server) handleAPIReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.store.LoadReviews()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, reviews)
}

func (s *Server) handleAPIAnalytics(w http.ResponseWriter, r *http.Request) {
	cache, err := s.store.LoadAnalysisCache()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, analyzer.Aggregate(cache))
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.analyzer == nil {
		http.Error(w, "analysis disabled: no LLM credential configured", http.StatusServiceUnavailable)
		return
	}

	s.analyzeMu.Lock()
	defer s.analyzeMu.Unlock()

	res, err := s.analyzer.Run(r.Context(), s.store, r.FormValue("all") == "1")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"newlyAnalyzed": res.NewlyAnalyzed,
		"analytics":     res.Analytics,
	})
}

func (s *Server) handleAPIDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.generator == nil {
		http.Error(w, "drafting disabled: no LLM credential configured", http.StatusServiceUnavailable)
		return
	}
	text, err := s.generator.Draft(r.Context(), marketing.DraftOptions{
		Tone:      r.FormValue("tone"),
		Highlight: r.FormValue("highlight"),
		Language:  r.FormValue("language"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"text": text})
}

func (s *Server) handleAPITranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.generator == nil {
		http.Error(w, "translation disabled: no LLM credential configured", http.StatusServiceUnavailable)
		return
	}
	language := r.FormValue("language")
	if language == "" {
		http.Error(w, "language required", http.StatusBadRequest)
		return
	}
	text, err := s.generator.Translate(r.Context(), r.FormValue("text"), language)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
