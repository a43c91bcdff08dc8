package api

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwalser/flugblick/internal/analyzer"
	"github.com/mwalser/flugblick/internal/httputil"
	"github.com/mwalser/flugblick/internal/marketing"
	"github.com/mwalser/flugblick/internal/store"
	"github.com/mwalser/flugblick/internal/weather"
)

// ForecastSource provides scored forecast days. Satisfied by *weather.Client.
type ForecastSource interface {
	Fetch(ctx context.Context, days int) ([]weather.ForecastDay, error)
}

// AnalysisRunner runs one analysis batch against the store. Satisfied by
// *analyzer.Analyzer. Nil when no LLM credential is configured.
type AnalysisRunner interface {
	Run(ctx context.Context, st *store.Store, analyzeAll bool) (analyzer.Result, error)
}

// Generator drafts marketing copy. Satisfied by *marketing.Generator. Nil when
// no LLM credential is configured.
type Generator interface {
	Draft(ctx context.Context, opts marketing.DraftOptions) (string, error)
	Translate(ctx context.Context, text, language string) (string, error)
}

type Server struct {
	store     *store.Store
	forecasts ForecastSource
	analyzer  AnalysisRunner
	generator Generator
	password  string
	port      string
	tmpl      *template.Template
	images    *http.Client

	// analyzeMu serializes analysis batches: the cache file is whole-file
	// read-modify-write and concurrent runs against it are not safe.
	analyzeMu sync.Mutex
}

func NewServer(st *store.Store, forecasts ForecastSource, runner AnalysisRunner, gen Generator, password, port string) *Server {
	return &Server{
		store:     st,
		forecasts: forecasts,
		analyzer:  runner,
		generator: gen,
		password:  password,
		port:      port,
		tmpl:      newTemplates(),
		images:    httputil.NewClient(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", s.requireAuth(s.handleIndex))
	mux.HandleFunc("/weather", s.requireAuth(s.handleWeatherPage))
	mux.HandleFunc("/reviews", s.requireAuth(s.handleReviewsPage))
	mux.HandleFunc("/analytics", s.requireAuth(s.handleAnalyticsPage))
	mux.HandleFunc("/review-image", s.requireAuth(s.handleReviewImage))

	mux.HandleFunc("/api/takeoff", s.requireAuth(s.handleAPITakeoff))
	mux.HandleFunc("/api/reviews", s.requireAuth(s.handleAPIReviews))
	mux.HandleFunc("/api/analytics", s.requireAuth(s.handleAPIAnalytics))
	mux.HandleFunc("/api/analyze", s.requireAuth(s.handleAPIAnalyze))
	mux.HandleFunc("/api/draft", s.requireAuth(s.handleAPIDraft))
	mux.HandleFunc("/api/translate", s.requireAuth(s.handleAPITranslate))
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
