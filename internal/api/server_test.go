package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mwalser/flugblick/internal/analyzer"
	"github.com/mwalser/flugblick/internal/api"
	"github.com/mwalser/flugblick/internal/marketing"
	"github.com/mwalser/flugblick/internal/models"
	"github.com/mwalser/flugblick/internal/store"
	"github.com/mwalser/flugblick/internal/takeoff"
	"github.com/mwalser/flugblick/internal/weather"
)

const testPassword = "fly-high"

type fakeForecasts struct {
	days []weather.ForecastDay
	err  error
}

func (f *fakeForecasts) Fetch(ctx context.Context, days int) ([]weather.ForecastDay, error) {
	if f.err != nil {
		return nil, f.err
	}
	if days < len(f.days) {
		return f.days[:days], nil
	}
	return f.days, nil
}

type fakeRunner struct {
	calls  int
	result analyzer.Result
}

func (f *fakeRunner) Run(ctx context.Context, st *store.Store, analyzeAll bool) (analyzer.Result, error) {
	f.calls++
	return f.result, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Draft(ctx context.Context, opts marketing.DraftOptions) (string, error) {
	return "Soar above the Karwendel!", nil
}

func (fakeGenerator) Translate(ctx context.Context, text, language string) (string, error) {
	return "[" + language + "] " + text, nil
}

func setupServer(t *testing.T) (*api.Server, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sample := models.WeatherSample{Temperature: 20, Dewpoint: 10, WindSpeed: 15, WindDirection: 30, CloudCover: 20}
	day := weather.ForecastDay{
		Date:   "2026-04-01",
		Day:    "Wednesday",
		Sample: sample,
		Score:  takeoff.Score(sample, takeoff.DefaultConfig()),
	}
	srv := api.NewServer(st, &fakeForecasts{days: []weather.ForecastDay{day}}, &fakeRunner{}, fakeGenerator{}, testPassword, "8080")
	return srv, st
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{"password": {testPassword}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after login, got %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "flugblick_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status"`) {
		t.Error("expected status field in JSON response")
	}
}

func TestPagesRequireLogin(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)
	h := srv.Handler()

	req := httptest.NewRequest("GET", "/weather", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to login, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected /login redirect, got %q", loc)
	}
}

func TestAPIRequiresLogin(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/api/takeoff", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for API without session, got %d", w.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)

	form := url.Values{"password": {"nope"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected login page re-render, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Wrong password") {
		t.Error("expected error message on login page")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no cookie on failed login")
	}
}

func TestLoginAndIndex(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Karwendelblick") {
		t.Error("expected site name on index page")
	}
	if !strings.Contains(body, "98") {
		t.Error("expected today's score on index page")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", w.Code)
	}
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "flugblick_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie expired")
	}
}

func TestAPITakeoff(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/api/takeoff?days=1", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var days []weather.ForecastDay
	if err := json.NewDecoder(w.Body).Decode(&days); err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if days[0].Score.Total != 98 {
		t.Errorf("expected total 98, got %d", days[0].Score.Total)
	}
}

func TestAPITakeoffUpstreamError(t *testing.T) {
	t.Parallel()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := api.NewServer(st, &fakeForecasts{err: errors.New("open-meteo unreachable")}, nil, nil, testPassword, "8080")
	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/api/takeoff", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestAPIReviewsAndAnalytics(t *testing.T) {
	t.Parallel()
	srv, st := setupServer(t)
	if err := st.SaveReviews([]models.Review{
		{ID: "r1", Author: "Anna", Rating: 5, Text: "Great flight"},
	}); err != nil {
		t.Fatal(err)
	}
	cache := models.AnalysisCache{
		"r1": {Sentiment: models.SentimentScores{OverallExperience: 90, SafetyConfidence: 80, StaffFriendliness: 70, ValueForMoney: 60}},
	}
	if err := st.SaveAnalysisCache(cache); err != nil {
		t.Fatal(err)
	}

	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/api/reviews", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("reviews: expected 200, got %d", w.Code)
	}
	var reviews []models.Review
	if err := json.NewDecoder(w.Body).Decode(&reviews); err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 1 || reviews[0].Author != "Anna" {
		t.Errorf("unexpected reviews payload: %+v", reviews)
	}

	req = httptest.NewRequest("GET", "/api/analytics", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("analytics: expected 200, got %d", w.Code)
	}
	var agg models.AggregatedAnalytics
	if err := json.NewDecoder(w.Body).Decode(&agg); err != nil {
		t.Fatal(err)
	}
	if agg.AnalyzedReviews != 1 {
		t.Errorf("expected 1 analyzed review, got %d", agg.AnalyzedReviews)
	}
}

func TestAPIAnalyze(t *testing.T) {
	t.Parallel()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{result: analyzer.Result{NewlyAnalyzed: 2}}
	srv := api.NewServer(st, &fakeForecasts{}, runner, nil, testPassword, "8080")
	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/api/analyze", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/analyze", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if runner.calls != 1 {
		t.Errorf("expected 1 analyzer run, got %d", runner.calls)
	}
	if !strings.Contains(w.Body.String(), `"newlyAnalyzed":2`) {
		t.Errorf("expected newlyAnalyzed in response, got %s", w.Body.String())
	}
}

func TestAPIAnalyzeDisabled(t *testing.T) {
	t.Parallel()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := api.NewServer(st, &fakeForecasts{}, nil, nil, testPassword, "8080")
	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("POST", "/api/analyze", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no analyzer, got %d", w.Code)
	}
}

func TestAPIDraftAndTranslate(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	form := url.Values{"tone": {"warm"}, "highlight": {"alpine views"}}
	req := httptest.NewRequest("POST", "/api/draft", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("draft: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Soar above") {
		t.Errorf("unexpected draft response: %s", w.Body.String())
	}

	form = url.Values{"text": {"Hallo"}, "language": {"English"}}
	req = httptest.NewRequest("POST", "/api/translate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("translate: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "[English] Hallo") {
		t.Errorf("unexpected translate response: %s", w.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/translate", strings.NewReader(url.Values{"text": {"Hallo"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without language, got %d", w.Code)
	}
}

func TestReviewImageRejectsUnknownSource(t *testing.T) {
	t.Parallel()
	srv, _ := setupServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/review-image?src=https://evil.example/x.png", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown image, got %d", w.Code)
	}
}

func TestReviewImageProxy(t *testing.T) {
	t.Parallel()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pngbytes"))
	}))
	defer upstream.Close()

	srv, st := setupServer(t)
	imgURL := upstream.URL + "/photo1.png"
	if err := st.SaveReviews([]models.Review{
		{ID: "r1", Author: "Anna", Rating: 5, Text: "Great", Images: []string{imgURL}},
	}); err != nil {
		t.Fatal(err)
	}

	h := srv.Handler()
	cookie := login(t, h)

	req := httptest.NewRequest("GET", "/review-image?src="+url.QueryEscape(imgURL), nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png passthrough, got %q", ct)
	}
	if w.Body.String() != "pngbytes" {
		t.Errorf("expected body passthrough, got %q", w.Body.String())
	}
}
