package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwalser/flugblick/internal/takeoff"
)

func forecastJSON() string {
	// Two days, 24 hourly slots each. Midday values are distinctive so the
	// test can verify the sampling index.
	var times, temps, dews, precs, winds, dirs, clouds []string
	for d := 0; d < 2; d++ {
		for h := 0; h < 24; h++ {
			times = append(times, fmt.Sprintf("\"2026-04-0%dT%02d:00\"", d+1, h))
			if h == 12 {
				temps = append(temps, fmt.Sprintf("%d", 20+d))
				dews = append(dews, "10")
				winds = append(winds, "15")
				dirs = append(dirs, "30")
				clouds = append(clouds, "20")
			} else {
				temps = append(temps, "5")
				dews = append(dews, "4")
				winds = append(winds, "99")
				dirs = append(dirs, "200")
				clouds = append(clouds, "100")
			}
			precs = append(precs, "0")
		}
	}
	return fmt.Sprintf(`{
		"hourly": {
			"time": [%s],
			"temperature_2m": [%s],
			"dew_point_2m": [%s],
			"precipitation": [%s],
			"wind_speed_10m": [%s],
			"wind_direction_10m": [%s],
			"cloud_cover": [%s]
		},
		"daily": {
			"time": ["2026-04-01", "2026-04-02"],
			"precipitation_sum": [0, 1.5]
		}
	}`, strings.Join(times, ","), strings.Join(temps, ","), strings.Join(dews, ","),
		strings.Join(precs, ","), strings.Join(winds, ","), strings.Join(dirs, ","),
		strings.Join(clouds, ","))
}

func TestFetch_BuildsScoredDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("forecast_days"); got != "2" {
			t.Errorf("forecast_days = %q, want 2", got)
		}
		fmt.Fprint(w, forecastJSON())
	}))
	defer srv.Close()

	c := NewClient(47.31, 11.48, takeoff.DefaultConfig())
	c.baseURL = srv.URL

	days, err := c.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}

	d0 := days[0]
	if d0.Date != "2026-04-01" || d0.Day != "Wednesday" {
		t.Errorf("labels = %s %s", d0.Day, d0.Date)
	}
	// Midday sample, not any of the decoy hours.
	if d0.Sample.Temperature != 20 || d0.Sample.WindSpeed != 15 || d0.Sample.WindDirection != 30 {
		t.Errorf("wrong hourly sample: %+v", d0.Sample)
	}
	// Precipitation comes from the daily sum.
	if days[1].Sample.Precipitation != 1.5 {
		t.Errorf("day 2 precipitation = %v, want 1.5", days[1].Sample.Precipitation)
	}
	// The reference day scores 98 with the default config.
	if d0.Score.Total != 98 {
		t.Errorf("day 1 total = %d, want 98", d0.Score.Total)
	}
}

func TestFetch_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(47.31, 11.48, takeoff.DefaultConfig())
	c.baseURL = srv.URL

	if _, err := c.Fetch(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("4xx should be permanent, got %d calls", calls)
	}
}
