// Package weather fetches the Open-Meteo forecast for the launch site and
// scores each day for takeoff suitability.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mwalser/flugblick/internal/httputil"
	"github.com/mwalser/flugblick/internal/metrics"
	"github.com/mwalser/flugblick/internal/models"
	"github.com/mwalser/flugblick/internal/takeoff"
)

const defaultBaseURL = "https://api.open-meteo.com"

// midday is the representative hourly sample for each forecast day.
const middayHour = 12

// ForecastDay is one scored calendar day, rebuilt on every fetch and never
// cached.
type ForecastDay struct {
	Date   string               `json:"date"` // 2006-01-02
	Day    string               `json:"day"`  // weekday label
	Sample models.WeatherSample `json:"sample"`
	Score  takeoff.Result       `json:"score"`
}

// Client fetches forecasts for a fixed point. Open-Meteo needs no API key.
type Client struct {
	baseURL string
	client  *http.Client
	lat     float64
	lon     float64
	config  takeoff.Config
}

// NewClient creates a forecast client for the launch site. The scoring config
// carries the ground elevation.
func NewClient(lat, lon float64, cfg takeoff.Config) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  httputil.NewClient(),
		lat:     lat,
		lon:     lon,
		config:  cfg,
	}
}

type forecastResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		Dewpoint      []float64 `json:"dew_point_2m"`
		Precipitation []float64 `json:"precipitation"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
		WindDirection []float64 `json:"wind_direction_10m"`
		CloudCover    []float64 `json:"cloud_cover"`
	} `json:"hourly"`
	Daily struct {
		Time          []string  `json:"time"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch returns one scored ForecastDay per requested day, built from the
// midday hourly sample and the daily precipitation sum.
func (c *Client) Fetch(ctx context.Context, days int) ([]ForecastDay, error) {
	url := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f"+
		"&hourly=temperature_2m,dew_point_2m,precipitation,wind_speed_10m,wind_direction_10m,cloud_cover"+
		"&daily=precipitation_sum&forecast_days=%d&timezone=auto",
		c.baseURL, c.lat, c.lon, days)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch forecast: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch forecast: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch forecast: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		metrics.ForecastFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ForecastFetchesTotal.WithLabelValues("ok").Inc()

	var data forecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal forecast: %w", err)
	}

	return c.buildDays(data)
}

func (c *Client) buildDays(data forecastResponse) ([]ForecastDay, error) {
	var out []ForecastDay
	for i, dateStr := range data.Daily.Time {
		idx := i*24 + middayHour
		if idx >= len(data.Hourly.Time) {
			break
		}

		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse daily date %q: %w", dateStr, err)
		}
		sampleTime, err := time.Parse("2006-01-02T15:04", data.Hourly.Time[idx])
		if err != nil {
			return nil, fmt.Errorf("parse hourly time %q: %w", data.Hourly.Time[idx], err)
		}

		sample := models.WeatherSample{
			Time:          sampleTime,
			Temperature:   at(data.Hourly.Temperature, idx),
			Dewpoint:      at(data.Hourly.Dewpoint, idx),
			WindSpeed:     at(data.Hourly.WindSpeed, idx),
			WindDirection: at(data.Hourly.WindDirection, idx),
			CloudCover:    at(data.Hourly.CloudCover, idx),
			Precipitation: at(data.Daily.PrecipitationSum, i),
		}

		out = append(out, ForecastDay{
			Date:   dateStr,
			Day:    date.Weekday().String(),
			Sample: sample,
			Score:  takeoff.Score(sample, c.config),
		})
	}
	return out, nil
}

func at(vals []float64, i int) float64 {
	if i < 0 || i >= len(vals) {
		return 0
	}
	return vals[i]
}
