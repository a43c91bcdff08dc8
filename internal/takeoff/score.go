package takeoff

import (
	"fmt"
	"math"

	"github.com/mwalser/flugblick/internal/models"
)

// DirectionRange maps an angular sector over [0,360) to a score. A range may
// wrap the north boundary: {Start: 315, End: 45} matches both 350 and 20.
type DirectionRange struct {
	Start float64
	End   float64
	Score int
}

// SpeedBand maps wind speeds up to Max (exclusive upper bound, km/h) to a
// score. Bands are checked in order; the last band should use math.Inf(1) to
// catch everything above.
type SpeedBand struct {
	Max   float64
	Score int
}

// Weights are the four category percentages of the final score. They should
// sum to 100; the scorer never renormalizes, so a caller supplying weights
// that sum to something else gets exactly the total that arithmetic yields.
type Weights struct {
	Direction     int
	Speed         int
	Precipitation int
	CloudCover    int
}

// SafetyLimits are the hard gates. Each is evaluated independently and any
// breach zeroes the whole score.
type SafetyLimits struct {
	// MinCloudBaseMargin is the minimum clearance of the computed cloud base
	// above the launch, in meters.
	MinCloudBaseMargin float64
	// MaxWindSpeed in km/h; above this flight is out regardless of direction.
	MaxWindSpeed float64
	// MaxPrecipitation in mm/day.
	MaxPrecipitation float64
	// DangerousDirectionScore: a direction scoring below this is disqualifying
	// on its own, but only once the wind is above DirectionWindCheck km/h.
	DangerousDirectionScore int
	DirectionWindCheck      float64
}

// Config is the full scoring policy. The zero value is not usable; start from
// DefaultConfig and override fields as needed.
type Config struct {
	GroundElevation float64 // launch altitude, meters ASL
	Directions      []DirectionRange
	SpeedBands      []SpeedBand
	Weights         Weights
	// PrecipPenaltyPerMM is deducted from a 100 base per mm of precipitation,
	// floored at 0.
	PrecipPenaltyPerMM float64
	Safety             SafetyLimits
}

// DirectionFallbackScore is used when the wind direction matches no configured
// range. Deliberate catch-all, not an error.
const DirectionFallbackScore = 50

// DefaultConfig returns the launch-site policy: north through southeast wind
// is flyable, south through west is not, 8-24 km/h is the sweet spot.
func DefaultConfig() Config {
	return Config{
		GroundElevation: 1690,
		Directions: []DirectionRange{
			{Start: 315, End: 45, Score: 100}, // N, wraps
			{Start: 45, End: 90, Score: 95},   // NE
			{Start: 90, End: 135, Score: 90},  // E to SE
			// 135-180 intentionally unmapped: SSE is marginal, fallback 50
			{Start: 180, End: 250, Score: 10}, // S to SW
			{Start: 250, End: 290, Score: 20}, // W
			{Start: 290, End: 315, Score: 30}, // NW
		},
		SpeedBands: []SpeedBand{
			{Max: 5, Score: 50},
			{Max: 8, Score: 70},
			{Max: 24, Score: 100},
			{Max: 29, Score: 60},
			{Max: 35, Score: 30},
			{Max: math.Inf(1), Score: 10},
		},
		Weights: Weights{
			Direction:     40,
			Speed:         30,
			Precipitation: 20,
			CloudCover:    10,
		},
		PrecipPenaltyPerMM: 20,
		Safety: SafetyLimits{
			MinCloudBaseMargin:      200,
			MaxWindSpeed:            35,
			MaxPrecipitation:        5,
			DangerousDirectionScore: 30,
			DirectionWindCheck:      10,
		},
	}
}

// Category is one weighted component of the score.
type Category struct {
	Score  int     `json:"score"`  // 0-100 raw category score
	Points float64 `json:"points"` // score x weight / 100, one decimal
	Label  string  `json:"label"`  // display only
	Flag   string  `json:"flag"`   // optimal, acceptable or poor
}

// Result is the full scored breakdown for one weather sample.
type Result struct {
	Total         int      `json:"total"`     // headline percentage, 0-100
	CloudBase     int      `json:"cloudBase"` // meters ASL, rounded
	Violations    []string `json:"violations,omitempty"`
	Direction     Category `json:"direction"`
	Speed         Category `json:"speed"`
	Precipitation Category `json:"precipitation"`
	CloudCover    Category `json:"cloudCover"`
	Flags         []string `json:"flags"`
}

// CloudBase estimates the cloud base altitude in meters ASL from surface
// temperature and dewpoint using the standard lapse-rate approximation
// (temperature spread / 2.5 degC per 1000 ft), rounded to the nearest meter.
func CloudBase(temperature, dewpoint, groundElevation float64) int {
	feet := (temperature - dewpoint) / 2.5 * 1000
	return int(math.Round(groundElevation + feet*0.3048))
}

// ScoreDirection returns the configured score for a wind direction, or
// DirectionFallbackScore when no range matches. 360 is treated as 0.
func ScoreDirection(direction float64, ranges []DirectionRange) int {
	d := math.Mod(direction, 360)
	if d < 0 {
		d += 360
	}
	for _, r := range ranges {
		if r.Start <= r.End {
			if d >= r.Start && d < r.End {
				return r.Score
			}
		} else if d >= r.Start || d < r.End { // wraps north
			return r.Score
		}
	}
	return DirectionFallbackScore
}

// ScoreSpeed returns the band score for a wind speed.
func ScoreSpeed(speed float64, bands []SpeedBand) int {
	for _, b := range bands {
		if speed < b.Max {
			return b.Score
		}
	}
	if len(bands) == 0 {
		return 0
	}
	return bands[len(bands)-1].Score
}

// Score converts one weather sample into a takeoff suitability result. It is
// pure: identical inputs always produce identical output.
func Score(s models.WeatherSample, cfg Config) Result {
	res := Result{
		CloudBase: CloudBase(s.Temperature, s.Dewpoint, cfg.GroundElevation),
	}

	dirScore := ScoreDirection(s.WindDirection, cfg.Directions)

	// Safety gates are independent; collect every breach.
	margin := float64(res.CloudBase) - cfg.GroundElevation
	if margin < cfg.Safety.MinCloudBaseMargin {
		res.Violations = append(res.Violations, fmt.Sprintf(
			"cloud base %dm is only %.0fm above launch, minimum clearance %.0fm",
			res.CloudBase, margin, cfg.Safety.MinCloudBaseMargin))
	}
	if s.WindSpeed > cfg.Safety.MaxWindSpeed {
		res.Violations = append(res.Violations, fmt.Sprintf(
			"wind speed %.1f km/h exceeds maximum %.1f km/h",
			s.WindSpeed, cfg.Safety.MaxWindSpeed))
	}
	if s.Precipitation > cfg.Safety.MaxPrecipitation {
		res.Violations = append(res.Violations, fmt.Sprintf(
			"precipitation %.1f mm exceeds maximum %.1f mm",
			s.Precipitation, cfg.Safety.MaxPrecipitation))
	}
	if dirScore < cfg.Safety.DangerousDirectionScore && s.WindSpeed > cfg.Safety.DirectionWindCheck {
		res.Violations = append(res.Violations, fmt.Sprintf(
			"wind from %.0f° (%s) is unsafe at %.1f km/h",
			s.WindDirection, compassLabel(s.WindDirection), s.WindSpeed))
	}
	if len(res.Violations) > 0 {
		// Hard gate: zero everything, keep the labels empty.
		return res
	}

	speedScore := ScoreSpeed(s.WindSpeed, cfg.SpeedBands)
	precipScore := int(math.Max(0, 100-s.Precipitation*cfg.PrecipPenaltyPerMM))
	cloudScore := int(math.Max(0, 100-s.CloudCover))

	res.Direction = category(dirScore, cfg.Weights.Direction, directionLabel(s.WindDirection, dirScore))
	res.Speed = category(speedScore, cfg.Weights.Speed, speedLabel(s.WindSpeed))
	res.Precipitation = category(precipScore, cfg.Weights.Precipitation, precipLabel(s.Precipitation))
	res.CloudCover = category(cloudScore, cfg.Weights.CloudCover, cloudLabel(s.CloudCover))

	res.Total = int(math.Round(res.Direction.Points + res.Speed.Points + res.Precipitation.Points + res.CloudCover.Points))
	res.Flags = []string{
		"wind direction " + res.Direction.Flag,
		"wind speed " + res.Speed.Flag,
		"precipitation " + res.Precipitation.Flag,
		"cloud cover " + res.CloudCover.Flag,
	}
	return res
}

func category(score, weight int, label string) Category {
	return Category{
		Score:  score,
		Points: round1(float64(score) * float64(weight) / 100),
		Label:  label,
		Flag:   conditionFlag(score),
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func conditionFlag(score int) string {
	switch {
	case score >= 90:
		return "optimal"
	case score >= 50:
		return "acceptable"
	default:
		return "poor"
	}
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

func compassLabel(direction float64) string {
	d := math.Mod(direction, 360)
	if d < 0 {
		d += 360
	}
	idx := int(math.Round(d/22.5)) % 16
	return compassPoints[idx]
}

func directionLabel(direction float64, score int) string {
	tier := "poor"
	switch {
	case score >= 90:
		tier = "excellent"
	case score >= 70:
		tier = "good"
	case score >= 50:
		tier = "marginal"
	}
	return fmt.Sprintf("%s (%s)", compassLabel(direction), tier)
}

func speedLabel(speed float64) string {
	switch {
	case speed < 5:
		return "calm"
	case speed < 8:
		return "light"
	case speed < 24:
		return "ideal"
	case speed < 29:
		return "fresh"
	case speed < 35:
		return "strong"
	default:
		return "very strong"
	}
}

func precipLabel(mm float64) string {
	if mm <= 0 {
		return "dry"
	}
	return fmt.Sprintf("%.1f mm", mm)
}

func cloudLabel(cover float64) string {
	switch {
	case cover < 25:
		return "clear"
	case cover < 50:
		return "scattered"
	case cover < 85:
		return "broken"
	default:
		return "overcast"
	}
}
