// Package weather fetches current conditions for the lock-screen widget.
// Two JSON providers are supported; the preferred one is tried first with a
// single fallback attempt, and the last good snapshot is persisted so a
// fetch failure never blanks the widget.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

// Provider fetches a weather snapshot for a location.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, cfg models.WeatherConfig) (models.WeatherSnapshot, error)
}

const (
	openMeteoBaseURL    = "https://api.open-meteo.com/v1/forecast"
	openMeteoAirBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
	metNoBaseURL        = "https://api.met.no/weatherapi/locationforecast/2.0/compact"
	metNoUserAgent      = "notchly/1.0 github.com/notchly-app/notchly"
)

// OpenMeteo is the default provider: current conditions plus daily forecast,
// with air quality from its companion endpoint.
type OpenMeteo struct {
	Client     *http.Client
	BaseURL    string
	AirBaseURL string
}

func (p *OpenMeteo) Name() string { return "open-meteo" }

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		TempMax []float64 `json:"temperature_2m_max"`
		TempMin []float64 `json:"temperature_2m_min"`
		Sunrise []string  `json:"sunrise"`
		Sunset  []string  `json:"sunset"`
	} `json:"daily"`
}

type openMeteoAirResponse struct {
	Current struct {
		USAQI float64 `json:"us_aqi"`
	} `json:"current"`
}

func (p *OpenMeteo) Fetch(ctx context.Context, cfg models.WeatherConfig) (models.WeatherSnapshot, error) {
	base := p.BaseURL
	if base == "" {
		base = openMeteoBaseURL
	}
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", cfg.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", cfg.Longitude))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,sunrise,sunset")
	q.Set("timezone", "auto")
	q.Set("forecast_days", "1")
	if cfg.Units == "imperial" {
		q.Set("temperature_unit", "fahrenheit")
	}

	var body openMeteoResponse
	if err := p.getJSON(ctx, base+"?"+q.Encode(), &body); err != nil {
		return models.WeatherSnapshot{}, err
	}

	snap := models.WeatherSnapshot{
		Temperature: formatTemperature(body.Current.Temperature),
		Condition:   body.Current.WeatherCode,
		High:        "--",
		Low:         "--",
		FetchedAt:   time.Now(),
	}
	if len(body.Daily.TempMax) > 0 {
		snap.High = formatTemperature(body.Daily.TempMax[0])
	}
	if len(body.Daily.TempMin) > 0 {
		snap.Low = formatTemperature(body.Daily.TempMin[0])
	}
	if len(body.Daily.Sunrise) > 0 {
		snap.Sunrise = formatClockTime(body.Daily.Sunrise[0])
	}
	if len(body.Daily.Sunset) > 0 {
		snap.Sunset = formatClockTime(body.Daily.Sunset[0])
	}

	// Air quality is best effort. A failure here never fails the fetch.
	airBase := p.AirBaseURL
	if airBase == "" {
		airBase = openMeteoAirBaseURL
	}
	aq := url.Values{}
	aq.Set("latitude", fmt.Sprintf("%.4f", cfg.Latitude))
	aq.Set("longitude", fmt.Sprintf("%.4f", cfg.Longitude))
	aq.Set("current", "us_aqi")
	var air openMeteoAirResponse
	if err := p.getJSON(ctx, airBase+"?"+aq.Encode(), &air); err == nil {
		snap.AirQuality = int(air.Current.USAQI)
	}

	return snap, nil
}

func (p *OpenMeteo) getJSON(ctx context.Context, rawURL string, out any) error {
	return getJSON(ctx, p.Client, rawURL, "", out)
}

// MetNo is the secondary provider. Its compact location forecast carries no
// air quality or sunrise data, so those fields stay at their zero values.
type MetNo struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
}

func (p *MetNo) Name() string { return "met-no" }

type metNoResponse struct {
	Properties struct {
		Timeseries []struct {
			Data struct {
				Instant struct {
					Details struct {
						AirTemperature float64 `json:"air_temperature"`
					} `json:"details"`
				} `json:"instant"`
				Next1Hours struct {
					Summary struct {
						SymbolCode string `json:"symbol_code"`
					} `json:"summary"`
				} `json:"next_1_hours"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

func (p *MetNo) Fetch(ctx context.Context, cfg models.WeatherConfig) (models.WeatherSnapshot, error) {
	base := p.BaseURL
	if base == "" {
		base = metNoBaseURL
	}
	ua := p.UserAgent
	if ua == "" {
		ua = metNoUserAgent
	}
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", cfg.Latitude))
	q.Set("lon", fmt.Sprintf("%.4f", cfg.Longitude))

	var body metNoResponse
	if err := getJSON(ctx, p.Client, base+"?"+q.Encode(), ua, &body); err != nil {
		return models.WeatherSnapshot{}, err
	}
	series := body.Properties.Timeseries
	if len(series) == 0 {
		return models.WeatherSnapshot{}, fmt.Errorf("met-no: empty timeseries")
	}

	current := series[0].Data.Instant.Details.AirTemperature
	if cfg.Units == "imperial" {
		current = current*9/5 + 32
	}
	high, low := current, current
	limit := len(series)
	if limit > 24 {
		limit = 24
	}
	for _, ts := range series[:limit] {
		t := ts.Data.Instant.Details.AirTemperature
		if cfg.Units == "imperial" {
			t = t*9/5 + 32
		}
		if t > high {
			high = t
		}
		if t < low {
			low = t
		}
	}

	return models.WeatherSnapshot{
		Temperature: formatTemperature(current),
		Condition:   symbolCondition(series[0].Data.Next1Hours.Summary.SymbolCode),
		High:        formatTemperature(high),
		Low:         formatTemperature(low),
		FetchedAt:   time.Now(),
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL, userAgent string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather fetch: unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func formatTemperature(v float64) string {
	return fmt.Sprintf("%d°", int(math.Round(v)))
}

// formatClockTime trims an ISO timestamp down to "15:04".
func formatClockTime(iso string) string {
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("15:04")
		}
	}
	return ""
}

// symbolCondition maps met-no symbol codes onto the shared condition codes
// used by the renderer (WMO-style, matching open-meteo's scheme loosely).
func symbolCondition(symbol string) int {
	switch {
	case strings.Contains(symbol, "thunder"):
		return 95
	case strings.Contains(symbol, "snow"):
		return 71
	case strings.Contains(symbol, "sleet"):
		return 66
	case strings.Contains(symbol, "heavyrain"):
		return 65
	case strings.Contains(symbol, "rain"):
		return 61
	case strings.Contains(symbol, "fog"):
		return 45
	case strings.Contains(symbol, "partlycloudy"), strings.Contains(symbol, "fair"):
		return 2
	case strings.Contains(symbol, "cloudy"):
		return 3
	}
	return 0
}
