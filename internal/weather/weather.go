// Package weather holds the city directory and Open-Meteo poll client the
// weather plugin drives (spec.md §3 "Cities/Weather", §4.5). Grounded on
// internal/nas/reconcile.go's HTTPDoer seam so both HTTP-calling packages
// share the same test-substitution idiom.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPDoer is satisfied by *http.Client; a test seam for fakes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultClient is the production Doer, with an explicit timeout per
// spec.md §5's "HTTP calls inherit the default client timeout".
var DefaultClient HTTPDoer = &http.Client{Timeout: 30 * time.Second}

const apiBase = "https://api.open-meteo.com/v1/forecast"

// City is one location the weather plugin tracks (spec.md §3).
type City struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// DailyForecast is one day of Open-Meteo's daily block.
type DailyForecast struct {
	Date        string  `json:"date"`
	TempMax     float64 `json:"temp_max"`
	TempMin     float64 `json:"temp_min"`
	WeatherCode int     `json:"weather_code"`
}

// Weather is one city's current-plus-forecast reading (spec.md §3).
type Weather struct {
	Time        time.Time       `json:"time"`
	Temperature float64         `json:"temperature"`
	Code        int             `json:"code"`
	Daily       []DailyForecast `json:"daily"`
}

// openMeteoResponse mirrors Open-Meteo's JSON shape closely enough to
// decode the fields Weather needs.
type openMeteoResponse struct {
	Current struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

// Fetch polls Open-Meteo for city's current conditions and a 7-day daily
// forecast.
func Fetch(ctx context.Context, doer HTTPDoer, city City) (Weather, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return Weather{}, fmt.Errorf("weather: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%g", city.Latitude))
	q.Set("longitude", fmt.Sprintf("%g", city.Longitude))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code")
	q.Set("forecast_days", "7")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Weather{}, fmt.Errorf("weather: build request: %w", err)
	}
	resp, err := doer.Do(req)
	if err != nil {
		return Weather{}, fmt.Errorf("weather: request %s: %w", city.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Weather{}, fmt.Errorf("weather: %s: unexpected status %d", city.Name, resp.StatusCode)
	}

	var raw openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Weather{}, fmt.Errorf("weather: decode %s: %w", city.Name, err)
	}

	t, _ := time.Parse("2006-01-02T15:04", raw.Current.Time)
	w := Weather{
		Time:        t,
		Temperature: raw.Current.Temperature,
		Code:        raw.Current.WeatherCode,
	}
	n := len(raw.Daily.Time)
	for i := 0; i < n; i++ {
		w.Daily = append(w.Daily, DailyForecast{
			Date:        raw.Daily.Time[i],
			TempMax:     raw.Daily.TempMax[i],
			TempMin:     raw.Daily.TempMin[i],
			WeatherCode: raw.Daily.WeatherCode[i],
		})
	}
	return w, nil
}
