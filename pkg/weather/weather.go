// Package weather looks up the current conditions shown in the dashboard
// header from open-meteo.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/solarkiosk/pkg/common"
	"github.com/raterudder/solarkiosk/pkg/log"
)

// FallbackIcon is shown for weather codes without an icon.
const FallbackIcon = "❔"

// Conditions is the current weather.
type Conditions struct {
	TemperatureC float64 `json:"temperatureC"`
	Code         int     `json:"code"`
	// Icon is a static asset path, or FallbackIcon.
	Icon string `json:"icon"`
}

// Client fetches and caches the current weather.
type Client struct {
	apiURL    string
	latitude  float64
	longitude float64
	interval  time.Duration
	client    *http.Client
	now       func() time.Time

	mu        sync.Mutex
	fetchedAt time.Time
	cached    Conditions
}

// Configured registers the weather flags and returns the client.
func Configured() *Client {
	c := &Client{
		client: common.HTTPClient(10 * time.Second),
		now:    time.Now,
	}
	apiURL := lflag.String("weather-api-url", "https://api.open-meteo.com/v1/forecast", "URL for the open-meteo forecast API")
	latitude := lflag.String("weather-latitude", "38.7223", "Latitude of the installations for the weather lookup")
	longitude := lflag.String("weather-longitude", "-9.1393", "Longitude of the installations for the weather lookup")
	interval := lflag.Duration("weather-interval", 30*time.Minute, "How often to refresh the weather")

	lflag.Do(func() {
		var err error
		c.apiURL = *apiURL
		c.interval = *interval
		if c.latitude, err = strconv.ParseFloat(*latitude, 64); err != nil {
			panic(fmt.Sprintf("invalid weather-latitude: %v", err))
		}
		if c.longitude, err = strconv.ParseFloat(*longitude, 64); err != nil {
			panic(fmt.Sprintf("invalid weather-longitude: %v", err))
		}
		if err := c.Validate(); err != nil {
			panic(fmt.Sprintf("weather validation failed: %v", err))
		}
	})
	return c
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.apiURL == "" {
		return errors.New("weather-api-url is required")
	}
	if _, err := url.Parse(c.apiURL); err != nil {
		return fmt.Errorf("failed to parse weather url (%s): %w", c.apiURL, err)
	}
	if c.latitude < -90 || c.latitude > 90 || c.longitude < -180 || c.longitude > 180 {
		return fmt.Errorf("invalid weather coordinates: %f,%f", c.latitude, c.longitude)
	}
	if c.interval <= 0 {
		return errors.New("weather-interval must be positive")
	}
	return nil
}

// Interval is how often the weather should be refreshed.
func (c *Client) Interval() time.Duration {
	return c.interval
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Current returns the current conditions. Results are cached for the
// configured interval.
func (c *Client) Current(ctx context.Context) (Conditions, error) {
	now := c.now()

	c.mu.Lock()
	if !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < c.interval {
		cond := c.cached
		c.mu.Unlock()
		return cond, nil
	}
	c.mu.Unlock()

	u, err := url.Parse(c.apiURL)
	if err != nil {
		return Conditions{}, fmt.Errorf("invalid api url: %w", err)
	}
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	params.Set("current_weather", "true")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("failed to create request: %w", err)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching weather", slog.String("url", u.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather api returned status: %d", resp.StatusCode)
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Conditions{}, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if data.CurrentWeather == nil {
		return Conditions{}, errors.New("weather response missing current_weather")
	}

	cond := Conditions{
		TemperatureC: data.CurrentWeather.Temperature,
		Code:         data.CurrentWeather.WeatherCode,
		Icon:         Icon(data.CurrentWeather.WeatherCode),
	}

	c.mu.Lock()
	c.cached = cond
	c.fetchedAt = now
	c.mu.Unlock()

	return cond, nil
}

// WMO weather interpretation codes as used by open-meteo.
var icons = map[int]string{
	0:  "clear-day",
	1:  "mostly-clear-day",
	2:  "partly-cloudy-day",
	3:  "overcast",
	45: "fog",
	48: "fog",
	51: "drizzle",
	53: "drizzle",
	55: "drizzle",
	56: "sleet",
	57: "sleet",
	61: "rain",
	63: "rain",
	65: "rain",
	66: "sleet",
	67: "sleet",
	71: "snow",
	73: "snow",
	75: "snow",
	77: "snow",
	80: "rain",
	81: "rain",
	82: "rain",
	85: "snow",
	86: "snow",
	95: "thunderstorms",
	96: "thunderstorms",
	99: "thunderstorms",
}

// Icon maps a weather code onto its static asset path.
func Icon(code int) string {
	name, ok := icons[code]
	if !ok {
		return FallbackIcon
	}
	return "/static/weather/" + name + ".svg"
}
