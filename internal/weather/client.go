package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yegors/wx-widget/pkg/logger"
)

// ErrNoCandidates is returned by Geocode when the place name matched nothing
var ErrNoCandidates = errors.New("no geocoding candidates")

// ClientConfig represents the OpenWeather client configuration.
// It mirrors config.OpenWeatherConfig to avoid an import of the config package.
type ClientConfig struct {
	APIKey                string
	GeoBaseURL            string
	WeatherBaseURL        string
	RequestTimeoutSeconds int
}

// Client handles HTTP requests to the OpenWeather geocoding and current weather APIs
type Client struct {
	config ClientConfig
	http   *resty.Client
	logger *logger.Logger
}

// NewClient creates a new OpenWeather API client
func NewClient(config ClientConfig, log *logger.Logger) *Client {
	config.GeoBaseURL = strings.TrimRight(config.GeoBaseURL, "/")
	config.WeatherBaseURL = strings.TrimRight(config.WeatherBaseURL, "/")

	return &Client{
		config: config,
		http: resty.New().
			SetTimeout(time.Duration(config.RequestTimeoutSeconds)*time.Second).
			SetHeader("Accept", "application/json"),
		logger: log.Named("weather-client"),
	}
}

// Geocode resolves a free-text place name to its best candidate.
// It returns ErrNoCandidates when the API knows no such place.
func (c *Client) Geocode(ctx context.Context, query string) (*GeoResult, error) {
	var result []geoResponse
	err := c.fetch(ctx, "geocode", c.config.GeoBaseURL+"/direct", map[string]string{
		"q":     query,
		"limit": "1",
		"appid": c.config.APIKey,
	}, &result)
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		c.logger.Debug("No geocoding candidates", logger.String("query", query))
		return nil, fmt.Errorf("%w for %q", ErrNoCandidates, query)
	}

	first := result[0]
	return &GeoResult{
		Latitude:      first.Lat,
		Longitude:     first.Lon,
		CanonicalName: first.Name,
		CountryCode:   first.Country,
	}, nil
}

// Current fetches current conditions at the given coordinates in metric units
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Conditions, error) {
	var result currentResponse
	err := c.fetch(ctx, "current", c.config.WeatherBaseURL+"/weather", map[string]string{
		"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
		"units": "metric",
		"appid": c.config.APIKey,
	}, &result)
	if err != nil {
		return nil, err
	}

	if result.Main == nil {
		return nil, fmt.Errorf("error decoding weather data: missing main block")
	}
	if len(result.Weather) == 0 {
		return nil, fmt.Errorf("error decoding weather data: empty weather list")
	}
	if result.Timezone == nil {
		return nil, fmt.Errorf("error decoding weather data: missing timezone offset")
	}
	if !ValidUTCOffset(*result.Timezone) {
		return nil, fmt.Errorf("error decoding weather data: timezone offset %d out of range", *result.Timezone)
	}

	return &Conditions{
		Name:             result.Name,
		CountryCode:      result.Sys.Country,
		Temperature:      result.Main.Temp,
		Humidity:         result.Main.Humidity,
		WindSpeed:        result.Wind.Speed,
		Condition:        result.Weather[0].Main,
		UTCOffsetSeconds: *result.Timezone,
	}, nil
}

// fetch performs a single GET and decodes the JSON body into target
func (c *Client) fetch(ctx context.Context, kind, url string, params map[string]string, target any) error {
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		c.logger.Warn("OpenWeather request failed",
			logger.String("type", kind),
			logger.Error(err))
		return fmt.Errorf("error making request to weather API: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(resp.Body(), &apiErr)
		c.logger.Warn("OpenWeather returned non-OK status",
			logger.String("type", kind),
			logger.Int("status_code", resp.StatusCode()),
			logger.String("message", apiErr.Message))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode(), apiErr.Message)
	}

	if err := json.Unmarshal(resp.Body(), target); err != nil {
		c.logger.Warn("Failed to decode OpenWeather response",
			logger.String("type", kind),
			logger.Error(err))
		return fmt.Errorf("error decoding weather data: %w", err)
	}

	c.logger.Debug("OpenWeather request completed",
		logger.String("type", kind),
		logger.Duration("duration", time.Since(start)))
	return nil
}
