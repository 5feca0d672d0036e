package weather

import "math"

// GeoResult is a geocoded place candidate
type GeoResult struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	CanonicalName string  `json:"canonical_name"`
	CountryCode   string  `json:"country_code"` // ISO 3166-1 alpha-2
}

// Conditions is the current weather at a coordinate, as reported by the API
type Conditions struct {
	Name             string  `json:"name"`         // Place name reported by the weather API
	CountryCode      string  `json:"country_code"` // ISO 3166-1 alpha-2, may be empty
	Temperature      float64 `json:"temperature"`  // Celsius
	Humidity         int     `json:"humidity"`     // Percent
	WindSpeed        float64 `json:"wind_speed"`   // As returned for metric units
	Condition        string  `json:"condition"`    // e.g. "Clear", "Rain"
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
}

// Snapshot is the display-ready weather for a looked-up place
type Snapshot struct {
	DisplayName        string  `json:"display_name"`
	TemperatureCelsius int     `json:"temperature_celsius"`
	HumidityPercent    int     `json:"humidity_percent"`
	WindSpeed          float64 `json:"wind_speed"`
	ConditionCode      string  `json:"condition_code"`
	UTCOffsetSeconds   int     `json:"utc_offset_seconds"`
}

// NewSnapshot builds a snapshot from conditions under the given place name and country.
// The country is normalized to its three-letter form.
func NewSnapshot(name, countryCode string, c *Conditions) *Snapshot {
	return &Snapshot{
		DisplayName:        DisplayName(name, countryCode),
		TemperatureCelsius: RoundTemperature(c.Temperature),
		HumidityPercent:    c.Humidity,
		WindSpeed:          c.WindSpeed,
		ConditionCode:      c.Condition,
		UTCOffsetSeconds:   c.UTCOffsetSeconds,
	}
}

// DisplayName joins a place name with its three-letter country code
func DisplayName(name, countryCode string) string {
	alpha3 := Alpha3(countryCode)
	if alpha3 == "" {
		return name
	}
	return name + ", " + alpha3
}

// RoundTemperature rounds half toward positive infinity, so -2.5 becomes -2
func RoundTemperature(t float64) int {
	floor := math.Floor(t)
	if t-floor >= 0.5 {
		return int(floor) + 1
	}
	return int(floor)
}

// geoResponse is one element of the geocoding API's array response
type geoResponse struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}

// currentResponse is the subset of the current weather payload we read
type currentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Timezone *int `json:"timezone"`
}

// apiError is the error body OpenWeather returns with non-200 statuses.
// The cod field is a number on some endpoints and a string on others.
type apiError struct {
	Cod     any    `json:"cod"`
	Message string `json:"message"`
}
