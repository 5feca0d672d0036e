package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable that overrides the OpenWeather API key
const APIKeyEnv = "OPENWEATHER_API_KEY"

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server      ServerConfig      `toml:"server"`      // HTTP server settings
	Logging     LoggingConfig     `toml:"logging"`     // Application logging settings
	OpenWeather OpenWeatherConfig `toml:"openweather"` // Geocoding and current weather API settings
	Widget      WidgetConfig      `toml:"widget"`      // Browser widget behaviour
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory holding the widget page and its assets
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// OpenWeatherConfig contains the OpenWeather endpoints used for lookups
type OpenWeatherConfig struct {
	APIKey                string `toml:"api_key"`                 // API key; OPENWEATHER_API_KEY takes precedence
	GeoBaseURL            string `toml:"geo_base_url"`            // Geocoding API base (…/geo/1.0)
	WeatherBaseURL        string `toml:"weather_base_url"`        // Current weather API base (…/data/2.5)
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"` // HTTP request timeout in seconds
}

// WidgetConfig contains settings for the browser widget sessions
type WidgetConfig struct {
	TickIntervalMillis int    `toml:"tick_interval_ms"` // How often destination clocks are re-derived and pushed
	AssetPrefix        string `toml:"asset_prefix"`     // URL prefix for condition icons and backgrounds
}

// Default returns a configuration with every field set to its default
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			Host:             "0.0.0.0",
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 15,
			IdleTimeoutSecs:  60,
			StaticFilesDir:   "www",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		OpenWeather: OpenWeatherConfig{
			GeoBaseURL:            "https://api.openweathermap.org/geo/1.0",
			WeatherBaseURL:        "https://api.openweathermap.org/data/2.5",
			RequestTimeoutSeconds: 10,
		},
		Widget: WidgetConfig{
			TickIntervalMillis: 1000,
			AssetPrefix:        "/img/",
		},
	}
}

// Load loads the configuration from the specified file path.
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	config := Default()

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnv()

	return config, nil
}

// applyEnv loads .env (if present) and applies environment overrides
func (c *Config) applyEnv() {
	// A missing .env is fine outside development
	_ = godotenv.Load()

	if key := os.Getenv(APIKeyEnv); key != "" {
		c.OpenWeather.APIKey = key
	}
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference.
// When no file is found anywhere the defaults are used, with environment overrides applied.
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
	}

	// An explicitly requested file must exist
	if preferredPath != "" {
		return nil, fmt.Errorf("config file not found: %s", preferredPath)
	}

	config := Default()
	config.applyEnv()
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	// Validate AdditionalPorts
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	// Validate static files directory exists
	if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
		return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
	}

	if err := c.ValidateOpenWeather(); err != nil {
		return err
	}

	if c.Widget.TickIntervalMillis < 100 {
		return fmt.Errorf("widget tick_interval_ms must be at least 100: %d", c.Widget.TickIntervalMillis)
	}

	return nil
}

// ValidateOpenWeather validates the OpenWeather configuration
func (c *Config) ValidateOpenWeather() error {
	ow := c.OpenWeather

	if ow.APIKey == "" {
		return fmt.Errorf("openweather api_key is required (or set %s)", APIKeyEnv)
	}

	for name, raw := range map[string]string{
		"geo_base_url":     ow.GeoBaseURL,
		"weather_base_url": ow.WeatherBaseURL,
	} {
		if raw == "" {
			return fmt.Errorf("openweather %s cannot be empty", name)
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("openweather %s is not an absolute URL: %q", name, raw)
		}
	}

	if ow.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("openweather request_timeout_seconds must be greater than 0: %d", ow.RequestTimeoutSeconds)
	}

	return nil
}
