package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/wx-widget/internal/config"
	"github.com/yegors/wx-widget/internal/lookup"
	"github.com/yegors/wx-widget/internal/weather"
	"github.com/yegors/wx-widget/internal/websocket"
	"github.com/yegors/wx-widget/pkg/logger"
)

// Looker runs place and coordinate lookups
type Looker interface {
	Lookup(ctx context.Context, query string) (*weather.Snapshot, error)
	LookupCoordinates(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

// Handler contains the API handlers
type Handler struct {
	lookup    Looker
	config    *config.Config
	logger    *logger.Logger
	wsServer  *websocket.Server
	now       func() time.Time
	startedAt time.Time
}

// NewHandler creates a new API handler
func NewHandler(looker Looker, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		lookup:    looker,
		config:    cfg,
		logger:    log.Named("api-handler"),
		wsServer:  wsServer,
		now:       time.Now,
		startedAt: time.Now(),
	}
}

// WeatherResponse is a lookup result as served over REST
type WeatherResponse struct {
	Snapshot     *weather.Snapshot    `json:"snapshot"`
	Presentation weather.Presentation `json:"presentation"`
	Clock        weather.ClockDisplay `json:"clock"`
}

// CountryResponse pairs the two- and three-letter forms of a country code
type CountryResponse struct {
	Alpha2 string `json:"alpha2"`
	Alpha3 string `json:"alpha3"`
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(h.now().Sub(h.startedAt).Seconds()),
	}
	if h.wsServer != nil {
		response["websocket_clients"] = h.wsServer.ClientCount()
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	publicConfig := map[string]interface{}{
		"widget": map[string]interface{}{
			"tick_interval_ms": h.config.Widget.TickIntervalMillis,
			"asset_prefix":     h.config.Widget.AssetPrefix,
		},
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// GetWeather looks up the current weather for a place name
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	snapshot, err := h.lookup.Lookup(r.Context(), query)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.weatherResponse(snapshot))
}

// GetWeatherByCoordinates looks up the current weather at lat/lon
func (h *Handler) GetWeatherByCoordinates(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon must be numbers"})
		return
	}
	if err := lookup.ValidateCoordinates(lat, lon); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snapshot, err := h.lookup.LookupCoordinates(r.Context(), lat, lon)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.weatherResponse(snapshot))
}

// GetClock returns the current time at a UTC offset given in seconds
func (h *Handler) GetClock(w http.ResponseWriter, r *http.Request) {
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be an integer number of seconds"})
		return
	}
	if !weather.ValidUTCOffset(offset) {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("offset must be within ±%d seconds", weather.MaxUTCOffsetSeconds)})
		return
	}

	WriteJSON(w, http.StatusOK, weather.LocalClock(offset, h.now()))
}

// GetCondition returns the presentation for a condition code
func (h *Handler) GetCondition(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	WriteJSON(w, http.StatusOK, weather.Present(code).WithPrefix(h.config.Widget.AssetPrefix))
}

// GetCountry returns the three-letter form of a two-letter country code.
// Codes are matched exactly as given, like the display name normalizer.
func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	WriteJSON(w, http.StatusOK, CountryResponse{Alpha2: code, Alpha3: weather.Alpha3(code)})
}

func (h *Handler) weatherResponse(s *weather.Snapshot) WeatherResponse {
	return WeatherResponse{
		Snapshot:     s,
		Presentation: weather.Present(s.ConditionCode).WithPrefix(h.config.Widget.AssetPrefix),
		Clock:        weather.SnapshotClock(s, h.now()),
	}
}

func (h *Handler) writeLookupError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, lookup.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, lookup.ErrPlaceNotFound):
		status = http.StatusNotFound
	default:
		h.logger.Warn("Weather lookup failed", logger.Error(err))
	}
	WriteJSON(w, status, map[string]string{"error": lookup.Message(err)})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
