package lookup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yegors/wx-widget/internal/weather"
	"github.com/yegors/wx-widget/pkg/logger"
)

// User-facing failure kinds
var (
	ErrEmptyQuery    = errors.New("empty query")
	ErrPlaceNotFound = errors.New("place not found")
	ErrFetchFailed   = errors.New("weather fetch failed")
)

// Messages shown in the widget for each failure kind
const (
	MessageEmptyQuery    = "Enter a city or village"
	MessagePlaceNotFound = "Place not found"
	MessageFetchFailed   = "Unable to fetch weather"
)

// Provider resolves places and current conditions
type Provider interface {
	Geocode(ctx context.Context, query string) (*weather.GeoResult, error)
	Current(ctx context.Context, lat, lon float64) (*weather.Conditions, error)
}

// Service runs place and coordinate lookups
type Service struct {
	provider Provider
	logger   *logger.Logger
}

// NewService creates a new lookup service
func NewService(provider Provider, log *logger.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   log.Named("lookup"),
	}
}

// Lookup geocodes a free-text place name and fetches its current weather.
// Blank queries fail with ErrEmptyQuery before any network call.
func (s *Service) Lookup(ctx context.Context, query string) (*weather.Snapshot, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()

	geo, err := s.provider.Geocode(ctx, q)
	if err != nil {
		if errors.Is(err, weather.ErrNoCandidates) {
			s.logger.Info("Place not found", logger.String("query", q))
			return nil, fmt.Errorf("%w: %q", ErrPlaceNotFound, q)
		}
		return nil, s.fetchFailed(err, logger.String("query", q))
	}

	cond, err := s.provider.Current(ctx, geo.Latitude, geo.Longitude)
	if err != nil {
		return nil, s.fetchFailed(err, logger.String("query", q))
	}

	snapshot := weather.NewSnapshot(geo.CanonicalName, geo.CountryCode, cond)
	s.logger.Info("Lookup completed",
		logger.String("query", q),
		logger.String("place", snapshot.DisplayName),
		logger.String("condition", snapshot.ConditionCode),
		logger.Duration("duration", time.Since(start)))

	return snapshot, nil
}

// LookupCoordinates fetches the current weather at device coordinates.
// The place name comes from the weather payload itself.
func (s *Service) LookupCoordinates(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	cond, err := s.provider.Current(ctx, lat, lon)
	if err != nil {
		return nil, s.fetchFailed(err, logger.Float64("lat", lat), logger.Float64("lon", lon))
	}

	snapshot := weather.NewSnapshot(cond.Name, cond.CountryCode, cond)
	s.logger.Info("Coordinate lookup completed",
		logger.Float64("lat", lat),
		logger.Float64("lon", lon),
		logger.String("place", snapshot.DisplayName))

	return snapshot, nil
}

func (s *Service) fetchFailed(err error, fields ...logger.Field) error {
	if errors.Is(err, context.Canceled) {
		s.logger.Debug("Lookup canceled", fields...)
	} else {
		s.logger.Warn("Lookup failed", append(fields, logger.Error(err))...)
	}
	return fmt.Errorf("%w: %w", ErrFetchFailed, err)
}

// ValidateCoordinates checks that lat/lon are within range.
// Out-of-range coordinates are a fetch failure from the user's point of view.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrFetchFailed, lat, lon)
	}
	return nil
}

// Message returns the widget message for a lookup error
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return MessageEmptyQuery
	case errors.Is(err, ErrPlaceNotFound):
		return MessagePlaceNotFound
	default:
		return MessageFetchFailed
	}
}
