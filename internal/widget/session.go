package widget

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yegors/wx-widget/internal/lookup"
	"github.com/yegors/wx-widget/internal/weather"
	"github.com/yegors/wx-widget/pkg/logger"
)

// Geolocation failure messages. These do not clear a shown result.
const (
	MessageLocationDenied      = "Location access denied."
	MessageLocationUnsupported = "Geolocation not supported."
)

// LocationFailure is why the browser could not provide device coordinates
type LocationFailure string

const (
	LocationDenied      LocationFailure = "denied"
	LocationUnsupported LocationFailure = "unsupported"
)

// Looker runs place and coordinate lookups
type Looker interface {
	Lookup(ctx context.Context, query string) (*weather.Snapshot, error)
	LookupCoordinates(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

// View is the complete widget state as rendered by the browser
type View struct {
	LookupID     string                `json:"lookup_id,omitempty"`
	Snapshot     *weather.Snapshot     `json:"snapshot"`
	Presentation *weather.Presentation `json:"presentation"`
	Clock        weather.ClockDisplay  `json:"clock"`
	Error        string                `json:"error,omitempty"`
}

// Session holds the current result of one widget instance.
// Only the most recently started lookup may change the result.
type Session struct {
	id          string
	looker      Looker
	assetPrefix string
	now         func() time.Time
	logger      *logger.Logger

	mu       sync.Mutex
	snapshot *weather.Snapshot
	clock    weather.ClockDisplay
	message  string
	lookupID string
	cancel   context.CancelFunc
	closed   bool
}

// Option configures a Session
type Option func(*Session)

// WithClock replaces the wall clock used for the destination time
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithAssetPrefix sets the URL prefix for condition icons and backgrounds
func WithAssetPrefix(prefix string) Option {
	return func(s *Session) { s.assetPrefix = prefix }
}

// NewSession creates an empty widget session
func NewSession(looker Looker, log *logger.Logger, opts ...Option) *Session {
	id := uuid.NewString()
	s := &Session{
		id:     id,
		looker: looker,
		now:    time.Now,
		logger: log.Named("widget").With(logger.String("session", id)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Pending is a lookup that already owns the session's current generation
// but has not run yet. Starting a lookup synchronously and running it later
// keeps "latest wins" tied to the order in which the user acted.
type Pending struct {
	session *Session
	ctx     context.Context
	id      string
	run     func(ctx context.Context) (*weather.Snapshot, error)
}

// Run performs the lookup and applies its result.
// The second return is false when a newer lookup superseded this one
// while it was in flight; the session is then left untouched.
func (p *Pending) Run() (View, bool) {
	snapshot, err := p.run(p.ctx)
	return p.session.finish(p.id, snapshot, err)
}

// StartSubmit registers a place lookup, canceling any lookup in flight
func (s *Session) StartSubmit(ctx context.Context, query string) *Pending {
	ctx, id := s.begin(ctx)
	return &Pending{session: s, ctx: ctx, id: id, run: func(ctx context.Context) (*weather.Snapshot, error) {
		return s.looker.Lookup(ctx, query)
	}}
}

// StartLocation registers a device-coordinate lookup, canceling any lookup in flight
func (s *Session) StartLocation(ctx context.Context, lat, lon float64) *Pending {
	ctx, id := s.begin(ctx)
	return &Pending{session: s, ctx: ctx, id: id, run: func(ctx context.Context) (*weather.Snapshot, error) {
		return s.looker.LookupCoordinates(ctx, lat, lon)
	}}
}

// Submit looks up a place by name and returns the resulting view
func (s *Session) Submit(ctx context.Context, query string) (View, bool) {
	return s.StartSubmit(ctx, query).Run()
}

// UseLocation looks up the weather at device coordinates
func (s *Session) UseLocation(ctx context.Context, lat, lon float64) (View, bool) {
	return s.StartLocation(ctx, lat, lon).Run()
}

// LocationUnavailable records that the browser could not provide coordinates.
// Any result already shown stays on screen.
func (s *Session) LocationUnavailable(reason LocationFailure) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reason == LocationUnsupported {
		s.message = MessageLocationUnsupported
	} else {
		s.message = MessageLocationDenied
	}
	s.logger.Debug("Device location unavailable", logger.String("reason", string(reason)))
	return s.viewLocked()
}

// DismissError clears the message without touching the result
func (s *Session) DismissError() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = ""
	return s.viewLocked()
}

// Tick re-derives the destination clock from the current time.
// It reports false when no result is shown, in which case the clock is cleared.
func (s *Session) Tick() (weather.ClockDisplay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock = weather.SnapshotClock(s.snapshot, s.now())
	return s.clock, s.snapshot != nil
}

// View returns the current widget state
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close cancels any lookup in flight. Later lookups fail immediately.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// begin starts a new lookup generation, canceling the previous one
func (s *Session) begin(parent context.Context) (context.Context, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	if s.closed {
		cancel()
	}

	s.lookupID = uuid.NewString()
	s.cancel = cancel
	return ctx, s.lookupID
}

func (s *Session) finish(id string, snapshot *weather.Snapshot, err error) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.lookupID {
		s.logger.Debug("Dropping superseded lookup result", logger.String("lookup_id", id))
		return View{}, false
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if err != nil {
		s.snapshot = nil
		s.message = lookup.Message(err)
	} else {
		s.snapshot = snapshot
		s.message = ""
	}
	s.clock = weather.SnapshotClock(s.snapshot, s.now())

	return s.viewLocked(), true
}

func (s *Session) viewLocked() View {
	v := View{
		LookupID: s.lookupID,
		Clock:    s.clock,
		Error:    s.message,
	}
	if s.snapshot != nil {
		snapshot := *s.snapshot
		p := weather.Present(snapshot.ConditionCode).WithPrefix(s.assetPrefix)
		v.Snapshot = &snapshot
		v.Presentation = &p
	}
	return v
}
