package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegors/wx-widget/internal/lookup"
	"github.com/yegors/wx-widget/internal/weather"
	"github.com/yegors/wx-widget/pkg/logger"
)

type lookupFunc func(ctx context.Context, query string) (*weather.Snapshot, error)

type fakeLooker struct {
	byName   lookupFunc
	byCoords func(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

func (f *fakeLooker) Lookup(ctx context.Context, query string) (*weather.Snapshot, error) {
	return f.byName(ctx, query)
}

func (f *fakeLooker) LookupCoordinates(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	return f.byCoords(ctx, lat, lon)
}

var fixedNow = time.Date(2024, time.January, 1, 3, 30, 0, 0, time.UTC)

func rainyAustin() *weather.Snapshot {
	return &weather.Snapshot{
		DisplayName:        "Austin, USA",
		TemperatureCelsius: 12,
		HumidityPercent:    90,
		WindSpeed:          6.2,
		ConditionCode:      "Rain",
		UTCOffsetSeconds:   -18000,
	}
}

func newTestSession(l *fakeLooker) *Session {
	return NewSession(l, logger.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithAssetPrefix("/img/"))
}

func TestSubmitSuccess(t *testing.T) {
	s := newTestSession(&fakeLooker{byName: func(context.Context, string) (*weather.Snapshot, error) {
		return rainyAustin(), nil
	}})

	v, applied := s.Submit(context.Background(), "Austin")
	require.True(t, applied)

	assert.NotEmpty(t, v.LookupID)
	assert.Empty(t, v.Error)
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, "Austin, USA", v.Snapshot.DisplayName)
	assert.Equal(t, &weather.Presentation{Icon: "/img/rain.png", Background: "/img/rainy.jpg", Label: "Rainy"}, v.Presentation)
	assert.Equal(t, weather.ClockDisplay{Time: "22:30", Date: "31 Dec 2023"}, v.Clock)
}

func TestSubmitFailureClearsPreviousResult(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"empty query", lookup.ErrEmptyQuery, lookup.MessageEmptyQuery},
		{"not found", fmt.Errorf("%w: %q", lookup.ErrPlaceNotFound, "Xyzzy"), lookup.MessagePlaceNotFound},
		{"fetch failed", fmt.Errorf("%w: boom", lookup.ErrFetchFailed), lookup.MessageFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fail := false
			s := newTestSession(&fakeLooker{byName: func(context.Context, string) (*weather.Snapshot, error) {
				if fail {
					return nil, tt.err
				}
				return rainyAustin(), nil
			}})

			_, _ = s.Submit(context.Background(), "Austin")
			require.NotNil(t, s.View().Snapshot)

			fail = true
			v, applied := s.Submit(context.Background(), "whatever")
			require.True(t, applied)
			assert.Equal(t, tt.message, v.Error)
			assert.Nil(t, v.Snapshot)
			assert.Nil(t, v.Presentation)
			assert.True(t, v.Clock.IsZero())

			clock, shown := s.Tick()
			assert.False(t, shown)
			assert.True(t, clock.IsZero())
		})
	}
}

func TestSuccessClearsMessage(t *testing.T) {
	s := newTestSession(&fakeLooker{
		byName: func(context.Context, string) (*weather.Snapshot, error) { return nil, lookup.ErrEmptyQuery },
		byCoords: func(context.Context, float64, float64) (*weather.Snapshot, error) {
			return rainyAustin(), nil
		},
	})

	v, _ := s.Submit(context.Background(), " ")
	assert.Equal(t, lookup.MessageEmptyQuery, v.Error)

	v, _ = s.UseLocation(context.Background(), 30.2, -97.7)
	assert.Empty(t, v.Error)
	assert.NotNil(t, v.Snapshot)
}

func TestLocationUnavailableKeepsResult(t *testing.T) {
	s := newTestSession(&fakeLooker{byName: func(context.Context, string) (*weather.Snapshot, error) {
		return rainyAustin(), nil
	}})
	_, _ = s.Submit(context.Background(), "Austin")

	v := s.LocationUnavailable(LocationDenied)
	assert.Equal(t, MessageLocationDenied, v.Error)
	assert.NotNil(t, v.Snapshot)

	v = s.LocationUnavailable(LocationUnsupported)
	assert.Equal(t, MessageLocationUnsupported, v.Error)
	assert.NotNil(t, v.Snapshot)

	v = s.DismissError()
	assert.Empty(t, v.Error)
	assert.NotNil(t, v.Snapshot)
}

func TestTickFollowsWallClock(t *testing.T) {
	now := fixedNow
	s := NewSession(&fakeLooker{byName: func(context.Context, string) (*weather.Snapshot, error) {
		return rainyAustin(), nil
	}}, logger.NewNop(), WithClock(func() time.Time { return now }))

	clock, shown := s.Tick()
	assert.False(t, shown)
	assert.True(t, clock.IsZero())

	_, _ = s.Submit(context.Background(), "Austin")

	now = now.Add(31 * time.Minute)
	clock, shown = s.Tick()
	assert.True(t, shown)
	assert.Equal(t, weather.ClockDisplay{Time: "23:01", Date: "31 Dec 2023"}, clock)
	assert.Equal(t, clock, s.View().Clock)

	now = now.Add(time.Hour)
	clock, _ = s.Tick()
	assert.Equal(t, weather.ClockDisplay{Time: "00:01", Date: "1 Jan 2024"}, clock)
}

func TestZeroOffsetStillShowsClock(t *testing.T) {
	s := newTestSession(&fakeLooker{byName: func(context.Context, string) (*weather.Snapshot, error) {
		snap := rainyAustin()
		snap.UTCOffsetSeconds = 0
		return snap, nil
	}})

	v, _ := s.Submit(context.Background(), "London")
	assert.Equal(t, weather.ClockDisplay{Time: "03:30", Date: "1 Jan 2024"}, v.Clock)
}

func TestOverlappingLookupsLatestWins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var firstCtxErr error

	s := newTestSession(&fakeLooker{byName: func(ctx context.Context, query string) (*weather.Snapshot, error) {
		if query == "slow" {
			close(started)
			<-release
			firstCtxErr = ctx.Err()
			snap := rainyAustin()
			snap.DisplayName = "Slow, USA"
			return snap, nil
		}
		snap := rainyAustin()
		snap.DisplayName = "Fast, USA"
		return snap, nil
	}})

	var wg sync.WaitGroup
	var slowApplied bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowApplied = s.Submit(context.Background(), "slow")
	}()

	<-started
	fast, fastApplied := s.Submit(context.Background(), "fast")
	close(release)
	wg.Wait()

	assert.True(t, fastApplied)
	assert.False(t, slowApplied)
	assert.True(t, errors.Is(firstCtxErr, context.Canceled))
	assert.Equal(t, "Fast, USA", s.View().Snapshot.DisplayName)
	assert.Equal(t, fast.LookupID, s.View().LookupID)
}

func TestCloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	s := newTestSession(&fakeLooker{byName: func(ctx context.Context, _ string) (*weather.Snapshot, error) {
		close(started)
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", lookup.ErrFetchFailed, ctx.Err())
	}})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Submit(context.Background(), "Austin")
	}()

	<-started
	s.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lookup was not canceled by Close")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	l := &fakeLooker{}
	a := NewSession(l, logger.NewNop())
	b := NewSession(l, logger.NewNop())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestStartOrderDecidesWinner(t *testing.T) {
	s := newTestSession(&fakeLooker{byName: func(_ context.Context, query string) (*weather.Snapshot, error) {
		snap := rainyAustin()
		snap.DisplayName = query
		return snap, nil
	}})

	first := s.StartSubmit(context.Background(), "first")
	second := s.StartSubmit(context.Background(), "second")

	v, applied := second.Run()
	require.True(t, applied)
	assert.Equal(t, "second", v.Snapshot.DisplayName)

	// the older lookup finishing late must not overwrite the newer result
	_, applied = first.Run()
	assert.False(t, applied)
	assert.Equal(t, "second", s.View().Snapshot.DisplayName)
}
