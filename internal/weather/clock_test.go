package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalClock(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		now    time.Time
		want   ClockDisplay
	}{
		{
			name:   "utc",
			offset: 0,
			now:    time.Date(2024, time.March, 5, 14, 7, 59, 0, time.UTC),
			want:   ClockDisplay{Time: "14:07", Date: "5 Mar 2024"},
		},
		{
			name:   "utc minus five same day",
			offset: -18000,
			now:    time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC),
			want:   ClockDisplay{Time: "09:07", Date: "5 Mar 2024"},
		},
		{
			name:   "utc minus five rolls back over midnight",
			offset: -18000,
			now:    time.Date(2024, time.January, 1, 3, 30, 0, 0, time.UTC),
			want:   ClockDisplay{Time: "22:30", Date: "31 Dec 2023"},
		},
		{
			name:   "positive half hour offset rolls forward",
			offset: 19800,
			now:    time.Date(2024, time.February, 28, 20, 45, 0, 0, time.UTC),
			want:   ClockDisplay{Time: "02:15", Date: "29 Feb 2024"},
		},
		{
			name:   "midnight is 00 not 24",
			offset: 3600,
			now:    time.Date(2024, time.June, 30, 23, 0, 0, 0, time.UTC),
			want:   ClockDisplay{Time: "00:00", Date: "1 Jul 2024"},
		},
		{
			name:   "non utc now is normalized first",
			offset: 0,
			now:    time.Date(2024, time.March, 5, 9, 7, 0, 0, time.FixedZone("EST", -18000)),
			want:   ClockDisplay{Time: "14:07", Date: "5 Mar 2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalClock(tt.offset, tt.now))
		})
	}
}

func TestSnapshotClock(t *testing.T) {
	now := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)

	assert.True(t, SnapshotClock(nil, now).IsZero())

	got := SnapshotClock(&Snapshot{UTCOffsetSeconds: 0}, now)
	assert.False(t, got.IsZero())
	assert.Equal(t, "14:07", got.Time)
}

func TestRoundTemperature(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{21.4, 21},
		{21.5, 22},
		{-2.5, -2},
		{-2.51, -3},
		{0.49, 0},
		{0.49999999999999994, 0},
		{-0.5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundTemperature(tt.in), "RoundTemperature(%v)", tt.in)
	}
}

func TestValidUTCOffset(t *testing.T) {
	for _, ok := range []int{0, -18000, 19800, 50400, -43200, -50400} {
		assert.True(t, ValidUTCOffset(ok), ok)
	}
	for _, bad := range []int{50401, -50401, 1 << 40} {
		assert.False(t, ValidUTCOffset(bad), bad)
	}
}
