package weather

import "time"

const (
	clockTimeLayout = "15:04"
	clockDateLayout = "2 Jan 2006"
)

// MaxUTCOffsetSeconds is the largest distance from UTC any zone uses (UTC+14)
const MaxUTCOffsetSeconds = 14 * 3600

// ValidUTCOffset reports whether offsetSeconds is a real-world UTC offset
func ValidUTCOffset(offsetSeconds int) bool {
	return offsetSeconds >= -MaxUTCOffsetSeconds && offsetSeconds <= MaxUTCOffsetSeconds
}

// ClockDisplay is the wall-clock time and date at a looked-up place
type ClockDisplay struct {
	Time string `json:"time"`
	Date string `json:"date"`
}

// IsZero reports whether the display is cleared
func (c ClockDisplay) IsZero() bool {
	return c.Time == "" && c.Date == ""
}

// LocalClock returns the time at a place offset from UTC by offsetSeconds.
// The shifted instant is read in UTC, so no timezone database is involved.
// Callers check the offset with ValidUTCOffset first.
func LocalClock(offsetSeconds int, now time.Time) ClockDisplay {
	local := now.UTC().Add(time.Duration(offsetSeconds) * time.Second)
	return ClockDisplay{
		Time: local.Format(clockTimeLayout),
		Date: local.Format(clockDateLayout),
	}
}

// SnapshotClock is LocalClock for a snapshot, and the cleared display when there is none
func SnapshotClock(s *Snapshot, now time.Time) ClockDisplay {
	if s == nil {
		return ClockDisplay{}
	}
	return LocalClock(s.UTCOffsetSeconds, now)
}
