package relaylib

import (
	"fmt"
	"time"

	_ "time/tzdata" // timezones have to work in scratch containers too
)

const (
	// DefaultTimezone is used for record timestamps and for clients whose
	// timezone is unknown.
	DefaultTimezone = "Asia/Jerusalem"

	// TimeFormat is a format of all timestamps produced by relay.
	TimeFormat = "2006-01-02 15:04:05"

	// TimeUnavailable is a placeholder of local time which cannot be
	// computed.
	TimeUnavailable = "Unavailable"
)

// Clock formats current wall time in a fixed timezone.
type Clock struct {
	location *time.Location
	now      func() time.Time
}

func (c Clock) Now() time.Time {
	return c.now().In(c.location)
}

func (c Clock) String() string {
	return c.Now().Format(TimeFormat)
}

// LocalTime formats current time in the given timezone. Unknown
// timezone gives TimeUnavailable.
func (c Clock) LocalTime(timezone string) string {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return TimeUnavailable
	}

	return c.now().In(location).Format(TimeFormat)
}

// NewClock makes a clock for the named timezone. now can be nil, then
// time.Now is used.
func NewClock(timezone string, now func() time.Time) (Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Clock{}, fmt.Errorf("cannot load timezone %s: %w", timezone, err)
	}

	if now == nil {
		now = time.Now
	}

	return Clock{
		location: location,
		now:      now,
	}, nil
}
