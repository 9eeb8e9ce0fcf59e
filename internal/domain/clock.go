package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes since midnight.
// Values past 24:00 are allowed so that day overflow can be detected.
type ClockTime int

const (
	// DayStart is where synthesized itineraries begin each day.
	DayStart ClockTime = 8 * 60
	// LatestClock is the last clock position a stop may reach (23:01).
	LatestClock ClockTime = 23*60 + 1
)

func Clock(hh, mm int) ClockTime { return ClockTime(hh*60 + mm) }

// ParseClock accepts "HH:MM" and "HH:MM:SS" (seconds are dropped).
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("parse clock %q: want HH:MM", s)
	}

	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("parse clock %q: invalid hour", s)
	}

	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("parse clock %q: invalid minute", s)
	}

	if len(parts) == 3 {
		ss, err := strconv.Atoi(parts[2])
		if err != nil || ss < 0 || ss > 59 {
			return 0, fmt.Errorf("parse clock %q: invalid second", s)
		}
	}

	return Clock(hh, mm), nil
}

// ParseStopClock reads the clock from the last space-separated token, so both
// "09:30" and "2026-10-20 09:30" are accepted.
func ParseStopClock(s string) (ClockTime, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("parse clock: empty value")
	}
	return ParseClock(fields[len(fields)-1])
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) Add(minutes int) ClockTime { return c + ClockTime(minutes) }

// Overflows reports whether the clock went past the 23:01 boundary.
func (c ClockTime) Overflows() bool { return c > LatestClock }

// NextHalfHour moves to :30 of the current hour or to the top of the next one.
func (c ClockTime) NextHalfHour() ClockTime {
	if c.Minute() < 30 {
		return Clock(c.Hour(), 30)
	}
	return Clock(c.Hour()+1, 0)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places the clock on the given civil date.
func (c ClockTime) On(date time.Time) time.Time {
	return date.Add(time.Duration(c) * time.Minute)
}
