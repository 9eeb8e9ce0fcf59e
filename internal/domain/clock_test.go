package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, Clock(9, 5), c)
	assert.Equal(t, "09:05", c.String())

	c, err = ParseClock("17:30:00")
	require.NoError(t, err)
	assert.Equal(t, Clock(17, 30), c)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "1:2:3:4"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseStopClockUsesLastToken(t *testing.T) {
	c, err := ParseStopClock("2026-10-20 10:15")
	require.NoError(t, err)
	assert.Equal(t, Clock(10, 15), c)

	_, err = ParseStopClock("   ")
	assert.Error(t, err)
}

func TestClockOverflowBoundary(t *testing.T) {
	assert.False(t, Clock(23, 0).Overflows())
	assert.False(t, Clock(23, 1).Overflows())
	assert.True(t, Clock(23, 2).Overflows())
	assert.True(t, Clock(24, 10).Overflows())
}

func TestNextHalfHour(t *testing.T) {
	assert.Equal(t, Clock(8, 30), Clock(8, 0).NextHalfHour())
	assert.Equal(t, Clock(8, 30), Clock(8, 29).NextHalfHour())
	assert.Equal(t, Clock(9, 0), Clock(8, 30).NextHalfHour())
	assert.Equal(t, Clock(9, 0), Clock(8, 45).NextHalfHour())
}

func TestCivilDateAndDaysBetween(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	late := time.Date(2026, 10, 17, 23, 30, 0, 0, loc)

	d := CivilDate(late)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, 3, DaysBetween(d, AddDays(d, 3)))
	assert.Equal(t, -1, DaysBetween(d, AddDays(d, -1)))
	assert.Equal(t, "2026-10-17", FormatDate(d))
}
