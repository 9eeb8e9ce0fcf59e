package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		meters int
		want   string
	}{
		{0, "0m"},
		{999, "999m"},
		{1000, "1km"},
		{1234, "1.3km"},
		{15050, "15.1km"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatDistance(c.meters), "meters=%d", c.meters)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "0p"},
		{1, "1p"},
		{1200, "20p"},
		{3600, "1h"},
		{3900, "1h05p"},
		{4500, "1h15p"},
		{7201, "2h01p"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatDuration(c.seconds), "seconds=%d", c.seconds)
	}
}

func TestNewLegRoundsUp(t *testing.T) {
	leg := NewLeg(1200.2, 1199.1)

	assert.Equal(t, 1201, leg.DistanceMeters)
	assert.Equal(t, 1200, leg.DurationSeconds)
	assert.Equal(t, "1.3km", leg.DistanceText)
	assert.Equal(t, "20p", leg.DurationText)
	assert.Equal(t, 20, leg.TravelMinutes())
}

func TestStartLeg(t *testing.T) {
	assert.Equal(t, 0, StartLeg.DistanceMeters)
	assert.Equal(t, 0, StartLeg.TravelMinutes())
	assert.Equal(t, "0m", StartLeg.DistanceText)
	assert.Equal(t, "0s", StartLeg.DurationText)
}
