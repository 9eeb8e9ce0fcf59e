package domain

import "strings"

// TravelProfile is the mode of transport used for a leg between two stops.
type TravelProfile string

const (
	ProfileDriving TravelProfile = "driving"
	ProfileWalking TravelProfile = "walking"
	ProfileCycling TravelProfile = "cycling"
)

// ParseProfile falls back to driving for anything unrecognized.
func ParseProfile(s string) TravelProfile {
	switch TravelProfile(strings.ToLower(strings.TrimSpace(s))) {
	case ProfileWalking:
		return ProfileWalking
	case ProfileCycling:
		return ProfileCycling
	default:
		return ProfileDriving
	}
}
