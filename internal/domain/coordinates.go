package domain

// Geographic position of a destination (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat], the order routing providers expect.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// IsZero reports whether the destination has no position on record.
func (c Coordinates) IsZero() bool { return c.Lon == 0 && c.Lat == 0 }
