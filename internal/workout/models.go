package workout

import (
	"math"
	"time"
)

type Type string

const (
	Running Type = "running"
	Cycling Type = "cycling"
)

// Coords is a [lat, lng] pair.
type Coords [2]float64

func (c Coords) Lat() float64 { return c[0] }
func (c Coords) Lng() float64 { return c[1] }

// Valid reports whether c is a finite point with |lat| <= 90 and
// |lng| <= 180.
func (c Coords) Valid() bool {
	lat, lng := c.Lat(), c.Lng()
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

type Workout struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	Distance      float64   `json:"distance"`
	Duration      float64   `json:"duration"`
	Coords        Coords    `json:"coords"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	Cadence       float64   `json:"cadence,omitempty"`
	Pace          float64   `json:"pace,omitempty"`
	ElevationGain float64   `json:"elevationGain,omitempty"`
	Speed         float64   `json:"speed,omitempty"`
}
