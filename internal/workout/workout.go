package workout

import (
	"fmt"
	"math"
	"time"
)

// Label returns the capitalized type name.
func (t Type) Label() string {
	switch t {
	case Running:
		return "Running"
	case Cycling:
		return "Cycling"
	}
	return string(t)
}

// Emoji returns the marker used in popups and list entries.
func (t Type) Emoji() string {
	if t == Running {
		return "🏃‍♂️"
	}
	return "🚴‍♀️"
}

func (t Type) Valid() bool {
	return t == Running || t == Cycling
}

func NewRunning(id string, coords Coords, distance, duration, cadence float64, date time.Time) Workout {
	w := Workout{
		ID:       id,
		Type:     Running,
		Distance: distance,
		Duration: duration,
		Coords:   coords,
		Date:     date,
		Cadence:  cadence,
	}
	w.Pace = CalcPace(distance, duration)
	w.Description = describe(Running, date)
	return w
}

func NewCycling(id string, coords Coords, distance, duration, elevationGain float64, date time.Time) Workout {
	w := Workout{
		ID:            id,
		Type:          Cycling,
		Distance:      distance,
		Duration:      duration,
		Coords:        coords,
		Date:          date,
		ElevationGain: elevationGain,
	}
	w.Speed = CalcSpeed(distance, duration)
	w.Description = describe(Cycling, date)
	return w
}

// FromInput builds a workout of the validated type.
func FromInput(id string, coords Coords, in Input, date time.Time) Workout {
	if in.Type == Running {
		return NewRunning(id, coords, in.Distance, in.Duration, in.Cadence, date)
	}
	return NewCycling(id, coords, in.Distance, in.Duration, in.Elevation, date)
}

// CalcPace is minutes per kilometer, one decimal.
func CalcPace(distance, duration float64) float64 {
	return round1(duration / distance)
}

// CalcSpeed is kilometers per hour, one decimal.
func CalcSpeed(distance, duration float64) float64 {
	return round1(distance / (duration / 60))
}

// Emoji is shorthand for the workout type's emoji.
func (w Workout) Emoji() string { return w.Type.Emoji() }

func describe(t Type, date time.Time) string {
	return fmt.Sprintf("%s on %s %d", t.Label(), date.Month(), date.Day())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
