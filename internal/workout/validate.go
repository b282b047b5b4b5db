package workout

import (
	"math"
	"strconv"
	"strings"
)

const (
	msgBlank       = "All fields must be filled in!"
	msgNotNumber   = "Inputs have to be numbers!"
	msgNotPositive = "Inputs have to be positive numbers!"
	msgBadType     = "Workout type must be running or cycling!"
	msgOutOfRange  = "Inputs are out of range!"
)

// Form carries raw form fields as typed by the user.
type Form struct {
	Type      string `json:"type" form:"type"`
	Distance  string `json:"distance" form:"distance"`
	Duration  string `json:"duration" form:"duration"`
	Cadence   string `json:"cadence" form:"cadence"`
	Elevation string `json:"elevation" form:"elevation"`
}

// Input is a validated Form.
type Input struct {
	Type      Type
	Distance  float64
	Duration  float64
	Cadence   float64
	Elevation float64
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks that all fields of the form's type are filled and numeric.
// Distance, duration and cadence must be positive; elevation gain may be
// zero or negative.
func Validate(f Form) (Input, error) {
	in := Input{Type: Type(strings.TrimSpace(f.Type))}
	if !in.Type.Valid() {
		return Input{}, &ValidationError{Field: "type", Message: msgBadType}
	}

	var err error
	if in.Distance, err = positive("distance", f.Distance); err != nil {
		return Input{}, err
	}
	if in.Duration, err = positive("duration", f.Duration); err != nil {
		return Input{}, err
	}

	switch in.Type {
	case Running:
		if in.Cadence, err = positive("cadence", f.Cadence); err != nil {
			return Input{}, err
		}
		if !finite(CalcPace(in.Distance, in.Duration)) {
			return Input{}, &ValidationError{Field: "distance", Message: msgOutOfRange}
		}
	case Cycling:
		if in.Elevation, err = number("elevation", f.Elevation); err != nil {
			return Input{}, err
		}
		if !finite(CalcSpeed(in.Distance, in.Duration)) {
			return Input{}, &ValidationError{Field: "duration", Message: msgOutOfRange}
		}
	}
	return in, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func number(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: field, Message: msgBlank}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(v) {
		return 0, &ValidationError{Field: field, Message: msgNotNumber}
	}
	return v, nil
}

func positive(field, raw string) (float64, error) {
	v, err := number(field, raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, &ValidationError{Field: field, Message: msgNotPositive}
	}
	return v, nil
}
