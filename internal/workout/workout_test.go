package workout

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var april14 = time.Date(2026, time.April, 14, 9, 30, 0, 0, time.UTC)

func TestNewRunning(t *testing.T) {
	w := NewRunning("1", Coords{39.7, -104.9}, 5, 30, 150, april14)

	assert.Equal(t, Running, w.Type)
	assert.Equal(t, 6.0, w.Pace)
	assert.Equal(t, 150.0, w.Cadence)
	assert.Equal(t, "Running on April 14", w.Description)
	assert.Zero(t, w.Speed)
}

func TestNewCycling(t *testing.T) {
	w := NewCycling("2", Coords{39.7, -104.9}, 27, 95, 523, april14)

	assert.Equal(t, Cycling, w.Type)
	assert.Equal(t, 17.1, w.Speed)
	assert.Equal(t, 523.0, w.ElevationGain)
	assert.Equal(t, "Cycling on April 14", w.Description)
	assert.Zero(t, w.Pace)
}

func TestDerivedMetricsRoundToOneDecimal(t *testing.T) {
	cases := []struct {
		distance, duration float64
	}{
		{5, 30}, {3.3, 17}, {42.195, 241}, {0.7, 4.2}, {12, 65},
	}
	for _, tc := range cases {
		assert.Equal(t, math.Round(tc.duration/tc.distance*10)/10, CalcPace(tc.distance, tc.duration))
		assert.Equal(t, math.Round(tc.distance/(tc.duration/60)*10)/10, CalcSpeed(tc.distance, tc.duration))
	}
}

func TestNonFiniteInputsPropagate(t *testing.T) {
	w := NewRunning("3", Coords{}, math.NaN(), 30, 150, april14)
	assert.True(t, math.IsNaN(w.Pace))

	c := NewCycling("4", Coords{}, 10, 0, 0, april14)
	assert.True(t, math.IsInf(c.Speed, 1))
}

func TestFromInput(t *testing.T) {
	w := FromInput("5", Coords{1, 2}, Input{Type: Cycling, Distance: 20, Duration: 60, Elevation: -10}, april14)
	assert.Equal(t, Cycling, w.Type)
	assert.Equal(t, 20.0, w.Speed)
	assert.Equal(t, -10.0, w.ElevationGain)
}

func TestTypeLabels(t *testing.T) {
	assert.Equal(t, "Running", Running.Label())
	assert.Equal(t, "Cycling", Cycling.Label())
	assert.Equal(t, "🏃‍♂️", Running.Emoji())
	assert.Equal(t, "🚴‍♀️", Cycling.Emoji())
	assert.False(t, Type("swimming").Valid())
}

func TestWorkoutJSONShape(t *testing.T) {
	w := NewRunning("7", Coords{39.7, -104.9}, 5, 30, 150, april14)
	data, err := json.Marshal(w)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "running", raw["type"])
	assert.Equal(t, []any{39.7, -104.9}, raw["coords"])
	assert.Equal(t, "2026-04-14T09:30:00Z", raw["date"])
	assert.Contains(t, raw, "pace")
	assert.NotContains(t, raw, "speed")
}
