package render

import (
	"strings"
	"testing"
	"time"

	"backend-mapty/internal/weather"
	"backend-mapty/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var date = time.Date(2026, time.April, 14, 9, 0, 0, 0, time.UTC)

func TestWorkoutItemRunning(t *testing.T) {
	w := workout.NewRunning("1", workout.Coords{1, 2}, 5, 30, 150, date)
	html, err := WorkoutItem(w, nil)
	require.NoError(t, err)

	assert.Contains(t, html, `class="workout workout--running"`)
	assert.Contains(t, html, `data-id="1"`)
	assert.Contains(t, html, "Running on April 14")
	assert.Contains(t, html, "min/km")
	assert.Contains(t, html, "spm")
	assert.Contains(t, html, `<span class="workout__value">6.0</span><span class="workout__unit">min/km</span>`)
	assert.NotContains(t, html, "workout__weather")
}

func TestWorkoutItemCyclingWithWeather(t *testing.T) {
	w := workout.NewCycling("2", workout.Coords{1, 2}, 20, 60, 300, date)
	html, err := WorkoutItem(w, &weather.Entry{Temperature: 14.5, TempType: "°C", WeatherState: "⛅ Partly cloudy"})
	require.NoError(t, err)

	assert.Contains(t, html, "workout--cycling")
	assert.Contains(t, html, `<span class="workout__value">20.0</span><span class="workout__unit">km/h</span>`)
	assert.Contains(t, html, "⛰")
	assert.Contains(t, html, "workout__weather")
	assert.Contains(t, html, "14.5")
	assert.Contains(t, html, "Partly cloudy")
}

func TestEditForm(t *testing.T) {
	w := workout.NewCycling("3", workout.Coords{1, 2}, 20, 60, -15, date)
	html, err := EditForm(w)
	require.NoError(t, err)

	assert.Contains(t, html, "workout--edit")
	assert.Contains(t, html, `name="elevation" value="-15"`)
	assert.Contains(t, html, `data-action="cancel"`)
	assert.NotContains(t, html, `name="cadence"`)
}

func TestPopup(t *testing.T) {
	w := workout.NewRunning("1", workout.Coords{}, 5, 30, 150, date)
	html, err := Popup(w)
	require.NoError(t, err)
	assert.Equal(t, "🏃‍♂️ Running on April 14", html)
}

func TestListAttachesWeatherByID(t *testing.T) {
	l := workout.List{
		workout.NewRunning("1", workout.Coords{}, 5, 30, 150, date),
		workout.NewRunning("2", workout.Coords{}, 8, 45, 160, date),
	}
	html, err := List(l, map[string]weather.Entry{"2": {Temperature: 9, TempType: "°C", WeatherState: "🌫️ Fog"}})
	require.NoError(t, err)

	first := strings.Index(html, `data-id="1"`)
	second := strings.Index(html, `data-id="2"`)
	require.True(t, first >= 0 && second > first)
	assert.Equal(t, 1, strings.Count(html, "workout__weather"))
	assert.Greater(t, strings.Index(html, "Fog"), second)
}

func TestEscapesDescription(t *testing.T) {
	w := workout.NewRunning("1", workout.Coords{}, 5, 30, 150, date)
	w.Description = "<script>x</script>"
	html, err := WorkoutItem(w, nil)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}
