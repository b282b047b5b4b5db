package render

import (
	"strings"

	"backend-mapty/internal/weather"
	"backend-mapty/internal/workout"
)

type itemData struct {
	W       workout.Workout
	Weather *weather.Entry
}

func execute(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WorkoutItem renders a list entry; a nil entry omits the weather snippet.
func WorkoutItem(w workout.Workout, e *weather.Entry) (string, error) {
	return execute("item", itemData{W: w, Weather: e})
}

// EditForm renders the entry in edit mode with its values prefilled.
func EditForm(w workout.Workout) (string, error) {
	return execute("edit", w)
}

func WeatherSnippet(e weather.Entry) (string, error) {
	return execute("weather", e)
}

func Popup(w workout.Workout) (string, error) {
	return execute("popup", w)
}

// List renders every entry in order, attaching cached weather by workout id.
func List(l workout.List, entries map[string]weather.Entry) (string, error) {
	var b strings.Builder
	for _, w := range l {
		var e *weather.Entry
		if got, ok := entries[w.ID]; ok {
			e = &got
		}
		item, err := WorkoutItem(w, e)
		if err != nil {
			return "", err
		}
		b.WriteString(item)
	}
	return b.String(), nil
}
