package mapview

import (
	"errors"
	"sync"

	"backend-mapty/internal/shared/geo"
	"backend-mapty/internal/workout"
)

const (
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	DefaultZoom        = 13
)

var ErrNoMarker = errors.New("marker not found")

type Options struct {
	Center      workout.Coords
	Zoom        int
	TileURL     string
	Attribution string
}

type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

type PopupOptions struct {
	MaxWidth     int    `json:"maxWidth"`
	MinWidth     int    `json:"minWidth"`
	AutoClose    bool   `json:"autoClose"`
	CloseOnClick bool   `json:"closeOnClick"`
	ClassName    string `json:"className"`
}

type Marker struct {
	WorkoutID string         `json:"workoutId"`
	Coords    workout.Coords `json:"coords"`
	Popup     string         `json:"popup"`
	Options   PopupOptions   `json:"options"`
}

// State is the serializable view handed to the client.
type State struct {
	Center  workout.Coords `json:"center"`
	Zoom    int            `json:"zoom"`
	Tiles   TileLayer      `json:"tiles"`
	Markers []Marker       `json:"markers"`
}

// View tracks what the client's map shows: its center, zoom, tile layer and
// one marker per workout.
type View struct {
	mu      sync.RWMutex
	center  workout.Coords
	zoom    int
	tiles   TileLayer
	markers []Marker
	onClick func(workout.Coords)
}

func New(opts Options) *View {
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}
	if opts.TileURL == "" {
		opts.TileURL = DefaultTileURL
	}
	if opts.Attribution == "" {
		opts.Attribution = DefaultAttribution
	}
	return &View{
		center: opts.Center,
		zoom:   opts.Zoom,
		tiles:  TileLayer{URL: opts.TileURL, Attribution: opts.Attribution},
	}
}

// SetView recenters the map, as on a geolocation fix.
func (v *View) SetView(center workout.Coords, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = center
	if zoom > 0 {
		v.zoom = zoom
	}
}

// OnClick registers the handler that map clicks are forwarded to.
func (v *View) OnClick(fn func(workout.Coords)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onClick = fn
}

func (v *View) Click(c workout.Coords) {
	v.mu.RLock()
	fn := v.onClick
	v.mu.RUnlock()
	if fn != nil {
		fn(c)
	}
}

func popupOptions(t workout.Type) PopupOptions {
	return PopupOptions{
		MaxWidth:     250,
		MinWidth:     100,
		AutoClose:    false,
		CloseOnClick: false,
		ClassName:    string(t) + "-popup",
	}
}

// AddMarker places a marker for w, replacing any existing one for the same
// workout.
func (v *View) AddMarker(w workout.Workout, popup string) Marker {
	m := Marker{WorkoutID: w.ID, Coords: w.Coords, Popup: popup, Options: popupOptions(w.Type)}

	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.index(w.ID); i >= 0 {
		v.markers[i] = m
		return m
	}
	v.markers = append(v.markers, m)
	return m
}

func (v *View) UpdateMarker(w workout.Workout, popup string) (Marker, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.index(w.ID)
	if i < 0 {
		return Marker{}, ErrNoMarker
	}
	v.markers[i].Popup = popup
	v.markers[i].Options = popupOptions(w.Type)
	return v.markers[i], nil
}

func (v *View) RemoveMarker(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.index(id)
	if i < 0 {
		return false
	}
	v.markers = append(v.markers[:i], v.markers[i+1:]...)
	return true
}

func (v *View) ClearMarkers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.markers = nil
}

// MoveTo pans to the workout's marker, keeping the zoom level.
func (v *View) MoveTo(id string) (workout.Coords, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.index(id)
	if i < 0 {
		return workout.Coords{}, ErrNoMarker
	}
	v.center = v.markers[i].Coords
	return v.center, nil
}

func (v *View) Markers() []Marker {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Marker(nil), v.markers...)
}

// Nearby returns the markers within radiusKm of c.
func (v *View) Nearby(c workout.Coords, radiusKm float64) []Marker {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []Marker
	for _, m := range v.markers {
		if geo.HaversineKm(c.Lat(), c.Lng(), m.Coords.Lat(), m.Coords.Lng()) <= radiusKm {
			out = append(out, m)
		}
	}
	return out
}

func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return State{
		Center:  v.center,
		Zoom:    v.zoom,
		Tiles:   v.tiles,
		Markers: append([]Marker{}, v.markers...),
	}
}

func (v *View) index(id string) int {
	for i, m := range v.markers {
		if m.WorkoutID == id {
			return i
		}
	}
	return -1
}
