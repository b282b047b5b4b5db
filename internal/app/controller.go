package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"backend-mapty/internal/mapview"
	"backend-mapty/internal/notice"
	"backend-mapty/internal/render"
	"backend-mapty/internal/storage"
	"backend-mapty/internal/stream"
	"backend-mapty/internal/weather"
	"backend-mapty/internal/workout"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound       = errors.New("workout not found")
	ErrNoPendingClick = errors.New("click on the map to place a workout first")
	ErrBadSortKey     = errors.New("sort by distance or duration")
	ErrBadCoords      = errors.New("lat must be within ±90 and lng within ±180")
)

// Publisher pushes events to a session's subscribers.
type Publisher interface {
	Publish(sessionID string, ev stream.Event)
}

type Deps struct {
	Store          storage.Store
	Weather        *weather.Service
	Publisher      Publisher
	Log            *zap.Logger
	NoticeDuration time.Duration
	WeatherTimeout time.Duration
	Map            mapview.Options
	Now            func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Store == nil {
		d.Store = storage.NewMemoryStore()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.WeatherTimeout <= 0 {
		d.WeatherTimeout = 10 * time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, stream.Event) {}

// Controller owns one session's workouts, map view and notices. The form is
// visible while a map click is pending; list entries in editing are shown
// as edit forms.
type Controller struct {
	sessionID string
	deps      Deps
	log       *zap.Logger
	view      *mapview.View
	notices   *notice.Notifier

	mu       sync.Mutex
	loaded   bool
	workouts workout.List
	counter  workout.Counter
	sortAsc  bool
	pending  *workout.Coords
	editing  map[string]bool
	lastSeen time.Time

	wg sync.WaitGroup
}

func NewController(sessionID string, deps Deps) *Controller {
	deps = deps.withDefaults()
	c := &Controller{
		sessionID: sessionID,
		deps:      deps,
		log:       deps.Log.With(zap.String("session", sessionID)),
		view:      mapview.New(deps.Map),
		editing:   map[string]bool{},
		lastSeen:  deps.Now(),
	}
	c.notices = notice.New(deps.NoticeDuration, func(kind notice.Kind, n notice.Notice) {
		c.publish(stream.Event{Type: string(kind), Payload: n})
	})
	c.view.OnClick(c.showForm)
	return c
}

func (c *Controller) SessionID() string { return c.sessionID }

func (c *Controller) publish(ev stream.Event) {
	c.deps.Publisher.Publish(c.sessionID, ev)
}

func (c *Controller) touch() {
	c.lastSeen = c.deps.Now()
}

func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Load restores the session snapshot from storage once. Weather for restored
// workouts is filled in the background.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.loaded {
		return nil
	}

	store := c.deps.Store
	raw, ok, err := store.GetItem(ctx, c.sessionID, storage.KeyWorkouts)
	if err != nil {
		return fmt.Errorf("load workouts: %w", err)
	}
	var list workout.List
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			c.log.Warn("discarding unreadable workouts snapshot", zap.Error(err))
			c.notices.Show("Saved workouts could not be restored!")
			list = nil
		}
	}

	rawID, _, err := store.GetItem(ctx, c.sessionID, storage.KeyCurrentID)
	if err != nil {
		return fmt.Errorf("load current id: %w", err)
	}
	counter, err := workout.ParseCounter(rawID)
	if err != nil {
		c.log.Warn("resetting id counter", zap.Error(err))
	}
	for _, w := range list {
		if n, err := strconv.ParseUint(w.ID, 10, 64); err == nil && workout.Counter(n) > counter {
			counter = workout.Counter(n)
		}
	}

	rawSort, _, err := store.GetItem(ctx, c.sessionID, storage.KeySort)
	if err != nil {
		return fmt.Errorf("load sort: %w", err)
	}

	c.workouts = list
	c.counter = counter
	c.sortAsc = rawSort == "true"
	c.loaded = true

	for _, w := range list {
		if err := c.placeMarker(w); err != nil {
			return err
		}
	}
	html, err := render.List(c.workouts, c.cachedWeather(ctx, c.workouts))
	if err != nil {
		return fmt.Errorf("render list: %w", err)
	}
	c.publish(stream.Event{Type: "list.render", HTML: html})

	c.restoreWeather(list.Clone())
	return nil
}

func (c *Controller) restoreWeather(list workout.List) {
	if c.deps.Weather == nil || len(list) == 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.deps.WeatherTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, w := range list {
			w := w
			g.Go(func() error {
				e, err := c.deps.Weather.Ensure(gctx, weather.Key(c.sessionID, w.ID), w.Coords.Lat(), w.Coords.Lng())
				if err != nil {
					return err
				}
				c.attachWeather(gctx, w.ID, e)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.log.Warn("weather restore failed", zap.Error(err))
			c.notices.Show("Could not load weather: " + err.Error())
		}
	}()
}

// MapClick forwards a click through the map view.
func (c *Controller) MapClick(coords workout.Coords) error {
	if !coords.Valid() {
		return ErrBadCoords
	}
	c.view.Click(coords)
	return nil
}

func (c *Controller) showForm(coords workout.Coords) {
	c.mu.Lock()
	c.touch()
	c.pending = &coords
	c.mu.Unlock()
	c.publish(stream.Event{Type: "form.show", Payload: coords})
}

// HideForm discards a pending click.
func (c *Controller) HideForm() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	c.publish(stream.Event{Type: "form.hide"})
}

// Locate centers the map, as a geolocation fix does.
func (c *Controller) Locate(coords workout.Coords) (mapview.State, error) {
	if !coords.Valid() {
		return mapview.State{}, ErrBadCoords
	}
	c.view.SetView(coords, 0)
	st := c.view.State()
	c.publish(stream.Event{Type: "map.move", Payload: st.Center})
	return st, nil
}

// Submit validates the form and logs a workout at the pending click.
func (c *Controller) Submit(ctx context.Context, f workout.Form) (workout.Workout, error) {
	c.mu.Lock()
	c.touch()
	if c.pending == nil {
		c.mu.Unlock()
		c.notices.Show("Click on the map to place a workout first!")
		return workout.Workout{}, ErrNoPendingClick
	}
	in, err := workout.Validate(f)
	if err != nil {
		c.mu.Unlock()
		c.notices.Show(err.Error())
		return workout.Workout{}, err
	}

	w := workout.FromInput(c.counter.Next(), *c.pending, in, c.deps.Now())
	c.workouts.Append(w)
	c.pending = nil

	item, err := render.WorkoutItem(w, nil)
	if err != nil {
		c.mu.Unlock()
		return workout.Workout{}, fmt.Errorf("render workout: %w", err)
	}
	if err := c.placeMarker(w); err != nil {
		c.mu.Unlock()
		return workout.Workout{}, err
	}
	c.persist(ctx)
	c.mu.Unlock()

	c.publish(stream.Event{Type: "form.hide"})
	c.publish(stream.Event{Type: "workout.add", WorkoutID: w.ID, HTML: item})
	c.log.Info("workout added", zap.String("workout", w.ID), zap.String("type", string(w.Type)))

	c.fetchWeather(w)
	return w, nil
}

func (c *Controller) placeMarker(w workout.Workout) error {
	popup, err := render.Popup(w)
	if err != nil {
		return fmt.Errorf("render popup: %w", err)
	}
	m := c.view.AddMarker(w, popup)
	c.publish(stream.Event{Type: "marker.add", WorkoutID: w.ID, Payload: m})
	return nil
}

func (c *Controller) fetchWeather(w workout.Workout) {
	if c.deps.Weather == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.deps.WeatherTimeout)
		defer cancel()

		e, err := c.deps.Weather.Fetch(ctx, weather.Key(c.sessionID, w.ID), w.Coords.Lat(), w.Coords.Lng())
		if err != nil {
			c.log.Warn("weather fetch failed", zap.String("workout", w.ID), zap.Error(err))
			c.notices.Show("Could not load weather: " + err.Error())
			return
		}
		c.attachWeather(ctx, w.ID, e)
	}()
}

// attachWeather publishes the snippet for a workout that still exists and
// drops the cache entry of one deleted while the fetch was in flight.
func (c *Controller) attachWeather(ctx context.Context, id string, e weather.Entry) {
	c.mu.Lock()
	_, exists := c.workouts.Get(id)
	c.mu.Unlock()
	if !exists {
		if err := c.deps.Weather.Delete(ctx, weather.Key(c.sessionID, id)); err != nil {
			c.log.Warn("weather cache delete failed", zap.String("workout", id), zap.Error(err))
		}
		return
	}
	snippet, err := render.WeatherSnippet(e)
	if err != nil {
		c.log.Error("render weather", zap.String("workout", id), zap.Error(err))
		return
	}
	c.publish(stream.Event{Type: "weather.attach", WorkoutID: id, HTML: snippet, Payload: e})
}

// Edit switches a list entry to its edit form.
func (c *Controller) Edit(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	w, ok := c.workouts.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	html, err := render.EditForm(w)
	if err != nil {
		return "", fmt.Errorf("render edit form: %w", err)
	}
	c.editing[id] = true
	c.publish(stream.Event{Type: "workout.edit", WorkoutID: id, HTML: html})
	return html, nil
}

// Cancel leaves edit mode without changes.
func (c *Controller) Cancel(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	w, ok := c.workouts.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	delete(c.editing, id)
	return c.renderItem(ctx, w)
}

// Update replaces a workout with one built from the edit form. Id, coords
// and date carry over.
func (c *Controller) Update(ctx context.Context, id string, f workout.Form) (workout.Workout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	old, ok := c.workouts.Get(id)
	if !ok {
		return workout.Workout{}, ErrNotFound
	}
	if f.Type == "" {
		f.Type = string(old.Type)
	}
	in, err := workout.Validate(f)
	if err != nil {
		c.notices.Show(err.Error())
		return workout.Workout{}, err
	}

	w := workout.FromInput(old.ID, old.Coords, in, old.Date)
	c.workouts.Replace(w)
	delete(c.editing, id)

	if _, err := c.renderItem(ctx, w); err != nil {
		return workout.Workout{}, err
	}
	popup, err := render.Popup(w)
	if err != nil {
		return workout.Workout{}, fmt.Errorf("render popup: %w", err)
	}
	if m, err := c.view.UpdateMarker(w, popup); err == nil {
		c.publish(stream.Event{Type: "marker.update", WorkoutID: id, Payload: m})
	}
	c.persist(ctx)
	c.log.Info("workout updated", zap.String("workout", id))
	return w, nil
}

func (c *Controller) renderItem(ctx context.Context, w workout.Workout) (string, error) {
	var entry *weather.Entry
	if e, ok := c.cachedWeather(ctx, workout.List{w})[w.ID]; ok {
		entry = &e
	}
	html, err := render.WorkoutItem(w, entry)
	if err != nil {
		return "", fmt.Errorf("render workout: %w", err)
	}
	c.publish(stream.Event{Type: "workout.render", WorkoutID: w.ID, HTML: html})
	return html, nil
}

// Delete removes a workout with its marker and weather entry.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if _, ok := c.workouts.Remove(id); !ok {
		return ErrNotFound
	}
	delete(c.editing, id)
	c.view.RemoveMarker(id)
	if c.deps.Weather != nil {
		if err := c.deps.Weather.Delete(ctx, weather.Key(c.sessionID, id)); err != nil {
			c.log.Warn("weather cache delete failed", zap.String("workout", id), zap.Error(err))
		}
	}
	c.persist(ctx)

	c.publish(stream.Event{Type: "workout.remove", WorkoutID: id})
	c.publish(stream.Event{Type: "marker.remove", WorkoutID: id})
	c.log.Info("workout deleted", zap.String("workout", id))
	return nil
}

// Sort flips the persisted order flag, sorts by key and re-renders the whole
// list. The first sort is ascending.
func (c *Controller) Sort(ctx context.Context, key string) (string, error) {
	k, err := workout.ParseSortKey(key)
	if err != nil {
		c.notices.Show("Sort by distance or duration!")
		return "", ErrBadSortKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.sortAsc = !c.sortAsc
	c.workouts.Sort(k, c.sortAsc)
	clear(c.editing)

	html, err := render.List(c.workouts, c.cachedWeather(ctx, c.workouts))
	if err != nil {
		return "", fmt.Errorf("render list: %w", err)
	}
	c.persist(ctx)
	c.publish(stream.Event{Type: "list.render", HTML: html, Payload: sortState{Key: string(k), Ascending: c.sortAsc}})
	return html, nil
}

type sortState struct {
	Key       string `json:"key"`
	Ascending bool   `json:"ascending"`
}

// Reset wipes the session's storage and state.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if err := c.deps.Store.Clear(ctx, c.sessionID); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	if c.deps.Weather != nil {
		for _, w := range c.workouts {
			if err := c.deps.Weather.Delete(ctx, weather.Key(c.sessionID, w.ID)); err != nil {
				c.log.Warn("weather cache delete failed", zap.String("workout", w.ID), zap.Error(err))
			}
		}
	}
	c.workouts = nil
	c.counter = 0
	c.sortAsc = false
	c.pending = nil
	clear(c.editing)
	markers := c.view.Markers()
	c.view.ClearMarkers()
	for _, m := range markers {
		c.publish(stream.Event{Type: "marker.remove", WorkoutID: m.WorkoutID})
	}
	c.publish(stream.Event{Type: "list.render"})
	c.log.Info("session reset")
	return nil
}

// MoveTo pans the map to a workout's marker.
func (c *Controller) MoveTo(id string) (workout.Coords, error) {
	c.mu.Lock()
	c.touch()
	c.mu.Unlock()
	center, err := c.view.MoveTo(id)
	if err != nil {
		return workout.Coords{}, ErrNotFound
	}
	c.publish(stream.Event{Type: "map.move", WorkoutID: id, Payload: center})
	return center, nil
}

// Weather returns the workout's weather, fetching it on first use.
func (c *Controller) Weather(ctx context.Context, id string) (weather.Entry, error) {
	c.mu.Lock()
	c.touch()
	w, ok := c.workouts.Get(id)
	c.mu.Unlock()
	if !ok {
		return weather.Entry{}, ErrNotFound
	}
	if c.deps.Weather == nil {
		return weather.Entry{}, errors.New("weather unavailable")
	}
	e, err := c.deps.Weather.Ensure(ctx, weather.Key(c.sessionID, id), w.Coords.Lat(), w.Coords.Lng())
	if err != nil {
		c.notices.Show("Could not load weather: " + err.Error())
		return weather.Entry{}, err
	}
	return e, nil
}

func (c *Controller) Workouts() workout.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workouts.Clone()
}

// Near returns the workouts within radiusKm of coords and their markers.
func (c *Controller) Near(coords workout.Coords, radiusKm float64) (workout.List, []mapview.Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workouts.Near(coords, radiusKm), c.view.Nearby(coords, radiusKm)
}

// ListHTML renders the current list with cached weather.
func (c *Controller) ListHTML(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return render.List(c.workouts, c.cachedWeather(ctx, c.workouts))
}

// FormVisible reports the pending click, if any.
func (c *Controller) FormVisible() (workout.Coords, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return workout.Coords{}, false
	}
	return *c.pending, true
}

func (c *Controller) Editing(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing[id]
}

func (c *Controller) SortAscending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortAsc
}

func (c *Controller) MapState() mapview.State {
	return c.view.State()
}

func (c *Controller) Notice() (notice.Notice, bool) {
	return c.notices.Current()
}

// Wait blocks until in-flight weather fetches finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close waits for background work and hides any notice.
func (c *Controller) Close() {
	c.wg.Wait()
	c.notices.Close()
}

// cachedWeather collects cache hits only; it never fetches. Callers hold mu.
func (c *Controller) cachedWeather(ctx context.Context, list workout.List) map[string]weather.Entry {
	entries := map[string]weather.Entry{}
	if c.deps.Weather == nil {
		return entries
	}
	for _, w := range list {
		e, ok, err := c.deps.Weather.Get(ctx, weather.Key(c.sessionID, w.ID))
		if err != nil {
			c.log.Warn("weather cache read failed", zap.String("workout", w.ID), zap.Error(err))
			continue
		}
		if ok {
			entries[w.ID] = e
		}
	}
	return entries
}

// persist writes the snapshot. Callers hold mu. Failures are shown to the
// user and do not undo the change.
func (c *Controller) persist(ctx context.Context) {
	if err := c.save(ctx); err != nil {
		c.log.Error("persist session", zap.Error(err))
		c.notices.Show("Could not save workouts!")
	}
}

func (c *Controller) save(ctx context.Context) error {
	list := c.workouts
	if list == nil {
		list = workout.List{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode workouts: %w", err)
	}
	store := c.deps.Store
	if err := store.SetItem(ctx, c.sessionID, storage.KeyWorkouts, string(raw)); err != nil {
		return err
	}
	if err := store.SetItem(ctx, c.sessionID, storage.KeyCurrentID, c.counter.String()); err != nil {
		return err
	}
	return store.SetItem(ctx, c.sessionID, storage.KeySort, strconv.FormatBool(c.sortAsc))
}
