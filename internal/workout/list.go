package workout

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"backend-mapty/internal/shared/geo"
)

type SortKey string

const (
	SortDistance SortKey = "distance"
	SortDuration SortKey = "duration"
)

func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortDistance, SortDuration:
		return SortKey(s), nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// List is a session's workouts in display order.
type List []Workout

func (l List) Index(id string) int {
	return slices.IndexFunc(l, func(w Workout) bool { return w.ID == id })
}

func (l List) Get(id string) (Workout, bool) {
	i := l.Index(id)
	if i < 0 {
		return Workout{}, false
	}
	return l[i], true
}

func (l *List) Append(w Workout) {
	*l = append(*l, w)
}

// Replace swaps in w for the workout with the same id.
func (l List) Replace(w Workout) bool {
	i := l.Index(w.ID)
	if i < 0 {
		return false
	}
	l[i] = w
	return true
}

func (l *List) Remove(id string) (Workout, bool) {
	i := l.Index(id)
	if i < 0 {
		return Workout{}, false
	}
	w := (*l)[i]
	*l = slices.Delete(*l, i, i+1)
	return w, true
}

// Sort orders the list in place by key. Equal values keep their order.
func (l List) Sort(key SortKey, ascending bool) {
	value := func(w Workout) float64 {
		if key == SortDuration {
			return w.Duration
		}
		return w.Distance
	}
	slices.SortStableFunc(l, func(a, b Workout) int {
		if ascending {
			return cmp.Compare(value(a), value(b))
		}
		return cmp.Compare(value(b), value(a))
	})
}

// Near returns the workouts within radiusKm of c.
func (l List) Near(c Coords, radiusKm float64) List {
	var out List
	for _, w := range l {
		if geo.HaversineKm(c.Lat(), c.Lng(), w.Coords.Lat(), w.Coords.Lng()) <= radiusKm {
			out = append(out, w)
		}
	}
	return out
}

func (l List) Clone() List {
	return slices.Clone(l)
}

// Counter hands out workout ids. It is persisted as a decimal string.
type Counter uint64

func ParseCounter(s string) (Counter, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter: %w", err)
	}
	return Counter(n), nil
}

func (c *Counter) Next() string {
	*c++
	return c.String()
}

func (c Counter) String() string {
	return strconv.FormatUint(uint64(c), 10)
}
