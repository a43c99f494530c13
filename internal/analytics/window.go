package analytics

import (
	"errors"
	"fmt"
	"time"
)

var ErrAggregationInput = errors.New("malformed aggregation input")

// Window is the half-open range [Start, End). A zero Start or End leaves that
// side unbounded. Location decides what a calendar day is; nil means UTC.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

func (w Window) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		return fmt.Errorf("%w: window start %s is after end %s", ErrAggregationInput,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

func (w Window) Bounded() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// Overlaps reports whether two bounded windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// PreviousWindow is the window of equal length ending where w starts.
func PreviousWindow(w Window) Window {
	length := w.End.Sub(w.Start)
	return Window{Start: w.Start.Add(-length), End: w.Start, Location: w.Location}
}

// LastDays is the window covering the n calendar days up to and including the
// day of now, in loc.
func LastDays(now time.Time, n int, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	end := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	start := end.AddDate(0, 0, -n)
	return Window{Start: start, End: end, Location: loc}
}
