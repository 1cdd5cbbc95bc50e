package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned when an operator supplied time window is unusable.
var ErrInvalidWindow = errors.New("invalid time window")

const labelTimeLayout = "20060102T150405Z"

// TimeWindow is the operator supplied scan window, either relative to now or absolute.
type TimeWindow struct {
	HoursAgoStart int
	HoursAgoEnd   int
	Start         time.Time
	End           time.Time
	relative      bool
}

// RelativeWindow builds a window from "hoursAgoStart hours ago" to "hoursAgoEnd hours ago".
func RelativeWindow(hoursAgoStart, hoursAgoEnd int) (TimeWindow, error) {
	if hoursAgoEnd < 0 {
		return TimeWindow{}, fmt.Errorf("%w: end hours %d must not be negative", ErrInvalidWindow, hoursAgoEnd)
	}
	if hoursAgoStart <= hoursAgoEnd {
		return TimeWindow{}, fmt.Errorf("%w: start hours (%d) must be greater than end hours (%d)", ErrInvalidWindow, hoursAgoStart, hoursAgoEnd)
	}
	return TimeWindow{
		HoursAgoStart: hoursAgoStart,
		HoursAgoEnd:   hoursAgoEnd,
		relative:      true,
	}, nil
}

// AbsoluteWindow builds a window between two instants; start must be strictly before end.
func AbsoluteWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidWindow, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	}
	if start.Unix() < 0 {
		return TimeWindow{}, fmt.Errorf("%w: start %s precedes the Unix epoch", ErrInvalidWindow, start.UTC().Format(time.RFC3339))
	}
	return TimeWindow{Start: start.UTC(), End: end.UTC()}, nil
}

// IsRelative reports whether the window was given in hours ago.
func (w TimeWindow) IsRelative() bool {
	return w.relative
}

// Bounds resolves the window to absolute UTC instants using now for relative windows.
func (w TimeWindow) Bounds(now time.Time) (time.Time, time.Time) {
	if !w.relative {
		return w.Start, w.End
	}
	now = now.UTC()
	return now.Add(-time.Duration(w.HoursAgoStart) * time.Hour), now.Add(-time.Duration(w.HoursAgoEnd) * time.Hour)
}

// Label is a file-name friendly description of the window.
func (w TimeWindow) Label() string {
	if w.relative {
		return fmt.Sprintf("%dto%d_hours", w.HoursAgoStart, w.HoursAgoEnd)
	}
	return w.Start.Format(labelTimeLayout) + "_to_" + w.End.Format(labelTimeLayout)
}
