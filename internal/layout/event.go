// Package layout turns a set of time-bound tasks into a conflict-free visual
// layout for a day or week calendar view.
//
// The package is pure: it performs no I/O, never reads the system clock and
// never mutates its inputs, so results can be memoised by the caller on
// (event list, window).
package layout

import "time"

// Timing is either Timed or AllDay. The set of implementations is closed.
type Timing interface {
	isTiming()
}

// Timed is an event occupying the wall-clock interval [Start, End).
type Timed struct {
	Start time.Time
	End   time.Time
}

// AllDay is an event covering whole calendar dates, First..Last inclusive.
// Only the date parts of First and Last are meaningful.
type AllDay struct {
	First time.Time
	Last  time.Time
}

func (Timed) isTiming()  {}
func (AllDay) isTiming() {}

// Event is the normalized form of a task.
type Event struct {
	ID     string
	Title  string
	Timing Timing

	// Color and SourceRef are passed through to the renderer untouched.
	Color     string
	SourceRef string
}

// Segment is the portion of a timed event that falls inside one window.
type Segment struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the segment length in minutes.
func (s Segment) Minutes() float64 {
	return s.End.Sub(s.Start).Minutes()
}

// Overlaps reports strict interior overlap. Segments that only touch at an
// endpoint do not overlap.
func (s Segment) Overlaps(o Segment) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

// ClippedEvent is an event together with its segment on one particular day.
type ClippedEvent struct {
	Event   Event
	Segment Segment
}

// PositionedEvent is a clipped event placed in a column with its box
// expressed as percentages of the day's drawable area.
type PositionedEvent struct {
	Event       Event
	Segment     Segment
	DayIndex    int
	ColumnIndex int
	Box
}

// Box holds top/height/left/width percentages.
type Box struct {
	Top    float64
	Height float64
	Left   float64
	Width  float64
}

// coversDate reports whether the all-day event includes the calendar date of d.
func (a AllDay) coversDate(d time.Time) bool {
	day := dateOf(d, d.Location())
	first := dateOf(a.First, d.Location())
	last := dateOf(a.Last, d.Location())
	return !day.Before(first) && !day.After(last)
}

// dateOf returns local midnight of t's wall-clock date in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
