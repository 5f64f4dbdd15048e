package layout

import (
	"fmt"
	"time"
)

// DaysPerWeek is the number of windows in a week layout.
const DaysPerWeek = 7

// Hours is the visible hour range of a day, [StartHour, EndHour).
type Hours struct {
	StartHour int
	EndHour   int
}

// DefaultHours is the 07:00-21:00 grid.
var DefaultHours = Hours{StartHour: 7, EndHour: 21}

// Validate checks 0 <= StartHour < EndHour <= 24.
func (h Hours) Validate() error {
	if h.StartHour < 0 || h.EndHour > 24 || h.StartHour >= h.EndHour {
		return fmt.Errorf("layout: invalid hour range %d..%d", h.StartHour, h.EndHour)
	}
	return nil
}

// Window is the visible hour range applied to one calendar date.
type Window struct {
	// Date is local midnight of the calendar date.
	Date  time.Time
	Hours Hours
}

// NewWindow builds the window for the calendar date of date, keeping date's
// location as the wall-clock frame.
func NewWindow(date time.Time, hours Hours) Window {
	return Window{Date: dateOf(date, date.Location()), Hours: hours}
}

// Start is the first instant inside the window.
func (w Window) Start() time.Time {
	return w.at(w.Hours.StartHour)
}

// End is the first instant after the window.
func (w Window) End() time.Time {
	return w.at(w.Hours.EndHour)
}

// Minutes is the window length in minutes.
func (w Window) Minutes() float64 {
	return w.End().Sub(w.Start()).Minutes()
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && t.Before(w.End())
}

func (w Window) at(hour int) time.Time {
	d := w.Date
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
}

// WeekWindows returns the seven consecutive windows of the week containing
// day, starting on weekStart.
func WeekWindows(day time.Time, hours Hours, weekStart time.Weekday) [DaysPerWeek]Window {
	first := WeekStart(day, weekStart)
	var out [DaysPerWeek]Window
	for i := range out {
		out[i] = NewWindow(first.AddDate(0, 0, i), hours)
	}
	return out
}

// WeekStart returns local midnight of the first day of the week containing day.
func WeekStart(day time.Time, weekStart time.Weekday) time.Time {
	d := dateOf(day, day.Location())
	offset := (int(d.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
	return d.AddDate(0, 0, -offset)
}
