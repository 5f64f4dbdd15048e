package layout

import (
	"fmt"
	"strings"
	"time"

	"taskcal/internal/model"
)

// Tasks carry dates only; these are the hours a task box opens and closes at.
const (
	TaskStartHour = 9
	TaskEndHour   = 17
)

const dateLayout = "2006-01-02"

// Normalize maps a task onto an Event in loc's wall clock.
//
//   - A due date is required.
//   - Start is the start date at 09:00, or the day before the due date at
//     09:00 when the start date is missing or unparseable.
//   - End is always the due date at 17:00.
//   - All-day tasks cover start date (or due date) through due date.
//
// It never panics; rejected tasks come back with a sentinel error.
func Normalize(task model.Task, loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.Local
	}
	if strings.TrimSpace(task.Due) == "" {
		return Event{}, ErrMissingDue
	}
	due, ok := parseDate(task.Due, loc)
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidDue, task.Due)
	}
	start, hasStart := parseDate(task.Start, loc)

	ev := Event{
		ID:        task.ID,
		Title:     task.Title,
		Color:     task.Color,
		SourceRef: task.SourceRef,
	}

	if task.AllDay {
		first := due
		if hasStart {
			first = start
		}
		if first.After(due) {
			return Event{}, ErrInvertedInterval
		}
		ev.Timing = AllDay{First: first, Last: due}
		return ev, nil
	}

	if !hasStart {
		start = due.AddDate(0, 0, -1)
	}
	t := Timed{
		Start: atHour(start, TaskStartHour),
		End:   atHour(due, TaskEndHour),
	}
	if t.End.Before(t.Start) {
		return Event{}, ErrInvertedInterval
	}
	ev.Timing = t
	return ev, nil
}

// NormalizeAll normalizes every task, keeping input order. Rejected tasks are
// reported as diagnostics.
func NormalizeAll(tasks []model.Task, loc *time.Location) ([]Event, []Diagnostic) {
	events := make([]Event, 0, len(tasks))
	var diags []Diagnostic
	for _, task := range tasks {
		ev, err := Normalize(task, loc)
		if err != nil {
			diags = append(diags, Diagnostic{EventID: task.ID, Title: task.Title, Err: err})
			continue
		}
		events = append(events, ev)
	}
	return events, diags
}

// parseDate reads a calendar date from "2006-01-02", anything prefixed by it
// (e.g. RFC3339 timestamps) and returns local midnight of that date in loc.
// The date is taken from the string's own wall clock; no zone conversion.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s[:len(dateLayout)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func atHour(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
}
