package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "taskcal/internal/log"
	"taskcal/internal/model"
)

const dateLayout = "2006-01-02"

// Source identifies where an iCalendar payload came from.
type Source struct {
	// ID is used as a prefix for SourceRef and in logs.
	ID string
	// Path is the file the payload was read from, if any.
	Path string
}

// ParseTasks converts the VTODO and VEVENT components of an iCalendar payload
// into task records.
//
//   - VTODO: DUE becomes the due date, DTSTART the start date.
//   - VEVENT: DTEND becomes the due date, DTSTART the start date. Date-valued
//     events are all-day; their exclusive DTEND is moved back one day.
//
// Date-times are converted to loc before their date is taken. Components that
// cannot be mapped are logged and skipped. Recurrence rules are not expanded;
// only the first instance is imported.
func ParseTasks(src Source, body []byte, loc *time.Location) ([]model.Task, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "path", src.Path)
		return nil, err
	}

	tasks := make([]model.Task, 0)
	for _, todo := range cal.Todos() {
		task, perr := parseTodo(src, &todo.ComponentBase, loc)
		if perr != nil {
			appLog.Warn("ics vtodo skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		tasks = append(tasks, task)
	}
	for _, ev := range cal.Events() {
		task, perr := parseEvent(src, &ev.ComponentBase, loc)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		tasks = append(tasks, task)
	}

	appLog.Info("ics parse completed", "id", src.ID, "path", src.Path, "task_count", len(tasks))
	return tasks, nil
}

func parseTodo(src Source, c *ical.ComponentBase, loc *time.Location) (model.Task, error) {
	task, err := baseTask(src, c)
	if err != nil {
		return task, err
	}
	if status := propValue(c, ical.ComponentPropertyStatus); strings.EqualFold(status, "CANCELLED") {
		return task, errors.New("cancelled")
	}

	due, _, ok := dateProp(c, ical.ComponentPropertyDue, loc)
	if !ok {
		return task, errors.New("missing DUE")
	}
	task.Due = due.Format(dateLayout)
	if start, _, ok := dateProp(c, ical.ComponentPropertyDtStart, loc); ok {
		task.Start = start.Format(dateLayout)
	}
	return task, nil
}

func parseEvent(src Source, c *ical.ComponentBase, loc *time.Location) (model.Task, error) {
	task, err := baseTask(src, c)
	if err != nil {
		return task, err
	}
	if propValue(c, ical.ComponentPropertyRrule) != "" {
		appLog.Debug("ics recurrence ignored", "id", src.ID, "uid", task.ID)
	}

	start, allDay, ok := dateProp(c, ical.ComponentPropertyDtStart, loc)
	if !ok {
		return task, errors.New("missing DTSTART")
	}
	due := start
	if end, _, ok := dateProp(c, ical.ComponentPropertyDtEnd, loc); ok {
		due = end
		// DTEND of a date-valued event is exclusive.
		if allDay && end.After(start) {
			due = end.AddDate(0, 0, -1)
		}
	}

	task.AllDay = allDay
	task.Start = start.Format(dateLayout)
	task.Due = due.Format(dateLayout)
	return task, nil
}

func baseTask(src Source, c *ical.ComponentBase) (model.Task, error) {
	var task model.Task
	uid := propValue(c, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return task, errors.New("missing UID")
	}
	task.ID = uid
	task.Title = propValue(c, ical.ComponentPropertySummary)
	task.Color = propValue(c, ical.ComponentPropertyColor)
	task.SourceRef = src.ID + ":" + uid
	for _, p := range c.GetProperties(ical.ComponentPropertyAttendee) {
		if a := strings.TrimPrefix(strings.TrimPrefix(p.Value, "mailto:"), "MAILTO:"); a != "" {
			task.Assignees = append(task.Assignees, a)
		}
	}
	return task, nil
}

func propValue(c *ical.ComponentBase, name ical.ComponentProperty) string {
	p := c.GetProperty(name)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

// dateProp reads a DATE or DATE-TIME property and returns its wall-clock date
// in loc, plus whether it was date-valued.
func dateProp(c *ical.ComponentBase, name ical.ComponentProperty, loc *time.Location) (time.Time, bool, bool) {
	p := c.GetProperty(name)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return time.Time{}, false, false
	}

	dateValued := !strings.Contains(p.Value, "T")
	propLoc := loc
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			dateValued = true
		}
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			if l, err := time.LoadLocation(tzs[0]); err == nil {
				propLoc = l
			}
		}
	}

	t, err := parseICSTime(p.Value, propLoc)
	if err != nil {
		return time.Time{}, false, false
	}
	if !dateValued {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), dateValued, true
}

// parseICSTime parses the basic UTC, floating and date-only forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, loc)
}
