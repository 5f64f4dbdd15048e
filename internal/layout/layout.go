package layout

import (
	"sort"
	"time"

	"taskcal/internal/model"
)

// DayLayout is the layout of one window.
type DayLayout struct {
	Window   Window
	DayIndex int

	// AllDay holds the all-day events covering this date, ordered by title
	// then first date.
	AllDay []Event
	// Positioned holds one entry per timed event with a segment on this day,
	// ordered by segment start.
	Positioned []PositionedEvent
	// Columns is the number of columns the day's cluster uses.
	Columns int

	// NowPct is set when now falls inside this window.
	NowPct *float64
}

// Result is the layout of one or more consecutive windows.
type Result struct {
	Days        []DayLayout
	Now         *NowMarker
	Diagnostics []Diagnostic
}

// Engine lays out events over day windows. The zero value is not usable;
// construct one with New.
type Engine struct {
	opts Options
}

// New returns an Engine using opts for box geometry.
func New(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// LayoutDay lays out events for a single day.
func (e *Engine) LayoutDay(events []Event, w Window, now *time.Time) Result {
	return e.Layout(events, []Window{w}, now)
}

// LayoutWeek lays out events for seven consecutive days. Each day is packed
// on its own; column indices are not shared between days.
func (e *Engine) LayoutWeek(events []Event, windows [DaysPerWeek]Window, now *time.Time) Result {
	return e.Layout(events, windows[:], now)
}

// LayoutTasks normalizes tasks in loc and lays them out over windows.
// Rejected tasks are reported ahead of any event-level diagnostics.
func (e *Engine) LayoutTasks(tasks []model.Task, loc *time.Location, windows []Window, now *time.Time) Result {
	events, diags := NormalizeAll(tasks, loc)
	res := e.Layout(events, windows, now)
	if len(diags) > 0 {
		res.Diagnostics = append(diags, res.Diagnostics...)
	}
	return res
}

// Layout lays out events over each window independently. Events with missing
// or inverted instants are skipped and reported in Result.Diagnostics.
func (e *Engine) Layout(events []Event, windows []Window, now *time.Time) Result {
	timed, allDay, diags := partition(events)

	res := Result{
		Days:        make([]DayLayout, len(windows)),
		Diagnostics: diags,
	}
	for i, w := range windows {
		res.Days[i] = e.layoutDay(i, w, timed, allDay)
	}
	return StampNow(res, now)
}

type timedEvent struct {
	event  Event
	timing Timed
}

func (e *Engine) layoutDay(dayIndex int, w Window, timed []timedEvent, allDay []Event) DayLayout {
	day := DayLayout{
		Window:     w,
		DayIndex:   dayIndex,
		AllDay:     make([]Event, 0),
		Positioned: make([]PositionedEvent, 0),
	}

	for _, ev := range allDay {
		if ev.Timing.(AllDay).coversDate(w.Date) {
			day.AllDay = append(day.AllDay, ev)
		}
	}

	clipped := make([]ClippedEvent, 0, len(timed))
	for _, te := range timed {
		seg, ok := Clip(te.timing, w)
		if !ok {
			continue
		}
		clipped = append(clipped, ClippedEvent{Event: te.event, Segment: seg})
	}
	if len(clipped) == 0 {
		return day
	}

	packing := Pack(clipped)
	day.Columns = packing.Count
	for i, ce := range clipped {
		col := packing.Columns[i]
		day.Positioned = append(day.Positioned, PositionedEvent{
			Event:       ce.Event,
			Segment:     ce.Segment,
			DayIndex:    dayIndex,
			ColumnIndex: col,
			Box:         Position(ce.Segment, col, packing.Count, w, e.opts),
		})
	}
	sort.SliceStable(day.Positioned, func(a, b int) bool {
		return day.Positioned[a].Segment.Start.Before(day.Positioned[b].Segment.Start)
	})
	return day
}

// partition splits events into timed and all-day ones and drops malformed
// entries. The all-day list comes back sorted for display.
func partition(events []Event) ([]timedEvent, []Event, []Diagnostic) {
	var (
		timed  []timedEvent
		allDay []Event
		diags  []Diagnostic
	)
	reject := func(ev Event, err error) {
		diags = append(diags, Diagnostic{EventID: ev.ID, Title: ev.Title, Err: err})
	}

	for _, ev := range events {
		switch t := ev.Timing.(type) {
		case Timed:
			switch {
			case t.Start.IsZero() || t.End.IsZero():
				reject(ev, ErrMissingInstant)
			case t.End.Before(t.Start):
				reject(ev, ErrInvertedInterval)
			default:
				timed = append(timed, timedEvent{event: ev, timing: t})
			}
		case AllDay:
			switch {
			case t.First.IsZero() || t.Last.IsZero():
				reject(ev, ErrMissingInstant)
			case dateOf(t.Last, time.UTC).Before(dateOf(t.First, time.UTC)):
				reject(ev, ErrInvertedInterval)
			default:
				allDay = append(allDay, ev)
			}
		default:
			reject(ev, ErrMissingTiming)
		}
	}

	sort.SliceStable(allDay, func(i, j int) bool {
		a, b := allDay[i], allDay[j]
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		af, bf := a.Timing.(AllDay).First, b.Timing.(AllDay).First
		if !af.Equal(bf) {
			return af.Before(bf)
		}
		return a.ID < b.ID
	})
	return timed, allDay, diags
}
