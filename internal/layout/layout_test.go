package layout

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"taskcal/internal/model"
)

func dayWindow(y int, m time.Month, d int) Window {
	return NewWindow(at(y, m, d, 0, 0), DefaultHours)
}

// 2024-06-10 is a Monday.
func testWeek() [DaysPerWeek]Window {
	return WeekWindows(at(2024, 6, 10, 0, 0), DefaultHours, time.Monday)
}

func TestLayoutSingleTaskDayView(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "Report", Due: "2024-06-10"}}
	res := New(Options{}).LayoutTasks(tasks, time.UTC, []Window{dayWindow(2024, 6, 10)}, nil)

	if len(res.Days) != 1 {
		t.Fatalf("expected one day, got %d", len(res.Days))
	}
	day := res.Days[0]
	if len(day.Positioned) != 1 || day.Columns != 1 {
		t.Fatalf("expected one positioned event in one column, got %d/%d", len(day.Positioned), day.Columns)
	}
	pe := day.Positioned[0]
	if !pe.Segment.Start.Equal(at(2024, 6, 10, 7, 0)) || !pe.Segment.End.Equal(at(2024, 6, 10, 17, 0)) {
		t.Fatalf("unexpected segment [%s, %s)", pe.Segment.Start, pe.Segment.End)
	}
	if !approx(pe.Top, 0) || !approx(pe.Height, 10.0/14*100) || !approx(pe.Width, 100) || !approx(pe.Left, 0) {
		t.Fatalf("unexpected box %+v", pe.Box)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics)
	}
}

func TestLayoutIdenticalTasksSplitColumns(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "A", Due: "2024-06-10"},
		{ID: "b", Title: "B", Due: "2024-06-10"},
	}
	res := New(Options{}).LayoutTasks(tasks, time.UTC, []Window{dayWindow(2024, 6, 10)}, nil)
	day := res.Days[0]
	if day.Columns != 2 || len(day.Positioned) != 2 {
		t.Fatalf("expected 2 columns and 2 events, got %d/%d", day.Columns, len(day.Positioned))
	}
	for i, id := range []string{"a", "b"} {
		pe := day.Positioned[i]
		if pe.Event.ID != id || pe.ColumnIndex != i {
			t.Fatalf("expected %s in column %d, got %s in %d", id, i, pe.Event.ID, pe.ColumnIndex)
		}
		if !approx(pe.Width, 50) || !approx(pe.Left, float64(i)*50) {
			t.Fatalf("unexpected box for %s: %+v", id, pe.Box)
		}
	}
}

func TestLayoutWeekClipsSpanningTask(t *testing.T) {
	tasks := []model.Task{{ID: "span", Title: "Sprint", Start: "2024-06-10", Due: "2024-06-12"}}
	eng := New(Options{})
	events, diags := NormalizeAll(tasks, time.UTC)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
	res := eng.LayoutWeek(events, testWeek(), nil)

	want := []Segment{
		{at(2024, 6, 10, 9, 0), at(2024, 6, 10, 21, 0)},
		{at(2024, 6, 11, 7, 0), at(2024, 6, 11, 21, 0)},
		{at(2024, 6, 12, 7, 0), at(2024, 6, 12, 17, 0)},
	}
	for i, day := range res.Days {
		if day.DayIndex != i {
			t.Fatalf("expected day index %d, got %d", i, day.DayIndex)
		}
		if i >= len(want) {
			if len(day.Positioned) != 0 {
				t.Fatalf("day %d: expected no events, got %d", i, len(day.Positioned))
			}
			continue
		}
		if len(day.Positioned) != 1 {
			t.Fatalf("day %d: expected one segment, got %d", i, len(day.Positioned))
		}
		pe := day.Positioned[0]
		if !pe.Segment.Start.Equal(want[i].Start) || !pe.Segment.End.Equal(want[i].End) {
			t.Fatalf("day %d: expected %v, got %v", i, want[i], pe.Segment)
		}
		if pe.DayIndex != i || pe.ColumnIndex != 0 {
			t.Fatalf("day %d: unexpected placement day=%d column=%d", i, pe.DayIndex, pe.ColumnIndex)
		}
	}
	if tue := res.Days[1].Positioned[0]; !approx(tue.Top, 0) || !approx(tue.Height, 100) {
		t.Fatalf("expected full-height tuesday box, got %+v", tue.Box)
	}
}

func TestLayoutWeekPacksDaysIndependently(t *testing.T) {
	events := []Event{
		{ID: "long", Timing: Timed{at(2024, 6, 10, 9, 0), at(2024, 6, 11, 12, 0)}},
		{ID: "mon", Timing: Timed{at(2024, 6, 10, 10, 0), at(2024, 6, 10, 11, 0)}},
		// Starts exactly where the long event's tuesday segment ends.
		{ID: "tue", Timing: Timed{at(2024, 6, 11, 12, 0), at(2024, 6, 11, 13, 0)}},
	}
	res := New(Options{}).LayoutWeek(events, testWeek(), nil)

	if res.Days[0].Columns != 2 {
		t.Fatalf("monday: expected 2 columns, got %d", res.Days[0].Columns)
	}
	if res.Days[1].Columns != 1 {
		t.Fatalf("tuesday: expected 1 column, got %d", res.Days[1].Columns)
	}
	for _, pe := range res.Days[1].Positioned {
		if pe.ColumnIndex != 0 || !approx(pe.Width, 100) {
			t.Fatalf("tuesday: expected full-width column 0, got %+v", pe)
		}
	}
}

func TestLayoutUnparseableStartKeepsTask(t *testing.T) {
	tasks := []model.Task{{ID: "x", Due: "2024-06-10", Start: "2024-13-45"}}
	res := New(Options{}).LayoutTasks(tasks, time.UTC, []Window{dayWindow(2024, 6, 9)}, nil)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics)
	}
	day := res.Days[0]
	if len(day.Positioned) != 1 || !day.Positioned[0].Segment.Start.Equal(at(2024, 6, 9, 9, 0)) {
		t.Fatalf("expected fallback start on the day before due, got %+v", day.Positioned)
	}
}

func TestLayoutNowMarker(t *testing.T) {
	eng := New(Options{})

	outside := at(2024, 6, 20, 12, 0)
	res := eng.LayoutWeek(nil, testWeek(), &outside)
	if res.Now != nil {
		t.Fatalf("expected no marker, got %+v", res.Now)
	}
	for i, day := range res.Days {
		if day.NowPct != nil {
			t.Fatalf("day %d: expected no marker, got %v", i, *day.NowPct)
		}
	}

	inside := at(2024, 6, 11, 14, 0)
	res = eng.LayoutWeek(nil, testWeek(), &inside)
	if res.Now == nil || res.Now.DayIndex != 1 || !approx(res.Now.OffsetPct, 50) {
		t.Fatalf("expected marker on tuesday at 50%%, got %+v", res.Now)
	}
	for i, day := range res.Days {
		if (day.NowPct != nil) != (i == 1) {
			t.Fatalf("day %d: unexpected marker state", i)
		}
	}

	// Before the visible hours of today there is no marker either.
	early := at(2024, 6, 11, 6, 0)
	if res = eng.LayoutWeek(nil, testWeek(), &early); res.Now != nil {
		t.Fatalf("expected no marker before window start, got %+v", res.Now)
	}
}

func TestStampNowDoesNotTouchOriginal(t *testing.T) {
	eng := New(Options{})
	base := eng.LayoutWeek(nil, testWeek(), nil)
	now := at(2024, 6, 12, 10, 30)
	stamped := StampNow(base, &now)
	if stamped.Now == nil || stamped.Now.DayIndex != 2 {
		t.Fatalf("expected marker on day 2, got %+v", stamped.Now)
	}
	if base.Now != nil || base.Days[2].NowPct != nil {
		t.Fatalf("expected original result to stay unmarked")
	}
	if cleared := StampNow(stamped, nil); cleared.Now != nil || cleared.Days[2].NowPct != nil {
		t.Fatalf("expected marker to be cleared")
	}
}

func TestLayoutEmptyInput(t *testing.T) {
	eng := New(Options{})
	day := eng.LayoutDay(nil, dayWindow(2024, 6, 10), nil)
	week := eng.LayoutWeek([]Event{}, testWeek(), nil)

	for _, res := range []Result{day, week} {
		if len(res.Diagnostics) != 0 {
			t.Fatalf("expected no diagnostics, got %v", res.Diagnostics)
		}
		for _, d := range res.Days {
			if d.Positioned == nil || d.AllDay == nil || len(d.Positioned) != 0 || len(d.AllDay) != 0 || d.Columns != 0 {
				t.Fatalf("expected empty non-nil day, got %+v", d)
			}
		}
	}
	if len(day.Days) != 1 || len(week.Days) != DaysPerWeek {
		t.Fatalf("unexpected day counts %d/%d", len(day.Days), len(week.Days))
	}
}

func TestLayoutDiagnostics(t *testing.T) {
	tasks := []model.Task{
		{ID: "ok", Due: "2024-06-10"},
		{ID: "nodue", Title: "No due"},
		{ID: "bad", Due: "June"},
	}
	eng := New(Options{})
	res := eng.LayoutTasks(tasks, time.UTC, []Window{dayWindow(2024, 6, 10)}, nil)
	if len(res.Days[0].Positioned) != 1 {
		t.Fatalf("expected the valid task to be laid out")
	}
	if len(res.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", res.Diagnostics)
	}

	events := []Event{
		{ID: "zero", Timing: Timed{End: at(2024, 6, 10, 9, 0)}},
		{ID: "inverted", Timing: Timed{at(2024, 6, 10, 12, 0), at(2024, 6, 10, 11, 0)}},
		{ID: "none"},
		{ID: "inverted-allday", Timing: AllDay{at(2024, 6, 11, 0, 0), at(2024, 6, 10, 0, 0)}},
		{ID: "fine", Timing: Timed{at(2024, 6, 10, 9, 0), at(2024, 6, 10, 10, 0)}},
	}
	res = eng.LayoutDay(events, dayWindow(2024, 6, 10), nil)
	wantErrs := []error{ErrMissingInstant, ErrInvertedInterval, ErrMissingTiming, ErrInvertedInterval}
	if len(res.Diagnostics) != len(wantErrs) {
		t.Fatalf("expected %d diagnostics, got %v", len(wantErrs), res.Diagnostics)
	}
	for i, want := range wantErrs {
		if !errors.Is(res.Diagnostics[i], want) {
			t.Fatalf("diagnostic %d: expected %v, got %v", i, want, res.Diagnostics[i])
		}
	}
	if len(res.Days[0].Positioned) != 1 || res.Days[0].Positioned[0].Event.ID != "fine" {
		t.Fatalf("expected only the valid event, got %+v", res.Days[0].Positioned)
	}
}

func TestLayoutZeroDurationEvent(t *testing.T) {
	events := []Event{{ID: "ping", Timing: Timed{at(2024, 6, 10, 12, 0), at(2024, 6, 10, 12, 0)}}}
	res := New(Options{MinHeightPct: 4}).LayoutDay(events, dayWindow(2024, 6, 10), nil)
	if len(res.Days[0].Positioned) != 1 {
		t.Fatalf("expected zero-length event to be kept")
	}
	if h := res.Days[0].Positioned[0].Height; !approx(h, 4) {
		t.Fatalf("expected minimum height 4, got %v", h)
	}
}

func TestLayoutAllDay(t *testing.T) {
	tasks := []model.Task{
		{ID: "2", Title: "Vacation", Start: "2024-06-11", Due: "2024-06-13", AllDay: true},
		{ID: "1", Title: "Holiday", Due: "2024-06-11", AllDay: true},
		{ID: "3", Title: "Timed", Due: "2024-06-11"},
	}
	week := testWeek()
	res := New(Options{}).LayoutTasks(tasks, time.UTC, week[:], nil)

	wantAllDay := [][]string{
		{},
		{"1", "2"},
		{"2"},
		{"2"},
		{}, {}, {},
	}
	for i, day := range res.Days {
		var got []string
		for _, ev := range day.AllDay {
			got = append(got, ev.ID)
		}
		if len(got) != len(wantAllDay[i]) {
			t.Fatalf("day %d: expected all-day %v, got %v", i, wantAllDay[i], got)
		}
		for j := range got {
			if got[j] != wantAllDay[i][j] {
				t.Fatalf("day %d: expected all-day %v, got %v", i, wantAllDay[i], got)
			}
		}
		for _, pe := range day.Positioned {
			if _, ok := pe.Event.Timing.(AllDay); ok {
				t.Fatalf("day %d: all-day event %s leaked into the grid", i, pe.Event.ID)
			}
		}
	}
	if len(res.Days[0].Positioned) != 1 || len(res.Days[1].Positioned) != 1 {
		t.Fatalf("expected the timed task on monday and tuesday")
	}
}

// randomWeekEvents returns n timed events with positive durations spread over
// the test week, some of them crossing midnight.
func randomWeekEvents(rng *rand.Rand, n int) []Event {
	events := make([]Event, n)
	for i := range events {
		day := rng.Intn(DaysPerWeek)
		startMin := 5*60 + rng.Intn(18*60/15)*15
		dur := 15 * (1 + rng.Intn(40))
		start := at(2024, 6, 10+day, 0, 0).Add(time.Duration(startMin) * time.Minute)
		events[i] = Event{
			ID:     string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Timing: Timed{Start: start, End: start.Add(time.Duration(dur) * time.Minute)},
		}
	}
	return events
}

func maxActive(segs []Segment) int {
	best := 0
	for _, s := range segs {
		n := 0
		for _, o := range segs {
			if !o.Start.After(s.Start) && o.End.After(s.Start) {
				n++
			}
		}
		if n > best {
			best = n
		}
	}
	return best
}

func TestLayoutProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	eng := New(Options{GutterPct: 1})
	windows := testWeek()

	for round := 0; round < 50; round++ {
		events := randomWeekEvents(rng, 1+rng.Intn(30))
		res := eng.LayoutWeek(events, windows, nil)

		if again := eng.LayoutWeek(events, windows, nil); !reflect.DeepEqual(res, again) {
			t.Fatalf("round %d: layout is not deterministic", round)
		}

		for i, day := range res.Days {
			w := windows[i]

			// Every event with a segment on this day shows up exactly once.
			want := map[string]int{}
			for _, ev := range events {
				if _, ok := Clip(ev.Timing.(Timed), w); ok {
					want[ev.ID]++
				}
			}
			got := map[string]int{}
			segs := make([]Segment, 0, len(day.Positioned))
			for _, pe := range day.Positioned {
				got[pe.Event.ID]++
				segs = append(segs, pe.Segment)
			}
			if !reflect.DeepEqual(want, got) {
				t.Fatalf("round %d day %d: expected events %v, got %v", round, i, want, got)
			}

			// No two events in a column overlap.
			for a := range day.Positioned {
				for b := a + 1; b < len(day.Positioned); b++ {
					pa, pb := day.Positioned[a], day.Positioned[b]
					if pa.ColumnIndex == pb.ColumnIndex && pa.Segment.Overlaps(pb.Segment) {
						t.Fatalf("round %d day %d: %s and %s collide in column %d", round, i, pa.Event.ID, pb.Event.ID, pa.ColumnIndex)
					}
				}
			}

			// Columns are dense and minimal.
			if day.Columns != maxActive(segs) {
				t.Fatalf("round %d day %d: expected %d columns, got %d", round, i, maxActive(segs), day.Columns)
			}
			used := map[int]bool{}
			for _, pe := range day.Positioned {
				used[pe.ColumnIndex] = true
			}
			for c := 0; c < day.Columns; c++ {
				if !used[c] {
					t.Fatalf("round %d day %d: column %d unused", round, i, c)
				}
			}

			// Boxes stay inside the window.
			for _, pe := range day.Positioned {
				b := pe.Box
				if b.Top < 0 || b.Top+b.Height > 100+1e-9 || b.Height < eng.Options().MinHeightPct-1e-9 {
					t.Fatalf("round %d day %d: vertical bounds broken %+v", round, i, b)
				}
				if b.Left < 0 || b.Width <= 0 || b.Width > 100 || b.Left+b.Width > 100+1e-9 {
					t.Fatalf("round %d day %d: horizontal bounds broken %+v", round, i, b)
				}
				if pe.DayIndex != i {
					t.Fatalf("round %d day %d: wrong day index %d", round, i, pe.DayIndex)
				}
			}
		}
	}
}
