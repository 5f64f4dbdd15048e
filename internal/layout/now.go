package layout

import "time"

// NowMarker locates the current instant within a layout.
type NowMarker struct {
	DayIndex  int
	OffsetPct float64
}

// LocateNow returns how far now lies into w as a percentage of its height.
// ok is false when now is outside [w.Start, w.End).
func LocateNow(w Window, now time.Time) (offsetPct float64, ok bool) {
	if !w.Contains(now) {
		return 0, false
	}
	return now.Sub(w.Start()).Minutes() / w.Minutes() * 100, true
}

// StampNow returns a copy of r with the now-marker recomputed for now. The
// rest of the layout is shared with r, which lets callers memoise layouts and
// only refresh the marker.
func StampNow(r Result, now *time.Time) Result {
	days := make([]DayLayout, len(r.Days))
	copy(days, r.Days)
	r.Days = days
	r.Now = nil
	for i := range r.Days {
		r.Days[i].NowPct = nil
		if now == nil {
			continue
		}
		if pct, ok := LocateNow(r.Days[i].Window, *now); ok {
			r.Days[i].NowPct = &pct
			if r.Now == nil {
				r.Now = &NowMarker{DayIndex: i, OffsetPct: pct}
			}
		}
	}
	return r
}
