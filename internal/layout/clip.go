package layout

// Clip returns the part of t inside w. ok is false when the event does not
// overlap the window at all.
func Clip(t Timed, w Window) (seg Segment, ok bool) {
	ws, we := w.Start(), w.End()
	if !t.End.After(ws) || !t.Start.Before(we) {
		return Segment{}, false
	}
	seg = Segment{Start: t.Start, End: t.End}
	if seg.Start.Before(ws) {
		seg.Start = ws
	}
	if seg.End.After(we) {
		seg.End = we
	}
	return seg, true
}
