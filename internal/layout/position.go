package layout

// DefaultMinHeightPct keeps short and zero-length events clickable.
const DefaultMinHeightPct = 3.0

// Options tunes the position mapper.
type Options struct {
	// MinHeightPct is the smallest box height. Zero means DefaultMinHeightPct.
	MinHeightPct float64
	// GutterPct is subtracted from each column's width. It is ignored when it
	// would leave a column with no width.
	GutterPct float64
}

func (o Options) withDefaults() Options {
	if o.MinHeightPct <= 0 {
		o.MinHeightPct = DefaultMinHeightPct
	}
	if o.MinHeightPct > 100 {
		o.MinHeightPct = 100
	}
	if o.GutterPct < 0 {
		o.GutterPct = 0
	}
	return o
}

// Position converts a segment and its column into a box inside w.
// count is the number of columns in the day and must be at least 1.
func Position(seg Segment, column, count int, w Window, opts Options) Box {
	opts = opts.withDefaults()
	if count < 1 {
		count = 1
	}
	total := w.Minutes()
	ws := w.Start()

	top := clamp(seg.Start.Sub(ws).Minutes()/total*100, 0, 100)
	height := seg.Minutes() / total * 100
	if height < opts.MinHeightPct {
		height = opts.MinHeightPct
	}
	if top+height > 100 {
		// Pull the box up rather than shrink it below the minimum.
		top = clamp(100-height, 0, 100)
		height = 100 - top
	}

	slot := 100 / float64(count)
	width := slot
	if opts.GutterPct < slot {
		width = slot - opts.GutterPct
	}
	return Box{
		Top:    top,
		Height: height,
		Left:   float64(column) * slot,
		Width:  width,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
