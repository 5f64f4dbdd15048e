package layout

import "sort"

// Packing is the column assignment for one day's clipped events.
type Packing struct {
	// Columns[i] is the column of the i-th input event.
	Columns []int
	// Count is the number of columns used.
	Count int
}

// Pack assigns every clipped event to the lowest-indexed column holding no
// overlapping member. Events are visited by segment start; equal starts keep
// input order, so identical input always packs identically.
//
// Visiting by start time makes the column count equal to the largest number
// of events active at one instant.
func Pack(events []ClippedEvent) Packing {
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := events[order[a]], events[order[b]]
		if !ea.Segment.Start.Equal(eb.Segment.Start) {
			return ea.Segment.Start.Before(eb.Segment.Start)
		}
		return order[a] < order[b]
	})

	out := Packing{Columns: make([]int, len(events))}
	var columns [][]Segment
	for _, idx := range order {
		seg := events[idx].Segment
		col := firstFreeColumn(columns, seg)
		if col == len(columns) {
			columns = append(columns, nil)
		}
		columns[col] = append(columns[col], seg)
		out.Columns[idx] = col
	}
	out.Count = len(columns)
	return out
}

func firstFreeColumn(columns [][]Segment, seg Segment) int {
	for i, members := range columns {
		free := true
		for _, m := range members {
			if seg.Overlaps(m) {
				free = false
				break
			}
		}
		if free {
			return i
		}
	}
	return len(columns)
}
