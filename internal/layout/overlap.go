package layout

import (
	"errors"
	"fmt"
	"sort"

	"calgrid/internal/event"
	"calgrid/internal/timestamp"
)

// OverlapFunc assigns non-overlapping visual slots to the events of one
// day. For all-day events it fills Column; for timed events it fills Left
// and Width as percentages of the day column. Implementations must be
// deterministic, must never hand two concurrently-overlapping timed events
// intersecting [Left, Left+Width) ranges, and must break start-time ties
// by original input index.
type OverlapFunc func(day *timestamp.Timestamp, events []*event.Event, timed bool, categoryMode bool) []Placement

// ErrUnknownOverlapMode is returned when a strategy name is not
// recognized. Failing fast beats silently rendering nothing.
var ErrUnknownOverlapMode = errors.New("unknown overlap mode")

// Strategy is a named-variant dispatch over overlap modes: the built-in
// "stack" and "column" strategies, or a caller-supplied function.
type Strategy struct {
	Name string
	Func OverlapFunc
}

// StrategyByName resolves a built-in strategy.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "stack":
		return Strategy{Name: name, Func: StackOverlap}, nil
	case "column":
		return Strategy{Name: name, Func: ColumnOverlap}, nil
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownOverlapMode, name)
}

// Custom wraps a caller-supplied overlap function.
func Custom(fn OverlapFunc) Strategy {
	return Strategy{Name: "custom", Func: fn}
}

// sortForLayout orders events by start identifier, longest span first on
// equal starts, and finally by input index so equal events keep the order
// they appeared in the raw input.
func sortForLayout(events []*event.Event) []*event.Event {
	sorted := make([]*event.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.StartIdentifier != b.StartIdentifier {
			return a.StartIdentifier < b.StartIdentifier
		}
		if a.EndIdentifier != b.EndIdentifier {
			return a.EndIdentifier > b.EndIdentifier
		}
		return a.Index < b.Index
	})
	return sorted
}

// overlaps reports whether two events occupy intersecting identifier
// ranges. Timed ranges are half-open so back-to-back events may share an
// edge; all-day ranges are inclusive on whole days.
func overlaps(a, b *event.Event, timed bool) bool {
	if timed {
		return a.StartIdentifier < b.EndIdentifier && b.StartIdentifier < a.EndIdentifier
	}
	return a.StartIdentifier <= b.EndIdentifier && b.StartIdentifier <= a.EndIdentifier
}

// assignColumns greedily packs events into the lowest column whose last
// occupant they do not overlap. Events that overlap nothing reuse column 0.
func assignColumns(sorted []*event.Event, timed bool) ([]int, int) {
	columns := make([]int, len(sorted))
	var last []*event.Event // last event placed per column

	for i, ev := range sorted {
		placed := false
		for c := range last {
			if !overlaps(last[c], ev, timed) {
				last[c] = ev
				columns[i] = c
				placed = true
				break
			}
		}
		if !placed {
			columns[i] = len(last)
			last = append(last, ev)
		}
	}
	return columns, len(last)
}

// ColumnOverlap divides the day into one uniform grid: every event gets
// width 100/N where N is the day's total column count.
func ColumnOverlap(day *timestamp.Timestamp, events []*event.Event, timed bool, categoryMode bool) []Placement {
	sorted := sortForLayout(events)
	columns, total := assignColumns(sorted, timed)

	out := make([]Placement, len(sorted))
	for i, ev := range sorted {
		out[i] = Placement{Event: ev, Day: *day, Column: columns[i]}
		if timed && total > 0 {
			width := 100.0 / float64(total)
			out[i].Left = float64(columns[i]) * width
			out[i].Width = width
		}
	}
	return out
}

// StackOverlap groups transitively-overlapping events into clusters and
// sizes each cluster independently, so an event with no concurrent
// neighbors keeps the full day width.
func StackOverlap(day *timestamp.Timestamp, events []*event.Event, timed bool, categoryMode bool) []Placement {
	sorted := sortForLayout(events)
	columns, _ := assignColumns(sorted, timed)

	// Cluster boundaries: a new cluster starts where an event overlaps
	// nothing placed before it in sort order.
	cluster := make([]int, len(sorted))
	clusterCols := map[int]int{}
	current := -1
	var clusterEnd int
	for i, ev := range sorted {
		past := ev.StartIdentifier > clusterEnd
		if timed {
			past = ev.StartIdentifier >= clusterEnd
		}
		if current < 0 || past {
			current = i
			clusterEnd = ev.EndIdentifier
		}
		if ev.EndIdentifier > clusterEnd {
			clusterEnd = ev.EndIdentifier
		}
		cluster[i] = current
		if columns[i]+1 > clusterCols[current] {
			clusterCols[current] = columns[i] + 1
		}
	}

	out := make([]Placement, len(sorted))
	for i, ev := range sorted {
		out[i] = Placement{Event: ev, Day: *day, Column: columns[i]}
		if timed {
			width := 100.0 / float64(clusterCols[cluster[i]])
			out[i].Left = float64(columns[i]) * width
			out[i].Width = width
		}
	}
	return out
}
