// Package layout turns parsed events and a visible date window into
// per-day visual placement records. It computes which events are visible,
// which day-cell an event is drawn from, how wide a multi-day block spans
// within a week row, and where timed blocks sit vertically and
// horizontally inside a day column. Placements are ephemeral: every call
// recomputes them from scratch.
package layout

import (
	"sort"

	"calgrid/internal/event"
	"calgrid/internal/timestamp"
)

const (
	// widthStart is the span width of a single-day block inside a week
	// row; widthFull is added for every further day the block covers.
	widthStart = 95.0
	widthFull  = 100.0
)

// Placement is one visual slot for an event on a specific day.
//
// For all-day blocks Column is the 0-based stacking slot and Width the
// horizontal span across the week row. For timed blocks Left/Width are
// percentages of the day column and Top/Height pixel offsets from the
// caller's minutes-to-pixels mapping. StartCell/EndCell flag whether the
// block contains the event's true start or end (a block re-anchored to a
// window edge is not a start cell).
//
// A Placement with a nil Event is a filler inserted by PadDay.
type Placement struct {
	Event *event.Event
	Day   timestamp.Timestamp

	StartCell bool
	EndCell   bool

	Column int
	Left   float64
	Width  float64

	Top    float64
	Height float64
}

// TimeToY maps a minute-of-day offset to a pixel offset inside the day
// body. Provided by the rendering layer.
type TimeToY func(minutes int) float64

// Engine filters events against a window and produces placements using a
// pluggable overlap strategy.
type Engine struct {
	// Strategy assigns columns and horizontal slots to concurrent events.
	Strategy Strategy
	// CategoryMode disables week-row spanning and enables the category day
	// predicate.
	CategoryMode bool
	// FirstWeekday is the first weekday of the displayed week, used to
	// re-anchor multi-day events that enter through the window edge.
	FirstWeekday int
	// MinHeight is the minimum pixel height of a timed block.
	MinHeight float64
	// SingleLineMinutes is the start/end closeness threshold under which
	// an event label fits on one line. Zero means 60.
	SingleLineMinutes int
}

// SingleLine reports whether the event is short enough for its label to
// render on a single line.
func (e *Engine) SingleLine(ev *event.Event) bool {
	threshold := e.SingleLineMinutes
	if threshold <= 0 {
		threshold = timestamp.MinutesInHour
	}
	diff := timestamp.DiffMinutes(&ev.Start, &ev.End)
	if diff < 0 {
		diff = -diff
	}
	return diff <= threshold
}

// Visible filters events against an inclusive day-identifier window using
// the standard interval overlap test.
func Visible(events []event.Event, windowStart, windowEnd int) []*event.Event {
	out := make([]*event.Event, 0, len(events))
	for i := range events {
		ev := &events[i]
		if ev.EndDay() >= windowStart && ev.StartDay() <= windowEnd {
			out = append(out, ev)
		}
	}
	return out
}

// DayCategory identifies one category column of a day in category mode.
// A nil Name is the uncategorized bucket.
type DayCategory struct {
	Name *string
}

// matchesCategory applies the category predicate: everything matches when
// category mode is off; otherwise the event's category must equal the
// day's, or an event with no valid category lands in the uncategorized
// bucket.
func (e *Engine) matchesCategory(ev *event.Event, day DayCategory) bool {
	if !e.CategoryMode {
		return true
	}
	if day.Name == nil {
		return !ev.Categorized
	}
	return ev.Categorized && ev.Category == *day.Name
}

// startsOn reports whether day is the event's first visible day within the
// displayed week. Multi-day events whose true start precedes the window
// are re-anchored to the week's first weekday, so a block is still drawn
// at the window edge.
func (e *Engine) startsOn(ev *event.Event, day *timestamp.Timestamp) bool {
	ident := timestamp.DayIdentifier(day)
	if ev.StartDay() == ident {
		return true
	}
	return day.Weekday == e.FirstWeekday && ev.DaySpan(ident)
}

// EventsOn returns every visible event covering the given day, filtered by
// the day's category.
func (e *Engine) EventsOn(events []*event.Event, day *timestamp.Timestamp, cat DayCategory) []*event.Event {
	ident := timestamp.DayIdentifier(day)
	out := make([]*event.Event, 0, len(events))
	for _, ev := range events {
		if ev.DaySpan(ident) && e.matchesCategory(ev, cat) {
			out = append(out, ev)
		}
	}
	return out
}

// EventsStartingOn returns the events whose block is drawn from the given
// day: either the true start day or the week edge for events flowing in.
func (e *Engine) EventsStartingOn(events []*event.Event, day *timestamp.Timestamp, cat DayCategory) []*event.Event {
	out := make([]*event.Event, 0, len(events))
	for _, ev := range events {
		if e.startsOn(ev, day) && e.matchesCategory(ev, cat) {
			out = append(out, ev)
		}
	}
	return out
}

// AllDayPlacements lays out the all-day blocks drawn from week[dayIndex].
// Each block spans from its start cell across every further day of the
// week row it still covers; spanning is disabled in category mode. The
// overlap strategy assigns the stacking columns.
func (e *Engine) AllDayPlacements(events []*event.Event, week []timestamp.Timestamp, dayIndex int, cat DayCategory) []Placement {
	day := &week[dayIndex]
	covering := keep(e.EventsOn(events, day, cat), func(ev *event.Event) bool { return ev.AllDay })
	if len(covering) == 0 {
		return nil
	}

	// Columns are assigned over every event covering the day, not just the
	// ones drawn from it, so a block flowing in from an earlier start still
	// holds its slot and a later-starting event lands in a distinct column.
	placements := e.Strategy.Func(day, covering, false, e.CategoryMode)

	out := placements[:0:0]
	for _, p := range placements {
		if !e.startsOn(p.Event, day) {
			continue
		}
		p.Width, p.EndCell = e.spanWidth(p.Event, week, dayIndex)
		p.StartCell = p.Event.StartDay() == timestamp.DayIdentifier(day)
		out = append(out, p)
	}
	return out
}

// spanWidth walks the remaining days of the week row and extends the block
// for each one the event still covers. The returned flag reports whether
// the span reaches the event's true end.
func (e *Engine) spanWidth(ev *event.Event, week []timestamp.Timestamp, dayIndex int) (float64, bool) {
	if e.CategoryMode {
		return widthFull, ev.EndDay() <= timestamp.DayIdentifier(&week[dayIndex])
	}

	width := widthStart
	last := timestamp.DayIdentifier(&week[dayIndex])
	for i := dayIndex + 1; i < len(week); i++ {
		ident := timestamp.DayIdentifier(&week[i])
		if !ev.DaySpan(ident) {
			break
		}
		width += widthFull
		last = ident
	}
	return width, ev.EndDay() <= last
}

// TimedPlacements lays out the timed blocks of one day. Horizontal slots
// come from the overlap strategy; vertical geometry maps minute offsets
// through timeToY, clamping blocks that enter from a previous day to the
// top and blocks that continue past this day to bodyHeight.
func (e *Engine) TimedPlacements(events []*event.Event, day *timestamp.Timestamp, cat DayCategory, timeToY TimeToY, bodyHeight float64) []Placement {
	onDay := e.EventsOn(events, day, cat)
	onDay = keep(onDay, func(ev *event.Event) bool { return !ev.AllDay })
	if len(onDay) == 0 {
		return nil
	}

	placements := e.Strategy.Func(day, onDay, true, e.CategoryMode)
	ident := timestamp.DayIdentifier(day)
	for i := range placements {
		p := &placements[i]
		p.StartCell = p.Event.StartDay() == ident
		p.EndCell = p.Event.EndDay() == ident

		top := 0.0
		if p.StartCell {
			top = timeToY(timestamp.MinutesOfDay(&p.Event.Start))
		}
		bottom := bodyHeight
		if p.EndCell {
			bottom = timeToY(timestamp.MinutesOfDay(&p.Event.End))
		}
		p.Top = top
		p.Height = bottom - top
		if p.Height < e.MinHeight {
			p.Height = e.MinHeight
		}
	}
	return placements
}

func keep(events []*event.Event, pred func(*event.Event) bool) []*event.Event {
	out := events[:0:0]
	for _, ev := range events {
		if pred(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// PadDay inserts empty filler placements so every block of a week-row day
// lands at its assigned column index and later events align vertically
// across the row. Output is column-major.
func PadDay(placements []Placement) []Placement {
	sorted := make([]Placement, len(placements))
	copy(sorted, placements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Column < sorted[j].Column
	})

	out := make([]Placement, 0, len(sorted))
	for _, p := range sorted {
		for len(out) < p.Column {
			out = append(out, Placement{Day: p.Day, Column: len(out)})
		}
		out = append(out, p)
	}
	return out
}

// VisibleCount decides how many leading blocks of a day cell fit inside
// the cell's rendered height, and how many must be hidden behind a "+N
// more" indicator. heights lists the rendered block heights; entries that
// are zero fall back to eventHeight. The last block does not need room for
// the indicator, so its fit test uses the container bound directly.
//
// Zero or missing geometry is an expected transient state during initial
// render and means "show everything, hide nothing".
func VisibleCount(containerHeight float64, heights []float64, eventHeight, moreHeight float64) (visible, hidden int) {
	if containerHeight <= 0 || len(heights) == 0 {
		return len(heights), 0
	}

	top := 0.0
	for i, h := range heights {
		if h <= 0 {
			h = eventHeight
		}
		bound := containerHeight - moreHeight
		if i == len(heights)-1 {
			bound = containerHeight
		}
		if top+h > bound {
			return i, len(heights) - i
		}
		top += h
	}
	return len(heights), 0
}
