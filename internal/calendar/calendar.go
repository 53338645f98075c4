// Package calendar resolves display modes into concrete visible date
// ranges and implements anchor navigation between them.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"calgrid/internal/event"
	"calgrid/internal/timestamp"
)

// Mode is a calendar display mode. Each mode maps to a range-resolution
// rule and a move increment.
type Mode string

const (
	ModeMonth        Mode = "month"
	ModeWeek         Mode = "week"
	ModeDay          Mode = "day"
	ModeFourDay      Mode = "4day"
	ModeCustomWeekly Mode = "custom-weekly"
	ModeCustomDaily  Mode = "custom-daily"
	ModeCategory     Mode = "category"
)

// ErrInvalidDisplayMode is returned for unrecognized mode values. It is
// fatal: no render shape can be chosen without a resolved range.
var ErrInvalidDisplayMode = errors.New("invalid display mode")

// Valid reports whether m is one of the known display modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeMonth, ModeWeek, ModeDay, ModeFourDay, ModeCustomWeekly, ModeCustomDaily, ModeCategory:
		return true
	}
	return false
}

// Options carries the configuration consulted during range resolution.
type Options struct {
	// Weekdays is the configured weekday list; its first entry doubles as
	// the first day of the week for week-mode alignment.
	Weekdays []int
	// MaxDays is the default day count for modes that do not fix their own.
	MaxDays int
	// Start and End are the explicit bounds for the custom modes; nil
	// falls back to the anchor.
	Start *timestamp.Timestamp
	End   *timestamp.Timestamp

	// CategoryDays is the number of day columns shown per category.
	CategoryDays int
	// Categories is the configured category list, in display order.
	Categories []string
	// CategoryShowAll keeps categories with zero matching events.
	CategoryShowAll bool
	// CategoryHideDynamic suppresses categories discovered from events.
	CategoryHideDynamic bool
	// CategoryForInvalid is the fallback label for events whose category
	// field is not a string. Empty means such events are skipped.
	CategoryForInvalid string
}

// Range is the resolved visible window handed to the layout engine and the
// (external) rendering layer.
type Range struct {
	Start      timestamp.Timestamp
	End        timestamp.Timestamp
	MaxDays    int
	Weekdays   []int
	Categories []string
}

// SameDates reports whether two ranges resolve to the same canonical start
// and end dates. Callers signal "range changed" only when the date strings
// actually differ, never on object identity.
func (r Range) SameDates(other Range) bool {
	return r.Start.Date == other.Start.Date && r.End.Date == other.End.Date
}

var defaultWeekdays = []int{0, 1, 2, 3, 4, 5, 6}

// Resolve computes the visible range for a mode and anchor. events are only
// consulted in category mode, for category-list resolution.
func Resolve(mode Mode, anchor timestamp.Timestamp, events []event.Event, opts Options) (Range, error) {
	weekdays := opts.Weekdays
	if len(weekdays) == 0 {
		weekdays = defaultWeekdays
	}
	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 7
	}

	out := Range{
		MaxDays:    maxDays,
		Weekdays:   weekdays,
		Categories: opts.Categories,
	}

	switch mode {
	case ModeMonth:
		out.Start = *timestamp.StartOfMonth(&anchor)
		out.End = *timestamp.EndOfMonth(&anchor)

	case ModeWeek:
		out.Start = *startOfWeek(&anchor, weekdays[0])
		end := timestamp.Copy(&out.Start)
		timestamp.RelativeDays(end, timestamp.NextDay, timestamp.DaysInWeek-1)
		out.End = *end
		out.MaxDays = timestamp.DaysInWeek

	case ModeDay:
		out.Start = anchor
		out.End = anchor
		out.MaxDays = 1
		out.Weekdays = []int{anchor.Weekday}

	case ModeFourDay:
		out.Start = anchor
		end := timestamp.Copy(&anchor)
		timestamp.RelativeDays(end, timestamp.NextDay, 3)
		out.End = *end
		out.MaxDays = 4
		out.Weekdays = fanOut(anchor.Weekday, 4)

	case ModeCustomWeekly, ModeCustomDaily:
		out.Start = anchor
		out.End = anchor
		if opts.Start != nil {
			out.Start = *opts.Start
		}
		if opts.End != nil {
			out.End = *opts.End
		}

	case ModeCategory:
		days := opts.CategoryDays
		if days <= 0 {
			days = 1
		}
		out.Start = anchor
		end := timestamp.Copy(&anchor)
		timestamp.RelativeDays(end, timestamp.NextDay, days-1)
		out.End = *end
		out.MaxDays = days
		out.Weekdays = fanOut(anchor.Weekday, days)
		out.Categories = resolveCategories(events, opts)

	default:
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidDisplayMode, mode)
	}

	return out, nil
}

// startOfWeek retreats from the anchor to the configured first weekday.
// At most six steps are ever needed.
func startOfWeek(anchor *timestamp.Timestamp, firstWeekday int) *timestamp.Timestamp {
	ts := timestamp.Copy(anchor)
	for ts.Weekday != firstWeekday {
		timestamp.PrevDay(ts)
	}
	return ts
}

func fanOut(weekday, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = (weekday + i) % timestamp.DaysInWeek
	}
	return out
}

type categoryEntry struct {
	index int
	count int
}

// resolveCategories builds the category column list for category mode.
// Configured categories seed the mapping in stable index order; events are
// scanned once to count members and, unless dynamic categories are hidden,
// to append newly seen names at the next index. Categories with zero
// members are dropped unless CategoryShowAll is set.
func resolveCategories(events []event.Event, opts Options) []string {
	entries := make(map[string]*categoryEntry, len(opts.Categories))
	order := make([]string, 0, len(opts.Categories))

	for _, name := range opts.Categories {
		if name == "" {
			continue
		}
		if _, ok := entries[name]; ok {
			continue
		}
		entries[name] = &categoryEntry{index: len(order)}
		order = append(order, name)
	}

	if !opts.CategoryHideDynamic || !opts.CategoryShowAll {
		for i := range events {
			ev := &events[i]
			name := opts.CategoryForInvalid
			if ev.Categorized {
				name = ev.Category
			}
			if name == "" {
				continue
			}
			if entry, ok := entries[name]; ok {
				entry.count++
				continue
			}
			if opts.CategoryHideDynamic {
				continue
			}
			entries[name] = &categoryEntry{index: len(order), count: 1}
			order = append(order, name)
		}
	}

	if opts.CategoryShowAll {
		return order
	}

	kept := order[:0:0]
	for _, name := range order {
		if entries[name].count > 0 {
			kept = append(kept, name)
		}
	}
	return kept
}

// Move advances the anchor by amount mode-sized steps and returns the new
// anchor. Negative amounts move backwards; zero is a no-op. Month steps
// first clamp to the month boundary and then advance one day, so moving
// forward from any day of January lands on February 1st regardless of
// month length.
//
// Derived weekday/formatted/relative fields are recomputed once after the
// loop rather than per intermediate step.
func Move(anchor timestamp.Timestamp, mode Mode, amount int, categoryDays int, now *timestamp.Timestamp) (timestamp.Timestamp, error) {
	if !mode.Valid() {
		return timestamp.Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidDisplayMode, mode)
	}

	moved := timestamp.Copy(&anchor)
	forward := amount > 0
	mover := timestamp.PrevDay
	monthLimit := func(ts *timestamp.Timestamp) int { return 1 }
	if forward {
		mover = timestamp.NextDay
		monthLimit = func(ts *timestamp.Timestamp) int { return timestamp.DaysInMonth(ts.Year, ts.Month) }
	}
	times := amount
	if times < 0 {
		times = -times
	}

	for ; times > 0; times-- {
		switch mode {
		case ModeMonth:
			moved.Day = monthLimit(moved)
			mover(moved)
		case ModeWeek, ModeCustomWeekly:
			timestamp.RelativeDays(moved, mover, timestamp.DaysInWeek)
		case ModeDay, ModeCustomDaily:
			timestamp.RelativeDays(moved, mover, 1)
		case ModeFourDay:
			timestamp.RelativeDays(moved, mover, 4)
		case ModeCategory:
			days := categoryDays
			if days <= 0 {
				days = 1
			}
			timestamp.RelativeDays(moved, mover, days)
		}
	}

	timestamp.UpdateWeekday(moved)
	timestamp.UpdateFormatted(moved)
	if now != nil {
		timestamp.UpdateRelative(moved, *now, moved.HasTime)
	}
	return *moved, nil
}

// MoveValue moves an anchor supplied in any accepted representation
// (canonical string, time.Time, epoch millis, or Timestamp) and returns
// the new anchor in the same representation family as the input.
func MoveValue(anchor any, mode Mode, amount int, categoryDays int, now *timestamp.Timestamp) (any, error) {
	ts, err := timestamp.Parse(anchor, true, now)
	if err != nil {
		return nil, err
	}
	moved, err := Move(ts, mode, amount, categoryDays, now)
	if err != nil {
		return nil, err
	}

	switch anchor.(type) {
	case string:
		return moved.Date, nil
	case time.Time:
		return timestamp.ToTime(&moved), nil
	case int:
		return int(timestamp.ToTime(&moved).UnixMilli()), nil
	case int64:
		return timestamp.ToTime(&moved).UnixMilli(), nil
	case float64:
		return float64(timestamp.ToTime(&moved).UnixMilli()), nil
	default:
		return moved, nil
	}
}

// Next and Prev are single-direction conveniences over Move.
func Next(anchor timestamp.Timestamp, mode Mode, amount int, categoryDays int, now *timestamp.Timestamp) (timestamp.Timestamp, error) {
	return Move(anchor, mode, amount, categoryDays, now)
}

func Prev(anchor timestamp.Timestamp, mode Mode, amount int, categoryDays int, now *timestamp.Timestamp) (timestamp.Timestamp, error) {
	return Move(anchor, mode, -amount, categoryDays, now)
}

// Watcher suppresses redundant range-change notifications. Changed reports
// true only when the resolved start or end date string actually differs
// from the last range it saw, never on mere object identity.
type Watcher struct {
	last *Range
}

func (w *Watcher) Changed(r Range) bool {
	if w.last != nil && w.last.SameDates(r) {
		return false
	}
	snapshot := r
	w.last = &snapshot
	return true
}
