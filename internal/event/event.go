package event

import (
	"errors"
	"fmt"

	"calgrid/internal/timestamp"
)

// Raw is one heterogeneous input record. Field names for start, end,
// category and timed-ness are configurable, and value types may be
// canonical strings, time.Time values or epoch-milliseconds numbers.
type Raw map[string]any

// Event is the canonical parsed representation of one calendar event.
// Events are created once per raw record and never mutated afterwards.
type Event struct {
	// Input points back at the original record for round-trip display.
	Input Raw
	// Index is the record's position in the raw slice, used as a stable
	// tie-break when start times are equal.
	Index int

	Start timestamp.Timestamp
	End   timestamp.Timestamp

	// StartIdentifier and EndIdentifier are day-resolution integers for
	// all-day events and minute-resolution integers for timed events, so
	// events compare by plain integer ordering. StartIdentifier is never
	// greater than EndIdentifier.
	StartIdentifier int
	EndIdentifier   int

	AllDay bool

	// Category is only meaningful when Categorized is true; it is resolved
	// exclusively in category display mode.
	Category    string
	Categorized bool
}

// ErrMissingEventStart is returned when a raw record lacks a resolvable
// start value. Malformed events fail loudly rather than silently dropping,
// since silent drops produce confusing "missing event" bugs.
var ErrMissingEventStart = errors.New("event start is missing or unparseable")

// Accessor extracts one field from a raw record. It is either named (a
// plain map key) or computed (a caller-supplied function); both resolve to
// a plain function once, at configuration time.
type Accessor struct {
	get func(Raw) any
}

// Named returns an Accessor reading the given map key.
func Named(field string) Accessor {
	return Accessor{get: func(r Raw) any { return r[field] }}
}

// Computed returns an Accessor backed by a caller-supplied function.
func Computed(fn func(Raw) any) Accessor {
	return Accessor{get: fn}
}

// Get applies the accessor. A zero Accessor always yields nil.
func (a Accessor) Get(r Raw) any {
	if a.get == nil {
		return nil
	}
	return a.get(r)
}

// Options configures a Parser.
type Options struct {
	// Start is required; End falls back to Start when it yields nothing.
	Start Accessor
	End   Accessor
	// Timed decides whether a record carries a meaningful time of day.
	// Records whose parsed timestamps carry no time are all-day regardless.
	Timed func(Raw) bool
	// Category extracts the record's category; consulted only when
	// CategoryMode is true.
	Category     Accessor
	CategoryMode bool
}

// Parser converts raw records into Events, memoizing the last parse by a
// content fingerprint of the raw slice rather than by slice identity.
type Parser struct {
	opts Options

	cacheKey string
	cached   []Event
}

func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// ParseAll parses every record in order. The result is cached; a later call
// with a slice of the same fingerprint returns the cached events.
func (p *Parser) ParseAll(raw []Raw) ([]Event, error) {
	key := fingerprint(raw, p.opts.Start)
	if p.cached != nil && key == p.cacheKey {
		return p.cached, nil
	}

	events := make([]Event, 0, len(raw))
	for i, r := range raw {
		ev, err := Parse(r, i, p.opts)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	p.cacheKey = key
	p.cached = events
	return events, nil
}

// fingerprint summarizes a raw slice by length plus its first and last
// start values. Cheap, and robust against the caller reusing one slice
// with different contents.
func fingerprint(raw []Raw, start Accessor) string {
	if len(raw) == 0 {
		return "0"
	}
	first := start.Get(raw[0])
	last := start.Get(raw[len(raw)-1])
	return fmt.Sprintf("%d|%v|%v", len(raw), first, last)
}

// Parse normalizes one raw record into an Event.
func Parse(raw Raw, index int, opts Options) (Event, error) {
	startVal := opts.Start.Get(raw)
	start, err := timestamp.Parse(startVal, true, nil)
	if err != nil {
		return Event{}, fmt.Errorf("%w: record %d", ErrMissingEventStart, index)
	}

	end := start
	if endVal := opts.End.Get(raw); endVal != nil {
		parsed, perr := timestamp.Parse(endVal, false, nil)
		if perr == nil && parsed.Date != "" {
			end = parsed
		}
	}

	timed := start.HasTime || end.HasTime
	if opts.Timed != nil {
		timed = timed && opts.Timed(raw)
	}

	ev := Event{
		Input:  raw,
		Index:  index,
		Start:  start,
		End:    end,
		AllDay: !timed,
	}

	if ev.AllDay {
		ev.StartIdentifier = timestamp.DayIdentifier(&ev.Start)
		ev.EndIdentifier = timestamp.DayIdentifier(&ev.End)
	} else {
		ev.StartIdentifier = timestamp.Identifier(&ev.Start)
		ev.EndIdentifier = timestamp.Identifier(&ev.End)
	}

	// A backwards record is swapped rather than rejected, so
	// StartIdentifier <= EndIdentifier always holds.
	if ev.EndIdentifier < ev.StartIdentifier {
		ev.Start, ev.End = ev.End, ev.Start
		ev.StartIdentifier, ev.EndIdentifier = ev.EndIdentifier, ev.StartIdentifier
	}

	if opts.CategoryMode {
		if s, ok := opts.Category.Get(raw).(string); ok {
			ev.Category = s
			ev.Categorized = true
		}
	}

	return ev, nil
}

// DaySpan reports whether the event covers the given day identifier.
func (e *Event) DaySpan(dayIdent int) bool {
	return e.StartDay() <= dayIdent && e.EndDay() >= dayIdent
}

// StartDay returns the day-resolution identifier of the event's start.
func (e *Event) StartDay() int {
	return timestamp.DayIdentifier(&e.Start)
}

// EndDay returns the day-resolution identifier of the event's end.
func (e *Event) EndDay() int {
	return timestamp.DayIdentifier(&e.End)
}

// IsMultiDay reports whether the event spans more than one calendar day.
func (e *Event) IsMultiDay() bool {
	return e.StartDay() < e.EndDay()
}
