package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"calgrid/internal/event"
	appLog "calgrid/internal/log"
)

const defaultMaxOccurrences = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Location is the timezone occurrences are normalized into before
	// being serialized. Nil means time.Local.
	Location *time.Location

	// RangeStart / RangeEnd bound the expansion window, inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps expansion per event to guard against runaway
	// rules. Zero means defaultMaxOccurrences.
	MaxOccurrences int
}

// Expand turns parsed entries into flat raw event records within the
// window, handling single events, RRULE recurrence, EXDATE exceptions and
// RECURRENCE-ID overrides. Records use the default parser field names
// (start/end/timed/category) plus name and uid for display, and are
// ordered by start so downstream indices are stable across runs.
func Expand(entries []Entry, cfg ExpandConfig) ([]event.Raw, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: range end is before range start")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	baseByUID := make(map[string][]Entry)
	overridesByUID := make(map[string][]Entry)
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsOverride && e.Recurrence != nil {
			overridesByUID[e.UID] = append(overridesByUID[e.UID], e)
			continue
		}
		if _, seen := baseByUID[e.UID]; !seen {
			order = append(order, e.UID)
		}
		baseByUID[e.UID] = append(baseByUID[e.UID], e)
	}

	var records []event.Raw
	for _, uid := range order {
		overrides := overridesByUID[uid]
		for _, e := range baseByUID[uid] {
			occ, truncated := expandEntry(e, overrides, cfg)
			if truncated {
				appLog.Warn("ics expand truncated", "uid", uid, "cap", cfg.MaxOccurrences)
			}
			records = append(records, occ...)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i]["start"].(string) < records[j]["start"].(string)
	})
	return records, nil
}

func expandEntry(e Entry, overrides []Entry, cfg ExpandConfig) ([]event.Raw, bool) {
	if e.RawRRule == "" {
		if e.End.Before(cfg.RangeStart) || e.Start.After(cfg.RangeEnd) {
			return nil, false
		}
		start, end := e.Start, e.End
		src := e
		if o, ok := overrideFor(overrides, start); ok {
			start, end, src = o.Start, o.End, o
		}
		return []event.Raw{record(src, start, end, cfg.Location)}, false
	}

	rule, err := rrule.StrToRRule(e.RawRRule)
	if err != nil {
		appLog.Warn("ics expand: bad RRULE", "uid", e.UID, "rrule", e.RawRRule)
		return nil, false
	}
	rule.DTStart(e.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	starts := set.Between(cfg.RangeStart.In(e.Start.Location()), cfg.RangeEnd.In(e.Start.Location()), true)
	truncated := false
	if len(starts) > cfg.MaxOccurrences {
		starts = starts[:cfg.MaxOccurrences]
		truncated = true
	}

	duration := e.End.Sub(e.Start)
	out := make([]event.Raw, 0, len(starts))
	for _, start := range starts {
		end := start.Add(duration)
		if e.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			start, end = day, day.Add(24*time.Hour)
		}
		src := e
		if o, ok := overrideFor(overrides, start); ok {
			start, end, src = o.Start, o.End, o
		}
		out = append(out, record(src, start, end, cfg.Location))
	}
	return out, truncated
}

// overrideFor matches a RECURRENCE-ID override against an occurrence start.
func overrideFor(overrides []Entry, start time.Time) (Entry, bool) {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.In(start.Location()).Equal(start) {
			return o, true
		}
	}
	return Entry{}, false
}

// record serializes one occurrence into the raw shape the event parser
// consumes. All-day occurrences get date-only strings; the nominal end of
// an exclusive all-day range is pulled back one day so a one-day event
// starts and ends on the same date.
func record(e Entry, start, end time.Time, loc *time.Location) event.Raw {
	start = start.In(loc)
	end = end.In(loc)

	raw := event.Raw{
		"uid":      e.UID,
		"name":     e.Summary,
		"timed":    !e.AllDay,
		"category": e.Source.Name,
	}
	if e.AllDay {
		if !end.After(start) {
			end = start
		} else {
			end = end.Add(-time.Minute)
		}
		raw["start"] = start.Format("2006-01-02")
		raw["end"] = end.Format("2006-01-02")
	} else {
		raw["start"] = start.Format("2006-01-02 15:04")
		raw["end"] = end.Format("2006-01-02 15:04")
	}
	return raw
}
