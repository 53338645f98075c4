package timestamp

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Timestamp is the canonical calendar value used throughout the layout
// engine. Date arithmetic treats all values as UTC-anchored so that grid
// math never drifts across daylight-saving boundaries.
//
// The Date/Time strings and the Weekday field are derived from the numeric
// components. Code that mutates Year/Month/Day/Hour/Minute directly must
// call UpdateWeekday/UpdateFormatted afterwards; the model does not
// auto-derive.
type Timestamp struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	Weekday int    `json:"weekday"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	HasTime bool   `json:"hasTime"`
	Past    bool   `json:"past"`
	Present bool   `json:"present"`
	Future  bool   `json:"future"`
}

// ErrInvalidTimestamp is returned when a required timestamp input is absent
// or does not match the accepted date / date-time grammar.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

const (
	// MinutesInHour and friends keep identifier math readable.
	MinutesInHour = 60
	HoursInDay    = 24
	MinutesInDay  = MinutesInHour * HoursInDay
	DaysInWeek    = 7
)

// parseRegex accepts "YYYY-M[-D[ H[:MM]]]" with 1-2 digit month, day, hour
// and minute. The canonical serialization always zero-pads.
var parseRegex = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-(\d{1,2}))?(?:[ T](\d{1,2})(?::(\d{1,2}))?)?$`)

// Parse converts a flexible input into a Timestamp. Accepted inputs are a
// canonical string, a time.Time, or an epoch-milliseconds number (any Go
// integer or float type).
//
// When required is false, absent or malformed input yields a zero Timestamp
// and no error so that optional date fields can default silently. When
// required is true the caller gets ErrInvalidTimestamp instead of a
// silently-wrong zero value.
//
// now, if non-nil, is used to derive the Past/Present/Future flags.
func Parse(input any, required bool, now *Timestamp) (Timestamp, error) {
	var (
		ts Timestamp
		ok bool
	)

	switch v := input.(type) {
	case nil:
		ok = false
	case Timestamp:
		ts, ok = v, true
	case *Timestamp:
		if v != nil {
			ts, ok = *v, true
		}
	case string:
		ts, ok = parseString(v)
	case time.Time:
		ts, ok = fromTime(v), !v.IsZero()
	case int:
		ts, ok = fromTime(time.UnixMilli(int64(v)).UTC()), true
	case int64:
		ts, ok = fromTime(time.UnixMilli(v).UTC()), true
	case float64:
		ts, ok = fromTime(time.UnixMilli(int64(v)).UTC()), true
	default:
		ok = false
	}

	if !ok {
		if required {
			return Timestamp{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, input)
		}
		return Timestamp{}, nil
	}

	UpdateWeekday(&ts)
	UpdateFormatted(&ts)
	if now != nil {
		UpdateRelative(&ts, *now, ts.HasTime)
	}
	return ts, nil
}

// Validate reports whether the string matches the accepted date or
// date-time grammar, including component range checks.
func Validate(input string) bool {
	_, ok := parseString(input)
	return ok
}

func parseString(input string) (Timestamp, bool) {
	m := parseRegex.FindStringSubmatch(input)
	if m == nil {
		return Timestamp{}, false
	}

	ts := Timestamp{
		Year:  atoi(m[1]),
		Month: atoi(m[2]),
		Day:   1,
	}
	if m[3] != "" {
		ts.Day = atoi(m[3])
	}
	if m[4] != "" {
		ts.HasTime = true
		ts.Hour = atoi(m[4])
		if m[5] != "" {
			ts.Minute = atoi(m[5])
		}
	}

	if ts.Month < 1 || ts.Month > 12 {
		return Timestamp{}, false
	}
	if ts.Day < 1 || ts.Day > DaysInMonth(ts.Year, ts.Month) {
		return Timestamp{}, false
	}
	if ts.Hour > 23 || ts.Minute > 59 {
		return Timestamp{}, false
	}
	return ts, true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func fromTime(t time.Time) Timestamp {
	u := t.UTC()
	return Timestamp{
		Year:    u.Year(),
		Month:   int(u.Month()),
		Day:     u.Day(),
		Hour:    u.Hour(),
		Minute:  u.Minute(),
		HasTime: true,
	}
}

// Copy returns an independent scratch copy. Mutating helpers such as
// NextDay operate on the copy they are given and never alias caller state.
func Copy(ts *Timestamp) *Timestamp {
	out := *ts
	return &out
}

// NextDay advances ts by exactly one calendar day, rolling month and year
// boundaries. It mutates ts and returns it for chaining; pass a Copy when
// the original must survive.
func NextDay(ts *Timestamp) *Timestamp {
	ts.Day++
	if ts.Day > DaysInMonth(ts.Year, ts.Month) {
		ts.Day = 1
		ts.Month++
		if ts.Month > 12 {
			ts.Month = 1
			ts.Year++
		}
	}
	UpdateWeekday(ts)
	UpdateFormatted(ts)
	return ts
}

// PrevDay retreats ts by exactly one calendar day.
func PrevDay(ts *Timestamp) *Timestamp {
	ts.Day--
	if ts.Day < 1 {
		ts.Month--
		if ts.Month < 1 {
			ts.Month = 12
			ts.Year--
		}
		ts.Day = DaysInMonth(ts.Year, ts.Month)
	}
	UpdateWeekday(ts)
	UpdateFormatted(ts)
	return ts
}

// RelativeDays applies mover count times. Counts are always small (at most
// around a month), so a plain loop is fine.
func RelativeDays(ts *Timestamp, mover func(*Timestamp) *Timestamp, count int) *Timestamp {
	for count > 0 {
		mover(ts)
		count--
	}
	return ts
}

// UpdateWeekday recomputes the Weekday field from Year/Month/Day.
func UpdateWeekday(ts *Timestamp) *Timestamp {
	ts.Weekday = int(time.Date(ts.Year, time.Month(ts.Month), ts.Day, 0, 0, 0, 0, time.UTC).Weekday())
	return ts
}

// UpdateFormatted recomputes the canonical Date and Time strings from the
// numeric components. Recomputing an already-canonical value is a no-op.
func UpdateFormatted(ts *Timestamp) *Timestamp {
	ts.Time = ""
	ts.Date = fmt.Sprintf("%04d-%02d-%02d", ts.Year, ts.Month, ts.Day)
	if ts.HasTime {
		ts.Time = fmt.Sprintf("%02d:%02d", ts.Hour, ts.Minute)
		ts.Date += " " + ts.Time
	}
	return ts
}

// UpdateRelative recomputes the Past/Present/Future flags against now.
// When withTime is true the comparison is minute-resolution, otherwise two
// timestamps on the same calendar day count as present.
func UpdateRelative(ts *Timestamp, now Timestamp, withTime bool) *Timestamp {
	a := DayIdentifier(&now)
	b := DayIdentifier(ts)
	if withTime {
		a = a*10000 + TimeIdentifier(&now)
		b = b*10000 + TimeIdentifier(ts)
	}
	ts.Past = b < a
	ts.Present = b == a
	ts.Future = b > a
	return ts
}

// StartOfMonth returns a new Timestamp at day 1 of ts's month.
func StartOfMonth(ts *Timestamp) *Timestamp {
	out := Copy(ts)
	out.Day = 1
	UpdateWeekday(out)
	UpdateFormatted(out)
	return out
}

// EndOfMonth returns a new Timestamp at the last day of ts's month,
// respecting leap years.
func EndOfMonth(ts *Timestamp) *Timestamp {
	out := Copy(ts)
	out.Day = DaysInMonth(out.Year, out.Month)
	UpdateWeekday(out)
	UpdateFormatted(out)
	return out
}

// DaysInMonth returns the number of days in the given month under the
// proleptic Gregorian calendar.
func DaysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DayIdentifier encodes the calendar day as year*10000 + month*100 + day,
// which is monotonic with calendar order and allows O(1) comparisons.
func DayIdentifier(ts *Timestamp) int {
	return ts.Year*10000 + ts.Month*100 + ts.Day
}

// TimeIdentifier encodes the time of day as hour*100 + minute.
func TimeIdentifier(ts *Timestamp) int {
	return ts.Hour*100 + ts.Minute
}

// Identifier encodes day and time together at minute resolution, so two
// timed values on the same day still order correctly.
func Identifier(ts *Timestamp) int {
	return DayIdentifier(ts)*10000 + TimeIdentifier(ts)
}

// MinutesOfDay returns the minute offset from the day's midnight.
func MinutesOfDay(ts *Timestamp) int {
	return ts.Hour*MinutesInHour + ts.Minute
}

// DiffMinutes returns the signed minute difference b - a.
func DiffMinutes(a, b *Timestamp) int {
	days := daysBetween(a, b)
	return days*MinutesInDay + (MinutesOfDay(b) - MinutesOfDay(a))
}

func daysBetween(a, b *Timestamp) int {
	ta := time.Date(a.Year, time.Month(a.Month), a.Day, 0, 0, 0, 0, time.UTC)
	tb := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	return int(tb.Sub(ta) / (HoursInDay * time.Hour))
}

// ToTime converts ts into a UTC-anchored time.Time.
func ToTime(ts *Timestamp) time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day, ts.Hour, ts.Minute, 0, 0, time.UTC)
}

// Now returns the current instant as a Timestamp.
func Now() Timestamp {
	ts := fromTime(time.Now())
	UpdateWeekday(&ts)
	UpdateFormatted(&ts)
	return ts
}
