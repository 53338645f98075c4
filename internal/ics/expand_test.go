package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var utc = time.UTC

func window(start, end string) (time.Time, time.Time) {
	s, _ := time.ParseInLocation("2006-01-02", start, utc)
	e, _ := time.ParseInLocation("2006-01-02", end, utc)
	return s, e.Add(24*time.Hour - time.Second)
}

func TestExpandSingleEvent(t *testing.T) {
	start, end := window("2019-01-01", "2019-01-31")
	entries := []Entry{{
		Source:  Source{ID: "src", Name: "Team"},
		UID:     "ev-1",
		Summary: "Standup",
		Start:   time.Date(2019, 1, 15, 10, 0, 0, 0, utc),
		End:     time.Date(2019, 1, 15, 10, 30, 0, 0, utc),
	}}

	records, err := Expand(entries, ExpandConfig{Location: utc, RangeStart: start, RangeEnd: end})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "2019-01-15 10:00", records[0]["start"])
	require.Equal(t, "2019-01-15 10:30", records[0]["end"])
	require.Equal(t, true, records[0]["timed"])
	require.Equal(t, "Team", records[0]["category"])
	require.Equal(t, "Standup", records[0]["name"])
}

func TestExpandSkipsEventOutsideWindow(t *testing.T) {
	start, end := window("2019-02-01", "2019-02-28")
	entries := []Entry{{
		Source: Source{ID: "src"},
		UID:    "ev-1",
		Start:  time.Date(2019, 1, 15, 10, 0, 0, 0, utc),
		End:    time.Date(2019, 1, 15, 11, 0, 0, 0, utc),
	}}

	records, err := Expand(entries, ExpandConfig{Location: utc, RangeStart: start, RangeEnd: end})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestExpandAllDayPullsBackExclusiveEnd(t *testing.T) {
	start, end := window("2019-01-01", "2019-01-31")
	entries := []Entry{{
		Source: Source{ID: "src"},
		UID:    "ev-1",
		Start:  time.Date(2019, 1, 16, 0, 0, 0, 0, utc),
		End:    time.Date(2019, 1, 17, 0, 0, 0, 0, utc),
		AllDay: true,
	}}

	records, err := Expand(entries, ExpandConfig{Location: utc, RangeStart: start, RangeEnd: end})
	require.NoError(t, err)
	require.Len(t, records, 1)
	// The iCalendar DTEND is exclusive: a one-day event starts and ends
	// on the same date in the raw record.
	require.Equal(t, "2019-01-16", records[0]["start"])
	require.Equal(t, "2019-01-16", records[0]["end"])
	require.Equal(t, false, records[0]["timed"])
}

func TestExpandWeeklyRecurrence(t *testing.T) {
	start, end := window("2019-01-01", "2019-01-31")
	entries := []Entry{{
		Source:   Source{ID: "src"},
		UID:      "ev-1",
		Summary:  "Weekly sync",
		Start:    time.Date(2019, 1, 1, 10, 0, 0, 0, utc),
		End:      time.Date(2019, 1, 1, 11, 0, 0, 0, utc),
		RawRRule: "FREQ=WEEKLY;COUNT=4",
	}}

	records, err := Expand(entries, ExpandConfig{Location: utc, RangeStart: start, RangeEnd: end})
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "2019-01-01 10:00", records[0]["start"])
	require.Equal(t, "2019-01-08 10:00", records[1]["start"])
	require.Equal(t, "2019-01-22 11:00", records[3]["end"])
}

func TestExpandAppliesExDates(t *testing.T) {
	start, end := window("2019-01-01", "2019-01-31")
	entries := []Entry{{
		Source:   Source{ID: "src"},
		UID:      "ev-1",
		Start:    time.Date(2019, 1, 1, 10, 0, 0, 0, utc),
		End:      time.Date(2019, 1, 1, 11, 0, 0, 0, utc),
		RawRRule: "FREQ=WEEKLY;COUNT=4",
		ExDates:  []time.Time{time.Date(2019, 1, 15, 10, 0, 0, 0, utc)},
	}}

	records, err := Expand(entries, ExpandConfig{Location: utc, RangeStart: start, RangeEnd: end})
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		require.NotEqual(t, "2019-01-15 10:00", r["start"])
	}
}

func TestExpandAppliesOverride(t *testing.T) {
	start, end := window("2019-01-01", "2019-01-31")
	rid := time.Date(2019, 1, 8, 10, 0, 0, 0, utc)
	entries := []Entry{
		{
			Source:   Source{ID: "src"},
			UID:      "ev-1",
			Summary:  "Weekly sync",
			Start:    time.Date(2019, 1, 1, 10, 0, 0, 0, utc),
			End:      time.Date(2019, 1, 1, 11, 0, 0, 0, utc),
			RawRRule: "FREQ=WEEKLY;COUNT=3",
		},
		{
			Source:     Source{ID: "src"},
			UID:        "ev-1",
			Summary:    "Moved sync",
			Start:      time.Date(2019, 1, 8, 14, 0, 0, 0, utc),
			End:        time.Date(2019, 1, 8, 15, 0, 0, 0, utc),
			Recurrence: &rid,
			IsOverride: true,
		},
	}

	records, err := Expand(entries, ExpandConfig{Location: utc, RangeStart: start, RangeEnd: end})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "2019-01-08 14:00", records[1]["start"])
	require.Equal(t, "Moved sync", records[1]["name"])
}

func TestExpandRejectsBackwardsWindow(t *testing.T) {
	_, err := Expand(nil, ExpandConfig{
		RangeStart: time.Date(2019, 2, 1, 0, 0, 0, 0, utc),
		RangeEnd:   time.Date(2019, 1, 1, 0, 0, 0, 0, utc),
	})
	require.Error(t, err)
}

func TestExpandOrdersRecordsByStart(t *testing.T) {
	start, end := window("2019-01-01", "2019-01-31")
	entries := []Entry{
		{Source: Source{ID: "src"}, UID: "b", Start: time.Date(2019, 1, 20, 9, 0, 0, 0, utc), End: time.Date(2019, 1, 20, 10, 0, 0, 0, utc)},
		{Source: Source{ID: "src"}, UID: "a", Start: time.Date(2019, 1, 10, 9, 0, 0, 0, utc), End: time.Date(2019, 1, 10, 10, 0, 0, 0, utc)},
	}

	records, err := Expand(entries, ExpandConfig{Location: utc, RangeStart: start, RangeEnd: end})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "a", records[0]["uid"])
	require.Equal(t, "b", records[1]["uid"])
}
