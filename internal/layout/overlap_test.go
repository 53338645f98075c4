package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"calgrid/internal/event"
	"calgrid/internal/timestamp"
)

func requireNoHorizontalCollision(t *testing.T, placements []Placement) {
	t.Helper()
	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			a, b := placements[i], placements[j]
			if !overlaps(a.Event, b.Event, true) {
				continue
			}
			disjoint := a.Left+a.Width <= b.Left || b.Left+b.Width <= a.Left
			require.True(t, disjoint,
				"events %d and %d overlap in time but share [%v,%v) and [%v,%v)",
				a.Event.Index, b.Event.Index, a.Left, a.Left+a.Width, b.Left, b.Left+b.Width)
		}
	}
}

func TestStrategyByName(t *testing.T) {
	stack, err := StrategyByName("stack")
	require.NoError(t, err)
	require.Equal(t, "stack", stack.Name)

	column, err := StrategyByName("column")
	require.NoError(t, err)
	require.Equal(t, "column", column.Name)

	_, err = StrategyByName("diagonal")
	require.ErrorIs(t, err, ErrUnknownOverlapMode)
}

func TestCustomStrategy(t *testing.T) {
	called := false
	s := Custom(func(day *timestamp.Timestamp, events []*event.Event, timed, categoryMode bool) []Placement {
		called = true
		return nil
	})
	require.Equal(t, "custom", s.Name)
	s.Func(nil, nil, false, false)
	require.True(t, called)
}

func TestTimedOverlapNonCollision(t *testing.T) {
	events := parseEvents(t, false,
		event.Raw{"start": "2019-01-15 10:00", "end": "2019-01-15 11:00"},
		event.Raw{"start": "2019-01-15 10:30", "end": "2019-01-15 11:30"},
	)
	day := mustParse(t, "2019-01-15")

	for _, fn := range []OverlapFunc{StackOverlap, ColumnOverlap} {
		placements := fn(&day, toPtrs(events), true, false)
		require.Len(t, placements, 2)
		requireNoHorizontalCollision(t, placements)

		require.Equal(t, 0.0, placements[0].Left)
		require.Equal(t, 50.0, placements[0].Width)
		require.Equal(t, 50.0, placements[1].Left)
		require.Equal(t, 50.0, placements[1].Width)
	}
}

func TestTimedOverlapDense(t *testing.T) {
	events := parseEvents(t, false,
		event.Raw{"start": "2019-01-15 09:00", "end": "2019-01-15 12:00"},
		event.Raw{"start": "2019-01-15 09:30", "end": "2019-01-15 10:30"},
		event.Raw{"start": "2019-01-15 10:00", "end": "2019-01-15 11:00"},
		event.Raw{"start": "2019-01-15 10:45", "end": "2019-01-15 11:45"},
		event.Raw{"start": "2019-01-15 13:00", "end": "2019-01-15 14:00"},
	)
	day := mustParse(t, "2019-01-15")

	for _, fn := range []OverlapFunc{StackOverlap, ColumnOverlap} {
		placements := fn(&day, toPtrs(events), true, false)
		require.Len(t, placements, 5)
		requireNoHorizontalCollision(t, placements)
	}
}

func TestStackUsesFullWidthForIsolatedEvents(t *testing.T) {
	events := parseEvents(t, false,
		event.Raw{"start": "2019-01-15 10:00", "end": "2019-01-15 11:00"},
		event.Raw{"start": "2019-01-15 10:30", "end": "2019-01-15 11:30"},
		event.Raw{"start": "2019-01-15 13:00", "end": "2019-01-15 14:00"},
	)
	day := mustParse(t, "2019-01-15")

	stacked := StackOverlap(&day, toPtrs(events), true, false)
	// The afternoon event overlaps nothing and keeps the full width.
	require.Equal(t, 100.0, stacked[2].Width)

	// Column mode sizes the whole day uniformly.
	columns := ColumnOverlap(&day, toPtrs(events), true, false)
	require.Equal(t, 50.0, columns[2].Width)
}

func TestOverlapTieBreakByIndex(t *testing.T) {
	events := parseEvents(t, false,
		event.Raw{"start": "2019-01-15 10:00", "end": "2019-01-15 11:00"},
		event.Raw{"start": "2019-01-15 10:00", "end": "2019-01-15 11:00"},
	)
	day := mustParse(t, "2019-01-15")

	placements := StackOverlap(&day, toPtrs(events), true, false)
	require.Equal(t, 0, placements[0].Event.Index)
	require.Equal(t, 0, placements[0].Column)
	require.Equal(t, 1, placements[1].Event.Index)
	require.Equal(t, 1, placements[1].Column)
}

func TestOverlapDeterministic(t *testing.T) {
	events := parseEvents(t, false,
		event.Raw{"start": "2019-01-15 10:00", "end": "2019-01-15 11:00"},
		event.Raw{"start": "2019-01-15 10:15", "end": "2019-01-15 10:45"},
		event.Raw{"start": "2019-01-15 10:30", "end": "2019-01-15 12:00"},
	)
	day := mustParse(t, "2019-01-15")

	first := StackOverlap(&day, toPtrs(events), true, false)
	second := StackOverlap(&day, toPtrs(events), true, false)
	require.Equal(t, first, second)
}

func TestAllDayColumnsDistinctOnlyWhenOverlapping(t *testing.T) {
	events := parseEvents(t, false,
		event.Raw{"start": "2019-01-14", "end": "2019-01-16"},
		event.Raw{"start": "2019-01-15", "end": "2019-01-17"},
		event.Raw{"start": "2019-01-18"},
	)
	day := mustParse(t, "2019-01-14")

	placements := StackOverlap(&day, toPtrs(events), false, false)
	require.Equal(t, 0, placements[0].Column)
	require.Equal(t, 1, placements[1].Column)
	// Disjoint from both: column 0 is reused.
	require.Equal(t, 0, placements[2].Column)
}

func TestTimedBackToBackShareColumn(t *testing.T) {
	events := parseEvents(t, false,
		event.Raw{"start": "2019-01-15 10:00", "end": "2019-01-15 11:00"},
		event.Raw{"start": "2019-01-15 11:00", "end": "2019-01-15 12:00"},
	)
	day := mustParse(t, "2019-01-15")

	placements := ColumnOverlap(&day, toPtrs(events), true, false)
	require.Equal(t, 0, placements[0].Column)
	require.Equal(t, 0, placements[1].Column)
	require.Equal(t, 100.0, placements[0].Width)
}
