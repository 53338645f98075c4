package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"calgrid/internal/calendar"
	"calgrid/internal/event"
	"calgrid/internal/layout"
	"calgrid/internal/timestamp"
)

func TestRenderCategoryModeEmitsCategoryColumns(t *testing.T) {
	parser := event.NewParser(event.Options{
		Start:        event.Named("start"),
		End:          event.Named("end"),
		Category:     event.Named("category"),
		CategoryMode: true,
	})
	events, err := parser.ParseAll([]event.Raw{
		{"name": "standup", "start": "2019-01-15", "category": "Work"},
		{"name": "errand", "start": "2019-01-15"},
	})
	require.NoError(t, err)

	anchor, err := timestamp.Parse("2019-01-15", true, nil)
	require.NoError(t, err)
	rng, err := calendar.Resolve(calendar.ModeCategory, anchor, events, calendar.Options{
		CategoryDays: 1,
		Categories:   []string{"Work"},
	})
	require.NoError(t, err)

	strategy, err := layout.StrategyByName("stack")
	require.NoError(t, err)
	engine := &layout.Engine{
		Strategy:     strategy,
		CategoryMode: true,
		FirstWeekday: rng.Weekdays[0],
	}

	out := render(engine, rng, events)

	// One column per resolved category plus the uncategorized bucket.
	require.Len(t, out.Days, 2)

	work := out.Days[0]
	require.Equal(t, "Work", work.Category)
	require.Len(t, work.AllDay, 1)
	require.Equal(t, "standup", work.AllDay[0].Name)

	uncat := out.Days[1]
	require.Empty(t, uncat.Category)
	require.Len(t, uncat.AllDay, 1)
	require.Equal(t, "errand", uncat.AllDay[0].Name)
}

func TestRenderSingleBucketOutsideCategoryMode(t *testing.T) {
	parser := event.NewParser(event.Options{Start: event.Named("start"), End: event.Named("end")})
	events, err := parser.ParseAll([]event.Raw{
		{"name": "trip", "start": "2019-01-15", "end": "2019-01-16"},
	})
	require.NoError(t, err)

	anchor, err := timestamp.Parse("2019-01-15", true, nil)
	require.NoError(t, err)
	rng, err := calendar.Resolve(calendar.ModeDay, anchor, events, calendar.Options{})
	require.NoError(t, err)

	strategy, err := layout.StrategyByName("stack")
	require.NoError(t, err)
	engine := &layout.Engine{Strategy: strategy, FirstWeekday: rng.Weekdays[0]}

	out := render(engine, rng, events)
	require.Len(t, out.Days, 1)
	require.Empty(t, out.Days[0].Category)
	require.Len(t, out.Days[0].AllDay, 1)
	require.Equal(t, "trip", out.Days[0].AllDay[0].Name)
}
