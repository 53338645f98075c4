package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"calgrid/internal/calendar"
	"calgrid/internal/clock"
	"calgrid/internal/config"
	"calgrid/internal/event"
	"calgrid/internal/ics"
	"calgrid/internal/layout"
	appLog "calgrid/internal/log"
	"calgrid/internal/timestamp"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	mode       string
	anchor     string
	eventsPath string
	logLevel   string
}

// dayOutput is the per-day slice of the printed layout. In category mode
// one dayOutput is emitted per day and category column; Category is empty
// for the uncategorized bucket.
type dayOutput struct {
	Date     string            `json:"date"`
	Weekday  int               `json:"weekday"`
	Category string            `json:"category,omitempty"`
	AllDay   []placementOutput `json:"allDay,omitempty"`
	Timed    []placementOutput `json:"timed,omitempty"`
}

type placementOutput struct {
	Name      string  `json:"name"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	StartCell bool    `json:"startCell"`
	EndCell   bool    `json:"endCell"`
	Column    int     `json:"column"`
	Left      float64 `json:"left,omitempty"`
	Width     float64 `json:"width"`
	Filler    bool    `json:"filler,omitempty"`
}

type output struct {
	Mode       string      `json:"mode"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
	MaxDays    int         `json:"maxDays"`
	Weekdays   []int       `json:"weekdays"`
	Categories []string    `json:"categories,omitempty"`
	Days       []dayOutput `json:"days"`
}

func main() {
	flags := parseFlags()
	if flags.logLevel != "" {
		appLog.SetLevel(flags.logLevel)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.logLevel == "" {
		appLog.SetLevel(conf.LogLevel)
	}
	if flags.mode != "" {
		conf.Mode = flags.mode
	}
	mode := calendar.Mode(conf.Mode)

	nowProvider, err := clock.New(conf.RefreshCron)
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	now := nowProvider.Now()

	anchor := now
	if flags.anchor != "" {
		anchor, err = timestamp.Parse(flags.anchor, true, &now)
		if err != nil {
			appLog.Error("invalid anchor date", err, "anchor", flags.anchor)
			os.Exit(1)
		}
	}

	raw, err := collectRawEvents(conf, flags, mode, anchor)
	if err != nil {
		appLog.Error("failed to collect events", err)
		os.Exit(1)
	}

	parser := event.NewParser(event.Options{
		Start: event.Named(conf.Fields.Start),
		End:   event.Named(conf.Fields.End),
		Timed: func(r event.Raw) bool {
			timed, ok := r[conf.Fields.Timed].(bool)
			return !ok || timed
		},
		Category:     event.Named(conf.Fields.Category),
		CategoryMode: mode == calendar.ModeCategory,
	})
	events, err := parser.ParseAll(raw)
	if err != nil {
		appLog.Error("failed to parse events", err)
		os.Exit(1)
	}

	rng, err := calendar.Resolve(mode, anchor, events, calendar.Options{
		Weekdays:            conf.Weekdays,
		MaxDays:             conf.MaxDays,
		CategoryDays:        conf.Category.Days,
		Categories:          conf.Category.List,
		CategoryShowAll:     conf.Category.ShowAll,
		CategoryHideDynamic: conf.Category.HideDynamic,
		CategoryForInvalid:  conf.Category.ForInvalid,
	})
	if err != nil {
		appLog.Error("failed to resolve range", err, "mode", conf.Mode)
		os.Exit(1)
	}

	strategy, err := layout.StrategyByName(conf.OverlapMode)
	if err != nil {
		appLog.Error("failed to resolve overlap mode", err, "overlap_mode", conf.OverlapMode)
		os.Exit(1)
	}
	engine := &layout.Engine{
		Strategy:          strategy,
		CategoryMode:      mode == calendar.ModeCategory,
		FirstWeekday:      rng.Weekdays[0],
		MinHeight:         conf.MinEventHeight,
		SingleLineMinutes: conf.SingleLineMinutes,
	}

	out := render(engine, rng, events)
	out.Mode = conf.Mode

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		appLog.Error("failed to encode output", err)
		os.Exit(1)
	}
}

// collectRawEvents merges events from configured ICS sources and from an
// optional local JSON file.
func collectRawEvents(conf *config.Config, flags flagConfig, mode calendar.Mode, anchor timestamp.Timestamp) ([]event.Raw, error) {
	var raw []event.Raw

	if len(conf.ICS) > 0 {
		// Expand recurrences over a window generously padded around the
		// anchor month so every visible occurrence materializes.
		loc, err := time.LoadLocation(conf.Timezone)
		if err != nil {
			return nil, err
		}
		windowStart := timestamp.ToTime(timestamp.StartOfMonth(&anchor)).AddDate(0, -1, 0)
		windowEnd := timestamp.ToTime(timestamp.EndOfMonth(&anchor)).AddDate(0, 1, 0)

		sources := make([]ics.Source, 0, len(conf.ICS))
		for _, s := range conf.ICS {
			sources = append(sources, ics.Source{ID: s.ID, URL: s.URL, Name: s.Name})
		}

		fetcher := ics.NewFetcher("")
		results, errs := fetcher.FetchAll(context.Background(), sources)
		for _, ferr := range errs {
			appLog.Warn("ics source skipped", "reason", ferr.Error())
		}
		for _, res := range results {
			entries, perr := ics.ParseICS(res.Source, res.Body)
			if perr != nil {
				continue
			}
			records, xerr := ics.Expand(entries, ics.ExpandConfig{
				Location:   loc,
				RangeStart: windowStart,
				RangeEnd:   windowEnd,
			})
			if xerr != nil {
				return nil, xerr
			}
			raw = append(raw, records...)
		}
	}

	if flags.eventsPath != "" {
		data, err := os.ReadFile(flags.eventsPath)
		if err != nil {
			return nil, err
		}
		var fileEvents []event.Raw
		if err := json.Unmarshal(data, &fileEvents); err != nil {
			return nil, err
		}
		raw = append(raw, fileEvents...)
	}

	return raw, nil
}

// render walks the visible days in week-sized rows and produces the
// printed placements. Vertical geometry uses a flat minutes-to-pixels
// mapping with a 1440px day body, one pixel per minute.
func render(engine *layout.Engine, rng calendar.Range, events []event.Event) output {
	out := output{
		Start:      rng.Start.Date,
		End:        rng.End.Date,
		MaxDays:    rng.MaxDays,
		Weekdays:   rng.Weekdays,
		Categories: rng.Categories,
	}

	days := daysOf(rng)
	visible := layout.Visible(events, timestamp.DayIdentifier(&rng.Start), timestamp.DayIdentifier(&rng.End))

	timeToY := func(minutes int) float64 { return float64(minutes) }
	bodyHeight := float64(timestamp.MinutesInDay)

	// In category mode every day renders one column per resolved category
	// plus the uncategorized bucket; otherwise a single pass with the
	// match-everything bucket.
	cats := []layout.DayCategory{{}}
	if engine.CategoryMode {
		cats = cats[:0]
		for i := range rng.Categories {
			cats = append(cats, layout.DayCategory{Name: &rng.Categories[i]})
		}
		cats = append(cats, layout.DayCategory{})
	}

	for row := 0; row < len(days); row += timestamp.DaysInWeek {
		week := days[row:min(row+timestamp.DaysInWeek, len(days))]
		for i := range week {
			for _, cat := range cats {
				day := dayOutput{Date: week[i].Date, Weekday: week[i].Weekday}
				if cat.Name != nil {
					day.Category = *cat.Name
				}

				allDay := engine.AllDayPlacements(visible, week, i, cat)
				for _, p := range layout.PadDay(allDay) {
					day.AllDay = append(day.AllDay, toOutput(p))
				}
				timed := engine.TimedPlacements(visible, &week[i], cat, timeToY, bodyHeight)
				for _, p := range timed {
					day.Timed = append(day.Timed, toOutput(p))
				}

				out.Days = append(out.Days, day)
			}
		}
	}
	return out
}

func daysOf(rng calendar.Range) []timestamp.Timestamp {
	var days []timestamp.Timestamp
	cursor := timestamp.Copy(&rng.Start)
	last := timestamp.DayIdentifier(&rng.End)
	for timestamp.DayIdentifier(cursor) <= last {
		days = append(days, *cursor)
		cursor = timestamp.NextDay(timestamp.Copy(cursor))
	}
	return days
}

func toOutput(p layout.Placement) placementOutput {
	if p.Event == nil {
		return placementOutput{Column: p.Column, Filler: true}
	}
	name, _ := p.Event.Input["name"].(string)
	return placementOutput{
		Name:      name,
		Start:     p.Event.Start.Date,
		End:       p.Event.End.Date,
		StartCell: p.StartCell,
		EndCell:   p.EndCell,
		Column:    p.Column,
		Left:      p.Left,
		Width:     p.Width,
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./calgrid.yaml", "Path to config file")
	flag.StringVar(&cfg.mode, "mode", "", "Display mode (overrides config if set)")
	flag.StringVar(&cfg.anchor, "anchor", "", "Anchor date YYYY-MM-DD (default: today)")
	flag.StringVar(&cfg.eventsPath, "events", "", "Path to a JSON file of raw events")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Minimum log level (overrides config if set)")

	flag.Parse()

	return cfg
}
