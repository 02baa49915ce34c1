package config

import (
	"fmt"
	"time"

	"github.com/railos/railsched/core/timetable"
	"github.com/railos/railsched/infra/logger"
)

// Instance assembles the normalized problem from the loaded file: network,
// fleet, the weather scenario active on the configured date, maintenance
// blocks and peak windows. Clamps and derivations worth knowing about are
// logged.
func (c *Config) Instance(log logger.Logger) (*timetable.Instance, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	net, err := c.Network()
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	trains := make([]timetable.Train, 0, len(c.Trains))
	for _, tc := range c.Trains {
		class, err := timetable.ParseClass(tc.Class)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", tc.ID, err)
		}
		dep, err := timetable.ParseClock(tc.Departure)
		if err != nil {
			return nil, fmt.Errorf("train %s: departure: %w", tc.ID, err)
		}
		trains = append(trains, timetable.Train{
			ID:                 tc.ID,
			Class:              class,
			Priority:           tc.Priority,
			Route:              tc.Route,
			ScheduledDeparture: dep,
			Coaches:            tc.Coaches,
		})
	}

	weather, err := c.weather(log)
	if err != nil {
		return nil, err
	}

	opts := []timetable.Option{timetable.WithWeather(weather)}

	if len(c.Classes) > 0 {
		table := timetable.DefaultClassTable()
		for name, ov := range c.Classes {
			class, err := timetable.ParseClass(name)
			if err != nil {
				return nil, fmt.Errorf("class override: %w", err)
			}
			info := table[class]
			if ov.Weight > 0 {
				info.Weight = ov.Weight
			}
			if ov.SlackMultiplier > 0 {
				info.SlackMultiplier = ov.SlackMultiplier
			}
			table[class] = info
		}
		opts = append(opts, timetable.WithClassTable(table))
	}

	if len(c.Maintenance) > 0 {
		blocks := make([]timetable.MaintenanceBlock, 0, len(c.Maintenance))
		for _, mc := range c.Maintenance {
			start, err := timetable.ParseClock(mc.Start)
			if err != nil {
				return nil, fmt.Errorf("maintenance %s-%s: start: %w", mc.From, mc.To, err)
			}
			end, err := timetable.ParseClock(mc.End)
			if err != nil {
				return nil, fmt.Errorf("maintenance %s-%s: end: %w", mc.From, mc.To, err)
			}
			if end < start {
				return nil, fmt.Errorf("maintenance %s-%s: ends before it starts", mc.From, mc.To)
			}
			blocks = append(blocks, timetable.MaintenanceBlock{
				Section:    timetable.Section{From: mc.From, To: mc.To},
				Start:      start,
				End:        end,
				SingleLine: mc.SingleLine,
			})
		}
		opts = append(opts, timetable.WithMaintenance(blocks))
	}

	if len(c.Peaks) > 0 {
		windows := make([]timetable.PeakWindow, 0, len(c.Peaks))
		for _, pc := range c.Peaks {
			start, err := timetable.ParseClock(pc.Start)
			if err != nil {
				return nil, fmt.Errorf("peak window: start: %w", err)
			}
			end, err := timetable.ParseClock(pc.End)
			if err != nil {
				return nil, fmt.Errorf("peak window: end: %w", err)
			}
			windows = append(windows, timetable.PeakWindow{Start: start, End: end})
		}
		opts = append(opts, timetable.WithPeakWindows(windows))
	}

	return timetable.New(net, trains, opts...)
}

// weather resolves the active season and its section table.
func (c *Config) weather(log logger.Logger) (timetable.WeatherScenario, error) {
	season := timetable.Season(c.Scenario.Season)
	if season == "" {
		date := time.Now()
		if c.Scenario.Date != "" {
			var err error
			date, err = time.Parse("2006-01-02", c.Scenario.Date)
			if err != nil {
				return timetable.WeatherScenario{}, fmt.Errorf("scenario date: %w", err)
			}
		}
		season = timetable.SeasonFor(date)
		log.Debugf("scenario date %s resolves to season %s", date.Format("2006-01-02"), season)
	}

	scenario := timetable.WeatherScenario{
		Season: season,
		Scale:  c.Scenario.Scale,
	}
	if entries, ok := c.Scenario.Seasons[string(season)]; ok {
		scenario.Sections = make(map[timetable.Section]int, len(entries))
		for _, e := range entries {
			scenario.Sections[timetable.Section{From: e.From, To: e.To}] = e.Delay
		}
	}

	scenario, clamped := scenario.ClampScale()
	if clamped {
		log.Warnf("weather scale %v out of range, clamped to %v", c.Scenario.Scale, scenario.Scale)
	}
	return scenario, nil
}
