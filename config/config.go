// Package config loads scheduling scenarios from YAML or JSON files and
// converts them into the core types. Files describe the network, the fleet
// and the operating conditions of one day; everything the engine needs
// beyond that has defaults.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/railos/railsched/core/engine"
	"github.com/railos/railsched/core/network"
	"github.com/railos/railsched/core/timetable"
)

type Config struct {
	Stations    []StationConfig          `json:"stations"`
	Segments    []SegmentConfig          `json:"segments"`
	Trains      []TrainConfig            `json:"trains"`
	Scenario    ScenarioConfig           `json:"scenario"`
	Maintenance []MaintenanceConfig      `json:"maintenance"`
	Peaks       []PeakConfig             `json:"peak_windows"`
	Classes     map[string]ClassOverride `json:"classes"`
	Engine      EngineConfig             `json:"engine"`
	Solver      SolverConfig             `json:"solver"`
	Metrics     MetricsConfig            `json:"metrics"`
}

// ClassOverride adjusts a class's standard parameters. Zero fields keep
// the defaults.
type ClassOverride struct {
	Weight          int64 `json:"weight"`
	SlackMultiplier int   `json:"slack_multiplier"`
}

type StationConfig struct {
	ID          string         `json:"id"`
	Platforms   int            `json:"platforms"`
	Loops       int            `json:"loops"`
	CrewChange  bool           `json:"crew_change"`
	WaterColumn bool           `json:"water_column"`
	DwellTimes  map[string]int `json:"dwell_times"`
}

type SegmentConfig struct {
	From          string `json:"from"`
	To            string `json:"to"`
	LengthKM      int    `json:"length_km"`
	Tracks        int    `json:"tracks"`
	MinTravelTime int    `json:"min_travel_time"`
	Electrified   bool   `json:"electrified"`
}

type TrainConfig struct {
	ID       string   `json:"id"`
	Class    string   `json:"class"`
	Priority float64  `json:"priority"`
	Route    []string `json:"route"`
	// Departure is the scheduled origin departure as HH:MM.
	Departure string `json:"departure"`
	Coaches   int    `json:"coaches"`
}

// ScenarioConfig selects the weather conditions of the operating day. The
// season is derived from the date unless overridden, then looked up in the
// per-season tables.
type ScenarioConfig struct {
	// Date of operation, YYYY-MM-DD. Defaults to today.
	Date string `json:"date"`
	// Season overrides the date-derived season when set.
	Season string `json:"season"`
	// Scale adjusts every weather addition. Out-of-range values are
	// clamped, not rejected.
	Scale float64 `json:"scale"`
	// Seasons maps a season name to its affected directed sections.
	Seasons map[string][]WeatherEntry `json:"seasons"`
}

type WeatherEntry struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Delay int    `json:"delay"`
}

type MaintenanceConfig struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Start      string `json:"start"`
	End        string `json:"end"`
	SingleLine bool   `json:"single_line"`
}

type PeakConfig struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EngineConfig exposes the model constants. Zero fields keep the engine
// defaults.
type EngineConfig struct {
	Horizon            int64   `json:"horizon"`
	SafetyBuffer       int     `json:"safety_buffer"`
	MinSeparation      int     `json:"min_separation"`
	PenaltyGap         int     `json:"penalty_gap"`
	PriorityThreshold  float64 `json:"priority_threshold"`
	TravelBuffer       int     `json:"travel_buffer"`
	DwellCap           int     `json:"dwell_cap"`
	DelayCap           int     `json:"delay_cap"`
	InitialDelayCap    int     `json:"initial_delay_cap"`
	PeakPenalty        int     `json:"peak_penalty"`
	AssumedJourney     int     `json:"assumed_journey"`
	OnTimeTolerance    int     `json:"on_time_tolerance"`
	WaitThreshold      int     `json:"wait_threshold"`
	EnforceMaintenance bool    `json:"enforce_maintenance"`
	Weights            Weights `json:"weights"`
}

type Weights struct {
	DelayScale       int64 `json:"delay_scale"`
	GapWeight        int64 `json:"gap_weight"`
	PunctualityBonus int64 `json:"punctuality_bonus"`
}

type SolverConfig struct {
	BudgetSeconds float64 `json:"budget_seconds"`
	Workers       int32   `json:"workers"`
}

// MetricsConfig selects the solve-metrics sink. Type is "nop" or
// "prometheus"; Listen, when set, serves the registry over HTTP.
type MetricsConfig struct {
	Type   string `json:"type"`
	Listen string `json:"listen"`
}

// envPrefix namespaces the environment overrides, e.g.
// RS_SOLVER__BUDGET_SECONDS=60.
const envPrefix = "RS_"

// Load reads the scenario file, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(envPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills the fields that have a sensible standalone value.
func (c *Config) SetDefaults() {
	if c.Scenario.Scale == 0 {
		c.Scenario.Scale = 1.0
	}
	if c.Solver.BudgetSeconds == 0 {
		c.Solver.BudgetSeconds = engine.DefaultSolverConfig().BudgetSeconds
	}
	if c.Solver.Workers == 0 {
		c.Solver.Workers = engine.DefaultSolverConfig().Workers
	}
	if c.Metrics.Type == "" {
		c.Metrics.Type = "nop"
	}
}

// Validate rejects structurally broken configs early, before any network
// or instance construction runs.
func (c *Config) Validate() error {
	if len(c.Stations) == 0 {
		return fmt.Errorf("no stations configured")
	}
	if len(c.Segments) == 0 {
		return fmt.Errorf("no segments configured")
	}
	if len(c.Trains) == 0 {
		return fmt.Errorf("no trains configured")
	}
	for _, t := range c.Trains {
		if t.ID == "" {
			return fmt.Errorf("train without id")
		}
		if _, err := timetable.ParseClass(t.Class); err != nil {
			return fmt.Errorf("train %s: %w", t.ID, err)
		}
		if t.Priority <= 0 {
			return fmt.Errorf("train %s: priority must be positive", t.ID)
		}
		if _, err := timetable.ParseClock(t.Departure); err != nil {
			return fmt.Errorf("train %s: departure: %w", t.ID, err)
		}
	}
	if c.Scenario.Season != "" {
		switch timetable.Season(c.Scenario.Season) {
		case timetable.SeasonClear, timetable.SeasonMonsoon, timetable.SeasonWinter, timetable.SeasonSummer:
		default:
			return fmt.Errorf("unknown season %q", c.Scenario.Season)
		}
	}
	for name := range c.Classes {
		if _, err := timetable.ParseClass(name); err != nil {
			return fmt.Errorf("class override: %w", err)
		}
	}
	switch c.Metrics.Type {
	case "nop", "prometheus":
	default:
		return fmt.Errorf("unknown metrics sink %q", c.Metrics.Type)
	}
	return nil
}

// EngineConfig converts the file representation into the engine's.
func (c *Config) EngineConfig() engine.Config {
	e := c.Engine
	return engine.Config{
		Horizon:            e.Horizon,
		SafetyBuffer:       e.SafetyBuffer,
		MinSeparation:      e.MinSeparation,
		PenaltyGap:         e.PenaltyGap,
		PriorityThreshold:  e.PriorityThreshold,
		TravelBuffer:       e.TravelBuffer,
		DwellCap:           e.DwellCap,
		DelayCap:           e.DelayCap,
		InitialDelayCap:    e.InitialDelayCap,
		PeakPenalty:        e.PeakPenalty,
		AssumedJourney:     e.AssumedJourney,
		OnTimeTolerance:    e.OnTimeTolerance,
		WaitThreshold:      e.WaitThreshold,
		EnforceMaintenance: e.EnforceMaintenance,
		Weights: engine.ObjectiveWeights{
			DelayScale:       orDefault(e.Weights.DelayScale, engine.DefaultConfig().Weights.DelayScale),
			GapWeight:        orDefault(e.Weights.GapWeight, engine.DefaultConfig().Weights.GapWeight),
			PunctualityBonus: orDefault(e.Weights.PunctualityBonus, engine.DefaultConfig().Weights.PunctualityBonus),
		},
	}
}

func orDefault(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}

// SolverConfig converts the solver section.
func (c *Config) SolverConfig() engine.SolverConfig {
	return engine.SolverConfig{
		BudgetSeconds: c.Solver.BudgetSeconds,
		Workers:       c.Solver.Workers,
	}
}

// Network builds the validated topology.
func (c *Config) Network() (*network.Network, error) {
	stations := make([]network.Station, 0, len(c.Stations))
	for _, s := range c.Stations {
		stations = append(stations, network.Station{
			ID:          s.ID,
			Platforms:   s.Platforms,
			Loops:       s.Loops,
			CrewChange:  s.CrewChange,
			WaterColumn: s.WaterColumn,
			DwellTimes:  s.DwellTimes,
		})
	}
	segments := make([]network.Segment, 0, len(c.Segments))
	for _, s := range c.Segments {
		segments = append(segments, network.Segment{
			From:          s.From,
			To:            s.To,
			LengthKM:      s.LengthKM,
			Tracks:        s.Tracks,
			MinTravelTime: s.MinTravelTime,
			Electrified:   s.Electrified,
		})
	}
	return network.New(stations, segments)
}
