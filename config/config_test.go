package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/railos/railsched/core/timetable"
	"github.com/railos/railsched/infra/logger"
)

const sampleYAML = `stations:
  - id: "Alpha"
    platforms: 3
    loops: 1
    crew_change: true
    dwell_times:
      superfast: 2
      freight: 8
  - id: "Omega"
    platforms: 2
    loops: 1
    dwell_times:
      superfast: 2
      freight: 8
segments:
  - from: "Alpha"
    to: "Omega"
    length_km: 80
    tracks: 1
    min_travel_time: 40
    electrified: true
trains:
  - id: "SF1"
    class: "superfast"
    priority: 4.5
    route: ["Alpha", "Omega"]
    departure: "08:00"
    coaches: 18
scenario:
  date: "2026-07-15"
  scale: 3.5
  seasons:
    monsoon:
      - from: "Alpha"
        to: "Omega"
        delay: 24
maintenance:
  - from: "Alpha"
    to: "Omega"
    start: "06:00"
    end: "11:00"
    single_line: true
peak_windows:
  - start: "07:00"
    end: "10:00"
solver:
  budget_seconds: 60
  workers: 4
engine:
  min_separation: 8
classes:
  freight:
    weight: 2
    slack_multiplier: 3
metrics:
  type: "prometheus"
  listen: ":9100"
`

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"stations", len(cfg.Stations), 2},
		{"crew_change", cfg.Stations[0].CrewChange, true},
		{"segment tracks", cfg.Segments[0].Tracks, 1},
		{"train class", cfg.Trains[0].Class, "superfast"},
		{"train departure", cfg.Trains[0].Departure, "08:00"},
		{"scenario date", cfg.Scenario.Date, "2026-07-15"},
		{"budget", cfg.Solver.BudgetSeconds, 60.0},
		{"workers", cfg.Solver.Workers, int32(4)},
		{"min_separation", cfg.Engine.MinSeparation, 8},
		{"metrics type", cfg.Metrics.Type, "prometheus"},
		{"metrics listen", cfg.Metrics.Listen, ":9100"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown class":  `{"stations":[{"id":"A"}],"segments":[{"from":"A","to":"A"}],"trains":[{"id":"T","class":"bullet","priority":1,"departure":"08:00"}]}`,
		"bad departure":  `{"stations":[{"id":"A"}],"segments":[{"from":"A","to":"A"}],"trains":[{"id":"T","class":"freight","priority":1,"departure":"8am"}]}`,
		"no trains":      `{"stations":[{"id":"A"}],"segments":[{"from":"A","to":"A"}],"trains":[]}`,
		"unknown season": `{"stations":[{"id":"A"}],"segments":[{"from":"A","to":"A"}],"trains":[{"id":"T","class":"freight","priority":1,"departure":"08:00"}],"scenario":{"season":"hurricane"}}`,
		"unknown class override": `{"stations":[{"id":"A"}],"segments":[{"from":"A","to":"A"}],"trains":[{"id":"T","class":"freight","priority":1,"departure":"08:00"}],"classes":{"bullet":{"weight":2}}}`,
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), name+".json")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestInstanceConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	inst, err := cfg.Instance(logger.NopLogger{})
	if err != nil {
		t.Fatalf("instance error: %v", err)
	}

	train, ok := inst.Train("SF1")
	if !ok {
		t.Fatal("SF1 missing from instance")
	}
	if train.ScheduledDeparture != 480 {
		t.Errorf("departure = %d, want 480", train.ScheduledDeparture)
	}
	if train.Class != timetable.Superfast {
		t.Errorf("class = %v, want superfast", train.Class)
	}

	// July resolves to monsoon; the out-of-range scale is clamped to the
	// maximum, and superfast takes half the addition: 24 * 2.0 / 2.
	if inst.Weather.Season != timetable.SeasonMonsoon {
		t.Errorf("season = %s, want monsoon", inst.Weather.Season)
	}
	if got := inst.Weather.Additional("Alpha", "Omega", timetable.Superfast); got != 24 {
		t.Errorf("weather addition = %d, want 24", got)
	}

	if len(inst.Maintenance) != 1 || inst.Maintenance[0].Delay() != 30 {
		t.Fatalf("maintenance blocks = %+v", inst.Maintenance)
	}
	if len(inst.PeakWindows) != 1 || inst.PeakWindows[0].Start != 420 {
		t.Fatalf("peak windows = %+v", inst.PeakWindows)
	}

	// Crew change at Alpha adds to the dwell floor; 18 coaches but no water
	// column, so no long-train surcharge.
	if got := inst.MinDwell(train, "Alpha"); got != 7 {
		t.Errorf("min dwell at Alpha = %d, want 7", got)
	}

	// The freight override bumps weight and slack; untouched classes keep
	// their defaults.
	if got := inst.Classes.Weight(timetable.Freight); got != 2 {
		t.Errorf("freight weight = %d, want 2", got)
	}
	if got := inst.Classes.SlackMultiplier(timetable.Freight); got != 3 {
		t.Errorf("freight slack = %d, want 3", got)
	}
	if got := inst.Classes.Weight(timetable.Superfast); got != 5 {
		t.Errorf("superfast weight = %d, want 5", got)
	}
}

func TestLoadSampleScenario(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "testdata", "scenario.yaml"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	inst, err := cfg.Instance(logger.NopLogger{})
	if err != nil {
		t.Fatalf("instance error: %v", err)
	}
	if len(inst.Trains) != 8 {
		t.Fatalf("trains = %d, want 8", len(inst.Trains))
	}
	// Mid-July is monsoon: the ghat climb carries the full addition for
	// ordinary classes and half for premium ones.
	if got := inst.Weather.Additional("Station_J", "Lonavala_Hold_Point", timetable.Goods); got != 20 {
		t.Errorf("goods ghat addition = %d, want 20", got)
	}
	if got := inst.Weather.Additional("Station_J", "Lonavala_Hold_Point", timetable.Superfast); got != 10 {
		t.Errorf("superfast ghat addition = %d, want 10", got)
	}
	if got := len(inst.Network.SingleTrackSegments()); got != 3 {
		t.Errorf("single-track segments = %d, want 3", got)
	}
}

func TestEngineConfigConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	ec := cfg.EngineConfig()
	if ec.MinSeparation != 8 {
		t.Errorf("min separation = %d, want 8", ec.MinSeparation)
	}
	// Unset weights fall back to the engine defaults.
	if ec.Weights.DelayScale != 100 || ec.Weights.GapWeight != 5 || ec.Weights.PunctualityBonus != 1000 {
		t.Errorf("weights = %+v", ec.Weights)
	}
	sc := cfg.SolverConfig()
	if sc.BudgetSeconds != 60 || sc.Workers != 4 {
		t.Errorf("solver config = %+v", sc)
	}
}
