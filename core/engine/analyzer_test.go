package engine

import (
	"testing"

	"github.com/railos/railsched/core/timetable"
)

// analyzerFixture builds a model over a single-track pair and a crafted
// solution where the freight is held at Mid while the superfast runs
// through. The analyzer works on values only, so no solve is needed.
func analyzerFixture(t *testing.T) (*Model, *Solution) {
	t.Helper()
	inst, err := timetable.New(testNetwork(t), []timetable.Train{
		{ID: "SF1", Class: timetable.Superfast, Priority: 4.5,
			Route: []string{"Alpha", "Mid"}, ScheduledDeparture: 450},
		{ID: "FR1", Class: timetable.Freight, Priority: 1.0,
			Route: []string{"Alpha", "Mid"}, ScheduledDeparture: 460},
	})
	if err != nil {
		t.Fatalf("building instance: %v", err)
	}
	m, err := Build(inst, DefaultConfig())
	if err != nil {
		t.Fatalf("building model: %v", err)
	}

	sol := &Solution{
		Status: StatusFeasible,
		Schedules: []TrainSchedule{
			{
				TrainID: "SF1", Class: timetable.Superfast, Priority: 4.5,
				Stops: []Stop{
					{Station: "Alpha", Arrival: 450, Departure: 450},
					{Station: "Mid", Arrival: 520, Departure: 530, Dwell: 10},
				},
			},
			{
				TrainID: "FR1", Class: timetable.Freight, Priority: 1.0,
				Stops: []Stop{
					{Station: "Alpha", Arrival: 460, Departure: 460},
					{Station: "Mid", Arrival: 500, Departure: 560, Dwell: 60},
				},
			},
		},
	}
	return m, sol
}

func TestAnalyzeOvertake(t *testing.T) {
	m, sol := analyzerFixture(t)
	m.analyze(sol)

	if len(sol.Overtakes) != 1 {
		t.Fatalf("overtakes = %d, want 1", len(sol.Overtakes))
	}
	ev := sol.Overtakes[0]
	if ev.Station != "Mid" || ev.Overtaker != "SF1" || ev.Overtaken != "FR1" {
		t.Errorf("unexpected overtake event: %+v", ev)
	}
}

func TestAnalyzeExtendedWait(t *testing.T) {
	m, sol := analyzerFixture(t)
	m.analyze(sol)

	// The freight dwells 60 at Mid against a minimum of 8; the superfast's
	// 10 stays inside the threshold.
	if len(sol.ExtendedWaits) != 1 {
		t.Fatalf("extended waits = %d, want 1", len(sol.ExtendedWaits))
	}
	ev := sol.ExtendedWaits[0]
	if ev.TrainID != "FR1" || ev.Station != "Mid" || ev.Dwell != 60 || ev.MinDwell != 8 {
		t.Errorf("unexpected wait event: %+v", ev)
	}
}

func TestAnalyzeTrackConflict(t *testing.T) {
	m, sol := analyzerFixture(t)
	m.analyze(sol)

	// The freight enters Alpha-Mid at 460 while the superfast's buffered
	// occupation [450, 525) is still open.
	if len(sol.Conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(sol.Conflicts))
	}
	ev := sol.Conflicts[0]
	if ev.Segment != "Alpha|Mid" || ev.Holder != "SF1" || ev.Entrant != "FR1" {
		t.Errorf("unexpected conflict event: %+v", ev)
	}
}

func TestAnalyzeEqualPrioritiesQuiet(t *testing.T) {
	// Same movements, but neither train outranks the other: nothing to
	// report as an overtake or a sequencing conflict.
	inst, err := timetable.New(testNetwork(t), []timetable.Train{
		{ID: "SF1", Class: timetable.Superfast, Priority: 2.0,
			Route: []string{"Alpha", "Mid"}, ScheduledDeparture: 450},
		{ID: "FR1", Class: timetable.Freight, Priority: 2.0,
			Route: []string{"Alpha", "Mid"}, ScheduledDeparture: 460},
	})
	if err != nil {
		t.Fatalf("building instance: %v", err)
	}
	m, err := Build(inst, DefaultConfig())
	if err != nil {
		t.Fatalf("building model: %v", err)
	}
	_, sol := analyzerFixture(t)
	m.analyze(sol)

	if len(sol.Overtakes) != 0 || len(sol.Conflicts) != 0 {
		t.Errorf("equal priorities produced events: %d overtakes, %d conflicts",
			len(sol.Overtakes), len(sol.Conflicts))
	}
}
