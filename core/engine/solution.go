package engine

import (
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	"gonum.org/v1/gonum/stat"

	"github.com/railos/railsched/core/timetable"
)

// DelayBreakdown splits the lateness accumulated at one stop by cause.
type DelayBreakdown struct {
	Weather     int `json:"weather"`
	Maintenance int `json:"maintenance"`
	Congestion  int `json:"congestion"`
	Operational int `json:"operational"`
}

// Total sums all causes.
func (d DelayBreakdown) Total() int {
	return d.Weather + d.Maintenance + d.Congestion + d.Operational
}

// Stop is one scheduled visit. Times are minutes from midnight of the
// operating day.
type Stop struct {
	Station   string         `json:"station"`
	Arrival   int            `json:"arrival"`
	Departure int            `json:"departure"`
	Dwell     int            `json:"dwell"`
	Delays    DelayBreakdown `json:"delays"`
}

// TrainSchedule is the solved timetable of one train.
type TrainSchedule struct {
	TrainID      string          `json:"train_id"`
	Class        timetable.Class `json:"class"`
	Priority     float64         `json:"priority"`
	InitialDelay int             `json:"initial_delay"`
	Stops        []Stop          `json:"stops"`
	// TotalDelay sums the attributed delays over the whole route.
	TotalDelay int `json:"total_delay"`
	// OnTime is true when the delay attributed at the final station stays
	// within the punctuality tolerance. Delay picked up and recovered
	// earlier in the run does not count against the flag.
	OnTime bool `json:"on_time"`
}

// FinalStop returns the last stop of the schedule.
func (ts TrainSchedule) FinalStop() Stop {
	return ts.Stops[len(ts.Stops)-1]
}

// Summary aggregates fleet-level punctuality figures.
type Summary struct {
	TotalTrains    int     `json:"total_trains"`
	OnTimeTrains   int     `json:"on_time_trains"`
	PunctualityPct float64 `json:"punctuality_pct"`
	TotalDelay     int     `json:"total_delay"`
	AverageDelay   float64 `json:"average_delay"`
}

// Solution is the full result of one solve: the per-train schedules in
// fleet order, aggregate metrics and the interaction events the analyzer
// detected. Schedules is nil unless Status.Solved().
type Solution struct {
	Status    Status        `json:"status"`
	Objective float64       `json:"objective"`
	WallTime  time.Duration `json:"wall_time"`

	Schedules []TrainSchedule `json:"schedules,omitempty"`
	Summary   Summary         `json:"summary"`

	Overtakes     []OvertakeEvent `json:"overtakes,omitempty"`
	ExtendedWaits []WaitEvent     `json:"extended_waits,omitempty"`
	Conflicts     []ConflictEvent `json:"conflicts,omitempty"`
}

// Schedule returns the schedule of a train by ID.
func (s *Solution) Schedule(trainID string) (TrainSchedule, bool) {
	for _, ts := range s.Schedules {
		if ts.TrainID == trainID {
			return ts, true
		}
	}
	return TrainSchedule{}, false
}

// extract reads the solved variable values into schedules and computes the
// fleet summary.
func (m *Model) extract(resp *cmpb.CpSolverResponse, sol *Solution) {
	value := func(v cpmodel.IntVar) int {
		return int(cpmodel.SolutionIntegerValue(resp, v))
	}

	delays := make([]float64, 0, len(m.inst.Trains))
	for _, t := range m.inst.Trains {
		ts := TrainSchedule{
			TrainID:      t.ID,
			Class:        t.Class,
			Priority:     t.Priority,
			InitialDelay: value(m.initial[t.ID]),
			Stops:        make([]Stop, 0, len(t.Route)),
		}
		for _, s := range t.Route {
			k := visitKey{t.ID, s}
			d := m.delays[k]
			stop := Stop{
				Station:   s,
				Arrival:   value(m.arrival[k]),
				Departure: value(m.departure[k]),
				Dwell:     value(m.dwell[k]),
				Delays: DelayBreakdown{
					Weather:     value(d.Weather),
					Maintenance: value(d.Maintenance),
					Congestion:  value(d.Congestion),
					Operational: value(d.Operational),
				},
			}
			ts.TotalDelay += stop.Delays.Total()
			ts.Stops = append(ts.Stops, stop)
		}
		ts.OnTime = ts.FinalStop().Delays.Total() <= m.cfg.OnTimeTolerance

		sol.Schedules = append(sol.Schedules, ts)
		sol.Summary.TotalDelay += ts.TotalDelay
		if ts.OnTime {
			sol.Summary.OnTimeTrains++
		}
		delays = append(delays, float64(ts.TotalDelay))
	}

	sol.Summary.TotalTrains = len(sol.Schedules)
	sol.Summary.AverageDelay = stat.Mean(delays, nil)
	sol.Summary.PunctualityPct = 100 * float64(sol.Summary.OnTimeTrains) / float64(sol.Summary.TotalTrains)
}
