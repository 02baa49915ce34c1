package engine

import (
	"sort"

	"github.com/railos/railsched/core/timetable"
)

// OvertakeEvent: the overtaken train sat in a station while the overtaker
// passed through inside its dwell window.
type OvertakeEvent struct {
	Station   string `json:"station"`
	Overtaker string `json:"overtaker"`
	Overtaken string `json:"overtaken"`
}

// WaitEvent: a train dwelled well beyond its required minimum, usually
// because it was held for a meet.
type WaitEvent struct {
	TrainID  string `json:"train_id"`
	Station  string `json:"station"`
	Dwell    int    `json:"dwell"`
	MinDwell int    `json:"min_dwell"`
}

// ConflictEvent: a lower-priority train entered a single-track segment
// while a higher-priority train's buffered occupation was still open. The
// no-overlap constraint keeps this feasible only in opposite-priority
// penalty orderings, so it is worth surfacing.
type ConflictEvent struct {
	Segment string `json:"segment"`
	Holder  string `json:"holder"`
	Entrant string `json:"entrant"`
}

// analyze derives the diagnostic events from a solved schedule. It never
// feeds back into the model.
func (m *Model) analyze(sol *Solution) {
	m.findOvertakes(sol)
	m.findExtendedWaits(sol)
	m.findTrackConflicts(sol)
}

// findOvertakes scans every station shared by a pair of trains. An
// overtake is recorded when the lower-priority train's dwell interval
// strictly contains the higher-priority train's visit.
func (m *Model) findOvertakes(sol *Solution) {
	for _, id := range m.inst.Network.Stations() {
		visitors := m.inst.VisitorsOf(id)
		for i := 0; i < len(visitors); i++ {
			for j := i + 1; j < len(visitors); j++ {
				a, b := visitors[i], visitors[j]
				if a.Priority == b.Priority {
					continue
				}
				hi, lo := a, b
				if b.Priority > a.Priority {
					hi, lo = b, a
				}
				hiStop, ok1 := stopAt(sol, hi.ID, id)
				loStop, ok2 := stopAt(sol, lo.ID, id)
				if !ok1 || !ok2 {
					continue
				}
				if loStop.Arrival < hiStop.Arrival && hiStop.Departure < loStop.Departure {
					sol.Overtakes = append(sol.Overtakes, OvertakeEvent{
						Station:   id,
						Overtaker: hi.ID,
						Overtaken: lo.ID,
					})
				}
			}
		}
	}
}

// findExtendedWaits flags dwells exceeding the minimum by more than the
// configured threshold.
func (m *Model) findExtendedWaits(sol *Solution) {
	for _, ts := range sol.Schedules {
		t, ok := m.inst.Train(ts.TrainID)
		if !ok {
			continue
		}
		// The origin stop is a point, never a hold.
		for _, stop := range ts.Stops[1:] {
			min := m.inst.MinDwell(t, stop.Station)
			if stop.Dwell > min+m.cfg.WaitThreshold {
				sol.ExtendedWaits = append(sol.ExtendedWaits, WaitEvent{
					TrainID:  ts.TrainID,
					Station:  stop.Station,
					Dwell:    stop.Dwell,
					MinDwell: min,
				})
			}
		}
	}
}

// findTrackConflicts compares traversal pairs on each single-track segment
// and reports a lower-priority train entering while a higher-priority
// occupation, extended by the safety buffer, is still open.
func (m *Model) findTrackConflicts(sol *Solution) {
	type traversal struct {
		train timetable.Train
		dep   int
		end   int // arrival at exit + buffer
	}
	keys := make([]string, 0, len(m.occupations))
	for key := range m.occupations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		occs := m.occupations[key]
		travs := make([]traversal, 0, len(occs))
		for _, occ := range occs {
			entry, ok1 := stopAt(sol, occ.Train.ID, occ.Entry)
			exit, ok2 := stopAt(sol, occ.Train.ID, occ.Exit)
			if !ok1 || !ok2 {
				continue
			}
			travs = append(travs, traversal{
				train: occ.Train,
				dep:   entry.Departure,
				end:   exit.Arrival + m.cfg.SafetyBuffer,
			})
		}
		for i := 0; i < len(travs); i++ {
			for j := i + 1; j < len(travs); j++ {
				a, b := travs[i], travs[j]
				if a.train.Priority == b.train.Priority {
					continue
				}
				hi, lo := a, b
				if b.train.Priority > a.train.Priority {
					hi, lo = b, a
				}
				if lo.dep >= hi.dep && lo.dep < hi.end {
					sol.Conflicts = append(sol.Conflicts, ConflictEvent{
						Segment: key,
						Holder:  hi.train.ID,
						Entrant: lo.train.ID,
					})
				}
			}
		}
	}
}

// stopAt finds a train's stop at a station in the solved schedules.
func stopAt(sol *Solution, trainID, station string) (Stop, bool) {
	ts, ok := sol.Schedule(trainID)
	if !ok {
		return Stop{}, false
	}
	for _, stop := range ts.Stops {
		if stop.Station == station {
			return stop, true
		}
	}
	return Stop{}, false
}
