// Package engine translates a timetable instance into a CP-SAT model,
// drives the solver and turns the response back into train schedules.
package engine

import (
	"fmt"
	"math"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/railos/railsched/core/network"
	"github.com/railos/railsched/core/timetable"
)

// visitKey addresses the variables of one train at one station.
type visitKey struct {
	Train   string
	Station string
}

// legKey addresses the travel variable of one train over one directed leg.
type legKey struct {
	Train string
	From  string
	To    string
}

// delayVars carries the per-cause delay attribution of a single visit.
type delayVars struct {
	Weather     cpmodel.IntVar
	Maintenance cpmodel.IntVar
	Congestion  cpmodel.IntVar
	Operational cpmodel.IntVar
}

// occupation records one traversal of a contested segment, with the
// interval already extended by the safety buffer.
type occupation struct {
	Train    timetable.Train
	Entry    string
	Exit     string
	Interval cpmodel.IntervalVar
}

// Model holds the built CP model together with the variable maps needed to
// read a solution back out.
type Model struct {
	cp   *cpmodel.Builder
	inst *timetable.Instance
	cfg  Config

	horizon int64

	arrival   map[visitKey]cpmodel.IntVar
	departure map[visitKey]cpmodel.IntVar
	dwell     map[visitKey]cpmodel.IntVar
	delays    map[visitKey]delayVars
	initial   map[string]cpmodel.IntVar
	travel    map[legKey]cpmodel.IntVar

	// occupations groups single-track traversals by canonical segment key.
	occupations map[string][]occupation
}

// Build assembles the full constraint model for the instance. The returned
// Model is ready to Solve. Build fails only on programmer errors such as a
// nil instance; an over-constrained instance still builds and reports
// infeasibility from the solver.
func Build(inst *timetable.Instance, cfg Config) (*Model, error) {
	if inst == nil {
		return nil, fmt.Errorf("nil instance")
	}
	if len(inst.Trains) == 0 {
		return nil, fmt.Errorf("instance has no trains")
	}
	cfg = cfg.normalize()

	m := &Model{
		cp:          cpmodel.NewCpModelBuilder(),
		inst:        inst,
		cfg:         cfg,
		arrival:     make(map[visitKey]cpmodel.IntVar),
		departure:   make(map[visitKey]cpmodel.IntVar),
		dwell:       make(map[visitKey]cpmodel.IntVar),
		delays:      make(map[visitKey]delayVars),
		initial:     make(map[string]cpmodel.IntVar),
		travel:      make(map[legKey]cpmodel.IntVar),
		occupations: make(map[string][]occupation),
	}

	m.horizon = cfg.Horizon
	if m.horizon <= 0 {
		m.horizon = m.deriveHorizon()
	}

	m.createVariables()
	m.linkRoutes()
	m.constrainSingleTrack()
	m.constrainStationCapacity()
	m.constrainPriorities()
	m.constrainPeakWindows()
	if cfg.EnforceMaintenance {
		m.constrainMaintenance()
	}
	m.buildObjective()

	return m, nil
}

// Horizon reports the time horizon the model was built with, in minutes.
func (m *Model) Horizon() int64 { return m.horizon }

// deriveHorizon computes an upper bound loose enough that every train can
// complete its route even after losing every disjunction, plus a full day
// as floor so wall-clock instances always fit.
func (m *Model) deriveHorizon() int64 {
	const day = 24 * 60
	var latest int64
	for _, t := range m.inst.Trains {
		end := int64(t.ScheduledDeparture + m.cfg.InitialDelayCap)
		mult := m.inst.Classes.SlackMultiplier(t.Class)
		for i := 0; i+1 < len(t.Route); i++ {
			floor := m.travelFloor(t, t.Route[i], t.Route[i+1])
			end += int64(floor*mult + m.cfg.TravelBuffer + m.cfg.DwellCap)
			if m.cfg.EnforceMaintenance {
				end += maintenanceDelayCap
			}
		}
		if end > latest {
			latest = end
		}
	}
	latest += int64(m.cfg.PenaltyGap * len(m.inst.Trains))
	if latest < day {
		latest = day
	}
	return latest
}

// travelFloor is the minimum traversal time of a leg for a given train,
// including the weather addition for that directed section.
func (m *Model) travelFloor(t timetable.Train, from, to string) int {
	seg, err := m.inst.Network.FindSegment(from, to)
	if err != nil {
		// Instance validation guarantees every consecutive pair has a
		// segment; reaching this is a bug.
		panic(fmt.Sprintf("engine: leg %s-%s: %v", from, to, err))
	}
	return seg.MinTravelTime + m.inst.Weather.Additional(from, to, t.Class)
}

func (m *Model) createVariables() {
	for _, t := range m.inst.Trains {
		m.initial[t.ID] = m.cp.NewIntVar(0, int64(m.cfg.InitialDelayCap)).
			WithName(fmt.Sprintf("initial_delay_%s", t.ID))
		for _, s := range t.Route {
			k := visitKey{t.ID, s}
			m.arrival[k] = m.cp.NewIntVar(0, m.horizon).
				WithName(fmt.Sprintf("arr_%s_%s", t.ID, s))
			m.departure[k] = m.cp.NewIntVar(0, m.horizon).
				WithName(fmt.Sprintf("dep_%s_%s", t.ID, s))
			m.dwell[k] = m.cp.NewIntVar(0, int64(m.cfg.DwellCap)).
				WithName(fmt.Sprintf("dwell_%s_%s", t.ID, s))
			dcap := int64(m.cfg.DelayCap)
			m.delays[k] = delayVars{
				Weather:     m.cp.NewIntVar(0, dcap),
				Maintenance: m.cp.NewIntVar(0, dcap),
				Congestion:  m.cp.NewIntVar(0, dcap),
				Operational: m.cp.NewIntVar(0, dcap),
			}
		}
	}
}

// linkRoutes wires the temporal skeleton of every train: origin departure,
// travel propagation leg by leg, dwell floors and the exact weather
// attribution per visited station.
func (m *Model) linkRoutes() {
	for _, t := range m.inst.Trains {
		origin := visitKey{t.ID, t.Route[0]}

		// departure(origin) = scheduled + initial delay
		m.cp.AddEquality(m.departure[origin], cpmodel.NewLinearExpr().
			Add(m.initial[t.ID]).
			AddConstant(int64(t.ScheduledDeparture)))

		// The origin stop is a point: the train enters the plan when it
		// departs. All delay causes start at zero there.
		m.cp.AddEquality(m.arrival[origin], m.departure[origin])
		m.cp.AddEquality(m.dwell[origin], cpmodel.NewConstant(0))

		// No section precedes the origin, so nothing can be attributed to
		// weather, maintenance or congestion there. Operational stays free:
		// a peak-window departure is charged at the origin too.
		d := m.delays[origin]
		m.cp.AddEquality(d.Weather, cpmodel.NewConstant(0))
		m.cp.AddEquality(d.Maintenance, cpmodel.NewConstant(0))
		m.cp.AddEquality(d.Congestion, cpmodel.NewConstant(0))

		for i := 0; i+1 < len(t.Route); i++ {
			from, to := t.Route[i], t.Route[i+1]
			u := visitKey{t.ID, from}
			v := visitKey{t.ID, to}

			floor := m.travelFloor(t, from, to)
			ub := floor*m.inst.Classes.SlackMultiplier(t.Class) + m.cfg.TravelBuffer
			if m.cfg.EnforceMaintenance {
				ub += maintenanceDelayCap
			}
			tv := m.cp.NewIntVar(int64(floor), int64(ub)).
				WithName(fmt.Sprintf("travel_%s_%s_%s", t.ID, from, to))
			m.travel[legKey{t.ID, from, to}] = tv

			// arrival(to) = departure(from) + travel
			m.cp.AddEquality(m.arrival[v], cpmodel.NewLinearExpr().
				Add(m.departure[u]).
				Add(tv))

			// Weather is attributed exactly: the scenario addition for the
			// directed section, zero everywhere else.
			wAdd := m.inst.Weather.Additional(from, to, t.Class)
			m.cp.AddEquality(m.delays[v].Weather, cpmodel.NewConstant(int64(wAdd)))
			if !m.cfg.EnforceMaintenance {
				m.cp.AddEquality(m.delays[v].Maintenance, cpmodel.NewConstant(0))
			}

			// departure(to) = arrival(to) + dwell(to), dwell at least the
			// station minimum for this train.
			m.cp.AddEquality(m.departure[v], cpmodel.NewLinearExpr().
				Add(m.arrival[v]).
				Add(m.dwell[v]))
			m.cp.AddGreaterOrEqual(m.dwell[v], cpmodel.NewConstant(int64(m.inst.MinDwell(t, to))))
		}
	}
}

// segKey returns the direction-independent identifier of a segment.
func segKey(s network.Segment) string {
	if s.From < s.To {
		return s.From + "|" + s.To
	}
	return s.To + "|" + s.From
}

// constrainSingleTrack builds one buffered interval per traversal of a
// single-track segment and forbids any two of them from overlapping,
// regardless of direction.
func (m *Model) constrainSingleTrack() {
	buffer := int64(m.cfg.SafetyBuffer)
	for _, seg := range m.inst.Network.SingleTrackSegments() {
		key := segKey(seg)
		for _, t := range m.inst.Trains {
			for i := 0; i+1 < len(t.Route); i++ {
				from, to := t.Route[i], t.Route[i+1]
				if !seg.Connects(from, to) {
					continue
				}
				u := visitKey{t.ID, from}
				v := visitKey{t.ID, to}
				tv := m.travel[legKey{t.ID, from, to}]

				// Occupation runs from departure at the entry station to
				// arrival at the exit plus the safety buffer.
				iv := m.cp.NewIntervalVar(
					m.departure[u],
					cpmodel.NewLinearExpr().Add(tv).AddConstant(buffer),
					cpmodel.NewLinearExpr().Add(m.arrival[v]).AddConstant(buffer),
				)
				m.occupations[key] = append(m.occupations[key], occupation{
					Train:    t,
					Entry:    from,
					Exit:     to,
					Interval: iv,
				})
			}
		}
		if len(m.occupations[key]) > 1 {
			ivs := make([]cpmodel.IntervalVar, 0, len(m.occupations[key]))
			for _, occ := range m.occupations[key] {
				ivs = append(ivs, occ.Interval)
			}
			m.cp.AddNoOverlap(ivs...)
		}
	}
}

// constrainStationCapacity limits simultaneous occupants of a station to
// its platforms plus loop lines. Stations that can hold every scheduled
// visitor at once need no constraint.
func (m *Model) constrainStationCapacity() {
	for _, id := range m.inst.Network.Stations() {
		st, _ := m.inst.Network.Station(id)
		visitors := m.inst.VisitorsOf(id)
		if len(visitors) <= st.Capacity() {
			continue
		}
		cum := m.cp.AddCumulative(cpmodel.NewConstant(int64(st.Capacity())))
		for _, t := range visitors {
			k := visitKey{t.ID, id}
			iv := m.cp.NewIntervalVar(m.arrival[k], m.dwell[k], m.departure[k])
			cum.AddDemand(iv, cpmodel.NewConstant(1))
		}
	}
}

// constrainPriorities adds the ordering disjunctions. On every shared
// resource a pair of trains whose priorities differ by at least the
// threshold must either let the important train go first with the minimum
// separation, or make the other train clear the resource a full penalty
// gap ahead. Pairs inside the threshold may still be reordered when the
// class table grants overtaking rights.
func (m *Model) constrainPriorities() {
	// Station meets.
	for _, id := range m.inst.Network.Stations() {
		visitors := m.inst.VisitorsOf(id)
		for i := 0; i < len(visitors); i++ {
			for j := i + 1; j < len(visitors); j++ {
				m.orderPair(visitors[i], visitors[j],
					m.departure[visitKey{visitors[i].ID, id}],
					m.departure[visitKey{visitors[j].ID, id}])
			}
		}
	}
	// Single-track meets reuse the entry departures of the occupations.
	for _, occs := range m.occupations {
		for i := 0; i < len(occs); i++ {
			for j := i + 1; j < len(occs); j++ {
				m.orderSegmentPair(occs[i], occs[j])
			}
		}
	}
}

// orderPair relates the departures of two trains from a shared station.
func (m *Model) orderPair(a, b timetable.Train, depA, depB cpmodel.IntVar) {
	diff := a.Priority - b.Priority
	switch {
	case diff >= m.cfg.PriorityThreshold:
		m.priorityDisjunction(depA, depB)
	case -diff >= m.cfg.PriorityThreshold:
		m.priorityDisjunction(depB, depA)
	case a.Class != b.Class && m.inst.Classes.CanOvertake(a.Class, b.Class):
		m.overtakeOption(depA, depB)
	case a.Class != b.Class && m.inst.Classes.CanOvertake(b.Class, a.Class):
		m.overtakeOption(depB, depA)
	}
}

// priorityDisjunction: either the high-priority train departs first and the
// other waits out the minimum separation, or the low-priority train goes
// first and must be gone a penalty gap before the high one moves.
func (m *Model) priorityDisjunction(depHigh, depLow cpmodel.IntVar) {
	first := m.cp.NewBoolVar()
	m.cp.AddLessOrEqual(
		cpmodel.NewLinearExpr().Add(depHigh).AddConstant(int64(m.cfg.MinSeparation)),
		depLow,
	).OnlyEnforceIf(first)
	m.cp.AddLessOrEqual(
		cpmodel.NewLinearExpr().Add(depLow).AddConstant(int64(m.cfg.PenaltyGap)),
		depHigh,
	).OnlyEnforceIf(first.Not())
}

// overtakeOption lets the entitled class jump ahead without forcing it:
// when the literal is true the overtaker departs at least the minimum
// separation before the slower train.
func (m *Model) overtakeOption(depOver, depUnder cpmodel.IntVar) {
	ahead := m.cp.NewBoolVar()
	m.cp.AddLessOrEqual(
		cpmodel.NewLinearExpr().Add(depOver).AddConstant(int64(m.cfg.MinSeparation)),
		depUnder,
	).OnlyEnforceIf(ahead)
}

// orderSegmentPair applies the priority disjunction to two occupations of
// the same single-track segment. The low-priority train must clear the far
// end, not just depart, before the high one enters.
func (m *Model) orderSegmentPair(a, b occupation) {
	diff := a.Train.Priority - b.Train.Priority
	var hi, lo occupation
	switch {
	case diff >= m.cfg.PriorityThreshold:
		hi, lo = a, b
	case -diff >= m.cfg.PriorityThreshold:
		hi, lo = b, a
	default:
		return
	}
	depHi := m.departure[visitKey{hi.Train.ID, hi.Entry}]
	depLo := m.departure[visitKey{lo.Train.ID, lo.Entry}]
	arrLo := m.arrival[visitKey{lo.Train.ID, lo.Exit}]

	first := m.cp.NewBoolVar()
	m.cp.AddLessOrEqual(
		cpmodel.NewLinearExpr().Add(depHi).AddConstant(int64(m.cfg.MinSeparation)),
		depLo,
	).OnlyEnforceIf(first)
	m.cp.AddLessOrEqual(
		cpmodel.NewLinearExpr().Add(arrLo).AddConstant(int64(m.cfg.PenaltyGap)),
		depHi,
	).OnlyEnforceIf(first.Not())
}

// constrainPeakWindows forces the operational delay of restricted classes
// whenever they depart a station inside a peak window. The window test is
// channeled through three literals so the reverse direction binds too.
func (m *Model) constrainPeakWindows() {
	for _, t := range m.inst.Trains {
		if !t.Class.Restricted() {
			continue
		}
		// Only real departures count, so the final station is skipped.
		for i := 0; i+1 < len(t.Route); i++ {
			s := t.Route[i]
			dep := m.departure[visitKey{t.ID, s}]
			op := m.delays[visitKey{t.ID, s}].Operational
			for _, w := range m.inst.PeakWindows {
				m.windowIndicator(dep, int64(w.Start), int64(w.End), op)
			}
		}
	}
}

// windowIndicator adds in/before/after literals for dep against [start, end]
// and raises the operational delay when dep falls inside.
func (m *Model) windowIndicator(dep cpmodel.IntVar, start, end int64, op cpmodel.IntVar) {
	in := m.cp.NewBoolVar()
	before := m.cp.NewBoolVar()
	after := m.cp.NewBoolVar()

	m.cp.AddGreaterOrEqual(dep, cpmodel.NewConstant(start)).OnlyEnforceIf(in)
	m.cp.AddLessOrEqual(dep, cpmodel.NewConstant(end)).OnlyEnforceIf(in)
	m.cp.AddLessThan(dep, cpmodel.NewConstant(start)).OnlyEnforceIf(before)
	m.cp.AddGreaterThan(dep, cpmodel.NewConstant(end)).OnlyEnforceIf(after)
	m.cp.AddBoolOr(in, before, after)

	m.cp.AddGreaterOrEqual(op, cpmodel.NewConstant(int64(m.cfg.PeakPenalty))).OnlyEnforceIf(in)
}

// constrainMaintenance attributes a fixed delay to traversals that start
// inside an active maintenance block on their section.
func (m *Model) constrainMaintenance() {
	for _, t := range m.inst.Trains {
		for i := 0; i+1 < len(t.Route); i++ {
			from, to := t.Route[i], t.Route[i+1]
			u := visitKey{t.ID, from}
			v := visitKey{t.ID, to}
			maint := m.delays[v].Maintenance

			covered := false
			for _, b := range m.inst.Maintenance {
				if !b.Covers(from, to) {
					continue
				}
				covered = true
				in := m.cp.NewBoolVar()
				before := m.cp.NewBoolVar()
				after := m.cp.NewBoolVar()
				dep := m.departure[u]
				m.cp.AddGreaterOrEqual(dep, cpmodel.NewConstant(int64(b.Start))).OnlyEnforceIf(in)
				m.cp.AddLessOrEqual(dep, cpmodel.NewConstant(int64(b.End))).OnlyEnforceIf(in)
				m.cp.AddLessThan(dep, cpmodel.NewConstant(int64(b.Start))).OnlyEnforceIf(before)
				m.cp.AddGreaterThan(dep, cpmodel.NewConstant(int64(b.End))).OnlyEnforceIf(after)
				m.cp.AddBoolOr(in, before, after)
				m.cp.AddGreaterOrEqual(maint, cpmodel.NewConstant(int64(b.Delay()))).OnlyEnforceIf(in)
			}
			if !covered {
				m.cp.AddEquality(maint, cpmodel.NewConstant(0))
				continue
			}
			// A maintenance hit slows the traversal itself.
			tv := m.travel[legKey{t.ID, from, to}]
			floor := m.travelFloor(t, from, to)
			m.cp.AddGreaterOrEqual(tv, cpmodel.NewLinearExpr().
				Add(maint).
				AddConstant(int64(floor)))
		}
	}
}

// roundScaled converts a float weight to the integer coefficient CP-SAT
// needs, preserving two fractional digits worth of precision through the
// scale factor.
func roundScaled(f float64, scale int64) int64 {
	return int64(math.Round(f * float64(scale)))
}
