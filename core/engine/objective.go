package engine

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
)

// buildObjective assembles the minimized expression from four terms:
//
//	+ attributed delays, weighted by class weight and squared priority
//	+ dwell above the station minimum, weighted by squared priority alone
//	+ idle gaps between consecutive visitors of a station
//	- punctuality bonus per train arriving on time at its final station
//
// Priorities are fractional, so their weights are rounded after applying
// the delay scale to keep the distinctions between close priorities.
func (m *Model) buildObjective() {
	obj := cpmodel.NewLinearExpr()
	w := m.cfg.Weights

	for _, t := range m.inst.Trains {
		delayCoeff := m.inst.Classes.Weight(t.Class) *
			roundScaled(t.Priority*t.Priority, w.DelayScale)
		dwellCoeff := roundScaled(t.Priority*t.Priority, w.DelayScale)

		for i, s := range t.Route {
			k := visitKey{t.ID, s}
			d := m.delays[k]
			obj.AddTerm(d.Weather, delayCoeff)
			obj.AddTerm(d.Maintenance, delayCoeff)
			obj.AddTerm(d.Congestion, delayCoeff)
			obj.AddTerm(d.Operational, delayCoeff)

			// Excess dwell over the minimum is also lateness, priced without
			// the class weight. The floor is a hard constraint, so the
			// linear form never goes negative.
			if i > 0 {
				minDwell := int64(m.inst.MinDwell(t, s))
				obj.AddTerm(m.dwell[k], dwellCoeff)
				obj.AddConstant(-dwellCoeff * minDwell)
			}
		}

		// Punctuality: a train is on time when it reaches its final station
		// within tolerance of the assumed journey end. The literal is
		// channeled both ways so the bonus cannot be claimed for free.
		final := visitKey{t.ID, t.Route[len(t.Route)-1]}
		target := int64(t.ScheduledDeparture + m.cfg.AssumedJourney + m.cfg.OnTimeTolerance)
		onTime := m.cp.NewBoolVar().WithName(fmt.Sprintf("on_time_%s", t.ID))
		m.cp.AddLessOrEqual(m.arrival[final], cpmodel.NewConstant(target)).OnlyEnforceIf(onTime)
		m.cp.AddGreaterThan(m.arrival[final], cpmodel.NewConstant(target)).OnlyEnforceIf(onTime.Not())
		obj.AddTerm(onTime, -roundScaled(t.Priority, w.PunctualityBonus))
	}

	// Idle platform time between consecutive visitors, in fleet order.
	if w.GapWeight > 0 {
		for _, id := range m.inst.Network.Stations() {
			visitors := m.inst.VisitorsOf(id)
			for i := 0; i+1 < len(visitors); i++ {
				prev := visitKey{visitors[i].ID, id}
				next := visitKey{visitors[i+1].ID, id}
				gap := m.cp.NewIntVar(0, m.horizon).
					WithName(fmt.Sprintf("gap_%s_%s_%s", visitors[i].ID, visitors[i+1].ID, id))
				m.cp.AddGreaterOrEqual(gap, cpmodel.NewLinearExpr().
					Add(m.arrival[next]).
					AddTerm(m.departure[prev], -1))
				obj.AddTerm(gap, w.GapWeight)
			}
		}
	}

	m.cp.Minimize(obj)
}
