package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"

	"github.com/railos/railsched/infra/logger"
	"github.com/railos/railsched/infra/metrics"
)

// Status is the outcome of a solve, collapsed to the cases callers act on.
type Status string

const (
	// StatusOptimal: the objective value is proven best.
	StatusOptimal Status = "optimal"
	// StatusFeasible: a schedule was found inside the budget, optimality
	// is not proven.
	StatusFeasible Status = "feasible"
	// StatusInfeasible: the constraints admit no schedule.
	StatusInfeasible Status = "infeasible"
	// StatusUnknown: the budget ran out before any conclusion, or the
	// solve was interrupted.
	StatusUnknown Status = "unknown"
)

// Solved reports whether the status carries a usable schedule.
func (s Status) Solved() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// SolverConfig bounds a single solve.
type SolverConfig struct {
	// BudgetSeconds caps the wall-clock time of the search.
	BudgetSeconds float64
	// Workers hints the number of parallel search workers.
	Workers int32
}

// DefaultSolverConfig returns the standard budget.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{BudgetSeconds: 300, Workers: 8}
}

// Solve runs CP-SAT on the built model. Cancelling the context interrupts
// the search; the solver then returns its best known result, typically
// feasible or unknown. An error is returned only when the model cannot be
// serialized or the underlying solver fails, never for infeasibility.
func (m *Model) Solve(ctx context.Context, sc SolverConfig, log logger.Logger, sink metrics.Sink) (*Solution, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if sc.BudgetSeconds <= 0 {
		sc.BudgetSeconds = DefaultSolverConfig().BudgetSeconds
	}
	if sc.Workers <= 0 {
		sc.Workers = DefaultSolverConfig().Workers
	}

	mdl, err := m.cp.Model()
	if err != nil {
		return nil, fmt.Errorf("building model proto: %w", err)
	}
	params := &sppb.SatParameters{
		MaxTimeInSeconds: proto.Float64(sc.BudgetSeconds),
		NumSearchWorkers: proto.Int32(sc.Workers),
	}

	log.Debugf("solving: %d trains, horizon %d min, budget %.0fs, %d workers",
		len(m.inst.Trains), m.horizon, sc.BudgetSeconds, sc.Workers)

	resp, err := cpmodel.SolveCpModelInterruptibleWithParameters(mdl, params, ctx.Done())
	if err != nil {
		return nil, fmt.Errorf("solving model: %w", err)
	}

	status := statusFrom(resp.GetStatus())
	sol := &Solution{
		Status:   status,
		WallTime: time.Duration(resp.GetWallTime() * float64(time.Second)),
	}
	if status.Solved() {
		sol.Objective = resp.GetObjectiveValue()
		m.extract(resp, sol)
		m.analyze(sol)
	}

	if err := sink.RecordSolve(metrics.SolveStats{
		Status:    string(status),
		Objective: sol.Objective,
		WallTime:  sol.WallTime,
		Trains:    len(m.inst.Trains),
	}); err != nil {
		log.Warnf("recording solve metrics: %v", err)
	}

	log.Infof("solve finished: status=%s objective=%.0f wall=%s",
		status, sol.Objective, sol.WallTime.Round(time.Millisecond))
	return sol, nil
}

func statusFrom(s cmpb.CpSolverStatus) Status {
	switch s {
	case cmpb.CpSolverStatus_OPTIMAL:
		return StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		return StatusFeasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		return StatusInfeasible
	default:
		return StatusUnknown
	}
}
