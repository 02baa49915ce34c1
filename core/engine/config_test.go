package engine

import (
	"testing"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	got := Config{}.normalize()
	def := DefaultConfig()

	assert.Equal(t, def.MinSeparation, got.MinSeparation)
	assert.Equal(t, def.PenaltyGap, got.PenaltyGap)
	assert.Equal(t, def.PriorityThreshold, got.PriorityThreshold)
	assert.Equal(t, def.DwellCap, got.DwellCap)
	// Horizon and weights are intentionally left alone: zero means
	// "derive" for the former and "disabled term" for the latter.
	assert.Zero(t, got.Horizon)
	assert.Zero(t, got.Weights.DelayScale)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSeparation = 3
	cfg.PenaltyGap = 200
	got := cfg.normalize()

	assert.Equal(t, 3, got.MinSeparation)
	assert.Equal(t, 200, got.PenaltyGap)
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, StatusOptimal, statusFrom(cmpb.CpSolverStatus_OPTIMAL))
	assert.Equal(t, StatusFeasible, statusFrom(cmpb.CpSolverStatus_FEASIBLE))
	assert.Equal(t, StatusInfeasible, statusFrom(cmpb.CpSolverStatus_INFEASIBLE))
	assert.Equal(t, StatusUnknown, statusFrom(cmpb.CpSolverStatus_UNKNOWN))
	assert.Equal(t, StatusUnknown, statusFrom(cmpb.CpSolverStatus_MODEL_INVALID))

	assert.True(t, StatusOptimal.Solved())
	assert.True(t, StatusFeasible.Solved())
	assert.False(t, StatusInfeasible.Solved())
	assert.False(t, StatusUnknown.Solved())
}
