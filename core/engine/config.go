package engine

// Config collects the tunable constants of the constraint model. Zero
// structural constants are replaced by defaults in normalize; objective
// weights are taken as given, so a zero weight disables its term.
type Config struct {
	// Horizon is the upper bound of every time variable in minutes. When 0
	// the horizon is derived from the instance, generously enough that no
	// feasible schedule is truncated. Setting it explicitly below the
	// derived value can make the instance infeasible.
	Horizon int64
	// SafetyBuffer extends every single-track occupation past the arrival
	// at the exit station.
	SafetyBuffer int
	// MinSeparation is the gap enforced when a higher-priority train goes
	// first through a shared resource.
	MinSeparation int
	// PenaltyGap is the clearance a lower-priority train must leave when
	// it goes first. Large on purpose: the choice stays possible but the
	// solver is steered away from it.
	PenaltyGap int
	// PriorityThreshold is the minimum priority difference that triggers
	// the ordering disjunction between two trains.
	PriorityThreshold float64
	// TravelBuffer is added to the travel-time upper bound.
	TravelBuffer int
	// DwellCap bounds dwell variables.
	DwellCap int
	// DelayCap bounds each delay-cause variable.
	DelayCap int
	// InitialDelayCap bounds the origin departure delay.
	InitialDelayCap int
	// PeakPenalty is the operational delay forced on restricted classes
	// departing inside a peak window.
	PeakPenalty int
	// AssumedJourney is the fixed minutes added to the scheduled origin
	// departure to form the punctuality baseline.
	AssumedJourney int
	// OnTimeTolerance is the delay allowed at the final station for a
	// train to count as punctual.
	OnTimeTolerance int
	// WaitThreshold flags dwells exceeding the minimum by more than this
	// as extended-waiting events.
	WaitThreshold int
	// EnforceMaintenance wires maintenance blocks into the constraints,
	// symmetrically to weather. Off by default: blocks are data only and
	// the maintenance delay cause is fixed to zero.
	EnforceMaintenance bool
	// Weights configures the objective terms.
	Weights ObjectiveWeights
}

// ObjectiveWeights scales the objective terms. All terms are integer since
// CP-SAT minimizes a linear integer expression.
type ObjectiveWeights struct {
	// DelayScale multiplies every weighted delay and excess-dwell minute.
	DelayScale int64
	// GapWeight penalizes idle gaps between consecutive visitors of a
	// station.
	GapWeight int64
	// PunctualityBonus is credited per on-time train, scaled by priority.
	PunctualityBonus int64
}

// maintenanceDelayCap bounds the maintenance contribution to a single
// traversal when enforcement is enabled.
const maintenanceDelayCap = 30

// DefaultConfig returns the standard model constants.
func DefaultConfig() Config {
	return Config{
		SafetyBuffer:      5,
		MinSeparation:     10,
		PenaltyGap:        120,
		PriorityThreshold: 0.5,
		TravelBuffer:      5,
		DwellCap:          60,
		DelayCap:          180,
		InitialDelayCap:   60,
		PeakPenalty:       45,
		AssumedJourney:    120,
		OnTimeTolerance:   5,
		WaitThreshold:     15,
		Weights: ObjectiveWeights{
			DelayScale:       100,
			GapWeight:        5,
			PunctualityBonus: 1000,
		},
	}
}

// normalize fills zero fields with defaults.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.SafetyBuffer <= 0 {
		c.SafetyBuffer = def.SafetyBuffer
	}
	if c.MinSeparation <= 0 {
		c.MinSeparation = def.MinSeparation
	}
	if c.PenaltyGap <= 0 {
		c.PenaltyGap = def.PenaltyGap
	}
	if c.PriorityThreshold <= 0 {
		c.PriorityThreshold = def.PriorityThreshold
	}
	if c.TravelBuffer <= 0 {
		c.TravelBuffer = def.TravelBuffer
	}
	if c.DwellCap <= 0 {
		c.DwellCap = def.DwellCap
	}
	if c.DelayCap <= 0 {
		c.DelayCap = def.DelayCap
	}
	if c.InitialDelayCap <= 0 {
		c.InitialDelayCap = def.InitialDelayCap
	}
	if c.PeakPenalty <= 0 {
		c.PeakPenalty = def.PeakPenalty
	}
	if c.AssumedJourney <= 0 {
		c.AssumedJourney = def.AssumedJourney
	}
	if c.OnTimeTolerance <= 0 {
		c.OnTimeTolerance = def.OnTimeTolerance
	}
	if c.WaitThreshold <= 0 {
		c.WaitThreshold = def.WaitThreshold
	}
	return c
}
