package timetable

import (
	"errors"
	"fmt"

	"github.com/railos/railsched/core/network"
)

// Train is one service to schedule. Trains are immutable for the duration of
// a solve.
type Train struct {
	ID    string
	Class Class
	// Priority weights delay in the objective and breaks precedence ties.
	Priority float64
	// Route is the ordered list of station IDs the train visits. Every
	// consecutive pair must resolve to a segment.
	Route []string
	// ScheduledDeparture is the planned origin departure in minutes from
	// midnight of the scenario date.
	ScheduledDeparture int
	// Coaches is the consist length; long trains dwell longer at stations
	// with servicing facilities.
	Coaches int
}

// RouteError reports a train whose route references a station pair with no
// connecting segment. Detected at instance construction, before any model is
// built.
type RouteError struct {
	TrainID string
	From    string
	To      string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("train %s: no segment between %s and %s", e.TrainID, e.From, e.To)
}

const (
	// defaultDwell applies at stations with no dwell table.
	defaultDwell = 1
	// classDwellFallback applies when a station's table lacks the class.
	classDwellFallback = 3
	// crewChangeSurcharge is the extra dwell at crew-change stations.
	crewChangeSurcharge = 5
	// longTrainSurcharge is the extra dwell for long consists at equipped
	// stations.
	longTrainSurcharge = 3
	// longTrainCoaches is the consist length above which the surcharge
	// applies.
	longTrainCoaches = 16
)

// Instance is one normalized scheduling problem: topology, fleet, active
// weather scenario, and operating rules. Construct with New; immutable
// afterwards.
type Instance struct {
	Network     *network.Network
	Trains      []Train
	Weather     WeatherScenario
	Maintenance []MaintenanceBlock
	PeakWindows []PeakWindow
	Classes     ClassTable
}

// Option adjusts optional instance data.
type Option func(*Instance)

// WithWeather sets the active weather scenario.
func WithWeather(w WeatherScenario) Option {
	return func(i *Instance) { i.Weather = w }
}

// WithMaintenance sets the maintenance block list.
func WithMaintenance(blocks []MaintenanceBlock) Option {
	return func(i *Instance) { i.Maintenance = blocks }
}

// WithPeakWindows overrides the default peak-hour windows.
func WithPeakWindows(windows []PeakWindow) Option {
	return func(i *Instance) { i.PeakWindows = windows }
}

// WithClassTable overrides the default class parameters.
func WithClassTable(t ClassTable) Option {
	return func(i *Instance) { i.Classes = t }
}

// New validates the fleet against the network and assembles an instance.
// Every consecutive station pair of every route must resolve via FindSegment;
// the first failure aborts with a *RouteError naming the train and pair.
func New(net *network.Network, trains []Train, opts ...Option) (*Instance, error) {
	if net == nil {
		return nil, errors.New("nil network")
	}
	if len(trains) == 0 {
		return nil, errors.New("no trains")
	}
	for _, t := range trains {
		if len(t.Route) < 2 {
			return nil, fmt.Errorf("train %s: route must visit at least 2 stations", t.ID)
		}
		if t.ScheduledDeparture < 0 {
			return nil, fmt.Errorf("train %s: negative scheduled departure", t.ID)
		}
		seen := make(map[string]bool, len(t.Route))
		for _, s := range t.Route {
			if _, ok := net.Station(s); !ok {
				return nil, fmt.Errorf("train %s: unknown station %s", t.ID, s)
			}
			if seen[s] {
				return nil, fmt.Errorf("train %s: station %s visited twice", t.ID, s)
			}
			seen[s] = true
		}
		for i := 0; i < len(t.Route)-1; i++ {
			if _, err := net.FindSegment(t.Route[i], t.Route[i+1]); err != nil {
				return nil, &RouteError{TrainID: t.ID, From: t.Route[i], To: t.Route[i+1]}
			}
		}
	}

	inst := &Instance{
		Network:     net,
		Trains:      append([]Train(nil), trains...),
		Weather:     WeatherScenario{Season: SeasonClear, Scale: 1.0},
		PeakWindows: DefaultPeakWindows(),
		Classes:     DefaultClassTable(),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst, nil
}

// MinDwell returns the minimum dwell in minutes for the train at the station:
// the station's class dwell plus crew-change and long-train surcharges.
func (i *Instance) MinDwell(t Train, stationID string) int {
	st, ok := i.Network.Station(stationID)
	if !ok || st.DwellTimes == nil {
		return defaultDwell
	}
	dwell, ok := st.DwellTimes[t.Class.String()]
	if !ok {
		dwell = classDwellFallback
	}
	if st.CrewChange {
		dwell += crewChangeSurcharge
	}
	if t.Coaches > longTrainCoaches && st.WaterColumn {
		dwell += longTrainSurcharge
	}
	return dwell
}

// Train returns the train with the given ID.
func (i *Instance) Train(id string) (Train, bool) {
	for _, t := range i.Trains {
		if t.ID == id {
			return t, true
		}
	}
	return Train{}, false
}

// VisitorsOf returns the trains whose route includes the station, in fleet
// order. The fixed enumeration order keeps gap penalties deterministic.
func (i *Instance) VisitorsOf(stationID string) []Train {
	var visitors []Train
	for _, t := range i.Trains {
		for _, s := range t.Route {
			if s == stationID {
				visitors = append(visitors, t)
				break
			}
		}
	}
	return visitors
}
