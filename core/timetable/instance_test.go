package timetable

import (
	"errors"
	"testing"

	"github.com/railos/railsched/core/network"
)

func testNet(t *testing.T) *network.Network {
	t.Helper()
	n, err := network.New(
		[]network.Station{
			{ID: "A", Platforms: 4, Loops: 2, DwellTimes: map[string]int{"superfast": 3, "express": 4, "passenger": 6, "freight": 15}},
			{ID: "B", Platforms: 2, Loops: 1, CrewChange: true, WaterColumn: true, DwellTimes: map[string]int{"superfast": 5, "express": 6, "passenger": 8, "freight": 20}},
			{ID: "C", Platforms: 1, Loops: 1},
		},
		[]network.Segment{
			{From: "A", To: "B", Tracks: 2, MinTravelTime: 15},
			{From: "B", To: "C", Tracks: 1, MinTravelTime: 45},
		},
	)
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	return n
}

func TestNewRejectsUnroutableTrain(t *testing.T) {
	net := testNet(t)
	_, err := New(net, []Train{
		{ID: "T1", Class: Express, Priority: 3, Route: []string{"A", "C"}, ScheduledDeparture: 60},
	})
	var rerr *RouteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RouteError got %v", err)
	}
	if rerr.TrainID != "T1" || rerr.From != "A" || rerr.To != "C" {
		t.Fatalf("error does not name offending pair: %+v", rerr)
	}
}

func TestNewRejectsShortRoute(t *testing.T) {
	net := testNet(t)
	if _, err := New(net, []Train{{ID: "T1", Route: []string{"A"}}}); err == nil {
		t.Fatalf("expected error for single-station route")
	}
}

func TestMinDwellSurcharges(t *testing.T) {
	net := testNet(t)
	inst, err := New(net, []Train{
		{ID: "T1", Class: Express, Priority: 3, Route: []string{"A", "B"}, ScheduledDeparture: 60, Coaches: 22},
	})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	train := inst.Trains[0]

	// A: class dwell only.
	if got := inst.MinDwell(train, "A"); got != 4 {
		t.Fatalf("dwell at A: expected 4 got %d", got)
	}
	// B: class dwell 6 + crew change 5 + long-train 3.
	if got := inst.MinDwell(train, "B"); got != 14 {
		t.Fatalf("dwell at B: expected 14 got %d", got)
	}
	// C: no dwell table -> default.
	if got := inst.MinDwell(train, "C"); got != 1 {
		t.Fatalf("dwell at C: expected 1 got %d", got)
	}
}

func TestMinDwellClassFallback(t *testing.T) {
	net := testNet(t)
	inst, err := New(net, []Train{
		{ID: "T1", Class: Goods, Priority: 1, Route: []string{"A", "B"}, ScheduledDeparture: 0},
	})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	// goods is absent from A's table -> fallback 3.
	if got := inst.MinDwell(inst.Trains[0], "A"); got != 3 {
		t.Fatalf("expected fallback dwell 3 got %d", got)
	}
}

func TestVisitorsOfPreservesFleetOrder(t *testing.T) {
	net := testNet(t)
	inst, err := New(net, []Train{
		{ID: "T1", Class: Express, Priority: 3, Route: []string{"A", "B"}, ScheduledDeparture: 0},
		{ID: "T2", Class: Goods, Priority: 1, Route: []string{"B", "C"}, ScheduledDeparture: 0},
		{ID: "T3", Class: Passenger, Priority: 2, Route: []string{"A", "B", "C"}, ScheduledDeparture: 0},
	})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	visitors := inst.VisitorsOf("B")
	if len(visitors) != 3 || visitors[0].ID != "T1" || visitors[1].ID != "T2" || visitors[2].ID != "T3" {
		t.Fatalf("unexpected visitor order: %+v", visitors)
	}
}
