package network

import (
	"errors"
	"testing"
)

func testNetwork(t *testing.T) *Network {
	t.Helper()
	n, err := New(
		[]Station{
			{ID: "A", Platforms: 4, Loops: 2},
			{ID: "B", Platforms: 2, Loops: 1},
			{ID: "C", Platforms: 1, Loops: 0},
		},
		[]Segment{
			{From: "A", To: "B", Tracks: 2, MinTravelTime: 15},
			{From: "B", To: "C", Tracks: 1, MinTravelTime: 45},
		},
	)
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	return n
}

func TestFindSegmentEitherDirection(t *testing.T) {
	n := testNetwork(t)
	fwd, err := n.FindSegment("A", "B")
	if err != nil {
		t.Fatalf("forward lookup: %v", err)
	}
	rev, err := n.FindSegment("B", "A")
	if err != nil {
		t.Fatalf("reverse lookup: %v", err)
	}
	if fwd != rev {
		t.Fatalf("expected same segment, got %+v and %+v", fwd, rev)
	}
	if fwd.MinTravelTime != 15 {
		t.Fatalf("expected min travel 15 got %d", fwd.MinTravelTime)
	}
}

func TestFindSegmentNotFound(t *testing.T) {
	n := testNetwork(t)
	if _, err := n.FindSegment("A", "C"); !errors.Is(err, ErrSegmentNotFound) {
		t.Fatalf("expected ErrSegmentNotFound got %v", err)
	}
}

func TestSingleTrackSegments(t *testing.T) {
	n := testNetwork(t)
	segs := n.SingleTrackSegments()
	if len(segs) != 1 || !segs[0].Connects("B", "C") {
		t.Fatalf("expected single track B-C, got %+v", segs)
	}
}

func TestStationCapacity(t *testing.T) {
	n := testNetwork(t)
	st, ok := n.Station("A")
	if !ok {
		t.Fatalf("station A missing")
	}
	if st.Capacity() != 6 {
		t.Fatalf("expected capacity 6 got %d", st.Capacity())
	}
}

func TestNewRejectsUnknownEndpoint(t *testing.T) {
	_, err := New(
		[]Station{{ID: "A"}},
		[]Segment{{From: "A", To: "Z", Tracks: 2, MinTravelTime: 5}},
	)
	if err == nil {
		t.Fatalf("expected error for unknown endpoint")
	}
}

func TestNewRejectsDuplicateStation(t *testing.T) {
	_, err := New([]Station{{ID: "A"}, {ID: "A"}}, nil)
	if err == nil {
		t.Fatalf("expected error for duplicate station")
	}
}
