package network

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSegmentNotFound indicates no track segment connects the requested
// station pair. Callers must treat this as a configuration error.
var ErrSegmentNotFound = errors.New("segment not found")

// Station describes a stopping point and its fixed resources. Capacity for
// simultaneous occupation is Platforms+Loops.
type Station struct {
	ID         string
	Platforms  int
	Loops      int
	CrewChange bool
	// WaterColumn marks stations equipped to service long consists, which
	// adds a dwell surcharge for trains exceeding the coach threshold.
	WaterColumn bool
	// DwellTimes holds the minimum dwell in minutes per train class name.
	// Classes absent from the map fall back to a default.
	DwellTimes map[string]int
}

// Capacity returns the number of trains the station can hold at once.
func (s Station) Capacity() int {
	return s.Platforms + s.Loops
}

// Segment is a track connection between two stations. The endpoint order
// carries no meaning: a segment is looked up and occupied in either
// direction. Tracks==1 marks a contested single-track section.
type Segment struct {
	From          string
	To            string
	LengthKM      int
	Tracks        int
	MinTravelTime int
	Electrified   bool
}

// SingleTrack reports whether the segment is a contested resource.
func (s Segment) SingleTrack() bool {
	return s.Tracks == 1
}

// Connects reports whether the segment joins a and b, in either direction.
func (s Segment) Connects(a, b string) bool {
	return (s.From == a && s.To == b) || (s.From == b && s.To == a)
}

// Network is the immutable rail topology: stations indexed by ID plus the
// segment list. Build it once with New before constructing an instance.
type Network struct {
	stations map[string]Station
	segments []Segment
}

// New builds a network from station and segment definitions. Segment
// endpoints must reference declared stations.
func New(stations []Station, segments []Segment) (*Network, error) {
	byID := make(map[string]Station, len(stations))
	for _, st := range stations {
		if st.ID == "" {
			return nil, errors.New("station with empty id")
		}
		if _, dup := byID[st.ID]; dup {
			return nil, fmt.Errorf("duplicate station %s", st.ID)
		}
		byID[st.ID] = st
	}
	for _, seg := range segments {
		if _, ok := byID[seg.From]; !ok {
			return nil, fmt.Errorf("segment %s-%s: unknown station %s", seg.From, seg.To, seg.From)
		}
		if _, ok := byID[seg.To]; !ok {
			return nil, fmt.Errorf("segment %s-%s: unknown station %s", seg.From, seg.To, seg.To)
		}
		if seg.Tracks < 1 {
			return nil, fmt.Errorf("segment %s-%s: track count must be >= 1", seg.From, seg.To)
		}
		if seg.MinTravelTime <= 0 {
			return nil, fmt.Errorf("segment %s-%s: min travel time must be positive", seg.From, seg.To)
		}
	}
	segs := make([]Segment, len(segments))
	copy(segs, segments)
	return &Network{stations: byID, segments: segs}, nil
}

// FindSegment returns the segment connecting a and b irrespective of the
// stored direction, or ErrSegmentNotFound.
func (n *Network) FindSegment(a, b string) (Segment, error) {
	for _, seg := range n.segments {
		if seg.Connects(a, b) {
			return seg, nil
		}
	}
	return Segment{}, fmt.Errorf("%s-%s: %w", a, b, ErrSegmentNotFound)
}

// Station returns the station with the given ID.
func (n *Network) Station(id string) (Station, bool) {
	st, ok := n.stations[id]
	return st, ok
}

// Stations returns all station IDs, sorted. The fixed order keeps model
// construction and event reporting deterministic.
func (n *Network) Stations() []string {
	ids := make([]string, 0, len(n.stations))
	for id := range n.stations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Segments returns a copy of the segment list.
func (n *Network) Segments() []Segment {
	segs := make([]Segment, len(n.segments))
	copy(segs, n.segments)
	return segs
}

// SingleTrackSegments returns only the contested segments.
func (n *Network) SingleTrackSegments() []Segment {
	var segs []Segment
	for _, seg := range n.segments {
		if seg.SingleTrack() {
			segs = append(segs, seg)
		}
	}
	return segs
}
