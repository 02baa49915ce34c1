package timetable

import (
	"time"
)

// Season selects the active weather table.
type Season string

const (
	SeasonClear   Season = "clear"
	SeasonMonsoon Season = "monsoon"
	SeasonWinter  Season = "winter"
	SeasonSummer  Season = "summer"
)

// SeasonFor maps a scenario date to the season whose weather table applies.
func SeasonFor(date time.Time) Season {
	switch date.Month() {
	case time.June, time.July, time.August, time.September:
		return SeasonMonsoon
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.April, time.May:
		return SeasonSummer
	default:
		return SeasonClear
	}
}

// Section identifies a directed traversal of a segment. Weather affects
// directed sections: a climb can be slowed while the descent is not.
type Section struct {
	From string
	To   string
}

// MinScale and MaxScale bound the weather delay scale factor. Values outside
// the range are clamped, never rejected.
const (
	MinScale = 0.0
	MaxScale = 2.0
)

// WeatherScenario holds the additional travel minutes per affected directed
// section for one season, plus a linear scale applied to every addition.
type WeatherScenario struct {
	Season   Season
	Sections map[Section]int
	// Scale linearly adjusts all additions. Expected in [MinScale, MaxScale].
	Scale float64
}

// ClampScale returns the scenario with Scale forced into its valid range and
// reports whether a clamp occurred, so the caller can log the adjustment.
func (w WeatherScenario) ClampScale() (WeatherScenario, bool) {
	switch {
	case w.Scale < MinScale:
		w.Scale = MinScale
		return w, true
	case w.Scale > MaxScale:
		w.Scale = MaxScale
		return w, true
	default:
		return w, false
	}
}

// Additional returns the extra minutes imposed on the directed section
// from->to for a train of class c, after scaling. The two highest-precedence
// classes take half the addition.
func (w WeatherScenario) Additional(from, to string, c Class) int {
	add, ok := w.Sections[Section{From: from, To: to}]
	if !ok || add <= 0 {
		return 0
	}
	scaled := float64(add) * w.Scale
	if c.WeatherPrivileged() {
		scaled /= 2
	}
	return int(scaled + 0.5)
}

// MaintenanceBlock describes a planned possession of a section. Blocks are
// carried as data; constraint enforcement is optional (see engine.Config).
type MaintenanceBlock struct {
	Section    Section
	Start      int // minute of day
	End        int // minute of day
	SingleLine bool
}

// Delay returns the delay minutes a traversal conflicting with this block
// incurs when enforcement is enabled.
func (b MaintenanceBlock) Delay() int {
	if b.SingleLine {
		return 30
	}
	return 15
}

// Covers reports whether the block affects the section from->to in either
// direction.
func (b MaintenanceBlock) Covers(from, to string) bool {
	return (b.Section.From == from && b.Section.To == to) ||
		(b.Section.From == to && b.Section.To == from)
}

// PeakWindow is a minute-of-day interval during which restricted classes
// incur a forced operational delay on departure.
type PeakWindow struct {
	Start int
	End   int
}

// Contains reports whether minute m falls inside the window.
func (p PeakWindow) Contains(m int) bool {
	return m >= p.Start && m <= p.End
}

// DefaultPeakWindows returns the standard morning and evening peaks.
func DefaultPeakWindows() []PeakWindow {
	return []PeakWindow{
		{Start: 7 * 60, End: 10 * 60},
		{Start: 17 * 60, End: 20 * 60},
	}
}
