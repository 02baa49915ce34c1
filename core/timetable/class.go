package timetable

import (
	"encoding/json"
	"fmt"
)

// Class is a train service class, ordered by precedence. The ordering is
// used for overtaking rights and objective weighting, never hardcoded per
// train name.
type Class int

const (
	Superfast Class = iota
	Express
	MailExpress
	Passenger
	Freight
	Goods
)

var classNames = map[Class]string{
	Superfast:   "superfast",
	Express:     "express",
	MailExpress: "mail_express",
	Passenger:   "passenger",
	Freight:     "freight",
	Goods:       "goods",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// MarshalJSON renders the class by name so exported schedules stay
// readable.
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Class) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseClass(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClass resolves a class name as used in configuration files.
func ParseClass(name string) (Class, error) {
	for c, n := range classNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown train class %q", name)
}

// WeatherPrivileged reports whether the class takes the reduced weather
// addition. Only the two highest-precedence classes qualify.
func (c Class) WeatherPrivileged() bool {
	return c == Superfast || c == Express
}

// Restricted reports whether the class is subject to peak-hour departure
// restrictions.
func (c Class) Restricted() bool {
	return c == Freight || c == Goods
}

// ClassInfo carries the per-class parameters consumed by the engine.
type ClassInfo struct {
	// Weight multiplies delay penalties in the objective.
	Weight int64
	// SlackMultiplier bounds the travel-time variable at
	// floor*SlackMultiplier plus a small buffer. Freight-like classes get
	// a tighter bound.
	SlackMultiplier int
	// Overtakes lists the classes this class may overtake at a shared
	// station.
	Overtakes []Class
}

// ClassTable maps each class to its parameters. It is configuration, not
// engine behaviour; DefaultClassTable mirrors standard operating rules.
type ClassTable map[Class]ClassInfo

// DefaultClassTable returns the standard class parameters.
func DefaultClassTable() ClassTable {
	return ClassTable{
		Superfast:   {Weight: 5, SlackMultiplier: 3, Overtakes: []Class{Express, MailExpress, Passenger, Freight, Goods}},
		Express:     {Weight: 3, SlackMultiplier: 3, Overtakes: []Class{MailExpress, Passenger, Freight, Goods}},
		MailExpress: {Weight: 3, SlackMultiplier: 3, Overtakes: []Class{Passenger, Freight, Goods}},
		Passenger:   {Weight: 2, SlackMultiplier: 3, Overtakes: []Class{Freight, Goods}},
		Freight:     {Weight: 1, SlackMultiplier: 2, Overtakes: []Class{Goods}},
		Goods:       {Weight: 1, SlackMultiplier: 2},
	}
}

// CanOvertake reports whether class a holds overtaking rights over class b.
func (t ClassTable) CanOvertake(a, b Class) bool {
	for _, c := range t[a].Overtakes {
		if c == b {
			return true
		}
	}
	return false
}

// Weight returns the objective weight for c, defaulting to 1.
func (t ClassTable) Weight(c Class) int64 {
	if info, ok := t[c]; ok && info.Weight > 0 {
		return info.Weight
	}
	return 1
}

// SlackMultiplier returns the travel slack multiplier for c, defaulting to 3.
func (t ClassTable) SlackMultiplier(c Class) int {
	if info, ok := t[c]; ok && info.SlackMultiplier > 0 {
		return info.SlackMultiplier
	}
	return 3
}
