package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMinutes renders minutes from midnight as HH:MM. Hours past 23 are
// kept as-is so schedules running over midnight stay readable.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock parses a HH:MM string into minutes from midnight.
func ParseClock(s string) (int, error) {
	h, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("clock %q: bad hours", s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock %q: bad minutes", s)
	}
	return hours*60 + minutes, nil
}
