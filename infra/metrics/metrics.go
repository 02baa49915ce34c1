// Package metrics records solver run statistics. Sinks are optional: the
// engine accepts a NopSink when no monitoring backend is configured.
package metrics

import "time"

// SolveStats summarizes one solver run.
type SolveStats struct {
	Status    string
	Objective float64
	WallTime  time.Duration
	Trains    int
}

// Sink receives solver run statistics.
type Sink interface {
	RecordSolve(stats SolveStats) error
}

// NopSink discards all statistics.
type NopSink struct{}

// RecordSolve implements Sink.
func (NopSink) RecordSolve(SolveStats) error { return nil }
