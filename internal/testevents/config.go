package testevents

import "time"

// Default generator parameters.
const (
	DefaultNumEvents    = 1000
	DefaultSignalPerEvt = 2
	DefaultBkgPerEvt    = 1
	DefaultSel8Fraction = 0.9
)

// Config holds the parameters of a synthetic event sample.
type Config struct {
	NumEvents    int     // Number of collision events to generate
	SignalPerEvt int     // K0s-like V0 candidates per event
	BkgPerEvt    int     // Combinatorial-background candidates per event
	Sel8Fraction float64 // Fraction of events passing the quality selection
	Seed         uint64  // Seed for reproducible samples
	OutputFile   string  // Output path; a .gz suffix enables compression
}

// Stats holds generation statistics.
type Stats struct {
	EventsGenerated int
	SignalV0s       int
	BackgroundV0s   int
	TracksGenerated int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
