// Package config defines analysis configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Default selection cuts. These mirror the defaults of the upstream QA task.
const (
	DefaultMinCosPA       = 0.995
	DefaultMaxRapidity    = 0.5
	DefaultMaxTPCNSigmaPi = 10.0
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Input is the path to the event file (JSON lines, optionally gzipped).
	Input string `koanf:"input"`

	// OutputDB is the SQLite file the histograms are written to.
	// Empty disables the SQLite export.
	OutputDB string `koanf:"output_db"`

	// Report is the path of the HTML histogram report. Empty disables it.
	Report string `koanf:"report"`

	// MetricsAddr exposes Prometheus metrics while the run is active,
	// e.g. ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of event-processing workers.
	WorkerCount int `koanf:"worker_count"`

	// V0CosPA is the minimum pointing-angle cosine for a V0 candidate.
	V0CosPA float64 `koanf:"v0_cos_pa"`

	// MaxRapidity bounds |y| of the candidate under the K0s hypothesis.
	MaxRapidity float64 `koanf:"max_rapidity"`

	// MaxTPCNSigmaPi is the upper bound on the daughters' pion nSigma in the TPC.
	MaxTPCNSigmaPi float64 `koanf:"max_tpc_nsigma_pi"`

	// EventSelection gates V0 processing on the collision quality flag.
	EventSelection bool `koanf:"event_selection"`
}

// New creates a Config with defaults.
func New() *Config {
	c := &Config{
		LogLevel:       "info",
		Input:          "events.jsonl",
		OutputDB:       "k0sqa.db",
		Report:         "",
		MetricsAddr:    "",
		EventQueueSize: 10_000,
		WorkerCount:    runtime.NumCPU(),
		V0CosPA:        DefaultMinCosPA,
		MaxRapidity:    DefaultMaxRapidity,
		MaxTPCNSigmaPi: DefaultMaxTPCNSigmaPi,
		EventSelection: true,
	}
	return c
}
