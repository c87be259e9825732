// Package stats computes end-of-run summaries over accumulated histograms.
package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/okian/k0sqa/internal/histogram"
)

// Default signal window around the K0s mass peak, in GeV/c^2.
const (
	DefaultWindowLo = 0.48
	DefaultWindowHi = 0.52
)

// MassSummary characterizes the invariant-mass distribution of the accepted
// candidates.
type MassSummary struct {
	// Entries counts fills, including under/overflow.
	Entries int64

	// InRange counts fills inside the histogram range.
	InRange float64

	// Mean and StdDev are weighted over the bin centers.
	Mean   float64
	StdDev float64

	// SignalFraction is the in-range fraction inside [WindowLo, WindowHi].
	SignalFraction float64
	WindowLo       float64
	WindowHi       float64
}

// SummarizeMass computes a MassSummary from a mass-histogram snapshot using
// the given signal window.
func SummarizeMass(snap histogram.H1Snapshot, windowLo, windowHi float64) MassSummary {
	s := MassSummary{
		Entries:  snap.Entries,
		WindowLo: windowLo,
		WindowHi: windowHi,
	}

	centers := make([]float64, snap.Axis.Bins)
	weights := make([]float64, snap.Axis.Bins)
	var total, inWindow float64
	for i := 0; i < snap.Axis.Bins; i++ {
		centers[i] = snap.Axis.BinCenter(i)
		weights[i] = snap.Counts[i]
		total += snap.Counts[i]
		if centers[i] >= windowLo && centers[i] <= windowHi {
			inWindow += snap.Counts[i]
		}
	}
	s.InRange = total
	if total == 0 {
		return s
	}

	s.Mean = stat.Mean(centers, weights)
	s.StdDev = stat.StdDev(centers, weights)
	s.SignalFraction = inWindow / total
	return s
}
