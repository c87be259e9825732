// Package selection implements the K0s candidate selection and the
// classification of the daughters' detector-hit status.
package selection

import (
	"github.com/okian/k0sqa/internal/domain/model"
)

// Default selection cuts, matching the upstream QA task.
const (
	defaultMinCosPA       = 0.995
	defaultMaxRapidity    = 0.5
	defaultMaxTPCNSigmaPi = 10.0
)

// innerBarrelLayers is the number of innermost ITS layers counted for the
// inner-barrel hit status.
const innerBarrelLayers = 3

// Rejection reasons reported by RejectionReason.
const (
	RejectCosPA    = "cospa"
	RejectRapidity = "rapidity"
	RejectTPC      = "tpc"
	RejectPID      = "pid"
)

// Selector applies the V0 selection cuts. It carries no mutable state and is
// safe for concurrent use.
type Selector struct {
	minCosPA       float64
	maxRapidity    float64
	maxTPCNSigmaPi float64
}

// New creates a Selector with configuration options.
func New(opts ...Option) *Selector {
	s := &Selector{
		minCosPA:       defaultMinCosPA,
		maxRapidity:    defaultMaxRapidity,
		maxTPCNSigmaPi: defaultMaxTPCNSigmaPi,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AcceptV0 reports whether the candidate passes all selection cuts against
// the given collision's primary vertex. Pure predicate, no side effects.
func (s *Selector) AcceptV0(v0 model.V0, posTrack, negTrack model.Track, col model.Collision) bool {
	return s.RejectionReason(v0, posTrack, negTrack, col) == ""
}

// RejectionReason returns the first failing cut, or "" when the candidate is
// accepted. Cuts are written as positive conditions so that NaN fields
// fail closed.
func (s *Selector) RejectionReason(v0 model.V0, posTrack, negTrack model.Track, col model.Collision) string {
	// Candidate-level cuts.
	if !(v0.CosPA(col.X, col.Y, col.Z) >= s.minCosPA) {
		return RejectCosPA
	}
	y := v0.RapidityK0Short()
	if !(y >= -s.maxRapidity && y <= s.maxRapidity) {
		return RejectRapidity
	}

	// Daughter-level cuts.
	if !posTrack.HasTPC || !negTrack.HasTPC {
		return RejectTPC
	}
	// Upper bound only, not |nSigma|: kept as the upstream task applies it.
	if !(posTrack.TPCNSigmaPi <= s.maxTPCNSigmaPi && negTrack.TPCNSigmaPi <= s.maxTPCNSigmaPi) {
		return RejectPID
	}
	return ""
}

// DaughterStatus is the detector-hit classification of one daughter track.
type DaughterStatus struct {
	// HasITS reports a hit anywhere in the ITS.
	HasITS bool

	// InnerBarrelHits counts hits on the innermost three ITS layers, in [0,3].
	InnerBarrelHits int

	// HasInnerBarrel is true when at least one inner-barrel layer was hit.
	HasInnerBarrel bool
}

// ClassifyDaughter computes the hit-status classification for one daughter.
func ClassifyDaughter(t model.Track) DaughterStatus {
	hits := 0
	for i := 0; i < innerBarrelLayers; i++ {
		if t.ITSClusterMap&(1<<i) != 0 {
			hits++
		}
	}
	return DaughterStatus{
		HasITS:          t.HasITS,
		InnerBarrelHits: hits,
		HasInnerBarrel:  hits > 0,
	}
}
