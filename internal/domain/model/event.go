// Package model contains the reconstructed-event domain types passed between layers.
package model

import "math"

// KShortMass is the PDG K0s mass in GeV/c^2, used for the rapidity hypothesis.
const KShortMass = 0.497611

// Collision represents a reconstructed collision event.
type Collision struct {
	// Primary vertex position in cm.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// Sel8 is the event quality-selection flag, provided upstream.
	Sel8 bool `json:"sel8"`
}

// Track represents a reconstructed charged track.
type Track struct {
	ID string `json:"id"`

	// Detector-subsystem hit flags.
	HasTPC bool `json:"has_tpc"`
	HasITS bool `json:"has_its"`

	// ITSClusterMap has bit i set when ITS layer i recorded a hit.
	ITSClusterMap uint8 `json:"its_cluster_map"`

	// TPCNSigmaPi is the deviation from the pion hypothesis in the TPC,
	// in standard deviations.
	TPCNSigmaPi float64 `json:"tpc_nsigma_pi"`
}

// V0 represents a reconstructed neutral-decay vertex with two charged daughters.
type V0 struct {
	PosTrackID string `json:"pos_track_id"`
	NegTrackID string `json:"neg_track_id"`

	// Decay vertex position in cm.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// Momentum at the decay vertex in GeV/c.
	Px float64 `json:"px"`
	Py float64 `json:"py"`
	Pz float64 `json:"pz"`

	// MK0Short is the invariant mass under the K0s hypothesis, computed
	// upstream from the daughter momenta, in GeV/c^2.
	MK0Short float64 `json:"m_k0short"`
}

// Radius returns the transverse decay radius in cm.
func (v V0) Radius() float64 {
	return math.Hypot(v.X, v.Y)
}

// Pt returns the transverse momentum in GeV/c.
func (v V0) Pt() float64 {
	return math.Hypot(v.Px, v.Py)
}

// CosPA returns the cosine of the pointing angle: the angle between the V0
// momentum and the line from the given primary vertex to the decay vertex.
// Returns -1 when either vector is degenerate, so a degenerate candidate
// fails any physical cut.
func (v V0) CosPA(px, py, pz float64) float64 {
	dx := v.X - px
	dy := v.Y - py
	dz := v.Z - pz

	p := math.Sqrt(v.Px*v.Px + v.Py*v.Py + v.Pz*v.Pz)
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if p == 0 || d == 0 {
		return -1
	}

	cos := (v.Px*dx + v.Py*dy + v.Pz*dz) / (p * d)
	// Clamp rounding noise.
	if cos > 1 {
		return 1
	}
	if cos < -1 {
		return -1
	}
	return cos
}

// RapidityK0Short returns the rapidity under the K0s mass hypothesis.
func (v V0) RapidityK0Short() float64 {
	p2 := v.Px*v.Px + v.Py*v.Py + v.Pz*v.Pz
	e := math.Sqrt(p2 + KShortMass*KShortMass)
	if e <= math.Abs(v.Pz) {
		return math.Inf(int(math.Copysign(1, v.Pz)))
	}
	return 0.5 * math.Log((e+v.Pz)/(e-v.Pz))
}

// EventRecord bundles one collision with its candidate and track tables.
type EventRecord struct {
	Collision Collision `json:"collision"`
	Tracks    []Track   `json:"tracks"`
	V0s       []V0      `json:"v0s"`
}

// TrackByID returns the track with the given id, fail-closed: ok is false
// when the id does not resolve.
func (r EventRecord) TrackByID(id string) (Track, bool) {
	for _, t := range r.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}
