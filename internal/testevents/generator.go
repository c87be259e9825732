package testevents

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/k0sqa/internal/domain/model"
)

// Kinematic ranges of the synthetic sample.
const (
	vertexSigmaXY = 0.005
	vertexSigmaZ  = 5.0

	decayRadiusMin = 0.5
	decayRadiusMax = 9.5

	signalPtMin = 0.2
	signalPtMax = 3.0

	massPeak  = model.KShortMass
	massSigma = 0.004
	massLo    = 0.4
	massHi    = 0.6

	itsEfficiency = 0.9
	pidSigma      = 1.0
	bkgPIDSigma   = 6.0
)

// innerBarrelBits masks the three innermost tracker layers.
const innerBarrelBits = 0b111

type generator struct {
	rng *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// event synthesizes one collision with its tracks and V0 candidates.
func (g *generator) event(cfg *Config, stats *Stats) model.EventRecord {
	rec := model.EventRecord{
		Collision: model.Collision{
			X:    g.rng.NormFloat64() * vertexSigmaXY,
			Y:    g.rng.NormFloat64() * vertexSigmaXY,
			Z:    g.rng.NormFloat64() * vertexSigmaZ,
			Sel8: g.rng.Float64() < cfg.Sel8Fraction,
		},
	}

	for i := 0; i < cfg.SignalPerEvt; i++ {
		g.addSignalV0(&rec)
		stats.SignalV0s++
	}
	for i := 0; i < cfg.BkgPerEvt; i++ {
		g.addBackgroundV0(&rec)
		stats.BackgroundV0s++
	}
	stats.TracksGenerated += len(rec.Tracks)
	return rec
}

// addSignalV0 appends a K0s-like candidate: the momentum points along the
// flight line from the primary vertex, the mass sits on the peak, and the
// daughters carry realistic detector-hit maps.
func (g *generator) addSignalV0(rec *model.EventRecord) {
	radius := decayRadiusMin + g.rng.Float64()*(decayRadiusMax-decayRadiusMin)
	phi := g.rng.Float64() * 2 * math.Pi
	dz := g.rng.NormFloat64() * 2

	x := rec.Collision.X + radius*math.Cos(phi)
	y := rec.Collision.Y + radius*math.Sin(phi)
	z := rec.Collision.Z + dz

	pt := signalPtMin + g.rng.Float64()*(signalPtMax-signalPtMin)
	// Scale the flight direction to the chosen transverse momentum.
	dx, dy, dzDir := x-rec.Collision.X, y-rec.Collision.Y, z-rec.Collision.Z
	dt := math.Hypot(dx, dy)
	scale := pt / dt

	mass := massPeak + g.rng.NormFloat64()*massSigma
	if mass < massLo {
		mass = massLo
	}
	if mass > massHi {
		mass = massHi
	}

	pos := g.daughter(itsEfficiency, pidSigma)
	neg := g.daughter(itsEfficiency, pidSigma)
	rec.Tracks = append(rec.Tracks, pos, neg)
	rec.V0s = append(rec.V0s, model.V0{
		PosTrackID: pos.ID,
		NegTrackID: neg.ID,
		X:          x, Y: y, Z: z,
		Px: dx * scale, Py: dy * scale, Pz: dzDir * scale,
		MK0Short: mass,
	})
}

// addBackgroundV0 appends a combinatorial candidate: momentum decorrelated
// from the flight line, flat mass, and loose PID.
func (g *generator) addBackgroundV0(rec *model.EventRecord) {
	radius := decayRadiusMin + g.rng.Float64()*(decayRadiusMax-decayRadiusMin)
	phi := g.rng.Float64() * 2 * math.Pi

	x := rec.Collision.X + radius*math.Cos(phi)
	y := rec.Collision.Y + radius*math.Sin(phi)
	z := rec.Collision.Z + g.rng.NormFloat64()*5

	pPhi := g.rng.Float64() * 2 * math.Pi
	pt := signalPtMin + g.rng.Float64()*(signalPtMax-signalPtMin)

	pos := g.daughter(itsEfficiency/2, bkgPIDSigma)
	neg := g.daughter(itsEfficiency/2, bkgPIDSigma)
	rec.Tracks = append(rec.Tracks, pos, neg)
	rec.V0s = append(rec.V0s, model.V0{
		PosTrackID: pos.ID,
		NegTrackID: neg.ID,
		X:          x, Y: y, Z: z,
		Px: pt * math.Cos(pPhi), Py: pt * math.Sin(pPhi), Pz: g.rng.NormFloat64(),
		MK0Short: massLo + g.rng.Float64()*(massHi-massLo),
	})
}

// daughter synthesizes one daughter track. The cluster map populates the
// inner-barrel bits layer by layer so the hit-count spectrum covers 0..3.
func (g *generator) daughter(itsEff, nSigma float64) model.Track {
	t := model.Track{
		ID:          uuid.NewString(),
		HasTPC:      true,
		TPCNSigmaPi: g.rng.NormFloat64() * nSigma,
	}
	if g.rng.Float64() < itsEff {
		t.HasITS = true
		var m uint8
		for layer := 0; layer < 7; layer++ {
			if g.rng.Float64() < 0.8 {
				m |= 1 << layer
			}
		}
		if m&innerBarrelBits == 0 {
			m |= 1
		}
		t.ITSClusterMap = m
	}
	return t
}
