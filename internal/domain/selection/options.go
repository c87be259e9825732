// Package selection implements the K0s candidate selection.
package selection

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithMinCosPA sets the minimum pointing-angle cosine.
func WithMinCosPA(cospa float64) Option {
	return func(s *Selector) {
		if cospa >= -1 && cospa <= 1 {
			s.minCosPA = cospa
		}
	}
}

// WithMaxRapidity sets the bound on |y| under the K0s hypothesis.
func WithMaxRapidity(y float64) Option {
	return func(s *Selector) {
		if y >= 0 {
			s.maxRapidity = y
		}
	}
}

// WithMaxTPCNSigmaPi sets the upper bound on the daughters' pion nSigma.
func WithMaxTPCNSigmaPi(n float64) Option {
	return func(s *Selector) {
		s.maxTPCNSigmaPi = n
	}
}
