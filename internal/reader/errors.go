package reader

import "errors"

// Sentinel kinds for reader errors.
var (
	ErrOpenInput       = errors.New("open input failed")
	ErrReadInput       = errors.New("read input failed")
	ErrMalformedRecord = errors.New("malformed event record")
)
