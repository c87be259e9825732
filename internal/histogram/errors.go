package histogram

import (
	"errors"
	"fmt"
)

// Sentinel kinds for histogram errors.
var (
	ErrNotBooked         = errors.New("histogram not booked")
	ErrAlreadyBooked     = errors.New("histogram already booked")
	ErrInvalidAxis       = errors.New("invalid axis")
	ErrDimensionMismatch = errors.New("coordinate dimension mismatch")
	ErrUnknownLabel      = errors.New("unknown counter label")
)

func wrapName(err error, name string) error {
	return fmt.Errorf("%w: %s", err, name)
}
