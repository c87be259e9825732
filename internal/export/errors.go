package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrOpenDB = errors.New("open results database failed")
	ErrSchema = errors.New("create schema failed")
	ErrWrite  = errors.New("write results failed")
	ErrReport = errors.New("render report failed")
)
