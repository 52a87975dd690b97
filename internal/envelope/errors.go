package envelope

import (
	"errors"
	"fmt"
)

// ErrUnknownParameter is returned for a name outside attack, decay, sustain
// and release.
var ErrUnknownParameter = errors.New("unknown envelope parameter")

// InvalidParameterError reports a control value that is not a finite number.
type InvalidParameterError struct {
	Param Param
	Raw   string
	Err   error
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s value %q: %v", e.Param, e.Raw, e.Err)
}

func (e *InvalidParameterError) Unwrap() error { return e.Err }

// DegenerateGeometryError reports an envelope that cannot be laid out, such
// as a zero total duration or a surface smaller than its padding.
type DegenerateGeometryError struct {
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	return "degenerate envelope geometry: " + e.Reason
}
