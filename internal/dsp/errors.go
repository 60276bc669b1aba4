package dsp

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every parameter validation error.
var ErrInvalidConfig = errors.New("invalid dsp configuration")

// InsufficientDataError reports that a stage was given fewer samples than it
// needs to produce any output. The stage is skipped rather than run on
// partial input.
type InsufficientDataError struct {
	Stage string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: not enough samples: have %d, need at least %d", e.Stage, e.Have, e.Need)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
