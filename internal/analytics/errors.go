package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means too few usable observations remained
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidParameter means caller-supplied parameters violate an invariant
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyEnsemble means aggregation was requested on zero paths
	ErrEmptyEnsemble = errors.New("empty ensemble")
)

// InsufficientDataError reports how many usable points an operation needed
type InsufficientDataError struct {
	Operation string
	Need      int
	Have      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data points: need %d, have %d", e.Operation, e.Need, e.Have)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// InvalidParameterError names the offending parameter
type InvalidParameterError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}
