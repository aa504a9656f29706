package param

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by strict validation. Use errors.Is to classify
// and errors.As to reach the detailed error types.
var (
	// ErrParameterOutOfRange indicates a numeric value outside its bounds.
	ErrParameterOutOfRange = errors.New("parameter out of range")

	// ErrParameterInvalidOption indicates an enum value that is not allowed.
	ErrParameterInvalidOption = errors.New("parameter has invalid option")

	// ErrParameterType indicates a value whose type does not match the parameter kind.
	ErrParameterType = errors.New("parameter has wrong type")
)

// OutOfRangeError names the offending parameter and its bounds.
type OutOfRangeError struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("parameter %q: value %v outside [%v, %v]", e.Name, e.Value, e.Min, e.Max)
}

// Is matches ErrParameterOutOfRange.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrParameterOutOfRange
}

// InvalidOptionError names the offending parameter and the allowed set.
type InvalidOptionError struct {
	Name    string
	Value   any
	Allowed []string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("parameter %q: %v is not one of [%s]", e.Name, e.Value, strings.Join(e.Allowed, ", "))
}

// Is matches ErrParameterInvalidOption.
func (e *InvalidOptionError) Is(target error) bool {
	return target == ErrParameterInvalidOption
}

func typeError(s Spec, v any) error {
	return fmt.Errorf("%w: %q expects %s, got %T", ErrParameterType, s.Name, s.Kind, v)
}
