package style

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidImage is returned for a nil, empty or unsupported frame.
	ErrInvalidImage = errors.New("invalid image")

	// ErrTransform classifies failures raised while a style transforms a frame.
	ErrTransform = errors.New("transform failed")

	// ErrStyleNotFound is returned when no style is registered under a name.
	ErrStyleNotFound = errors.New("style not found")

	// ErrUnknownVariant is returned when a style has no variant with the given name.
	ErrUnknownVariant = errors.New("unknown variant")
)

// TransformError wraps a failure inside a style's Apply.
type TransformError struct {
	Style   string
	Variant string
	Err     error
}

func (e *TransformError) Error() string {
	if e.Variant != "" {
		return fmt.Sprintf("style %q (%s): %v", e.Style, e.Variant, e.Err)
	}
	return fmt.Sprintf("style %q: %v", e.Style, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransform.
func (e *TransformError) Is(target error) bool {
	return target == ErrTransform
}
