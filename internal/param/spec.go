// Package param describes the tunable values of a style and validates raw input against them.
package param

import (
	"fmt"
	"slices"
)

// Kind is the value type of a parameter.
type Kind string

const (
	// KindInt is an integer parameter bounded by Min and Max.
	KindInt Kind = "int"
	// KindFloat is a floating point parameter bounded by Min and Max.
	KindFloat Kind = "float"
	// KindEnum is a string parameter restricted to Options.
	KindEnum Kind = "enum"
	// KindBool is a boolean toggle.
	KindBool Kind = "bool"
	// KindString is a free-form string such as a file path.
	KindString Kind = "string"
)

// IsNumeric reports whether values of this kind carry bounds.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Spec declares a single parameter of a style.
type Spec struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"type"`
	Default any      `json:"default"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Options []string `json:"options,omitempty"`
	Label   string   `json:"label"`
}

// Int declares an integer parameter with a step of 1.
func Int(name, label string, def, min, max int) Spec {
	return Spec{
		Name:    name,
		Kind:    KindInt,
		Default: def,
		Min:     float64(min),
		Max:     float64(max),
		Step:    1,
		Label:   label,
	}
}

// Float declares a floating point parameter.
func Float(name, label string, def, min, max, step float64) Spec {
	return Spec{
		Name:    name,
		Kind:    KindFloat,
		Default: def,
		Min:     min,
		Max:     max,
		Step:    step,
		Label:   label,
	}
}

// Enum declares a parameter restricted to a fixed set of options.
func Enum(name, label, def string, options ...string) Spec {
	return Spec{
		Name:    name,
		Kind:    KindEnum,
		Default: def,
		Options: options,
		Label:   label,
	}
}

// Bool declares a boolean parameter.
func Bool(name, label string, def bool) Spec {
	return Spec{
		Name:    name,
		Kind:    KindBool,
		Default: def,
		Label:   label,
	}
}

// String declares a free-form string parameter.
func String(name, label, def string) Spec {
	return Spec{
		Name:    name,
		Kind:    KindString,
		Default: def,
		Label:   label,
	}
}

// Check verifies the spec is internally consistent: min <= default <= max
// for numeric kinds and default is one of the options for enums.
func (s Spec) Check() error {
	if s.Name == "" {
		return fmt.Errorf("parameter has no name")
	}

	switch s.Kind {
	case KindInt, KindFloat:
		def, err := s.numericDefault()
		if err != nil {
			return err
		}
		if s.Min > s.Max {
			return fmt.Errorf("parameter %q: min %v is greater than max %v", s.Name, s.Min, s.Max)
		}
		if def < s.Min || def > s.Max {
			return fmt.Errorf("parameter %q: default %v outside [%v, %v]", s.Name, def, s.Min, s.Max)
		}
	case KindEnum:
		def, ok := s.Default.(string)
		if !ok {
			return fmt.Errorf("parameter %q: enum default must be a string", s.Name)
		}
		if !slices.Contains(s.Options, def) {
			return fmt.Errorf("parameter %q: default %q not in %v", s.Name, def, s.Options)
		}
	case KindBool:
		if _, ok := s.Default.(bool); !ok {
			return fmt.Errorf("parameter %q: bool default must be a bool", s.Name)
		}
	case KindString:
		if _, ok := s.Default.(string); !ok {
			return fmt.Errorf("parameter %q: string default must be a string", s.Name)
		}
	default:
		return fmt.Errorf("parameter %q: unknown kind %q", s.Name, s.Kind)
	}

	return nil
}

func (s Spec) numericDefault() (float64, error) {
	v, ok := toFloat(s.Default)
	if !ok {
		return 0, fmt.Errorf("parameter %q: numeric default has type %T", s.Name, s.Default)
	}
	if s.Kind == KindInt && v != float64(int(v)) {
		return 0, fmt.Errorf("parameter %q: integer default %v is not integral", s.Name, v)
	}
	return v, nil
}

// CheckSchema checks every spec and rejects duplicate names.
func CheckSchema(specs []Spec) error {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if err := s.Check(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate parameter %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Find returns the spec with the given name.
func Find(specs []Spec, name string) (Spec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
