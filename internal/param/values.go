package param

import (
	"encoding/json"
	"maps"
	"sort"
)

// Raw is untrusted parameter input keyed by parameter name. Values decoded
// from JSON arrive as float64, bool or string.
type Raw map[string]any

// Values is a validated, immutable set of parameter values. Every key is a
// known parameter of the schema it was validated against and every value
// has the Go type of its kind: int, float64, bool or string.
//
// Values are replaced as a whole, never mutated, so a snapshot can be shared
// between goroutines without locking.
type Values struct {
	m map[string]any
}

// Defaults returns the default value of every spec.
func Defaults(specs []Spec) Values {
	m := make(map[string]any, len(specs))
	for _, s := range specs {
		m[s.Name] = normalizeDefault(s)
	}
	return Values{m: m}
}

func normalizeDefault(s Spec) any {
	switch s.Kind {
	case KindInt:
		v, _ := toFloat(s.Default)
		return int(v)
	case KindFloat:
		v, _ := toFloat(s.Default)
		return v
	default:
		return s.Default
	}
}

// Len returns the number of values.
func (v Values) Len() int {
	return len(v.m)
}

// Has reports whether a value exists for name.
func (v Values) Has(name string) bool {
	_, ok := v.m[name]
	return ok
}

// Get returns the raw value for name.
func (v Values) Get(name string) (any, bool) {
	x, ok := v.m[name]
	return x, ok
}

// Int returns the integer value for name, or 0.
func (v Values) Int(name string) int {
	switch x := v.m[name].(type) {
	case int:
		return x
	case float64:
		return int(x)
	}
	return 0
}

// Float returns the numeric value for name, or 0.
func (v Values) Float(name string) float64 {
	switch x := v.m[name].(type) {
	case float64:
		return x
	case int:
		return float64(x)
	}
	return 0
}

// Bool returns the boolean value for name, or false.
func (v Values) Bool(name string) bool {
	b, _ := v.m[name].(bool)
	return b
}

// String returns the string value for name, or "".
func (v Values) String(name string) string {
	s, _ := v.m[name].(string)
	return s
}

// Names returns the parameter names in sorted order.
func (v Values) Names() []string {
	names := make([]string, 0, len(v.m))
	for name := range v.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the values as a plain map.
func (v Values) Map() map[string]any {
	return maps.Clone(v.m)
}

// Raw returns the values as raw input, suitable for revalidation.
func (v Values) Raw() Raw {
	return Raw(v.Map())
}

// MarshalJSON encodes the values as a JSON object.
func (v Values) MarshalJSON() ([]byte, error) {
	if v.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v.m)
}
