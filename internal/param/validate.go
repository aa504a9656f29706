package param

import (
	"math"
	"slices"
	"strconv"
)

// Validate merges raw over the spec defaults and checks every value strictly.
//
// Numeric values outside [Min, Max] fail with an *OutOfRangeError (bounds
// are inclusive) and enum values outside Options fail with an
// *InvalidOptionError. Booleans and strings pass through. Keys in raw that
// no spec declares are ignored.
func Validate(specs []Spec, raw Raw) (Values, error) {
	out := make(map[string]any, len(specs))

	for _, s := range specs {
		v, ok := raw[s.Name]
		if !ok {
			out[s.Name] = normalizeDefault(s)
			continue
		}

		switch s.Kind {
		case KindInt, KindFloat:
			f, ok := toFloat(v)
			if !ok || math.IsNaN(f) {
				return Values{}, typeError(s, v)
			}
			if s.Kind == KindInt && f != math.Trunc(f) {
				return Values{}, typeError(s, v)
			}
			if f < s.Min || f > s.Max {
				return Values{}, &OutOfRangeError{Name: s.Name, Value: f, Min: s.Min, Max: s.Max}
			}
			out[s.Name] = numeric(s.Kind, f)

		case KindEnum:
			str, ok := v.(string)
			if !ok || !slices.Contains(s.Options, str) {
				return Values{}, &InvalidOptionError{Name: s.Name, Value: v, Allowed: slices.Clone(s.Options)}
			}
			out[s.Name] = str

		case KindBool:
			b, ok := v.(bool)
			if !ok {
				return Values{}, typeError(s, v)
			}
			out[s.Name] = b

		default:
			str, ok := v.(string)
			if !ok {
				return Values{}, typeError(s, v)
			}
			out[s.Name] = str
		}
	}

	return Values{m: out}, nil
}

// Clamp merges raw over the spec defaults and coerces every value into its
// spec. It never fails: numeric values are converted and clamped into
// [Min, Max], unknown enum options and unparseable values fall back to the
// default. Keys in raw that no spec declares are ignored.
func Clamp(specs []Spec, raw Raw) Values {
	out := make(map[string]any, len(specs))

	for _, s := range specs {
		def := normalizeDefault(s)
		v, ok := raw[s.Name]
		if !ok {
			out[s.Name] = def
			continue
		}

		switch s.Kind {
		case KindInt, KindFloat:
			f, ok := coerceFloat(v)
			if !ok {
				out[s.Name] = def
				continue
			}
			if s.Kind == KindInt {
				f = math.Trunc(f)
			}
			out[s.Name] = numeric(s.Kind, math.Max(s.Min, math.Min(s.Max, f)))

		case KindEnum:
			str, ok := v.(string)
			if !ok || !slices.Contains(s.Options, str) {
				out[s.Name] = def
				continue
			}
			out[s.Name] = str

		case KindBool:
			b, ok := coerceBool(v)
			if !ok {
				out[s.Name] = def
				continue
			}
			out[s.Name] = b

		default:
			str, ok := v.(string)
			if !ok {
				out[s.Name] = def
				continue
			}
			out[s.Name] = str
		}
	}

	return Values{m: out}
}

func numeric(k Kind, f float64) any {
	if k == KindInt {
		return int(f)
	}
	return f
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// coerceFloat is toFloat plus the loose conversions untrusted UI input needs.
func coerceFloat(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		if math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func coerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(x)
		return b, err == nil
	}
	if f, ok := toFloat(v); ok {
		return f != 0, true
	}
	return false, false
}
