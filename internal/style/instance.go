package style

import (
	"fmt"
	"slices"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/param"
)

// Instance is a live style: a Style bound to its current variant selection.
// The registry creates exactly one Instance per style; it is safe for
// concurrent use.
type Instance struct {
	style    Style
	variants VariantStyle

	mu      sync.RWMutex
	variant string
}

// NewInstance binds s to its default variant.
func NewInstance(s Style) *Instance {
	inst := &Instance{style: s}
	if vs, ok := s.(VariantStyle); ok && len(vs.Variants()) > 0 {
		inst.variants = vs
		inst.variant = vs.DefaultVariant()
	}
	return inst
}

// Style returns the underlying style.
func (i *Instance) Style() Style {
	return i.style
}

// Name returns the style name.
func (i *Instance) Name() string {
	return i.style.Name()
}

// Category returns the style category.
func (i *Instance) Category() string {
	return i.style.Category()
}

// HasVariants reports whether the style exposes named variants.
func (i *Instance) HasVariants() bool {
	return i.variants != nil
}

// Variants returns the variant names, empty for plain styles.
func (i *Instance) Variants() []string {
	if i.variants == nil {
		return []string{}
	}
	return i.variants.Variants()
}

// DefaultVariant returns the variant a new selection starts from, "" for
// plain styles.
func (i *Instance) DefaultVariant() string {
	if i.variants == nil {
		return ""
	}
	return i.variants.DefaultVariant()
}

// Variant returns the current variant, "" for plain styles.
func (i *Instance) Variant() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.variant
}

// SetVariant selects a variant. Unknown names return false and leave the
// current selection unchanged. A plain style only accepts "".
func (i *Instance) SetVariant(name string) bool {
	if !i.validVariant(name) {
		return false
	}

	i.mu.Lock()
	i.variant = name
	i.mu.Unlock()
	return true
}

func (i *Instance) validVariant(name string) bool {
	if i.variants == nil {
		return name == ""
	}
	return slices.Contains(i.variants.Variants(), name)
}

// VariantParameters returns the base parameters followed by the parameters
// specific to variant. The mode default is the requested variant so that
// validating empty input keeps the selection. An empty variant means the
// current one.
func (i *Instance) VariantParameters(variant string) ([]param.Spec, error) {
	if variant == "" {
		variant = i.Variant()
	}
	if !i.validVariant(variant) {
		return nil, fmt.Errorf("%w: %q has no variant %q", ErrUnknownVariant, i.Name(), variant)
	}

	specs := slices.Clone(i.style.Parameters())
	if i.variants == nil {
		return specs, nil
	}

	for n := range specs {
		if specs[n].Name == ModeParam {
			specs[n].Default = variant
		}
	}
	return append(specs, i.variants.VariantParameters(variant)...), nil
}

// Schema returns the parameters of the current variant.
func (i *Instance) Schema() []param.Spec {
	specs, err := i.VariantParameters("")
	if err != nil {
		return i.style.Parameters()
	}
	return specs
}

// SchemaFor returns the parameters for the variant raw selects through its
// mode value, or for the current variant when raw selects none.
func (i *Instance) SchemaFor(raw param.Raw) []param.Spec {
	if mode, ok := raw[ModeParam].(string); ok && i.variants != nil {
		if specs, err := i.VariantParameters(mode); err == nil {
			return specs
		}
	}
	return i.Schema()
}

// Defaults returns the default values of the current variant.
func (i *Instance) Defaults() param.Values {
	return param.Defaults(i.Schema())
}

// Validate strictly validates raw, failing on out-of-range or invalid values.
func (i *Instance) Validate(raw param.Raw) (param.Values, error) {
	return param.Validate(i.SchemaFor(raw), raw)
}

// Clamp coerces raw into the schema without failing.
func (i *Instance) Clamp(raw param.Raw) param.Values {
	return param.Clamp(i.SchemaFor(raw), raw)
}

// Check validates the schema of every variant and strictly validates the
// defaults against it.
func (i *Instance) Check() error {
	variants := []string{""}
	if i.variants != nil {
		variants = i.variants.Variants()
		if !slices.Contains(variants, i.variants.DefaultVariant()) {
			return fmt.Errorf("default variant %q is not declared", i.variants.DefaultVariant())
		}
		if _, ok := param.Find(i.style.Parameters(), ModeParam); !ok {
			return fmt.Errorf("variant style has no %q parameter", ModeParam)
		}
	}

	for _, v := range variants {
		specs, err := i.VariantParameters(v)
		if err != nil {
			return err
		}
		if err := param.CheckSchema(specs); err != nil {
			return err
		}
		if _, err := param.Validate(specs, param.Defaults(specs).Raw()); err != nil {
			return err
		}
	}
	return nil
}

// Apply transforms frame with values. Invalid frames fail with
// ErrInvalidImage before the style runs. Style failures, panics and output
// of the wrong shape are returned as *TransformError. The caller closes the
// returned Mat.
func (i *Instance) Apply(frame *gocv.Mat, values param.Values) (out gocv.Mat, err error) {
	if err := ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	variant := values.String(ModeParam)
	defer func() {
		if r := recover(); r != nil {
			out = gocv.NewMat()
			err = &TransformError{Style: i.Name(), Variant: variant, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = i.style.Apply(frame, values)
	if err != nil {
		out.Close()
		return gocv.NewMat(), &TransformError{Style: i.Name(), Variant: variant, Err: err}
	}
	if out.Empty() || !SameShape(out, *frame) {
		shapeErr := fmt.Errorf("output shape %dx%d does not match input %dx%d", out.Cols(), out.Rows(), frame.Cols(), frame.Rows())
		out.Close()
		return gocv.NewMat(), &TransformError{Style: i.Name(), Variant: variant, Err: shapeErr}
	}
	return out, nil
}
