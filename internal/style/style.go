// Package style defines the image transform contract, its variant extension
// and the registry that resolves styles by name.
package style

import (
	"slices"

	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/param"
)

// ModeParam is the parameter that selects the active variant of a VariantStyle.
const ModeParam = "mode"

// Style is a named, categorized image transform.
//
// Apply must reject a nil or empty frame with ErrInvalidImage before doing
// any work and must return a new Mat with the same rows and columns as the
// input. Single-channel output is allowed. The caller owns the returned Mat
// and closes it, also when an error is returned. Apply must be a pure
// function of the frame and values.
type Style interface {
	Name() string
	Category() string
	Parameters() []param.Spec
	Apply(frame *gocv.Mat, values param.Values) (gocv.Mat, error)
}

// VariantStyle is a style with several named sub-algorithms. The base
// parameters include a ModeParam enum over the variant names, and Apply
// picks the algorithm from that value.
type VariantStyle interface {
	Style
	Variants() []string
	DefaultVariant() string
	// VariantParameters returns only the parameters specific to variant.
	VariantParameters(variant string) []param.Spec
}

// Modes implements the variant half of VariantStyle. Styles embed it and
// fill in the fields at construction.
type Modes struct {
	Names   []string
	Default string
	Extra   map[string][]param.Spec
}

// Variants returns the variant names in declaration order.
func (m Modes) Variants() []string {
	return slices.Clone(m.Names)
}

// DefaultVariant returns the variant used when none has been selected.
func (m Modes) DefaultVariant() string {
	if m.Default == "" && len(m.Names) > 0 {
		return m.Names[0]
	}
	return m.Default
}

// VariantParameters returns the parameters only variant declares.
func (m Modes) VariantParameters(variant string) []param.Spec {
	return slices.Clone(m.Extra[variant])
}

// ModeSpec returns the enum parameter selecting between the variants.
func (m Modes) ModeSpec(label string) param.Spec {
	return param.Enum(ModeParam, label, m.DefaultVariant(), m.Names...)
}
