// Package adjust contains tonal adjustments: thresholding, blurs and
// per-byte curves.
package adjust

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

func init() {
	style.Register("adjust",
		style.Of(NewThreshold),
		style.Of(NewBlur),
		style.Of(NewSolarize),
		style.Of(NewPosterize),
		style.Of(NewGamma),
		style.Of(NewSharpen),
	)
}

// Threshold turns the frame into a binary mask: pixels whose gray level is
// at least the threshold become 255, the rest 0. The output has one channel.
type Threshold struct{}

// NewThreshold creates the threshold style.
func NewThreshold() *Threshold { return &Threshold{} }

func (s *Threshold) Name() string     { return "Threshold" }
func (s *Threshold) Category() string { return effects.CategoryAdjustments }

func (s *Threshold) Parameters() []param.Spec {
	return []param.Spec{
		param.Int("threshold", "Threshold", 128, 0, 255),
	}
}

func (s *Threshold) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	gray := style.Gray(*frame)
	defer gray.Close()

	// THRESH_BINARY keeps values strictly above thresh.
	dst := gocv.NewMat()
	gocv.Threshold(gray, &dst, float32(v.Int("threshold")-1), 255, gocv.ThresholdBinary)
	return dst, nil
}
