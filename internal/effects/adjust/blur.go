package adjust

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

// Blur smooths the frame with one of three filters.
type Blur struct {
	style.Modes
}

// NewBlur creates the blur style.
func NewBlur() *Blur {
	return &Blur{Modes: style.Modes{
		Names:   []string{"Gaussian", "Median", "Bilateral"},
		Default: "Gaussian",
		Extra: map[string][]param.Spec{
			"Gaussian": {
				param.Float("sigma", "Sigma", 0, 0, 20, 0.5),
			},
			"Bilateral": {
				param.Float("sigma_color", "Color Sigma", 75, 1, 200, 1),
				param.Float("sigma_space", "Space Sigma", 75, 1, 200, 1),
			},
		},
	}}
}

func (s *Blur) Name() string     { return "Blur" }
func (s *Blur) Category() string { return effects.CategoryAdjustments }

func (s *Blur) Parameters() []param.Spec {
	return []param.Spec{
		s.ModeSpec("Blur Type"),
		param.Int("kernel_size", "Kernel Size", 5, 1, 31),
	}
}

func (s *Blur) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	k := effects.Odd(v.Int("kernel_size"))
	dst := gocv.NewMat()

	switch v.String(style.ModeParam) {
	case "Median":
		gocv.MedianBlur(*frame, &dst, k)
	case "Bilateral":
		// Bilateral filtering only accepts 1 or 3 channels.
		bgr := effects.BGR(frame)
		defer bgr.Close()
		gocv.BilateralFilter(bgr, &dst, k, v.Float("sigma_color"), v.Float("sigma_space"))
	default:
		sigma := v.Float("sigma")
		gocv.GaussianBlur(*frame, &dst, image.Pt(k, k), sigma, sigma, gocv.BorderDefault)
	}
	return dst, nil
}
