package adjust

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

// Solarize inverts every channel value above the threshold.
type Solarize struct{}

// NewSolarize creates the solarize style.
func NewSolarize() *Solarize { return &Solarize{} }

func (s *Solarize) Name() string     { return "Solarize" }
func (s *Solarize) Category() string { return effects.CategoryAdjustments }

func (s *Solarize) Parameters() []param.Spec {
	return []param.Spec{
		param.Int("threshold", "Threshold", 128, 0, 255),
	}
}

func (s *Solarize) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	t := byte(v.Int("threshold"))
	return style.MapBytes(*frame, style.NewLUT(func(b byte) byte {
		if b > t {
			return 255 - b
		}
		return b
	}))
}

// Posterize reduces every channel to a fixed number of levels.
type Posterize struct{}

// NewPosterize creates the posterize style.
func NewPosterize() *Posterize { return &Posterize{} }

func (s *Posterize) Name() string     { return "Posterize" }
func (s *Posterize) Category() string { return effects.CategoryAdjustments }

func (s *Posterize) Parameters() []param.Spec {
	return []param.Spec{
		param.Int("levels", "Levels", 4, 2, 64),
	}
}

func (s *Posterize) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	return style.MapBytes(*frame, posterizeLUT(v.Int("levels")))
}

func posterizeLUT(levels int) *style.LUT {
	step := 255.0 / float64(levels-1)
	return style.NewLUT(func(b byte) byte {
		return style.Clamp8(math.Round(float64(b)/step) * step)
	})
}

// Gamma applies a power curve. Values above 1 brighten.
type Gamma struct{}

// NewGamma creates the gamma style.
func NewGamma() *Gamma { return &Gamma{} }

func (s *Gamma) Name() string     { return "Gamma" }
func (s *Gamma) Category() string { return effects.CategoryAdjustments }

func (s *Gamma) Parameters() []param.Spec {
	return []param.Spec{
		param.Float("gamma", "Gamma", 1.0, 0.1, 5.0, 0.1),
	}
}

func (s *Gamma) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	inv := 1 / v.Float("gamma")
	return style.MapBytes(*frame, style.NewLUT(func(b byte) byte {
		return style.Clamp8(255 * math.Pow(float64(b)/255, inv))
	}))
}

// Sharpen applies an unsharp mask.
type Sharpen struct{}

// NewSharpen creates the sharpen style.
func NewSharpen() *Sharpen { return &Sharpen{} }

func (s *Sharpen) Name() string     { return "Sharpen" }
func (s *Sharpen) Category() string { return effects.CategoryAdjustments }

func (s *Sharpen) Parameters() []param.Spec {
	return []param.Spec{
		param.Float("amount", "Amount", 1.0, 0.0, 5.0, 0.1),
		param.Float("radius", "Radius", 1.0, 0.5, 10.0, 0.5),
	}
}

func (s *Sharpen) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	amount := v.Float("amount")
	radius := v.Float("radius")

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(*frame, &blurred, image.Pt(0, 0), radius, radius, gocv.BorderDefault)

	dst := gocv.NewMat()
	gocv.AddWeighted(*frame, 1+amount, blurred, -amount, 0, &dst)
	return dst, nil
}
