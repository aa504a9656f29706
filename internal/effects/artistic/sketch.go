package artistic

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

// PencilSketch renders the frame as a graphite or colored pencil drawing.
type PencilSketch struct {
	style.Modes
}

// NewPencilSketch creates the pencil sketch style.
func NewPencilSketch() *PencilSketch {
	return &PencilSketch{Modes: style.Modes{
		Names:   []string{"Gray", "Color"},
		Default: "Gray",
	}}
}

func (s *PencilSketch) Name() string     { return "Pencil Sketch" }
func (s *PencilSketch) Category() string { return effects.CategoryArtistic }

func (s *PencilSketch) Parameters() []param.Spec {
	return []param.Spec{
		s.ModeSpec("Pencil"),
		param.Float("sigma_s", "Smoothness", 60, 1, 200, 1),
		param.Float("sigma_r", "Edge Preservation", 0.07, 0.01, 1.0, 0.01),
		param.Float("shade", "Shading", 0.05, 0.0, 0.1, 0.005),
	}
}

func (s *PencilSketch) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	src := effects.BGR(frame)
	defer src.Close()

	gray, color := gocv.NewMat(), gocv.NewMat()
	gocv.PencilSketch(src, &gray, &color,
		float32(v.Float("sigma_s")), float32(v.Float("sigma_r")), float32(v.Float("shade")))

	if v.String(style.ModeParam) == "Color" {
		gray.Close()
		return color, nil
	}
	color.Close()
	return gray, nil
}

// Cartoon flattens colors and outlines them with bold edges.
type Cartoon struct{}

// NewCartoon creates the cartoon style.
func NewCartoon() *Cartoon { return &Cartoon{} }

func (s *Cartoon) Name() string     { return "Cartoon" }
func (s *Cartoon) Category() string { return effects.CategoryArtistic }

func (s *Cartoon) Parameters() []param.Spec {
	return []param.Spec{
		param.Int("line_size", "Line Size", 7, 3, 21),
		param.Int("blur_value", "Blur", 7, 1, 15),
		param.Int("diameter", "Smoothing", 9, 1, 20),
		param.Float("sigma", "Color Flatness", 200, 10, 300, 10),
	}
}

func (s *Cartoon) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	src := effects.BGR(frame)
	defer src.Close()

	gray := style.Gray(src)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(gray, &blurred, effects.Odd(v.Int("blur_value")))

	// Adaptive threshold needs a block size of at least 3.
	block := effects.Odd(v.Int("line_size"))
	if block < 3 {
		block = 3
	}
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.AdaptiveThreshold(blurred, &edges, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, block, 9)

	sigma := v.Float("sigma")
	flat := gocv.NewMat()
	defer flat.Close()
	gocv.BilateralFilter(src, &flat, v.Int("diameter"), sigma, sigma)

	dst := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), src.Rows(), src.Cols(), src.Type())
	gocv.BitwiseAndWithMask(flat, flat, &dst, edges)
	return dst, nil
}

// Stylization is OpenCV's edge-preserving watercolor filter.
type Stylization struct{}

// NewStylization creates the stylization style.
func NewStylization() *Stylization { return &Stylization{} }

func (s *Stylization) Name() string     { return "Watercolor" }
func (s *Stylization) Category() string { return effects.CategoryArtistic }

func (s *Stylization) Parameters() []param.Spec {
	return []param.Spec{
		param.Float("sigma_s", "Smoothness", 60, 1, 200, 1),
		param.Float("sigma_r", "Edge Preservation", 0.45, 0.01, 1.0, 0.01),
	}
}

func (s *Stylization) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	src := effects.BGR(frame)
	defer src.Close()

	dst := gocv.NewMat()
	gocv.Stylization(src, &dst, float32(v.Float("sigma_s")), float32(v.Float("sigma_r")))
	return dst, nil
}
