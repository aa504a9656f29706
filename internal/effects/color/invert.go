// Package color contains color filters: inversions, colormaps and
// grayscale conversion.
package color

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

func init() {
	style.Register("color",
		style.Of(NewInvert),
		style.Of(NewColorMap),
		style.Of(NewGrayscale),
	)
}

// Invert negates the frame in one of three ways.
//
// Colors complements every channel, or with preserve_luminance rotates the
// hue by 180 degrees and complements the saturation. Filter mixes the
// complement into the shadows or the highlights only. Negative complements
// with extra contrast, optionally keeping the brightest areas untouched.
type Invert struct {
	style.Modes
}

// NewInvert creates the invert style.
func NewInvert() *Invert {
	return &Invert{Modes: style.Modes{
		Names:   []string{"Colors", "Filter", "Negative"},
		Default: "Colors",
		Extra: map[string][]param.Spec{
			"Filter": {
				param.Float("filter_strength", "Filter Strength", 0.8, 0.1, 1.0, 0.1),
				param.Bool("apply_to_shadows", "Apply to Shadows", true),
			},
			"Negative": {
				param.Float("negative_contrast", "Negative Contrast", 1.2, 0.5, 2.0, 0.1),
				param.Bool("preserve_highlights", "Preserve Highlights", false),
			},
		},
	}}
}

func (s *Invert) Name() string     { return "Invert" }
func (s *Invert) Category() string { return effects.CategoryColor }

func (s *Invert) Parameters() []param.Spec {
	return []param.Spec{
		s.ModeSpec("Invert Mode"),
		param.Float("intensity", "Invert Intensity", 1.0, 0.0, 1.0, 0.1),
		param.Bool("preserve_luminance", "Preserve Luminance", false),
	}
}

func (s *Invert) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	src := effects.BGR(frame)
	defer src.Close()

	var (
		fx  gocv.Mat
		err error
	)
	switch v.String(style.ModeParam) {
	case "Filter":
		fx = invertFilter(src, v.Float("filter_strength"), v.Bool("apply_to_shadows"))
	case "Negative":
		fx = invertNegative(src, v.Float("negative_contrast"), v.Bool("preserve_highlights"))
	default:
		fx, err = invertColors(src, v.Bool("preserve_luminance"))
	}
	if err != nil {
		return gocv.NewMat(), err
	}
	defer fx.Close()

	return style.Blend(src, fx, v.Float("intensity")), nil
}

func invertColors(src gocv.Mat, preserveLuminance bool) (gocv.Mat, error) {
	if !preserveLuminance {
		dst := gocv.NewMat()
		gocv.BitwiseNot(src, &dst)
		return dst, nil
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	// 8-bit hue runs 0..179.
	data := hsv.ToBytes()
	for i := 0; i+2 < len(data); i += 3 {
		data[i] = byte((int(data[i]) + 90) % 180)
		data[i+1] = 255 - data[i+1]
	}

	shifted, err := gocv.NewMatFromBytes(hsv.Rows(), hsv.Cols(), hsv.Type(), data)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer shifted.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(shifted, &dst, gocv.ColorHSVToBGR)
	return dst, nil
}

func invertFilter(src gocv.Mat, strength float64, shadows bool) gocv.Mat {
	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(src, &inverted)

	filtered := style.Blend(src, inverted, strength)
	defer filtered.Close()

	gray := style.Gray(src)
	defer gray.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	if shadows {
		gocv.Threshold(gray, &mask, 127, 255, gocv.ThresholdBinaryInv)
	} else {
		gocv.Threshold(gray, &mask, 128, 255, gocv.ThresholdBinary)
	}

	dst := src.Clone()
	filtered.CopyToWithMask(&dst, mask)
	return dst
}

func invertNegative(src gocv.Mat, contrast float64, preserveHighlights bool) gocv.Mat {
	negative := gocv.NewMat()
	defer negative.Close()
	gocv.BitwiseNot(src, &negative)

	dst := gocv.NewMat()
	gocv.ConvertScaleAbs(negative, &dst, contrast, 0)
	if !preserveHighlights {
		return dst
	}

	gray := style.Gray(src)
	defer gray.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, 200, 255, gocv.ThresholdBinary)

	src.CopyToWithMask(&dst, mask)
	return dst
}
