package color

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

var colormaps = map[string]gocv.ColormapTypes{
	"Autumn":  gocv.ColormapAutumn,
	"Bone":    gocv.ColormapBone,
	"Jet":     gocv.ColormapJet,
	"Winter":  gocv.ColormapWinter,
	"Rainbow": gocv.ColormapRainbow,
	"Ocean":   gocv.ColormapOcean,
	"Summer":  gocv.ColormapSummer,
	"Spring":  gocv.ColormapSpring,
	"Cool":    gocv.ColormapCool,
	"Pink":    gocv.ColormapPink,
	"Hot":     gocv.ColormapHot,
}

// ColorMap false-colors the frame's luminance.
type ColorMap struct{}

// NewColorMap creates the colormap style.
func NewColorMap() *ColorMap { return &ColorMap{} }

func (s *ColorMap) Name() string     { return "Color Map" }
func (s *ColorMap) Category() string { return effects.CategoryColor }

func (s *ColorMap) Parameters() []param.Spec {
	return []param.Spec{
		param.Enum("colormap", "Palette", "Jet",
			"Autumn", "Bone", "Jet", "Winter", "Rainbow", "Ocean", "Summer", "Spring", "Cool", "Pink", "Hot"),
		param.Float("intensity", "Intensity", 1.0, 0.0, 1.0, 0.1),
	}
}

func (s *ColorMap) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	gray := style.Gray(*frame)
	defer gray.Close()

	mapped := gocv.NewMat()
	defer mapped.Close()
	gocv.ApplyColorMap(gray, &mapped, colormaps[v.String("colormap")])

	src := effects.BGR(frame)
	defer src.Close()
	return style.Blend(src, mapped, v.Float("intensity")), nil
}

// Grayscale drops color. The output has one channel.
type Grayscale struct{}

// NewGrayscale creates the grayscale style.
func NewGrayscale() *Grayscale { return &Grayscale{} }

func (s *Grayscale) Name() string             { return "Grayscale" }
func (s *Grayscale) Category() string         { return effects.CategoryColor }
func (s *Grayscale) Parameters() []param.Spec { return nil }

func (s *Grayscale) Apply(frame *gocv.Mat, _ param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	return style.Gray(*frame), nil
}
