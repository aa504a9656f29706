// Package basic contains the identity style and simple tone adjustments.
package basic

import (
	"github.com/disintegration/gift"
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

func init() {
	style.Register("basic",
		style.Of(NewOriginal),
		style.Of(NewBrightnessContrast),
		style.Of(NewSepia),
		style.Of(NewVibrance),
	)
}

// Original passes frames through unchanged.
type Original struct{}

// NewOriginal creates the identity style.
func NewOriginal() *Original { return &Original{} }

func (s *Original) Name() string             { return "Original" }
func (s *Original) Category() string         { return effects.CategoryBasic }
func (s *Original) Parameters() []param.Spec { return nil }

func (s *Original) Apply(frame *gocv.Mat, _ param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	return frame.Clone(), nil
}

// BrightnessContrast scales and offsets every channel.
type BrightnessContrast struct{}

// NewBrightnessContrast creates the brightness/contrast style.
func NewBrightnessContrast() *BrightnessContrast { return &BrightnessContrast{} }

func (s *BrightnessContrast) Name() string     { return "Brightness Contrast" }
func (s *BrightnessContrast) Category() string { return effects.CategoryBasic }

func (s *BrightnessContrast) Parameters() []param.Spec {
	return []param.Spec{
		param.Int("brightness", "Brightness", 0, -100, 100),
		param.Float("contrast", "Contrast", 1.0, 0.5, 3.0, 0.1),
	}
}

func (s *BrightnessContrast) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	dst := gocv.NewMat()
	gocv.ConvertScaleAbs(*frame, &dst, v.Float("contrast"), float64(v.Int("brightness")))
	return dst, nil
}

// Sepia tones the frame brown.
type Sepia struct{}

// NewSepia creates the sepia style.
func NewSepia() *Sepia { return &Sepia{} }

func (s *Sepia) Name() string     { return "Sepia" }
func (s *Sepia) Category() string { return effects.CategoryBasic }

func (s *Sepia) Parameters() []param.Spec {
	return []param.Spec{
		param.Float("strength", "Strength", 100, 0, 100, 5),
	}
}

func (s *Sepia) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	return effects.Gift(frame, gift.Sepia(float32(v.Float("strength"))))
}

// Vibrance boosts saturation and brightness.
type Vibrance struct{}

// NewVibrance creates the vibrance style.
func NewVibrance() *Vibrance { return &Vibrance{} }

func (s *Vibrance) Name() string     { return "Vibrant Color" }
func (s *Vibrance) Category() string { return effects.CategoryBasic }

func (s *Vibrance) Parameters() []param.Spec {
	return []param.Spec{
		param.Float("saturation", "Saturation", 40, -100, 300, 5),
		param.Float("brightness", "Brightness", 0, -50, 50, 1),
	}
}

func (s *Vibrance) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	return effects.Gift(frame,
		gift.Saturation(float32(v.Float("saturation"))),
		gift.Brightness(float32(v.Float("brightness"))),
	)
}
