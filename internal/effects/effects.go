// Package effects holds helpers shared by the style source packages below it.
// Each source package registers its styles with the style registration
// table from init; import effects/all to link every source in.
package effects

import (
	"fmt"
	"image"

	"github.com/disintegration/gift"
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/style"
)

// Category names shared by the style sources.
const (
	CategoryBasic       = "Basic"
	CategoryAdjustments = "Adjustments"
	CategoryColor       = "Color Filters"
	CategoryArtistic    = "Artistic"
	CategoryDistortions = "Distortions"
)

// BGR returns a 3-channel copy of frame for transforms that need color.
func BGR(frame *gocv.Mat) gocv.Mat {
	return style.NormalizeChannels(*frame)
}

// Odd rounds k up to the next odd kernel size of at least 1.
func Odd(k int) int {
	if k < 1 {
		return 1
	}
	if k%2 == 0 {
		return k + 1
	}
	return k
}

// Gift runs a pure-Go filter chain over frame and returns a BGR Mat.
func Gift(frame *gocv.Mat, filters ...gift.Filter) (gocv.Mat, error) {
	bgr := BGR(frame)
	defer bgr.Close()

	src, err := bgr.ToImage()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert frame: %w", err)
	}

	g := gift.New(filters...)
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	out, err := gocv.ImageToMatRGB(dst)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert filtered image: %w", err)
	}
	return out, nil
}
