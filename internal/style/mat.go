package style

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ValidateFrame rejects frames a style cannot process: nil, empty, or not
// 8-bit with 1, 3 or 4 channels.
func ValidateFrame(frame *gocv.Mat) error {
	if frame == nil {
		return fmt.Errorf("%w: frame is nil", ErrInvalidImage)
	}
	if frame.Empty() {
		return fmt.Errorf("%w: frame is empty", ErrInvalidImage)
	}
	switch frame.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return nil
	}
	return fmt.Errorf("%w: unsupported mat type %v", ErrInvalidImage, frame.Type())
}

// SameShape reports whether two mats have equal rows and columns.
func SameShape(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols()
}

// NormalizeChannels returns a 3-channel BGR copy of m.
func NormalizeChannels(m gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	switch m.Channels() {
	case 1:
		gocv.CvtColor(m, &dst, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(m, &dst, gocv.ColorBGRAToBGR)
	default:
		m.CopyTo(&dst)
	}
	return dst
}

// Gray returns a single-channel copy of m.
func Gray(m gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	switch m.Channels() {
	case 3:
		gocv.CvtColor(m, &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(m, &dst, gocv.ColorBGRAToGray)
	default:
		m.CopyTo(&dst)
	}
	return dst
}

// Blend mixes fx over src: intensity 1 yields fx, 0 yields src. Both mats
// must have the same size and type. The result is always a new Mat.
func Blend(src, fx gocv.Mat, intensity float64) gocv.Mat {
	dst := gocv.NewMat()
	if intensity >= 1 {
		fx.CopyTo(&dst)
		return dst
	}
	if intensity <= 0 {
		src.CopyTo(&dst)
		return dst
	}
	gocv.AddWeighted(src, 1-intensity, fx, intensity, 0, &dst)
	return dst
}

// LUT is a per-byte lookup table.
type LUT [256]byte

// NewLUT builds a table from fn.
func NewLUT(fn func(v byte) byte) *LUT {
	var t LUT
	for i := range t {
		t[i] = fn(byte(i))
	}
	return &t
}

// MapBytes applies t to every channel of every pixel of src.
func MapBytes(src gocv.Mat, t *LUT) (gocv.Mat, error) {
	data := src.ToBytes()
	for i, v := range data {
		data[i] = t[v]
	}
	return gocv.NewMatFromBytes(src.Rows(), src.Cols(), src.Type(), data)
}

// Clamp8 rounds v into the 0-255 byte range.
func Clamp8(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v + 0.5)
}
