// Package artistic contains line, sketch and painterly styles.
package artistic

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

func init() {
	style.Register("artistic",
		style.Of(NewEdgeDetection),
		style.Of(NewPencilSketch),
		style.Of(NewCartoon),
		style.Of(NewStylization),
	)
}

// EdgeDetection draws the frame's edges as a single-channel image.
type EdgeDetection struct {
	style.Modes
}

// NewEdgeDetection creates the edge detection style.
func NewEdgeDetection() *EdgeDetection {
	return &EdgeDetection{Modes: style.Modes{
		Names:   []string{"Canny", "Sobel", "Laplacian"},
		Default: "Canny",
		Extra: map[string][]param.Spec{
			"Canny": {
				param.Int("low_threshold", "Low Threshold", 50, 0, 255),
				param.Int("high_threshold", "High Threshold", 150, 0, 255),
			},
			"Sobel": {
				param.Int("ksize", "Kernel Size", 3, 1, 7),
			},
			"Laplacian": {
				param.Int("ksize", "Kernel Size", 3, 1, 7),
			},
		},
	}}
}

func (s *EdgeDetection) Name() string     { return "Edge Detection" }
func (s *EdgeDetection) Category() string { return effects.CategoryArtistic }

func (s *EdgeDetection) Parameters() []param.Spec {
	return []param.Spec{
		s.ModeSpec("Detector"),
		param.Int("blur", "Pre-Blur", 3, 1, 15),
		param.Bool("invert", "Dark Lines", false),
	}
}

func (s *EdgeDetection) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	gray := style.Gray(*frame)
	defer gray.Close()

	k := effects.Odd(v.Int("blur"))
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	var edges gocv.Mat
	switch v.String(style.ModeParam) {
	case "Sobel":
		edges = sobel(blurred, effects.Odd(v.Int("ksize")))
	case "Laplacian":
		edges = laplacian(blurred, effects.Odd(v.Int("ksize")))
	default:
		edges = gocv.NewMat()
		gocv.Canny(blurred, &edges, float32(v.Int("low_threshold")), float32(v.Int("high_threshold")))
	}

	if !v.Bool("invert") {
		return edges, nil
	}
	defer edges.Close()
	dst := gocv.NewMat()
	gocv.BitwiseNot(edges, &dst)
	return dst, nil
}

func sobel(gray gocv.Mat, ksize int) gocv.Mat {
	gx, gy := gocv.NewMat(), gocv.NewMat()
	defer gx.Close()
	defer gy.Close()
	gocv.Sobel(gray, &gx, gocv.MatTypeCV16S, 1, 0, ksize, 1, 0, gocv.BorderDefault)
	gocv.Sobel(gray, &gy, gocv.MatTypeCV16S, 0, 1, ksize, 1, 0, gocv.BorderDefault)

	ax, ay := gocv.NewMat(), gocv.NewMat()
	defer ax.Close()
	defer ay.Close()
	gocv.ConvertScaleAbs(gx, &ax, 1, 0)
	gocv.ConvertScaleAbs(gy, &ay, 1, 0)

	dst := gocv.NewMat()
	gocv.AddWeighted(ax, 0.5, ay, 0.5, 0, &dst)
	return dst
}

func laplacian(gray gocv.Mat, ksize int) gocv.Mat {
	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV16S, ksize, 1, 0, gocv.BorderDefault)

	dst := gocv.NewMat()
	gocv.ConvertScaleAbs(lap, &dst, 1, 0)
	return dst
}
