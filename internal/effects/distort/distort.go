// Package distort contains geometric and overlay styles.
package distort

import (
	"math/rand"

	"github.com/disintegration/gift"
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

func init() {
	style.Register("distort",
		style.Of(NewPixelate),
		style.Of(NewMirror),
		style.Of(NewGlitch),
		style.Of(NewTextureOverlay),
		style.Of(NewCaption),
	)
}

// Pixelate replaces square blocks with their average color.
type Pixelate struct{}

// NewPixelate creates the pixelate style.
func NewPixelate() *Pixelate { return &Pixelate{} }

func (s *Pixelate) Name() string     { return "Pixelate" }
func (s *Pixelate) Category() string { return effects.CategoryDistortions }

func (s *Pixelate) Parameters() []param.Spec {
	return []param.Spec{
		param.Int("block_size", "Block Size", 10, 1, 100),
	}
}

func (s *Pixelate) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	return effects.Gift(frame, gift.Pixelate(v.Int("block_size")))
}

// Mirror flips the frame.
type Mirror struct {
	style.Modes
}

// NewMirror creates the mirror style.
func NewMirror() *Mirror {
	return &Mirror{Modes: style.Modes{
		Names:   []string{"Horizontal", "Vertical", "Both"},
		Default: "Horizontal",
	}}
}

func (s *Mirror) Name() string     { return "Mirror" }
func (s *Mirror) Category() string { return effects.CategoryDistortions }

func (s *Mirror) Parameters() []param.Spec {
	return []param.Spec{s.ModeSpec("Axis")}
}

func (s *Mirror) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	switch v.String(style.ModeParam) {
	case "Vertical":
		return effects.Gift(frame, gift.FlipVertical())
	case "Both":
		return effects.Gift(frame, gift.Rotate180())
	}
	return effects.Gift(frame, gift.FlipHorizontal())
}

// Glitch shifts random color channels sideways. The shifts come from a
// seeded generator, so equal seeds give equal frames.
type Glitch struct{}

// NewGlitch creates the glitch style.
func NewGlitch() *Glitch { return &Glitch{} }

func (s *Glitch) Name() string     { return "Glitch" }
func (s *Glitch) Category() string { return effects.CategoryDistortions }

func (s *Glitch) Parameters() []param.Spec {
	return []param.Spec{
		param.Int("max_shift", "Max Shift", 10, 0, 50),
		param.Int("num_shifts", "Number of Shifts", 5, 1, 20),
		param.Int("seed", "Seed", 1, 0, 1<<16),
	}
}

func (s *Glitch) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	src := effects.BGR(frame)
	defer src.Close()

	in := src.ToBytes()
	out := glitch(in, src.Rows(), src.Cols(), v.Int("max_shift"), v.Int("num_shifts"), int64(v.Int("seed")))
	return gocv.NewMatFromBytes(src.Rows(), src.Cols(), src.Type(), out)
}

// glitch shifts whole channels of a packed BGR buffer. Each shift reads
// from the unmodified input and zero-fills the columns it vacates.
func glitch(in []byte, rows, cols, maxShift, shifts int, seed int64) []byte {
	out := make([]byte, len(in))
	copy(out, in)

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < shifts; i++ {
		channel := rng.Intn(3)
		shift := rng.Intn(2*maxShift+1) - maxShift
		if shift == 0 {
			continue
		}

		for y := 0; y < rows; y++ {
			row := y * cols * 3
			for x := 0; x < cols; x++ {
				sx := x + shift
				var b byte
				if sx >= 0 && sx < cols {
					b = in[row+sx*3+channel]
				}
				out[row+x*3+channel] = b
			}
		}
	}
	return out
}
