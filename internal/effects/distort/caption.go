package distort

import (
	"image"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

// Caption stamps a line of bitmap text onto the frame.
type Caption struct{}

// NewCaption creates the caption style.
func NewCaption() *Caption { return &Caption{} }

func (s *Caption) Name() string     { return "Caption" }
func (s *Caption) Category() string { return effects.CategoryDistortions }

func (s *Caption) Parameters() []param.Spec {
	return []param.Spec{
		param.String("text", "Text", "LIVE"),
		param.Int("scale", "Size", 3, 1, 10),
		param.Enum("position", "Position", "Bottom", "Top", "Bottom"),
		param.Enum("color", "Color", "White", "White", "Black", "Red", "Green", "Yellow"),
	}
}

var captionColors = map[string][3]byte{
	"White":  {255, 255, 255},
	"Black":  {0, 0, 0},
	"Red":    {0, 0, 255},
	"Green":  {0, 255, 0},
	"Yellow": {0, 255, 255},
}

func (s *Caption) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	src := effects.BGR(frame)
	defer src.Close()

	text := v.String("text")
	if text == "" {
		return src.Clone(), nil
	}

	rows, cols := src.Rows(), src.Cols()
	data := src.ToBytes()
	stamp(data, rows, cols, glyphs(text), v.Int("scale"), v.String("position") == "Top", captionColors[v.String("color")])
	return gocv.NewMatFromBytes(rows, cols, src.Type(), data)
}

// glyphs rasterizes text at 1:1 into an alpha mask.
func glyphs(text string) *image.Alpha {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	m := face.Metrics()

	mask := image.NewAlpha(image.Rect(0, 0, width, m.Height.Ceil()))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(text)
	return mask
}

// stamp paints every set mask pixel as a scale x scale block of color into
// a packed BGR buffer, centered horizontally. Pixels outside the frame are
// dropped.
func stamp(data []byte, rows, cols int, mask *image.Alpha, scale int, top bool, color [3]byte) {
	b := mask.Bounds()
	w, h := b.Dx()*scale, b.Dy()*scale
	margin := scale * 2

	x0 := (cols - w) / 2
	y0 := rows - h - margin
	if top {
		y0 = margin
	}

	for my := b.Min.Y; my < b.Max.Y; my++ {
		for mx := b.Min.X; mx < b.Max.X; mx++ {
			if mask.AlphaAt(mx, my).A == 0 {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				y := y0 + (my-b.Min.Y)*scale + dy
				if y < 0 || y >= rows {
					continue
				}
				for dx := 0; dx < scale; dx++ {
					x := x0 + (mx-b.Min.X)*scale + dx
					if x < 0 || x >= cols {
						continue
					}
					i := (y*cols + x) * 3
					data[i], data[i+1], data[i+2] = color[0], color[1], color[2]
				}
			}
		}
	}
}
