package distort

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/effects"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

var textures = style.NewTextureCache()

// TextureOverlay blends an image file, such as paper or canvas grain, over
// the frame. An empty path leaves the frame unchanged.
type TextureOverlay struct {
	cache *style.TextureCache
}

// NewTextureOverlay creates the texture overlay style over the shared
// texture cache.
func NewTextureOverlay() *TextureOverlay {
	return &TextureOverlay{cache: textures}
}

func (s *TextureOverlay) Name() string     { return "Texture Overlay" }
func (s *TextureOverlay) Category() string { return effects.CategoryDistortions }

func (s *TextureOverlay) Parameters() []param.Spec {
	return []param.Spec{
		param.String("texture_path", "Texture File", ""),
		param.Float("opacity", "Opacity", 0.3, 0.0, 1.0, 0.05),
	}
}

func (s *TextureOverlay) Apply(frame *gocv.Mat, v param.Values) (gocv.Mat, error) {
	if err := style.ValidateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	src := effects.BGR(frame)
	defer src.Close()

	path := v.String("texture_path")
	if path == "" {
		return src.Clone(), nil
	}

	tex, err := s.cache.Get(path, image.Pt(src.Cols(), src.Rows()))
	if err != nil {
		return gocv.NewMat(), err
	}
	defer tex.Close()

	return style.Blend(src, tex, v.Float("opacity")), nil
}
