package mandel

import (
	"context"
	"image"
	"image/color"
)

// Renderer produces the iteration counts for a whole image.
type Renderer interface {
	Render(ctx context.Context, p Params) (PixelData, error)
}

// Palette maps an iteration count to a colour. Implementations must be pure
// and total on [0, iterationMax]; counts at or above iterationMax are inside
// the set.
type Palette interface {
	Color(count, iterationMax int) color.RGBA
}

// ImgProvider hands out an encoded view of rendered pixel data.
type ImgProvider interface {
	ColorImage(p Palette) (*image.RGBA, error)
	RGBImage(p Palette) (*RGBImage, error)
}

var (
	_ Renderer    = (*Generator)(nil)
	_ ImgProvider = PixelData{}
)
