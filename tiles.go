package mandel

import "image"

// DefaultTileSize is the edge length of the square tiles a render is split into.
const DefaultTileSize = 64

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
// Tiles are returned in row-major order.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)

		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)

			tile := image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			)
			tiles = append(tiles, tile)
		}
	}

	return tiles
}

// TileCount is the number of tiles a width×height render is split into.
func TileCount(width, height, tileSize int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return ((width + tileSize - 1) / tileSize) * ((height + tileSize - 1) / tileSize)
}
