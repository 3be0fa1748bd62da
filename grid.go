package mandel

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pixel is the escape iteration count of one image cell.
type Pixel uint32

// MaxIterations is the largest iteration cap a Pixel can hold. Generation
// clamps higher caps to it.
const MaxIterations = math.MaxUint32

func clampIterations(n int) int {
	return min(max(n, 0), MaxIterations)
}

// PixelData holds the iteration counts of a render in row-major order:
// Pix[y*Width+x] is the pixel at column x of row y.
type PixelData struct {
	Width, Height int
	IterationMax  int
	Pix           []Pixel

	// Elapsed is the wall-clock time the render took.
	Elapsed time.Duration
}

// At returns the count at column x of row y.
func (pd PixelData) At(x, y int) Pixel {
	return pd.Pix[y*pd.Width+x]
}

// ColorImage implements ImgProvider.
func (pd PixelData) ColorImage(p Palette) (*image.RGBA, error) {
	return PixelsToColorImage(pd.Pix, pd.Width, pd.Height, pd.IterationMax, p)
}

// RGBImage implements ImgProvider.
func (pd PixelData) RGBImage(p Palette) (*RGBImage, error) {
	return PixelsToRGBImage(pd.Pix, pd.Width, pd.Height, pd.IterationMax, p)
}

// Generator renders images by splitting them into tiles and computing the
// tiles on a bounded number of goroutines.
// The zero value is ready to use.
type Generator struct {
	// Workers bounds the goroutines computing tiles. Zero means GOMAXPROCS.
	Workers int
	// TileSize is the tile edge in pixels. Zero means DefaultTileSize.
	TileSize int
	// OnTile, if set, is called after each finished tile. It may be called
	// from several goroutines at once.
	OnTile func(tile image.Rectangle)
}

// Render implements Renderer.
func (g *Generator) Render(ctx context.Context, p Params) (PixelData, error) {
	return g.Generate(ctx, p)
}

// Generate computes the iteration count of every pixel described by p.
// Zero or negative sizes give empty pixel data. The only error is a
// cancelled ctx.
func (g *Generator) Generate(ctx context.Context, p Params) (PixelData, error) {
	start := time.Now()
	p.IterationMax = clampIterations(p.IterationMax)
	pd := PixelData{
		Width:        max(p.Width, 0),
		Height:       max(p.Height, 0),
		IterationMax: p.IterationMax,
		Pix:          make([]Pixel, p.Pixels()),
	}
	if len(pd.Pix) == 0 {
		pd.Elapsed = time.Since(start)
		return pd, nil
	}

	tileSize := g.TileSize
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, tile := range splitRectNoClip(image.Rect(0, 0, pd.Width, pd.Height), tileSize, tileSize) {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			// tiles are disjoint, so each goroutine owns its cells of pd.Pix
			renderTile(pd.Pix, tile, p)
			if g.OnTile != nil {
				g.OnTile(tile)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return PixelData{}, fmt.Errorf("generate %dx%d: %w", pd.Width, pd.Height, err)
	}
	if err := ctx.Err(); err != nil {
		return PixelData{}, fmt.Errorf("generate %dx%d: %w", pd.Width, pd.Height, context.Cause(ctx))
	}

	pd.Elapsed = time.Since(start)
	return pd, nil
}

func renderTile(pix []Pixel, tile image.Rectangle, p Params) {
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		row := pix[y*p.Width : (y+1)*p.Width]
		for x := tile.Min.X; x < tile.Max.X; x++ {
			c := PixelToComplex(x, y, p.Width, p.Height, p.Scale, p.Origin)
			row[x] = Pixel(EscapeIterations(c, p.IterationMax))
		}
	}
}

var defaultGenerator Generator

// CalculatePixelData renders a width×height image centred on origin and
// returns the counts with the time it took.
func CalculatePixelData(width, height int, scale float64, origin complex128, iterationMax int) PixelData {
	// background context is never cancelled, so Generate cannot fail
	pd, _ := defaultGenerator.Generate(context.Background(), Params{
		Width:        width,
		Height:       height,
		Scale:        scale,
		Origin:       origin,
		IterationMax: iterationMax,
	})
	return pd
}
