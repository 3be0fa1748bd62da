package mandel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrLengthMismatch is returned by the encoders when the pixel slice does
// not hold exactly width×height counts.
var ErrLengthMismatch = errors.New("pixel count does not match image size")

func checkLen(pixels []Pixel, width, height int) error {
	if width < 0 || height < 0 || len(pixels) != width*height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrLengthMismatch, len(pixels), width, height)
	}
	return nil
}

func paletteOrDefault(p Palette) Palette {
	if p == nil {
		return DefaultPalette
	}
	return p
}

// PixelsToColorImage colours row-major pixels for display.
// A nil palette means DefaultPalette.
func PixelsToColorImage(pixels []Pixel, width, height, iterationMax int, p Palette) (*image.RGBA, error) {
	if err := checkLen(pixels, width, height); err != nil {
		return nil, err
	}
	p = paletteOrDefault(p)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, count := range pixels {
		c := p.Color(int(count), iterationMax)
		o := 4 * i
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = c.R, c.G, c.B, c.A
	}
	return img, nil
}

// PixelsToRGBImage colours row-major pixels for export. Alpha is dropped.
// A nil palette means DefaultPalette.
func PixelsToRGBImage(pixels []Pixel, width, height, iterationMax int, p Palette) (*RGBImage, error) {
	if err := checkLen(pixels, width, height); err != nil {
		return nil, err
	}
	p = paletteOrDefault(p)

	img := NewRGBImage(width, height)
	for i, count := range pixels {
		c := p.Color(int(count), iterationMax)
		o := 3 * i
		img.Pix[o], img.Pix[o+1], img.Pix[o+2] = c.R, c.G, c.B
	}
	return img, nil
}

// RGBImage is an opaque image with 3 bytes per pixel.
type RGBImage struct {
	// Pix holds the R, G, B samples in row-major order.
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGBImage returns a black width×height image.
func NewRGBImage(width, height int) *RGBImage {
	width, height = max(width, 0), max(height, 0)
	return &RGBImage{
		Pix:    make([]uint8, 3*width*height),
		Stride: 3 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func (m *RGBImage) ColorModel() color.Model { return color.RGBAModel }
func (m *RGBImage) Bounds() image.Rectangle { return m.Rect }

func (m *RGBImage) At(x, y int) color.Color {
	return m.RGBAt(x, y)
}

// RGBAt returns the pixel at (x, y) as an opaque colour.
func (m *RGBImage) RGBAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(m.Rect)) {
		return color.RGBA{}
	}
	o := (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*3
	return color.RGBA{m.Pix[o], m.Pix[o+1], m.Pix[o+2], 255}
}

// Opaque reports that the image has no transparent pixels.
func (m *RGBImage) Opaque() bool { return true }

// Encode writes the image in the named format ("png" or "jpeg").
func (m *RGBImage) Encode(w io.Writer, format string) error {
	switch format {
	case "png":
		return png.Encode(w, m)
	case "jpeg", "jpg":
		return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}

// FormatFromPath derives the image format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case "":
		return "", fmt.Errorf("%q has no file extension to pick an image format", path)
	default:
		return "", fmt.Errorf("unsupported image format %q", ext)
	}
}

// Save writes the image to path, creating its directory if needed. The
// format follows the file extension.
func (m *RGBImage) Save(path string) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := m.Encode(f, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", strings.ToUpper(format), err)
	}
	return nil
}
