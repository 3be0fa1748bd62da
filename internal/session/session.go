// Package session holds the state of an interactive render session as a
// plain value. Each user action is a function from one State to the next,
// so shells (CLI, server, GUI) drive the same logic without sharing it.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"

	mandel "github.com/marben/mandelbrot"
)

// DefaultSavePath is where a fresh session exports to.
const DefaultSavePath = "output/mandelbrot.png"

// NothingGenerated is the save message when there is nothing to save yet.
const NothingGenerated = "Nothing generated yet"

// ErrNothingGenerated is returned when an image is requested before any
// generation pass.
var ErrNothingGenerated = errors.New("nothing generated yet")

// State is a snapshot of a session.
type State struct {
	Params   mandel.Params
	Palette  string
	SavePath string

	SaveMsg       string
	GenerationMsg string

	// Pixels is the result of the last successful generation, nil before.
	Pixels *mandel.PixelData
}

// New returns the state a session starts in.
func New() State {
	return State{
		Params:   mandel.DefaultParams(),
		Palette:  "gradient",
		SavePath: DefaultSavePath,
	}
}

// SetSavePath changes the export path and clears the last save message.
func SetSavePath(s State, path string) State {
	s.SavePath = path
	s.SaveMsg = ""
	return s
}

// SetParams replaces the generation parameters. Nothing is recomputed
// until the next Generate.
func SetParams(s State, p mandel.Params) State {
	s.Params = p
	return s
}

// Generate renders s.Params with r. On failure the previous pixels are kept
// and the error is reported in GenerationMsg.
func Generate(ctx context.Context, r mandel.Renderer, s State) State {
	if err := s.Params.Validate(); err != nil {
		s.GenerationMsg = err.Error()
		return s
	}
	pd, err := r.Render(ctx, s.Params)
	if err != nil {
		s.GenerationMsg = err.Error()
		return s
	}
	s.Pixels = &pd
	s.GenerationMsg = fmt.Sprintf("Generated in %v", pd.Elapsed)
	return s
}

// palette resolves the session palette, falling back to the default.
func (s State) palette() mandel.Palette {
	if p, ok := mandel.PaletteByName(s.Palette); ok {
		return p
	}
	return mandel.DefaultPalette
}

// DisplayImage colours the last generation for display.
func DisplayImage(s State) (*image.RGBA, error) {
	if s.Pixels == nil {
		return nil, ErrNothingGenerated
	}
	return s.Pixels.ColorImage(s.palette())
}

// Save exports the last generation to s.SavePath and reports the outcome
// in SaveMsg. A failed save can be retried with another path.
func Save(s State) State {
	if s.Pixels == nil {
		s.SaveMsg = NothingGenerated
		return s
	}
	img, err := s.Pixels.RGBImage(s.palette())
	if err != nil {
		s.SaveMsg = err.Error()
		return s
	}
	if err := img.Save(s.SavePath); err != nil {
		s.SaveMsg = err.Error()
		return s
	}
	s.SaveMsg = fmt.Sprintf("Saved to %s", s.SavePath)
	return s
}
