package server

import (
	"fmt"
	"net/url"
	"strconv"

	mandel "github.com/marben/mandelbrot"
)

// Request asks for one render. Zero fields take the session defaults;
// a named Region replaces Scale and the origin.
type Request struct {
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
	Re         float64 `json:"re,omitempty"`
	Im         float64 `json:"im,omitempty"`
	Iterations int     `json:"iterations,omitempty"`
	Palette    string  `json:"palette,omitempty"`
	Region     string  `json:"region,omitempty"`
}

// Progress is sent over the websocket while tiles finish.
type Progress struct {
	Type       string `json:"type"`
	TilesDone  int    `json:"tiles_done"`
	TilesTotal int    `json:"tiles_total"`
}

// Result is sent over the websocket after a render. On success the PNG
// follows as a binary message.
type Result struct {
	Type         string  `json:"type"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	IterationMax int     `json:"iteration_max,omitempty"`
	ElapsedMs    float64 `json:"elapsed_ms,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// params resolves the request against the defaults and the server limits.
func (req Request) params(limits Limits) (mandel.Params, mandel.Palette, error) {
	p := mandel.DefaultParams()
	if req.Width != 0 {
		p.Width = req.Width
	}
	if req.Height != 0 {
		p.Height = req.Height
	}
	if req.Iterations != 0 {
		p.IterationMax = req.Iterations
	}
	if req.Scale != 0 {
		p.Scale = req.Scale
	}
	p.Origin = complex(req.Re, req.Im)

	if req.Region != "" {
		r, ok := mandel.RegionByName(req.Region)
		if !ok {
			return mandel.Params{}, nil, fmt.Errorf("unknown region %q", req.Region)
		}
		p = r.Params(p.Width, p.Height, p.IterationMax)
	}

	pal := mandel.Palette(mandel.DefaultPalette)
	if req.Palette != "" {
		var ok bool
		if pal, ok = mandel.PaletteByName(req.Palette); !ok {
			return mandel.Params{}, nil, fmt.Errorf("unknown palette %q", req.Palette)
		}
	}

	if err := p.Validate(); err != nil {
		return mandel.Params{}, nil, err
	}
	if p.Width == 0 || p.Height == 0 {
		return mandel.Params{}, nil, fmt.Errorf("empty image %dx%d", p.Width, p.Height)
	}
	if limits.MaxPixels > 0 && p.Pixels() > limits.MaxPixels {
		return mandel.Params{}, nil, fmt.Errorf("image %dx%d exceeds %d pixels", p.Width, p.Height, limits.MaxPixels)
	}
	if limits.MaxIterations > 0 && p.IterationMax > limits.MaxIterations {
		return mandel.Params{}, nil, fmt.Errorf("iterations %d exceed %d", p.IterationMax, limits.MaxIterations)
	}
	return p, pal, nil
}

// requestFromQuery reads a Request from URL query parameters. The
// iteration cap is "iter"; "iterations" is accepted when "iter" is absent.
func requestFromQuery(q url.Values) (Request, error) {
	var req Request
	ints := []struct {
		key string
		dst *int
	}{
		{"width", &req.Width},
		{"height", &req.Height},
		{"iterations", &req.Iterations},
		{"iter", &req.Iterations},
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"scale", &req.Scale},
		{"re", &req.Re},
		{"im", &req.Im},
	}

	for _, f := range ints {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Request{}, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}
	for _, f := range floats {
		if v := q.Get(f.key); v != "" {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Request{}, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = x
		}
	}
	req.Palette = q.Get("palette")
	req.Region = q.Get("region")
	return req, nil
}
