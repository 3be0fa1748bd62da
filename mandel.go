// Package mandel renders escape-time images of the Mandelbrot set.
//
// A render maps every pixel of a width×height grid onto the complex plane,
// counts how many iterations of z ← z² + c it takes for the orbit to leave
// the radius-2 disc, and stores the counts in row-major order. Palettes turn
// the counts into a display image or an RGB image for export.
//
// A point whose orbit is still bounded after IterationMax steps is treated
// as a member of the set. That is an approximation inherent to escape-time
// rendering: some of those points would escape with a higher cap.
package mandel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// BaseSpan is the plane distance covered by the longer image side at scale 1.
const BaseSpan = 4.0

// Params describes one generation pass.
type Params struct {
	Width, Height int
	// Scale multiplies the plane distance per pixel; larger values zoom out.
	Scale float64
	// Origin is the plane coordinate at the centre of the image.
	Origin       complex128
	IterationMax int
}

// DefaultParams are the settings a fresh session starts with.
func DefaultParams() Params {
	return Params{
		Width:        640,
		Height:       320,
		Scale:        1.0,
		Origin:       0,
		IterationMax: 1000,
	}
}

// Pixels is the number of cells a generation pass with p produces.
func (p Params) Pixels() int {
	if p.Width <= 0 || p.Height <= 0 {
		return 0
	}
	return p.Width * p.Height
}

// Validate reports parameters that cannot describe a meaningful image.
// Generation itself never fails on them; zero sizes give an empty result.
func (p Params) Validate() error {
	var errs []error
	if p.Width < 0 || p.Height < 0 {
		errs = append(errs, fmt.Errorf("negative image size %dx%d", p.Width, p.Height))
	}
	if math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) || p.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale must be a positive finite number, got %v", p.Scale))
	}
	if cmplx.IsNaN(p.Origin) || cmplx.IsInf(p.Origin) {
		errs = append(errs, fmt.Errorf("origin must be finite, got %v", p.Origin))
	}
	if p.IterationMax < 0 || p.IterationMax > MaxIterations {
		errs = append(errs, fmt.Errorf("iteration max %d out of range", p.IterationMax))
	}
	return errors.Join(errs...)
}

// Region is a rectangle of the complex plane.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Center is the plane coordinate in the middle of the region.
func (r Region) Center() complex128 {
	return complex((r.Xmin+r.Xmax)/2, (r.Ymin+r.Ymax)/2)
}

// Scale is the scale factor at which the longer side of the region fills
// the longer side of the image.
func (r Region) Scale() float64 {
	return math.Max(math.Abs(r.Xmax-r.Xmin), math.Abs(r.Ymax-r.Ymin)) / BaseSpan
}

// Params centres a width×height image on the region.
func (r Region) Params(width, height, iterationMax int) Params {
	return Params{
		Width:        width,
		Height:       height,
		Scale:        r.Scale(),
		Origin:       r.Center(),
		IterationMax: iterationMax,
	}
}

// Named views of well known parts of the set.
var (
	// FullSet frames the whole set.
	FullSet = Region{
		Xmin: -2.5,
		Xmax: 1.5,
		Ymin: -1.25,
		Ymax: 1.25,
	}

	// SeahorseValley sits in the neck between the cardioid and the period-2 bulb.
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// ElephantValley is the cusp side of the cardioid, where trunk-shaped spirals line up.
	ElephantValley = Region{
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
	}

	// SpiralMinibrot frames a small copy of the set wrapped in tight spirals.
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// TripleSpiral shows spirals with threefold symmetry.
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// ValleyOfTheDragon needs a high iteration cap to resolve its filaments.
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// MinibrotInMiniSpiral is a copy of the set inside the arm of a small spiral.
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

var regions = map[string]Region{
	"full":         FullSet,
	"seahorse":     SeahorseValley,
	"elephant":     ElephantValley,
	"spiral":       SpiralMinibrot,
	"triplespiral": TripleSpiral,
	"dragon":       ValleyOfTheDragon,
	"minispiral":   MinibrotInMiniSpiral,
}

// RegionByName looks up a landmark by its short name.
func RegionByName(name string) (Region, bool) {
	r, ok := regions[name]
	return r, ok
}

// RegionNames lists the landmark names in sorted order.
func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for n := range regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
