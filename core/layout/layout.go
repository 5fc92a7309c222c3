// Package layout computes aspect-ratio-preserving placement of frame images
// inside a bounded page region.
package layout

import (
	"fmt"
	"math"

	"github.com/gaurav-prasanna/framedoc/core"
)

// Region is a rectangle in page coordinates (origin top-left).
type Region struct {
	X, Y          float64
	Width, Height float64
}

// Fit returns the largest size that keeps the frame's aspect ratio and fits
// inside availW×availH. Small frames are scaled up.
func Fit(frameW, frameH, availW, availH float64) (core.Placement, error) {
	for _, v := range []float64{frameW, frameH, availW, availH} {
		if !(v > 0) || math.IsInf(v, 0) {
			return core.Placement{}, fmt.Errorf("%w: frame %vx%v, available %vx%v",
				core.ErrInvalidDimensions, frameW, frameH, availW, availH)
		}
	}
	scale := math.Min(availW/frameW, availH/frameH)
	return core.Placement{
		Scale:      scale,
		DrawWidth:  frameW * scale,
		DrawHeight: frameH * scale,
	}, nil
}

// Center positions p in the middle of r.
func Center(p core.Placement, r Region) core.Placement {
	p.X = r.X + (r.Width-p.DrawWidth)/2
	p.Y = r.Y + (r.Height-p.DrawHeight)/2
	return p
}

// Engine applies the upscaling policy on top of Fit.
type Engine struct {
	// AllowUpscale lets frames smaller than the region grow to fill it.
	AllowUpscale bool
}

// Place fits a frame into r and centers it.
func (e Engine) Place(frameW, frameH int, r Region) (core.Placement, error) {
	p, err := Fit(float64(frameW), float64(frameH), r.Width, r.Height)
	if err != nil {
		return core.Placement{}, err
	}
	if !e.AllowUpscale && p.Scale > 1 {
		p.Scale = 1
		p.DrawWidth = float64(frameW)
		p.DrawHeight = float64(frameH)
	}
	return Center(p, r), nil
}
