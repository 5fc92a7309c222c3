// Package assemble turns an ordered set of sampled frames into a document:
// one captioned page per frame, in sampling order.
//
// Assembly is a pure transform. Image encoding and file output belong to the
// renderers and the pipeline controller.
package assemble

import (
	"fmt"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/layout"
)

// Geometry is the fixed page canvas, in points.
type Geometry struct {
	PageWidth     float64      `toml:"width"`
	PageHeight    float64      `toml:"height"`
	Margins       core.Margins `toml:"margins"`
	CaptionHeight float64      `toml:"caption_height"`
}

// DefaultGeometry is landscape A4 with the margins used for frame sheets.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:     841.89,
		PageHeight:    595.28,
		Margins:       core.Margins{Left: 30, Right: 30, Top: 50, Bottom: 36},
		CaptionHeight: 64,
	}
}

// Available returns the width and height left for the image.
func (g Geometry) Available() (float64, float64) {
	w := g.PageWidth - g.Margins.Left - g.Margins.Right
	h := g.PageHeight - g.Margins.Top - g.Margins.Bottom - g.CaptionHeight
	return w, h
}

// ImageRegion is the area under the caption band where the frame is centered.
func (g Geometry) ImageRegion() layout.Region {
	w, h := g.Available()
	return layout.Region{
		X:      g.Margins.Left,
		Y:      g.Margins.Top + g.CaptionHeight,
		Width:  w,
		Height: h,
	}
}

// Validate reports geometry that leaves no room for an image.
func (g Geometry) Validate() error {
	w, h := g.Available()
	if !(w > 0) || !(h > 0) {
		return fmt.Errorf("%w: page %vx%v leaves %vx%v for images",
			core.ErrInvalidDimensions, g.PageWidth, g.PageHeight, w, h)
	}
	if g.CaptionHeight < 0 {
		return fmt.Errorf("%w: negative caption height %v", core.ErrInvalidDimensions, g.CaptionHeight)
	}
	return nil
}

// Caption is the per-page label.
func Caption(sequence int, timestamp float64) string {
	return fmt.Sprintf("Frame %d - Time: %.2f seconds", sequence, timestamp)
}

// Assembler builds documents for a fixed geometry.
type Assembler struct {
	geom   Geometry
	engine layout.Engine
}

// New creates an Assembler.
func New(geom Geometry, engine layout.Engine) (*Assembler, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{geom: geom, engine: engine}, nil
}

// Geometry returns the page canvas this assembler lays out against.
func (a *Assembler) Geometry() Geometry {
	return a.geom
}

// Assemble emits exactly one page per frame, in input order. An empty input
// fails with core.ErrEmptyInput.
func (a *Assembler) Assemble(title string, frames []core.SampledFrame) (*core.Document, error) {
	if len(frames) == 0 {
		return nil, core.ErrEmptyInput
	}

	region := a.geom.ImageRegion()
	pages := make([]core.Page, 0, len(frames))
	for _, f := range frames {
		placement, err := a.engine.Place(f.Width(), f.Height(), region)
		if err != nil {
			return nil, fmt.Errorf("placing frame %d: %w", f.Sequence, err)
		}
		pages = append(pages, core.Page{
			Caption:   Caption(f.Sequence, f.Timestamp),
			Frame:     f,
			Placement: placement,
		})
	}

	return &core.Document{
		Title:         title,
		PageWidth:     a.geom.PageWidth,
		PageHeight:    a.geom.PageHeight,
		Margins:       a.geom.Margins,
		CaptionHeight: a.geom.CaptionHeight,
		Pages:         pages,
	}, nil
}
