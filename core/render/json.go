// Package render - JSON renderer.
// Emits a manifest of the document: page geometry plus, per page, the
// caption, source frame position, and placement. Pixel data is not included.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/framedoc/core"
)

// Manifest is the JSON form of a document.
type Manifest struct {
	Title         string         `json:"title"`
	PageWidth     float64        `json:"page_width"`
	PageHeight    float64        `json:"page_height"`
	Margins       ManifestMargin `json:"margins"`
	CaptionHeight float64        `json:"caption_height"`
	PageCount     int            `json:"page_count"`
	Pages         []ManifestPage `json:"pages"`
}

// ManifestMargin mirrors core.Margins.
type ManifestMargin struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// ManifestPage describes one page.
type ManifestPage struct {
	Sequence    int     `json:"sequence"`
	Caption     string  `json:"caption"`
	FrameIndex  int     `json:"frame_index"`
	Timestamp   float64 `json:"timestamp"`
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`
	Scale       float64 `json:"scale"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	DrawWidth   float64 `json:"draw_width"`
	DrawHeight  float64 `json:"draw_height"`
}

// JSONRenderer produces a structured JSON manifest.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render converts the document into its manifest. workDir is unused.
func (r *JSONRenderer) Render(doc *core.Document, workDir string) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, core.ErrEmptyInput
	}

	m := Manifest{
		Title:      doc.Title,
		PageWidth:  doc.PageWidth,
		PageHeight: doc.PageHeight,
		Margins: ManifestMargin{
			Left:   doc.Margins.Left,
			Right:  doc.Margins.Right,
			Top:    doc.Margins.Top,
			Bottom: doc.Margins.Bottom,
		},
		CaptionHeight: doc.CaptionHeight,
		PageCount:     len(doc.Pages),
		Pages:         make([]ManifestPage, 0, len(doc.Pages)),
	}
	for _, p := range doc.Pages {
		m.Pages = append(m.Pages, ManifestPage{
			Sequence:    p.Frame.Sequence,
			Caption:     p.Caption,
			FrameIndex:  p.Frame.Index,
			Timestamp:   p.Frame.Timestamp,
			FrameWidth:  p.Frame.Width(),
			FrameHeight: p.Frame.Height(),
			Scale:       p.Placement.Scale,
			X:           p.Placement.X,
			Y:           p.Placement.Y,
			DrawWidth:   p.Placement.DrawWidth,
			DrawHeight:  p.Placement.DrawHeight,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// CountPages re-reads a manifest and returns its page count.
func (r *JSONRenderer) CountPages(data []byte) (int, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return 0, fmt.Errorf("decoding manifest: %w", err)
	}
	return len(m.Pages), nil
}
