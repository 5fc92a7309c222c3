// Package core defines the pipeline types and stage interfaces for framedoc.
// Each stage of the pipeline is a clean, testable interface.
package core

import (
	"context"
	"image"
)

// VideoInfo describes an opened, decodable video source.
type VideoInfo struct {
	Path      string
	FrameRate float64 // frames per second, always > 0 once opened
	// TotalFrames is the container's frame count; 0 when it does not store one.
	TotalFrames int
	Width       int
	Height      int
}

// Duration returns the source length in seconds.
func (v VideoInfo) Duration() float64 {
	if v.FrameRate <= 0 {
		return 0
	}
	return float64(v.TotalFrames) / v.FrameRate
}

// RawFrame is one decoded image at a known frame index.
// Image is always in Go's canonical RGBA layout.
type RawFrame struct {
	Index     int
	Timestamp float64 // seconds, Index / frame rate
	Image     *image.RGBA
}

// Width returns the frame width in pixels.
func (f RawFrame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dx()
}

// Height returns the frame height in pixels.
func (f RawFrame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dy()
}

// SampledFrame is a RawFrame selected by the sampler.
// Sequence is the 1-based position among all frames sampled in a run.
type SampledFrame struct {
	RawFrame
	Sequence int
}

// Placement is where a frame image is drawn on its page.
type Placement struct {
	Scale      float64
	DrawWidth  float64
	DrawHeight float64
	X          float64 // left edge in page coordinates
	Y          float64 // top edge in page coordinates
}

// Margins are page margins in page units.
type Margins struct {
	Left   float64 `toml:"left"`
	Right  float64 `toml:"right"`
	Top    float64 `toml:"top"`
	Bottom float64 `toml:"bottom"`
}

// Page is a single captioned image page.
type Page struct {
	Caption   string
	Frame     SampledFrame
	Placement Placement
}

// Document is the ordered page sequence produced by the assembler.
type Document struct {
	Title      string
	PageWidth  float64
	PageHeight float64
	Margins    Margins
	// CaptionHeight is the band reserved under the top margin for the caption.
	CaptionHeight float64
	Pages         []Page
}

// Acquisition is a locally readable video handed to the pipeline.
type Acquisition struct {
	Path     string
	Title    string
	Duration float64 // seconds, 0 when the collaborator does not know it
	Source   string  // the reference the video was acquired from
}

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// FrameSource yields decoded frames in index order.
type FrameSource interface {
	Info() VideoInfo
	// Next returns the next frame, or false once the source is exhausted.
	Next() (RawFrame, bool)
	// Close releases the decoder; calling it again is a no-op.
	Close() error
}

// Acquirer turns a reference (path or URL) into a local video file.
// Any file it creates must live under workDir.
type Acquirer interface {
	Acquire(ctx context.Context, ref, workDir, quality string) (*Acquisition, error)
}

// Fetcher retrieves raw HTML from a URL and downloads files.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
	Download(ctx context.Context, url, dst string) (int64, error)
}

// Renderer serializes a Document into an output format.
type Renderer interface {
	// Render may use workDir for intermediate files; it must not write elsewhere.
	Render(doc *Document, workDir string) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".pdf").
	Extension() string
}
