// Package streamtest provides a synthetic decoder for exercising frame
// streams without ffmpeg.
package streamtest

import (
	"errors"

	"github.com/gaurav-prasanna/framedoc/core/stream"
)

// Decoder produces Total solid-colored frames. The red channel of every pixel
// in frame i is byte(i), so tests can tell frames apart after copying.
type Decoder struct {
	W, H   int
	Rate   float64
	Total  int
	FailAt int // when > 0, Read fails at this frame index
	// Uncounted makes Frames report 0, as containers without a stored frame
	// count do, while Read still yields Total frames.
	Uncounted bool

	Reads  int
	Closes int

	buf []byte
}

// New returns a decoder for a w×h video at rate fps with total frames.
func New(w, h int, rate float64, total int) *Decoder {
	return &Decoder{W: w, H: h, Rate: rate, Total: total}
}

// Width returns the frame width in pixels.
func (d *Decoder) Width() int { return d.W }

// Height returns the frame height in pixels.
func (d *Decoder) Height() int { return d.H }

// FPS returns the frame rate.
func (d *Decoder) FPS() float64 { return d.Rate }

// Frames returns the reported frame count.
func (d *Decoder) Frames() int {
	if d.Uncounted {
		return 0
	}
	return d.Total
}

// SetFrameBuffer binds the RGBA buffer that Read fills.
func (d *Decoder) SetFrameBuffer(buffer []byte) error {
	if len(buffer) != d.W*d.H*4 {
		return errors.New("frame buffer size mismatch")
	}
	d.buf = buffer
	return nil
}

// Read fills the buffer with the next frame, or reports false at the end or
// at FailAt.
func (d *Decoder) Read() bool {
	if d.Reads >= d.Total {
		return false
	}
	if d.FailAt > 0 && d.Reads == d.FailAt {
		return false
	}
	for i := 0; i < len(d.buf); i += 4 {
		d.buf[i] = byte(d.Reads)
		d.buf[i+1] = 0x10
		d.buf[i+2] = 0x20
		d.buf[i+3] = 0xff
	}
	d.Reads++
	return true
}

// Close counts calls so tests can check the decoder is released once.
func (d *Decoder) Close() { d.Closes++ }

// Open wraps a fresh decoder in a stream, panicking on misuse.
func Open(w, h int, rate float64, total int) (*stream.Stream, *Decoder) {
	dec := New(w, h, rate, total)
	s, err := stream.New("synthetic.mp4", dec)
	if err != nil {
		panic(err)
	}
	return s, dec
}
