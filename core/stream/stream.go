// Package stream implements FrameStream: sequential frame reads over a
// decodable video with timing metadata.
//
// Decoding is delegated to Vidio, which pipes raw RGBA frames out of ffmpeg.
// A Stream owns its decoder until Close, which is idempotent and safe to defer
// on every exit path.
package stream

import (
	"fmt"
	"image"
	"os"
	"sync"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/gaurav-prasanna/framedoc/core"
)

// Decoder is the subset of a Vidio video the stream needs.
type Decoder interface {
	Width() int
	Height() int
	FPS() float64
	Frames() int
	SetFrameBuffer(buffer []byte) error
	Read() bool
	Close()
}

// Stream reads frames in index order.
type Stream struct {
	dec   Decoder
	info  core.VideoInfo
	frame *image.RGBA

	next int
	done bool
	err  error

	closeOnce sync.Once
}

// Open opens the video at path. It fails with core.ErrSourceUnreadable when the
// file is missing or cannot be decoded.
func Open(path string) (*Stream, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnreadable, err)
	}
	video, err := vidio.NewVideo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", core.ErrSourceUnreadable, path, err)
	}
	s, err := New(path, video)
	if err != nil {
		video.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened decoder. The stream takes ownership of dec.
func New(path string, dec Decoder) (*Stream, error) {
	info := core.VideoInfo{
		Path:        path,
		FrameRate:   dec.FPS(),
		TotalFrames: dec.Frames(),
		Width:       dec.Width(),
		Height:      dec.Height(),
	}
	if !(info.FrameRate > 0) {
		return nil, fmt.Errorf("%w: %s reports frame rate %v", core.ErrSourceUnreadable, path, info.FrameRate)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s reports geometry %dx%d", core.ErrSourceUnreadable, path, info.Width, info.Height)
	}
	if info.TotalFrames < 0 {
		info.TotalFrames = 0
	}

	frame := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
	if err := dec.SetFrameBuffer(frame.Pix); err != nil {
		return nil, fmt.Errorf("%w: binding frame buffer: %v", core.ErrSourceUnreadable, err)
	}

	return &Stream{dec: dec, info: info, frame: frame}, nil
}

// Info returns the source metadata captured at open time.
func (s *Stream) Info() core.VideoInfo {
	return s.info
}

// FrameRate returns frames per second.
func (s *Stream) FrameRate() float64 {
	return s.info.FrameRate
}

// TotalFrames returns the frame count reported by the container.
func (s *Stream) TotalFrames() int {
	return s.info.TotalFrames
}

// Next decodes the next frame. The returned image aliases the stream's
// decode buffer and is overwritten by the following call; callers that keep
// a frame must copy it.
//
// A decode failure ends the stream. If it happens before the reported frame
// count was reached, Err returns a core.ErrDecode-wrapped error. Without a
// reported count the end of the stream is taken as its natural end.
func (s *Stream) Next() (core.RawFrame, bool) {
	if s.done {
		return core.RawFrame{}, false
	}
	if !s.dec.Read() {
		s.done = true
		if s.next < s.info.TotalFrames {
			s.err = fmt.Errorf("%w: stream ended at frame %d of %d", core.ErrDecode, s.next, s.info.TotalFrames)
		}
		return core.RawFrame{}, false
	}

	idx := s.next
	s.next++
	return core.RawFrame{
		Index:     idx,
		Timestamp: float64(idx) / s.info.FrameRate,
		Image:     s.frame,
	}, true
}

// Err reports the non-fatal decode failure that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the decoder. Calling it more than once is safe.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.dec.Close()
	})
	return nil
}
