// Package sample selects frames from a stream at a fixed time interval,
// bounded by a maximum count.
package sample

import (
	"context"
	"fmt"
	"image"
	"iter"
	"math"

	"github.com/gaurav-prasanna/framedoc/core"
)

// StopReason explains why sampling ended.
type StopReason string

const (
	// StopLimit means the maximum count was reached.
	StopLimit StopReason = "limit"
	// StopExhausted means the stream ended before the maximum count.
	StopExhausted StopReason = "exhausted"
	// StopEmpty means the source yielded no frames at all.
	StopEmpty StopReason = "empty"
)

// Result is the ordered outcome of one sampling pass.
type Result struct {
	Frames    []core.SampledFrame
	Step      int
	Requested int
	Reason    StopReason
	// DecodeErr is the non-fatal decode failure that ended the stream early, if any.
	DecodeErr error
}

// Sampler applies an interval and max-count policy. It holds no per-call
// state, so the same Sampler can be reused across runs and goroutines.
type Sampler struct {
	interval float64
	maxCount int
}

// New creates a Sampler. interval is in seconds.
func New(interval float64, maxCount int) (*Sampler, error) {
	if !(interval > 0) || math.IsInf(interval, 0) {
		return nil, fmt.Errorf("sample interval must be > 0 seconds (got %v)", interval)
	}
	if maxCount <= 0 {
		return nil, fmt.Errorf("max frame count must be > 0 (got %d)", maxCount)
	}
	return &Sampler{interval: interval, maxCount: maxCount}, nil
}

// FrameStep returns the number of raw frames between two samples. It is never
// below 1, so an interval shorter than one frame period samples every frame.
func FrameStep(frameRate, interval float64) int {
	step := int(math.Round(frameRate * interval))
	if step < 1 {
		return 1
	}
	return step
}

// Frames lazily yields sampled frames in index order. The sequence is finite
// and consumes src until it ends; the reported frame count is not consulted,
// since many containers do not store one. It stops without reading further
// once the maximum count is reached. Yielded images are copies and outlive
// the stream.
func (s *Sampler) Frames(ctx context.Context, src core.FrameSource) iter.Seq2[core.SampledFrame, error] {
	return func(yield func(core.SampledFrame, error) bool) {
		step := FrameStep(src.Info().FrameRate, s.interval)

		seq := 0
		for seq < s.maxCount {
			if err := ctx.Err(); err != nil {
				yield(core.SampledFrame{}, err)
				return
			}
			f, ok := src.Next()
			if !ok {
				return
			}
			if f.Index%step != 0 {
				continue
			}
			seq++
			f.Image = cloneRGBA(f.Image)
			if !yield(core.SampledFrame{RawFrame: f, Sequence: seq}, nil) {
				return
			}
		}
	}
}

// Sample runs Frames to completion and reports why it stopped.
func (s *Sampler) Sample(ctx context.Context, src core.FrameSource) (*Result, error) {
	info := src.Info()
	res := &Result{
		Step:      FrameStep(info.FrameRate, s.interval),
		Requested: s.maxCount,
	}

	for f, err := range s.Frames(ctx, src) {
		if err != nil {
			return nil, err
		}
		res.Frames = append(res.Frames, f)
	}

	// Frame 0 is always selected, so no frames means none were decoded.
	switch {
	case len(res.Frames) == 0:
		res.Reason = StopEmpty
	case len(res.Frames) >= s.maxCount:
		res.Reason = StopLimit
	default:
		res.Reason = StopExhausted
	}
	if e, ok := src.(interface{ Err() error }); ok {
		res.DecodeErr = e.Err()
	}
	return res, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}
