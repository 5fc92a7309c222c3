// Package pipeline runs one extraction: acquire a video, sample frames,
// assemble and render the document, and write it out.
//
// Each run owns a private temp directory that is removed before the run
// reaches Done or Failed, whichever stage failed. Controllers hold no
// per-run state, so independent runs may share one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/assemble"
	"github.com/gaurav-prasanna/framedoc/core/output"
	"github.com/gaurav-prasanna/framedoc/core/sample"
	"github.com/gaurav-prasanna/framedoc/core/stream"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a pipeline stage.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateSampling
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateSampling:
		return "sampling"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Options are the per-run parameters.
type Options struct {
	Interval  float64
	MaxFrames int
	Quality   string
	// Title overrides the title supplied by the acquirer.
	Title string
}

// DefaultOptions samples every 30 seconds, up to 20 frames.
func DefaultOptions() Options {
	return Options{Interval: 30, MaxFrames: 20, Quality: "best"}
}

// Opener opens a local video as a frame source.
type Opener func(path string) (core.FrameSource, error)

// OpenStream is the ffmpeg-backed Opener.
func OpenStream(path string) (core.FrameSource, error) {
	s, err := stream.Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ArtifactWriter persists a rendered document.
type ArtifactWriter interface {
	Write(name string, data []byte) (string, error)
}

type pageCounter interface {
	CountPages(data []byte) (int, error)
}

// Deps are the collaborators of a Controller. Open, TempRoot, Logger and Now
// are optional.
type Deps struct {
	Acquirer  core.Acquirer
	Open      Opener
	Assembler *assemble.Assembler
	Renderer  core.Renderer
	Writer    ArtifactWriter
	// TempRoot is where per-run directories are created; empty means os.TempDir.
	TempRoot string
	Logger   *zap.Logger
	Now      func() time.Time
}

// Controller drives runs through the stage machine.
type Controller struct {
	acquirer  core.Acquirer
	open      Opener
	assembler *assemble.Assembler
	renderer  core.Renderer
	writer    ArtifactWriter
	tempRoot  string
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Controller.
func New(d Deps) (*Controller, error) {
	switch {
	case d.Acquirer == nil:
		return nil, errors.New("pipeline: acquirer is required")
	case d.Assembler == nil:
		return nil, errors.New("pipeline: assembler is required")
	case d.Renderer == nil:
		return nil, errors.New("pipeline: renderer is required")
	case d.Writer == nil:
		return nil, errors.New("pipeline: writer is required")
	}
	c := &Controller{
		acquirer:  d.Acquirer,
		open:      d.Open,
		assembler: d.Assembler,
		renderer:  d.Renderer,
		writer:    d.Writer,
		tempRoot:  d.TempRoot,
		logger:    d.Logger,
		now:       d.Now,
	}
	if c.open == nil {
		c.open = OpenStream
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Result describes a finished run. It is returned on failure too.
type Result struct {
	RunID       string
	Source      string
	Title       string
	State       State
	Transitions []State
	Sample      *sample.Result
	Pages       int
	OutputPath  string
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         error
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

// Run executes a single pass over ref. There are no retries. The returned
// Result is never nil; its Err matches the returned error.
func (c *Controller) Run(ctx context.Context, ref string, opts Options) (*Result, error) {
	res := &Result{
		RunID:       uuid.NewString(),
		Source:      ref,
		State:       StateIdle,
		Transitions: []State{StateIdle},
		StartedAt:   c.now(),
	}
	log := c.logger.With(zap.String("run_id", res.RunID))

	err := c.runStages(ctx, ref, opts, res, log)
	res.FinishedAt = c.now()
	if err != nil {
		res.Err = err
		log.Error("run failed",
			zap.Stringer("stage", res.State),
			zap.Error(err),
		)
		res.enter(StateFailed)
		return res, err
	}
	res.enter(StateDone)
	log.Info("run complete",
		zap.Int("pages", res.Pages),
		zap.String("output", res.OutputPath),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res, nil
}

func (c *Controller) runStages(ctx context.Context, ref string, opts Options, res *Result, log *zap.Logger) error {
	sampler, err := sample.New(opts.Interval, opts.MaxFrames)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp(c.tempRoot, "framedoc-"+res.RunID[:8]+"-")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Warn("work directory cleanup failed", zap.String("dir", workDir), zap.Error(rmErr))
		}
	}()

	// Stage 1: acquire.
	res.enter(StateAcquiring)
	acq, err := c.acquirer.Acquire(ctx, ref, workDir, opts.Quality)
	if err != nil {
		return err
	}
	res.Title = acq.Title
	if opts.Title != "" {
		res.Title = opts.Title
	}
	log.Info("video acquired", zap.String("path", acq.Path), zap.String("title", res.Title))

	src, err := c.open(acq.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	// Stage 2: sample.
	res.enter(StateSampling)
	info := src.Info()
	log.Info("sampling frames",
		zap.Float64("fps", info.FrameRate),
		zap.Int("total_frames", info.TotalFrames),
		zap.Float64("interval", opts.Interval),
		zap.Int("max_frames", opts.MaxFrames),
	)
	sampled, err := sampler.Sample(ctx, src)
	if err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	res.Sample = sampled
	// Release the decoder before assembly so ffmpeg exits while pages render.
	if err := src.Close(); err != nil {
		log.Warn("closing frame source failed", zap.Error(err))
	}

	if sampled.DecodeErr != nil {
		log.Warn("stream ended early", zap.Error(sampled.DecodeErr))
	}
	if len(sampled.Frames) == 0 {
		return fmt.Errorf("%w: no frames sampled from %s", core.ErrEmptyInput, acq.Path)
	}
	log.Info("frames sampled",
		zap.Int("count", len(sampled.Frames)),
		zap.Int("step", sampled.Step),
		zap.String("stop", string(sampled.Reason)),
	)

	// Stage 3: assemble, render and write.
	res.enter(StateAssembling)
	doc, err := c.assembler.Assemble(res.Title, sampled.Frames)
	if err != nil {
		return fmt.Errorf("assembling: %w", err)
	}
	data, err := c.renderer.Render(doc, workDir)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	if counter, ok := c.renderer.(pageCounter); ok {
		n, err := counter.CountPages(data)
		if err != nil {
			return fmt.Errorf("verifying rendered document: %w", err)
		}
		if n != len(doc.Pages) {
			return fmt.Errorf("rendered document has %d pages, expected %d", n, len(doc.Pages))
		}
	}
	res.Pages = len(doc.Pages)

	name := output.FileName(res.Title, c.now(), c.renderer.Extension())
	path, err := c.writer.Write(name, data)
	if err != nil {
		return err
	}
	res.OutputPath = path
	return nil
}
