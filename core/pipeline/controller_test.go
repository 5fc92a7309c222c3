package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/assemble"
	"github.com/gaurav-prasanna/framedoc/core/layout"
	"github.com/gaurav-prasanna/framedoc/core/output"
	"github.com/gaurav-prasanna/framedoc/core/render"
	"github.com/gaurav-prasanna/framedoc/core/stream"
	"github.com/gaurav-prasanna/framedoc/core/stream/streamtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAcquirer struct {
	mu       sync.Mutex
	title    string
	err      error
	workDirs []string
}

func (a *fakeAcquirer) Acquire(_ context.Context, ref, workDir, _ string) (*core.Acquisition, error) {
	a.mu.Lock()
	a.workDirs = append(a.workDirs, workDir)
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	if info, err := os.Stat(workDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("work directory missing: %v", err)
	}
	path := filepath.Join(workDir, "download.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		return nil, err
	}
	return &core.Acquisition{Path: path, Title: a.title, Source: ref}, nil
}

func syntheticOpener(rate float64, total, failAt int) Opener {
	return func(string) (core.FrameSource, error) {
		s, dec := streamtest.Open(64, 36, rate, total)
		dec.FailAt = failAt
		return s, nil
	}
}

type failingWriter struct{}

func (failingWriter) Write(name string, _ []byte) (string, error) {
	return "", fmt.Errorf("%w: disk full writing %s", core.ErrWriteFailure, name)
}

type miscountingRenderer struct{ *render.JSONRenderer }

func (miscountingRenderer) CountPages([]byte) (int, error) { return 1, nil }

type fixture struct {
	acquirer *fakeAcquirer
	tempRoot string
	outDir   string
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	asm, err := assemble.New(assemble.DefaultGeometry(), layout.Engine{AllowUpscale: true})
	require.NoError(t, err)
	outDir := t.TempDir()
	w, err := output.New(outDir)
	require.NoError(t, err)

	f := &fixture{
		acquirer: &fakeAcquirer{title: "Lecture"},
		tempRoot: t.TempDir(),
		outDir:   outDir,
	}
	f.deps = Deps{
		Acquirer:  f.acquirer,
		Open:      syntheticOpener(30, 3600, 0),
		Assembler: asm,
		Renderer:  render.NewPDFRenderer(80),
		Writer:    w,
		TempRoot:  f.tempRoot,
		Now:       func() time.Time { return fixedNow },
	}
	return f
}

func (f *fixture) controller(t *testing.T) *Controller {
	t.Helper()
	c, err := New(f.deps)
	require.NoError(t, err)
	return c
}

func visibleFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	return names
}

func assertTempRootEmpty(t *testing.T, f *fixture) {
	t.Helper()
	entries, err := os.ReadDir(f.tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "per-run work directory must be removed")
	for _, dir := range f.acquirer.workDirs {
		assert.NoDirExists(t, dir)
	}
}

func TestRunTwoMinuteVideo(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t)

	res, err := c.Run(context.Background(), "lecture.mp4", Options{Interval: 30, MaxFrames: 20})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, []State{StateIdle, StateAcquiring, StateSampling, StateAssembling, StateDone}, res.Transitions)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "Lecture", res.Title)
	assert.Equal(t, 4, res.Pages)

	require.NotNil(t, res.Sample)
	var indices []int
	for _, fr := range res.Sample.Frames {
		indices = append(indices, fr.Index)
	}
	assert.Equal(t, []int{0, 900, 1800, 2700}, indices)

	assert.Equal(t, filepath.Join(f.outDir, "Lecture_20260301_120000_frames.pdf"), res.OutputPath)
	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 4, render.CountPages(data))
	assertTempRootEmpty(t, f)
}

func TestRunContainerWithoutFrameCount(t *testing.T) {
	f := newFixture(t)
	f.deps.Open = func(string) (core.FrameSource, error) {
		dec := streamtest.New(64, 36, 30, 3000)
		dec.Uncounted = true
		return stream.New("clip.webm", dec)
	}
	c := f.controller(t)

	res, err := c.Run(context.Background(), "clip.webm", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 4, res.Pages)
	assert.FileExists(t, res.OutputPath)
}

type closeErrSource struct {
	*stream.Stream
	closes int
}

func (s *closeErrSource) Close() error {
	s.closes++
	_ = s.Stream.Close()
	return errors.New("ffmpeg exited with status 1")
}

func TestRunLogsSourceCloseFailure(t *testing.T) {
	f := newFixture(t)
	var src *closeErrSource
	f.deps.Open = func(string) (core.FrameSource, error) {
		s, _ := streamtest.Open(64, 36, 30, 3000)
		src = &closeErrSource{Stream: s}
		return src, nil
	}
	obs, logs := observer.New(zap.WarnLevel)
	f.deps.Logger = zap.New(obs)

	res, err := f.controller(t).Run(context.Background(), "lecture.mp4", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Pages)
	assert.Equal(t, 2, src.closes, "released after sampling and again on return")
	assert.Equal(t, 1, logs.FilterMessage("closing frame source failed").Len())
}

func TestRunEmptySourceWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.deps.Open = syntheticOpener(30, 0, 0)
	c := f.controller(t)

	res, err := c.Run(context.Background(), "empty.mp4", DefaultOptions())
	require.ErrorIs(t, err, core.ErrEmptyInput)

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []State{StateIdle, StateAcquiring, StateSampling, StateFailed}, res.Transitions)
	assert.Empty(t, res.OutputPath)
	assert.Empty(t, visibleFiles(t, f.outDir))
	assertTempRootEmpty(t, f)
}

func TestRunTitleOverride(t *testing.T) {
	f := newFixture(t)
	f.deps.Renderer = render.NewJSONRenderer()
	c := f.controller(t)

	opts := DefaultOptions()
	opts.Title = "Week 3: Graphs"
	res, err := c.Run(context.Background(), "lecture.mp4", opts)
	require.NoError(t, err)
	assert.Equal(t, "Week 3: Graphs", res.Title)
	assert.Equal(t, filepath.Join(f.outDir, "Week 3 Graphs_20260301_120000_frames.json"), res.OutputPath)
}

func TestRunShortVideoIsPartialSuccess(t *testing.T) {
	f := newFixture(t)
	f.deps.Open = syntheticOpener(30, 1000, 0)
	c := f.controller(t)

	res, err := c.Run(context.Background(), "short.mp4", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "exhausted", string(res.Sample.Reason))
}

func TestRunDecodeFailureEndsStream(t *testing.T) {
	f := newFixture(t)
	f.deps.Open = syntheticOpener(30, 3600, 1000)
	c := f.controller(t)

	res, err := c.Run(context.Background(), "corrupt.mp4", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.ErrorIs(t, res.Sample.DecodeErr, core.ErrDecode)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(f *fixture)
		opts        Options
		wantErr     error
		transitions []State
	}{
		{
			name:        "invalid options",
			opts:        Options{Interval: 0, MaxFrames: 5},
			transitions: []State{StateIdle, StateFailed},
		},
		{
			name:        "acquire",
			mutate:      func(f *fixture) { f.acquirer.err = fmt.Errorf("%w: 404", core.ErrAcquire) },
			wantErr:     core.ErrAcquire,
			transitions: []State{StateIdle, StateAcquiring, StateFailed},
		},
		{
			name: "unreadable source",
			mutate: func(f *fixture) {
				f.deps.Open = func(path string) (core.FrameSource, error) {
					return nil, fmt.Errorf("%w: %s", core.ErrSourceUnreadable, path)
				}
			},
			wantErr:     core.ErrSourceUnreadable,
			transitions: []State{StateIdle, StateAcquiring, StateFailed},
		},
		{
			name:        "write",
			mutate:      func(f *fixture) { f.deps.Writer = failingWriter{} },
			wantErr:     core.ErrWriteFailure,
			transitions: []State{StateIdle, StateAcquiring, StateSampling, StateAssembling, StateFailed},
		},
		{
			name:        "page count mismatch",
			mutate:      func(f *fixture) { f.deps.Renderer = miscountingRenderer{render.NewJSONRenderer()} },
			transitions: []State{StateIdle, StateAcquiring, StateSampling, StateAssembling, StateFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.mutate != nil {
				tt.mutate(f)
			}
			opts := tt.opts
			if opts == (Options{}) {
				opts = DefaultOptions()
			}

			res, err := f.controller(t).Run(context.Background(), "input.mp4", opts)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, err, res.Err)
			assert.Equal(t, StateFailed, res.State)
			assert.Equal(t, tt.transitions, res.Transitions)
			assert.Empty(t, visibleFiles(t, f.outDir))
			assertTempRootEmpty(t, f)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.controller(t).Run(ctx, "lecture.mp4", DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, res.State)
	assertTempRootEmpty(t, f)
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	f := newFixture(t)
	f.deps.Renderer = render.NewJSONRenderer()
	c := f.controller(t)

	const runs = 4
	results := make([]*Result, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opts := DefaultOptions()
			opts.Title = fmt.Sprintf("run %d", i)
			results[i], errs[i] = c.Run(context.Background(), "lecture.mp4", opts)
		}(i)
	}
	wg.Wait()

	ids := map[string]bool{}
	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 4, results[i].Pages)
		ids[results[i].RunID] = true
	}
	assert.Len(t, ids, runs)
	assert.Len(t, visibleFiles(t, f.outDir), runs)

	dirs := map[string]bool{}
	for _, d := range f.acquirer.workDirs {
		dirs[d] = true
	}
	assert.Len(t, dirs, runs)
	assertTempRootEmpty(t, f)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "assembling", StateAssembling.String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateSampling.Terminal())
	assert.True(t, errors.Is(fmt.Errorf("x: %w", core.ErrEmptyInput), core.ErrEmptyInput))
}
