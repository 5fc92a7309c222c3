package acquire

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gaurav-prasanna/framedoc/core"
	"go.uber.org/zap"
)

// Local hands an existing file to the pipeline without copying it.
type Local struct{}

// Acquire checks that ref is a readable file; the title is its base name.
func (Local) Acquire(_ context.Context, ref, _, _ string) (*core.Acquisition, error) {
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquire, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquire, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", core.ErrAcquire, abs)
	}
	return &core.Acquisition{Path: abs, Title: titleFromPath(abs), Source: ref}, nil
}

// Direct downloads a URL that points straight at a video file.
type Direct struct {
	fetcher core.Fetcher
	logger  *zap.Logger
}

// NewDirect creates a Direct acquirer.
func NewDirect(fetcher core.Fetcher, logger *zap.Logger) *Direct {
	return &Direct{fetcher: fetcher, logger: logger}
}

// Acquire downloads ref into workDir.
func (d *Direct) Acquire(ctx context.Context, ref, workDir, _ string) (*core.Acquisition, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquire, err)
	}
	ext := VideoExt(parsed.Path)
	if ext == "" {
		ext = ".mp4"
	}
	dst := filepath.Join(workDir, "source"+ext)

	n, err := d.fetcher.Download(ctx, ref, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquire, err)
	}
	d.logger.Info("downloaded video", zap.String("url", ref), zap.String("size", humanize.Bytes(uint64(n))))

	return &core.Acquisition{Path: dst, Title: titleFromPath(parsed.Path), Source: ref}, nil
}
