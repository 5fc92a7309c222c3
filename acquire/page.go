// Package acquire - page discovery.
// Resolves an HTML page to the video it embeds: fetch the page, collect
// candidates in priority order, and download the first one that succeeds.
package acquire

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/extract"
	"go.uber.org/zap"
)

// maxPageAttempts bounds how many candidates are tried for one page.
const maxPageAttempts = 3

// Page acquires the video embedded in an HTML page.
type Page struct {
	fetcher   core.Fetcher
	extractor *extract.VideoExtractor
	logger    *zap.Logger
}

// NewPage creates a Page acquirer.
func NewPage(fetcher core.Fetcher, logger *zap.Logger) *Page {
	return &Page{fetcher: fetcher, extractor: extract.New(), logger: logger}
}

// Acquire fetches ref, discovers its videos, and downloads one into workDir.
// quality does not apply to direct downloads.
func (p *Page) Acquire(ctx context.Context, ref, workDir, quality string) (*core.Acquisition, error) {
	result, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquire, err)
	}

	found, err := p.extractor.Extract(result.HTML, ref, IsVideoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquire, err)
	}

	candidates := NewCandidates()
	for _, c := range found.Candidates {
		candidates.Add(c.URL)
	}
	if candidates.Len() == 0 {
		return nil, fmt.Errorf("%w: no video found on %s", core.ErrAcquire, ref)
	}
	p.logger.Debug("page video candidates", zap.String("page", ref), zap.Strings("candidates", candidates.All()))

	var lastErr error
	for attempt := 0; candidates.HasNext() && attempt < maxPageAttempts; attempt++ {
		videoURL := candidates.Next()
		ext := VideoExt(videoURL)
		if ext == "" {
			ext = ".mp4"
		}
		dst := filepath.Join(workDir, fmt.Sprintf("page-%d%s", attempt, ext))

		n, err := p.fetcher.Download(ctx, videoURL, dst)
		if err != nil {
			p.logger.Warn("candidate download failed", zap.String("url", videoURL), zap.Error(err))
			lastErr = err
			continue
		}
		p.logger.Info("downloaded page video",
			zap.String("url", videoURL),
			zap.String("size", humanize.Bytes(uint64(n))),
		)

		title := found.Title
		if title == "" {
			title = titleFromPath(videoURL)
		}
		return &core.Acquisition{Path: dst, Title: title, Source: ref}, nil
	}
	return nil, fmt.Errorf("%w: all candidates on %s failed: %v", core.ErrAcquire, ref, lastErr)
}
