// Package acquire supplies the pipeline with a locally readable video.
//
// A reference is either a local path, a URL pointing straight at a video
// file, or a page URL. Pages go through yt-dlp when it is installed and
// through HTML discovery otherwise. Everything downloaded lands in the
// run's work directory, which the pipeline controller owns and removes.
package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/fetch"
	"go.uber.org/zap"
)

// Options configures the acquisition collaborators.
type Options struct {
	YTDLPBinary string
	// DisableYTDLP forces HTML discovery for page URLs.
	DisableYTDLP bool
	HTTPTimeout  time.Duration
	UserAgent    string
}

// Resolver picks an acquirer per reference.
type Resolver struct {
	local  core.Acquirer
	direct core.Acquirer
	page   core.Acquirer
	ytdlp  *YTDLP
	logger *zap.Logger
}

// NewResolver wires the default acquirers.
func NewResolver(opts Options, logger *zap.Logger) *Resolver {
	fetcher := fetch.New(opts.HTTPTimeout, opts.UserAgent)
	r := &Resolver{
		local:  Local{},
		direct: NewDirect(fetcher, logger),
		page:   NewPage(fetcher, logger),
		logger: logger,
	}
	if !opts.DisableYTDLP {
		if y := NewYTDLP(opts.YTDLPBinary, logger); y.Available() {
			r.ytdlp = y
		}
	}
	return r
}

// Acquire implements core.Acquirer.
func (r *Resolver) Acquire(ctx context.Context, ref, workDir, quality string) (*core.Acquisition, error) {
	var (
		acq  core.Acquirer
		kind string
	)
	switch {
	case IsLocalFile(ref):
		acq, kind = r.local, "local"
	case !IsHTTP(ref):
		return nil, fmt.Errorf("%w: %q is neither a readable file nor an http(s) URL", core.ErrAcquire, ref)
	case IsVideoURL(ref):
		acq, kind = r.direct, "direct"
	case r.ytdlp != nil:
		acq, kind = r.ytdlp, "yt-dlp"
	default:
		acq, kind = r.page, "page"
	}

	r.logger.Debug("acquiring video", zap.String("ref", ref), zap.String("via", kind), zap.String("quality", quality))
	return acq.Acquire(ctx, ref, workDir, quality)
}
