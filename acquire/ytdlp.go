package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/framedoc/core"
	"go.uber.org/zap"
)

// Quality selectors understood by the yt-dlp acquirer.
const (
	QualityBest  = "best"
	QualityWorst = "worst"
	Quality720p  = "720p"
	Quality480p  = "480p"
)

// Qualities lists the accepted quality selectors in menu order.
var Qualities = []string{QualityBest, QualityWorst, Quality720p, Quality480p}

// ValidQuality reports whether q is a known selector.
func ValidQuality(q string) bool {
	for _, known := range Qualities {
		if q == known {
			return true
		}
	}
	return false
}

// FormatSelector builds the yt-dlp -f expression for a quality, preferring
// mp4 and falling back to anything playable.
func FormatSelector(quality string) string {
	sel := "best"
	switch quality {
	case QualityWorst:
		sel = "worst"
	case Quality720p:
		sel = "best[height<=720]"
	case Quality480p:
		sel = "best[height<=480]"
	}
	return sel + "[ext=mp4]/best[ext=mp4]/best"
}

// runFunc executes a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ytdlpInfo is the subset of `yt-dlp -J` output we use.
type ytdlpInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// YTDLP acquires videos from hosting sites through the yt-dlp binary.
type YTDLP struct {
	binary string
	run    runFunc
	logger *zap.Logger
}

// NewYTDLP creates a yt-dlp acquirer. An empty binary means "yt-dlp" on PATH.
func NewYTDLP(binary string, logger *zap.Logger) *YTDLP {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{binary: binary, run: runCommand, logger: logger}
}

// Available reports whether the binary can be executed.
func (y *YTDLP) Available() bool {
	_, err := exec.LookPath(y.binary)
	return err == nil
}

// Acquire reads metadata, then downloads a single video (never a playlist)
// into workDir.
func (y *YTDLP) Acquire(ctx context.Context, ref, workDir, quality string) (*core.Acquisition, error) {
	raw, err := y.run(ctx, y.binary, "-J", "--no-playlist", "--", ref)
	if err != nil {
		return nil, fmt.Errorf("%w: reading metadata: %v", core.ErrAcquire, err)
	}
	var info ytdlpInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: parsing yt-dlp metadata: %v", core.ErrAcquire, err)
	}
	if info.Title == "" {
		info.Title = "Unknown"
	}
	y.logger.Info("video metadata",
		zap.String("title", info.Title),
		zap.Float64("duration_secs", info.Duration),
	)

	out, err := y.run(ctx, y.binary,
		"-f", FormatSelector(quality),
		"--no-playlist",
		"-o", filepath.Join(workDir, "%(id)s.%(ext)s"),
		"--print", "after_move:filepath",
		"--", ref,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading: %v", core.ErrAcquire, err)
	}

	path, err := downloadedPath(out, workDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquire, err)
	}
	return &core.Acquisition{Path: path, Title: info.Title, Duration: info.Duration, Source: ref}, nil
}

// downloadedPath takes the last printed path, falling back to the first video
// file found in workDir.
func downloadedPath(printed []byte, workDir string) (string, error) {
	lines := strings.Split(strings.TrimSpace(string(printed)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(lines[i]); p != "" && IsLocalFile(p) {
			return p, nil
		}
	}
	matches, err := filepath.Glob(filepath.Join(workDir, "*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if VideoExt(m) != "" && IsLocalFile(m) {
			return m, nil
		}
	}
	return "", errors.New("video file not found after download")
}
