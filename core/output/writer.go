// Package output handles file naming and writing for framedoc artifacts.
// Filenames follow {title}_{YYYYMMDD_HHMMSS}_frames{ext}. Writes are atomic:
// a document either lands complete at its final path or not at all.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gofrs/flock"
	"golang.org/x/text/unicode/norm"
)

const (
	timestampLayout = "20060102_150405"
	fallbackTitle   = "video"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	// Ensure the output directory exists.
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// FileName builds the artifact name for a title at a point in time.
// ext includes the leading dot (e.g. ".pdf").
func FileName(title string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_frames%s", Sanitize(title), at.Format(timestampLayout), ext)
}

// Sanitize keeps letters, digits, spaces, '-' and '_', and trims trailing
// whitespace. An empty result falls back to "video".
func Sanitize(title string) string {
	var b strings.Builder
	for _, ch := range norm.NFC.String(title) {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == ' ' || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		}
	}
	out := strings.TrimRightFunc(b.String(), unicode.IsSpace)
	if strings.TrimSpace(out) == "" {
		return fallbackTitle
	}
	return out
}

// Write stores data as name inside the output directory and returns the path.
// Concurrent writers of the same path are serialized by a lock file.
func (w *Writer) Write(name string, data []byte) (string, error) {
	path := filepath.Join(w.OutputDir, name)

	// The lock file is left in place; removing it would let a waiter and a
	// newcomer hold locks on different inodes.
	lock := flock.New(filepath.Join(w.OutputDir, "."+name+".lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("%w: locking %s: %v", core.ErrWriteFailure, path, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(w.OutputDir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file: %v", core.ErrWriteFailure, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: writing %s: %v", core.ErrWriteFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: closing %s: %v", core.ErrWriteFailure, path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("%w: chmod %s: %v", core.ErrWriteFailure, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("%w: renaming into %s: %v", core.ErrWriteFailure, path, err)
	}
	committed = true
	return path, nil
}
