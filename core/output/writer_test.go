package output

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"My Video: Part 1/2":       "My Video Part 12",
		"  spaced title   ":        "  spaced title",
		"keep-dash_and_underscore": "keep-dash_and_underscore",
		"Caf\u00e9 \u2615 tour":    "Caf\u00e9  tour",
		"???":                      "video",
		"":                         "video",
		"\u0633\u0644\u0627\u0645": "\u0633\u0644\u0627\u0645",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestSanitizeNormalizesDecomposedText(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", Sanitize(decomposed))
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "Lecture 3_20240309_140507_frames.pdf", FileName("Lecture #3!", at, ".pdf"))
	assert.Equal(t, "video_20240309_140507_frames.json", FileName("", at, ".json"))
}

func TestWriteIsAtomicAndLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.Write("doc.pdf", []byte("%PDF-1.3 fake"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "doc.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 fake", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var visible []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			visible = append(visible, e.Name())
		} else {
			assert.NotContains(t, e.Name(), ".tmp")
		}
	}
	assert.Equal(t, []string{"doc.pdf"}, visible)
}

func TestConcurrentWritesToSamePath(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Write("same.pdf", []byte("payload"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(w.OutputDir, "same.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestWriteFailureIsReported(t *testing.T) {
	w := &Writer{OutputDir: filepath.Join(t.TempDir(), "does-not-exist")}
	_, err := w.Write("doc.pdf", []byte("x"))
	assert.ErrorIs(t, err, core.ErrWriteFailure)
}
