package stream_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/stream"
	"github.com/gaurav-prasanna/framedoc/core/stream/streamtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReadsFramesWithTimestamps(t *testing.T) {
	s, dec := streamtest.Open(4, 2, 25, 3)
	defer s.Close()

	info := s.Info()
	assert.Equal(t, 25.0, info.FrameRate)
	assert.Equal(t, 3, info.TotalFrames)
	assert.InDelta(t, 0.12, info.Duration(), 1e-9)

	var got []core.RawFrame
	for {
		f, ok := s.Next()
		if !ok {
			break
		}
		assert.Equal(t, 4, f.Width())
		assert.Equal(t, 2, f.Height())
		assert.Equal(t, byte(f.Index), f.Image.Pix[0])
		got = append(got, f)
	}

	require.Len(t, got, 3)
	for i, f := range got {
		assert.Equal(t, i, f.Index)
		assert.InDelta(t, float64(i)/25, f.Timestamp, 1e-12)
	}
	assert.NoError(t, s.Err())
	assert.Equal(t, 3, dec.Reads)

	_, ok := s.Next()
	assert.False(t, ok, "exhausted stream must keep reporting end")
}

func TestStreamDecodeFailureEndsCleanly(t *testing.T) {
	dec := streamtest.New(2, 2, 30, 10)
	dec.FailAt = 4
	s, err := stream.New("broken.mp4", dec)
	require.NoError(t, err)
	defer s.Close()

	n := 0
	for {
		if _, ok := s.Next(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 4, n)
	assert.True(t, errors.Is(s.Err(), core.ErrDecode))
}

func TestStreamWithoutReportedFrameCount(t *testing.T) {
	dec := streamtest.New(2, 2, 30, 7)
	dec.Uncounted = true
	s, err := stream.New("clip.mkv", dec)
	require.NoError(t, err)
	defer s.Close()

	assert.Zero(t, s.TotalFrames())
	n := 0
	for {
		if _, ok := s.Next(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 7, n)
	assert.NoError(t, s.Err(), "end of an uncounted stream is not a decode failure")
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	s, dec := streamtest.Open(2, 2, 30, 5)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, dec.Closes)

	_, ok := s.Next()
	assert.False(t, ok)
}

func TestNewRejectsBadMetadata(t *testing.T) {
	_, err := stream.New("x.mp4", streamtest.New(2, 2, 0, 5))
	assert.ErrorIs(t, err, core.ErrSourceUnreadable)

	_, err = stream.New("x.mp4", streamtest.New(0, 2, 30, 5))
	assert.ErrorIs(t, err, core.ErrSourceUnreadable)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := stream.Open(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, core.ErrSourceUnreadable)
}
