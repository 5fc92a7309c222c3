package core

import "errors"

// Pipeline error taxonomy. Stages wrap these with fmt.Errorf("...: %w", ...)
// so callers can match with errors.Is.
var (
	// ErrSourceUnreadable means the video handle could not be opened.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrDecode marks a per-frame decode failure. It ends the stream, it does not fail the run.
	ErrDecode = errors.New("decode error")
	// ErrInvalidDimensions means frame or canvas geometry is not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrEmptyInput means no frames were sampled, so no document is produced.
	ErrEmptyInput = errors.New("empty input")
	// ErrWriteFailure means the artifact could not be persisted.
	ErrWriteFailure = errors.New("write failure")
	// ErrAcquire means the acquisition collaborator could not supply a local video.
	ErrAcquire = errors.New("acquire failed")
)
