package cvgen

import "errors"

var (
	// ErrUnsupportedMediaType is returned for audio uploads outside the
	// supported set.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrUnsupportedDocument is returned for documents no text can be
	// extracted from.
	ErrUnsupportedDocument = errors.New("unsupported document")
	// ErrTranscription wraps speech engine failures.
	ErrTranscription = errors.New("transcription failed")
	// ErrRender wraps document rendering failures.
	ErrRender = errors.New("render failed")
	// ErrNotFound is returned when a generation or its document is missing.
	ErrNotFound = errors.New("not found")
)
