package ingest

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNoFilename   = errors.New("submission has no filename")
	ErrNoMimeType   = errors.New("submission has no declared MIME type")
	ErrNoByteSource = errors.New("submission has no byte source")
)

// VideoHints carries caller-declared video properties. The browser (or any
// other client able to probe the container) measures these; the pipeline only
// derives advisories from them and never treats them as trusted validation
// input.
type VideoHints struct {
	DurationSeconds float64 `json:"durationSeconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}

// FileSubmission is one file pending validation. The byte source is opened
// lazily and may be read more than once (hashing, then upload), so the opener
// must return a fresh reader each call.
type FileSubmission struct {
	OriginalName     string
	DeclaredMimeType string
	SizeBytes        uint64
	LastModified     *time.Time
	Video            *VideoHints

	open func() (io.ReadCloser, error)
}

// NewSubmission builds a submission and validates the required fields up
// front, so the pipeline never sees a half-filled bag of properties.
func NewSubmission(name, mimeType string, size uint64, open func() (io.ReadCloser, error)) (*FileSubmission, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNoFilename
	}
	if strings.TrimSpace(mimeType) == "" {
		return nil, ErrNoMimeType
	}
	if open == nil {
		return nil, ErrNoByteSource
	}
	return &FileSubmission{
		OriginalName:     name,
		DeclaredMimeType: mimeType,
		SizeBytes:        size,
		open:             open,
	}, nil
}

// NewBytesSubmission wraps an in-memory payload. Used by tests and by callers
// that already buffered the upload.
func NewBytesSubmission(name, mimeType string, data []byte) (*FileSubmission, error) {
	return NewSubmission(name, mimeType, uint64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns a fresh reader over the submission bytes.
func (s *FileSubmission) Open() (io.ReadCloser, error) {
	if s.open == nil {
		return nil, ErrNoByteSource
	}
	return s.open()
}

// Extension returns the lower-cased extension without the leading dot,
// or "" when the name has none.
func (s *FileSubmission) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(s.OriginalName)), ".")
}
