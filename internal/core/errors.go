package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is the sentinel behind every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrIndex is the sentinel behind every IndexError.
	ErrIndex = errors.New("index out of range")

	// ErrUnsupportedFileType is returned for uploads outside the accepted MIME types.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("persistence failure")

	// ErrUploadNotFound is returned for unknown upload ids.
	ErrUploadNotFound = errors.New("upload not found")

	// ErrEmptyFile is returned when an upload has no bytes.
	ErrEmptyFile = errors.New("empty file")

	// ErrUnreadableFile is returned when a spreadsheet cannot be decoded.
	ErrUnreadableFile = errors.New("unreadable spreadsheet")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when an upload request carries no files.
	ErrNoFile = errors.New("no file provided")

	// ErrUploadDiscarded is returned when a file was removed or reset while
	// it was still being parsed. Its rows are not stored.
	ErrUploadDiscarded = errors.New("upload discarded")
)

const (
	missingFields = "please fill in all fields"
	noOrderData   = "no order data to save"
)

// ValidationError reports missing required fields. No state is changed when it is returned.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s (missing %s)", e.Message, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IndexError reports an out-of-range item index.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index out of range: %d (have %d items)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndex }

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return &IndexError{Index: i, Len: n}
	}
	return nil
}

// persistErr wraps a store error so callers can match ErrPersistence.
func persistErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPersistence, op, key, err)
}
