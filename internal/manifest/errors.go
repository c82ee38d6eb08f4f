package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these.
var (
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	ErrMalformedRow      = errors.New("malformed manifest row")
	ErrMissingImage      = errors.New("missing image")
	ErrUnsupportedPath   = errors.New("path cannot be stored in manifest")
	ErrWritePermission   = errors.New("write permission denied")
)

// MalformedRowError reports a row that does not hold a path and an integer label.
type MalformedRowError struct {
	File   string
	Line   int
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%s:%d: malformed row: %s", e.File, e.Line, e.Reason)
}

func (e *MalformedRowError) Unwrap() error { return ErrMalformedRow }

// MissingImageError reports a row whose path is not a readable regular file.
type MissingImageError struct {
	File string
	Path string
	Line int
	Err  error
}

func (e *MissingImageError) Error() string {
	msg := fmt.Sprintf("%s:%d: image path %s does not exist", e.File, e.Line, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingImageError) Unwrap() error { return ErrMissingImage }
