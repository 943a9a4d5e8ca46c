package convert

import (
	"errors"
	"fmt"
)

// ErrUnsafePath means a source or output path resolved outside the sandbox.
// The job performs no I/O when this is returned.
var ErrUnsafePath = errors.New("path escapes sandbox")

// ErrOutputMissing means ffmpeg exited zero but the output file does not
// exist. The exit code alone is not trusted.
var ErrOutputMissing = errors.New("output file not created")

// ConversionError wraps an ffmpeg failure. The source file is left in place
// for inspection.
type ConversionError struct {
	JobID  string
	Detail string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("conversion failed: %s", e.Detail)
	}
	return fmt.Sprintf("conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
