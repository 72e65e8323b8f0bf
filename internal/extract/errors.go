package extract

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType marks a file whose type matches none of the supported kinds.
var ErrUnsupportedType = errors.New("unsupported file type")

// FileError is a fatal per-file extraction failure. The whole batch is
// aborted and the message names the offending file.
type FileError struct {
	Filename string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to process %s: %v", e.Filename, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
