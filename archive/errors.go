package archive

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entry name is absent from the directory.
var ErrNotFound = errors.New("archive entry not found")

// CorruptArchiveError reports a structural or integrity failure. Entry is
// empty when the directory itself could not be read.
type CorruptArchiveError struct {
	Entry  string
	Reason string
	Err    error
}

func (e *CorruptArchiveError) Error() string {
	msg := "corrupt archive"
	if e.Entry != "" {
		msg += fmt.Sprintf(" entry %q", e.Entry)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptArchiveError) Unwrap() error {
	return e.Err
}
