package dotdee

import (
	"errors"
	"fmt"
)

// RefuseToOverwriteError is returned when the target was modified since it
// was last generated and the update was not forced.
type RefuseToOverwriteError struct {
	// Filename is the generated file.
	Filename string

	// ChecksumFile is the stored checksum; deleting it accepts the edit.
	ChecksumFile string
}

func (e *RefuseToOverwriteError) Error() string {
	return fmt.Sprintf(
		"The contents of the file to generate (%s) were modified and I'm refusing to overwrite it! "+
			"If you're sure you want to proceed, use the --force option or delete the file %s and retry.",
		e.Filename, e.ChecksumFile)
}

// IsRefuseToOverwrite reports whether err is, or wraps, a
// *RefuseToOverwriteError.
func IsRefuseToOverwrite(err error) bool {
	var refuse *RefuseToOverwriteError
	return errors.As(err, &refuse)
}

// FragmentError reports a fragment that could not be read or executed.
type FragmentError struct {
	Path string
	Err  error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("fragment %s: %v", e.Path, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}
