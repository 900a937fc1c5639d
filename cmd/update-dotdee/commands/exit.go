package commands

import (
	"github.com/openfroyo/dotdee/pkg/dotdee"
)

// Exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitRefused = 2
)

// UsageError is a problem with the command line.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// ExitCode maps an error returned by Execute to a process exit status.
// A refusal to overwrite a modified file gets its own status so that
// scripts can tell it apart from other failures.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case dotdee.IsRefuseToOverwrite(err):
		return ExitRefused
	default:
		return ExitFailure
	}
}
