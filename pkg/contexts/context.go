// Package contexts provides execution contexts: the file system and process
// operations update-dotdee performs, on the local machine or on a remote host
// over SSH, with or without sudo.
package contexts

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Context is the set of effects the merge engine needs. Paths are always
// interpreted by the target system, which may not be the local machine.
type Context interface {
	// IsFile reports whether path exists and is a regular file.
	IsFile(ctx context.Context, path string) (bool, error)

	// IsDirectory reports whether path exists and is a directory.
	IsDirectory(ctx context.Context, path string) (bool, error)

	// IsExecutable reports whether path is a regular file with an execute bit set.
	IsExecutable(ctx context.Context, path string) (bool, error)

	// ListEntries returns the names of the entries in a directory, in no
	// particular order.
	ListEntries(ctx context.Context, path string) ([]string, error)

	// ReadFile returns the contents of a file.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile creates or truncates path and writes data to it.
	WriteFile(ctx context.Context, path string, data []byte) error

	// MakeDirs creates a directory and its parents. An existing directory is
	// not an error.
	MakeDirs(ctx context.Context, path string) error

	// Rename moves src to dst.
	Rename(ctx context.Context, src, dst string) error

	// Execute runs the program at path and returns its standard output.
	// A non-zero exit status or a failure to start is an *ExecError.
	Execute(ctx context.Context, path string) ([]byte, error)

	// String describes the context for log messages.
	String() string

	io.Closer
}

// ExecError is returned by Execute when a program fails.
type ExecError struct {
	// Path is the program that was run.
	Path string

	// ExitCode is the exit status, or -1 when the program could not be started.
	ExitCode int

	// Stderr holds whatever the program wrote to standard error.
	Stderr []byte

	// Err is the underlying error.
	Err error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("failed to execute %s", e.Path)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit status %d)", msg, e.ExitCode)
	}
	if stderr := strings.TrimSpace(string(e.Stderr)); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying failure.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// checkContext returns ctx.Err() so that operations which cannot be
// interrupted midway at least refuse to start after cancellation.
func checkContext(ctx context.Context) error {
	return ctx.Err()
}
