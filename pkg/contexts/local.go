package contexts

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
)

// LocalContext operates on the local file system with the privileges of the
// current process.
type LocalContext struct{}

var _ Context = (*LocalContext)(nil)

// NewLocal returns a context for the local machine.
func NewLocal() *LocalContext {
	return &LocalContext{}
}

func (l *LocalContext) stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return info, err
}

// IsFile reports whether path is a regular file.
func (l *LocalContext) IsFile(ctx context.Context, path string) (bool, error) {
	info, err := l.stat(ctx, path)
	if err != nil || info == nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// IsDirectory reports whether path is a directory.
func (l *LocalContext) IsDirectory(ctx context.Context, path string) (bool, error) {
	info, err := l.stat(ctx, path)
	if err != nil || info == nil {
		return false, err
	}
	return info.IsDir(), nil
}

// IsExecutable reports whether path is a regular file with any execute bit.
func (l *LocalContext) IsExecutable(ctx context.Context, path string) (bool, error) {
	info, err := l.stat(ctx, path)
	if err != nil || info == nil {
		return false, err
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0, nil
}

// ListEntries returns the entry names of a directory.
func (l *LocalContext) ListEntries(ctx context.Context, path string) ([]string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// ReadFile reads a whole file.
func (l *LocalContext) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// WriteFile creates or truncates path. Existing permissions are kept.
func (l *LocalContext) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// MakeDirs creates path and any missing parents.
func (l *LocalContext) MakeDirs(ctx context.Context, path string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	return os.MkdirAll(path, 0755)
}

// Rename moves src to dst.
func (l *LocalContext) Rename(ctx context.Context, src, dst string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

// Execute runs path without arguments and captures its standard output.
func (l *LocalContext) Execute(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		execErr := &ExecError{
			Path:     path,
			ExitCode: -1,
			Stderr:   stderr.Bytes(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		return stdout.Bytes(), execErr
	}

	return stdout.Bytes(), nil
}

// String describes the local machine.
func (l *LocalContext) String() string {
	return "local"
}

// Close is a no-op.
func (l *LocalContext) Close() error {
	return nil
}
