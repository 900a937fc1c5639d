package contexts

import (
	"context"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Runner runs a POSIX shell command line. A command that ran to completion is
// reported through exitCode with a nil error, whatever its exit status; err
// is reserved for failures to run the command at all.
type Runner interface {
	Run(ctx context.Context, command string, stdin []byte) (stdout, stderr []byte, exitCode int, err error)
	String() string
	Close() error
}

// ShellContext implements Context by running standard Unix utilities through
// a Runner. It is used when commands must run under sudo, locally or on a
// remote host.
type ShellContext struct {
	runner Runner
	sudo   bool
}

var _ Context = (*ShellContext)(nil)

// NewShell returns a context that runs every operation through runner,
// wrapped in "sudo -n sh -c" when sudo is set.
func NewShell(runner Runner, sudo bool) *ShellContext {
	return &ShellContext{runner: runner, sudo: sudo}
}

// quote renders s as a single POSIX shell word.
func quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q for the shell: %w", s, err)
	}
	return q, nil
}

// command joins a utility name and quoted operands into a command line.
func command(name string, operands ...string) (string, error) {
	parts := []string{name}
	for _, operand := range operands {
		q, err := quote(operand)
		if err != nil {
			return "", err
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " "), nil
}

func (s *ShellContext) wrap(cmdline string) (string, error) {
	if !s.sudo {
		return cmdline, nil
	}
	q, err := quote(cmdline)
	if err != nil {
		return "", err
	}
	return "sudo -n sh -c " + q, nil
}

func (s *ShellContext) run(ctx context.Context, cmdline string, stdin []byte) ([]byte, []byte, int, error) {
	wrapped, err := s.wrap(cmdline)
	if err != nil {
		return nil, nil, -1, err
	}
	return s.runner.Run(ctx, wrapped, stdin)
}

// check runs a command that must succeed.
func (s *ShellContext) check(ctx context.Context, cmdline string, stdin []byte) ([]byte, error) {
	stdout, stderr, code, err := s.run(ctx, cmdline, stdin)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", code)
		}
		return nil, fmt.Errorf("%s failed on %s: %s", cmdline, s.runner, msg)
	}
	return stdout, nil
}

// test evaluates a test(1) expression. The answer is printed rather than
// taken from the exit status, which sudo also uses to report its own
// failures.
func (s *ShellContext) test(ctx context.Context, expr string) (bool, error) {
	stdout, err := s.check(ctx, "if "+expr+"; then echo yes; else echo no; fi", nil)
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(string(stdout)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected output from %s on %s: %q", expr, s.runner, stdout)
	}
}

// IsFile reports whether path is a regular file, as test -f does.
func (s *ShellContext) IsFile(ctx context.Context, path string) (bool, error) {
	cmdline, err := command("test -f", path)
	if err != nil {
		return false, err
	}
	return s.test(ctx, cmdline)
}

// IsDirectory reports whether path is a directory.
func (s *ShellContext) IsDirectory(ctx context.Context, path string) (bool, error) {
	cmdline, err := command("test -d", path)
	if err != nil {
		return false, err
	}
	return s.test(ctx, cmdline)
}

// IsExecutable reports whether path is a regular file the caller may execute.
func (s *ShellContext) IsExecutable(ctx context.Context, path string) (bool, error) {
	q, err := quote(path)
	if err != nil {
		return false, err
	}
	return s.test(ctx, "test -f "+q+" && test -x "+q)
}

// ListEntries returns the entry names of a directory, hidden ones included.
// Names are read NUL-separated, so any name the file system allows is kept
// intact.
func (s *ShellContext) ListEntries(ctx context.Context, path string) ([]string, error) {
	q, err := quote(path)
	if err != nil {
		return nil, err
	}
	stdout, err := s.check(ctx, "cd -- "+q+" && find . -mindepth 1 -maxdepth 1 -print0", nil)
	if err != nil {
		return nil, err
	}
	return parseEntries(stdout), nil
}

// parseEntries splits the output of "find . -print0" into base names.
func parseEntries(out []byte) []string {
	var names []string
	for _, entry := range strings.Split(string(out), "\x00") {
		if name := strings.TrimPrefix(entry, "./"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ReadFile returns the contents of path.
func (s *ShellContext) ReadFile(ctx context.Context, path string) ([]byte, error) {
	cmdline, err := command("cat --", path)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, cmdline, nil)
}

// WriteFile replaces the contents of path, keeping its permissions when it exists.
func (s *ShellContext) WriteFile(ctx context.Context, path string, data []byte) error {
	q, err := quote(path)
	if err != nil {
		return err
	}
	// A nil stdin would leave the remote cat waiting on nothing.
	if data == nil {
		data = []byte{}
	}
	_, err = s.check(ctx, "cat > "+q, data)
	return err
}

// MakeDirs creates path and any missing parents.
func (s *ShellContext) MakeDirs(ctx context.Context, path string) error {
	cmdline, err := command("mkdir -p --", path)
	if err != nil {
		return err
	}
	_, err = s.check(ctx, cmdline, nil)
	return err
}

// Rename moves src to dst, replacing dst.
func (s *ShellContext) Rename(ctx context.Context, src, dst string) error {
	cmdline, err := command("mv --", src, dst)
	if err != nil {
		return err
	}
	_, err = s.check(ctx, cmdline, nil)
	return err
}

// Execute runs path without arguments and returns its standard output.
func (s *ShellContext) Execute(ctx context.Context, path string) ([]byte, error) {
	cmdline, err := quote(path)
	if err != nil {
		return nil, err
	}
	stdout, stderr, code, err := s.run(ctx, cmdline, nil)
	if err != nil {
		return nil, &ExecError{Path: path, ExitCode: -1, Stderr: stderr, Err: err}
	}
	if code != 0 {
		return stdout, &ExecError{
			Path:     path,
			ExitCode: code,
			Stderr:   stderr,
			Err:      fmt.Errorf("exit status %d", code),
		}
	}
	return stdout, nil
}

// String describes the runner, noting when sudo is used.
func (s *ShellContext) String() string {
	if s.sudo {
		return s.runner.String() + " (sudo)"
	}
	return s.runner.String()
}

// Close releases the runner.
func (s *ShellContext) Close() error {
	return s.runner.Close()
}
