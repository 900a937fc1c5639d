package contexts

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/openfroyo/dotdee/pkg/transports/ssh"
)

// LocalRunner runs command lines with /bin/sh on the local machine.
type LocalRunner struct {
	// Shell defaults to /bin/sh.
	Shell string
}

// Run runs command with /bin/sh -c.
func (r *LocalRunner) Run(ctx context.Context, command string, stdin []byte) ([]byte, []byte, int, error) {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
	default:
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return stdout.Bytes(), stderr.Bytes(), -1, err
	}
}

// String returns "local".
func (r *LocalRunner) String() string {
	return "local"
}

// Close is a no-op.
func (r *LocalRunner) Close() error {
	return nil
}

// SSHRunner runs command lines through an SSH transport.
type SSHRunner struct {
	transport ssh.Transport
}

// NewSSHRunner wraps a connected transport. Closing the runner disconnects it.
func NewSSHRunner(transport ssh.Transport) *SSHRunner {
	return &SSHRunner{transport: transport}
}

// Run runs command in a new SSH session.
func (r *SSHRunner) Run(ctx context.Context, command string, stdin []byte) ([]byte, []byte, int, error) {
	stdout, stderr, err := r.transport.Run(ctx, command, stdin)
	if err == nil {
		return stdout, stderr, 0, nil
	}
	if code := ssh.ExitCode(err); code >= 0 {
		return stdout, stderr, code, nil
	}
	return stdout, stderr, -1, err
}

// String returns the remote address.
func (r *SSHRunner) String() string {
	return hostString(r.transport.GetConnectionInfo())
}

// Close disconnects the transport.
func (r *SSHRunner) Close() error {
	return r.transport.Disconnect()
}
