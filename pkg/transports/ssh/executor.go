package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

// Run runs a command on the remote host.
func (c *SSHClient) Run(ctx context.Context, cmd string, stdin []byte) (stdout []byte, stderr []byte, err error) {
	if c.config.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CommandTimeout)
		defer cancel()
	}

	startTime := time.Now()

	log.Debug().
		Str("command", cmd).
		Int("stdin_len", len(stdin)).
		Msg("executing command")

	sshClient, err := c.getClient()
	if err != nil {
		return nil, nil, err
	}

	session, err := sshClient.NewSession()
	if err != nil {
		return nil, nil, newTransportError("exec", fmt.Errorf("failed to create session: %w", err))
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	doneChan := make(chan error, 1)

	go func() {
		doneChan <- session.Run(cmd)
	}()

	var execErr error
	select {
	case <-ctx.Done():
		// Context cancelled, try to signal the session
		_ = session.Signal(ssh.SIGTERM)
		time.Sleep(100 * time.Millisecond)
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		// Wait for the output copiers to finish before the buffers are read.
		select {
		case <-doneChan:
		case <-time.After(time.Second):
		}
		execErr = ctx.Err()
	case execErr = <-doneChan:
	}

	log.Debug().
		Str("command", cmd).
		Int("stdout_len", stdoutBuf.Len()).
		Int("stderr_len", stderrBuf.Len()).
		Dur("duration", time.Since(startTime)).
		Err(execErr).
		Msg("command completed")

	if execErr != nil {
		var exitErr *ssh.ExitError
		if errors.As(execErr, &exitErr) {
			// Command ran but returned non-zero exit code
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), &TransportError{
				Op:       "exec",
				Err:      fmt.Errorf("command exited with code %d: %s", exitErr.ExitStatus(), strings.TrimSpace(stderrBuf.String())),
				ExitCode: exitErr.ExitStatus(),
			}
		}
		return stdoutBuf.Bytes(), stderrBuf.Bytes(), newTransportError("exec", execErr)
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), nil
}

// ExitCode extracts the remote exit status from an error returned by Run.
// It returns -1 when err does not carry one.
func ExitCode(err error) int {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.ExitCode
	}
	return -1
}
