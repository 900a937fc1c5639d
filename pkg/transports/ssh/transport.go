// Package ssh provides SSH-based transport for remote operations.
package ssh

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/sftp"
)

// Transport defines the interface for SSH-based remote operations.
type Transport interface {
	// Connect establishes an SSH connection to the remote host.
	// Returns an error if connection fails or authentication is rejected.
	Connect(ctx context.Context) error

	// Disconnect closes the SSH connection and releases all resources.
	Disconnect() error

	// IsConnected returns true if the transport has an active connection.
	IsConnected() bool

	// Run runs a shell command on the remote host, feeding stdin to it when
	// non-nil. A non-zero exit status is reported as a *TransportError with
	// ExitCode set; stdout and stderr are returned untrimmed either way.
	Run(ctx context.Context, cmd string, stdin []byte) (stdout []byte, stderr []byte, err error)

	// SFTP opens an SFTP session on the live connection.
	// The caller must close it.
	SFTP() (*sftp.Client, error)

	// GetConnectionInfo returns information about the current connection.
	GetConnectionInfo() ConnectionInfo
}

// ConnectionInfo contains details about an active SSH connection.
type ConnectionInfo struct {
	// Host is the remote hostname or IP address
	Host string

	// Port is the SSH port number
	Port int

	// User is the SSH username
	User string

	// ConnectedAt is when the connection was established
	ConnectedAt time.Time

	// LastActivity is when the connection was last used
	LastActivity time.Time
}

// TransportError represents an error from the transport layer.
type TransportError struct {
	// Op is the operation that failed (e.g., "connect", "exec", "sftp-init")
	Op string

	// Err is the underlying error
	Err error

	// ExitCode is the remote exit status for "exec" failures, -1 otherwise.
	ExitCode int
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(op string, err error) *TransportError {
	return &TransportError{
		Op:       op,
		Err:      err,
		ExitCode: -1,
	}
}

var errNotConnected = fmt.Errorf("not connected")
