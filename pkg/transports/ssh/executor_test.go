package ssh

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	client := newConnectedClient(t)
	ctx := context.Background()

	tests := []struct {
		name           string
		command        string
		stdin          []byte
		expectError    bool
		expectedCode   int
		expectedStdout string
		expectedStderr string
	}{
		{
			name:           "simple echo",
			command:        "echo test",
			expectedStdout: "test\n",
		},
		{
			name:           "stderr output",
			command:        "echo error >&2",
			expectedStderr: "error\n",
		},
		{
			name:           "stdin is forwarded",
			command:        "cat",
			stdin:          []byte("from stdin"),
			expectedStdout: "from stdin",
		},
		{
			name:         "exit with error",
			command:      "exit 3",
			expectError:  true,
			expectedCode: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := client.Run(ctx, tt.command, tt.stdin)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if code := ExitCode(err); code != tt.expectedCode {
					t.Errorf("expected exit code %d, got %d", tt.expectedCode, code)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(stdout) != tt.expectedStdout {
				t.Errorf("expected stdout '%s', got '%s'", tt.expectedStdout, stdout)
			}
			if string(stderr) != tt.expectedStderr {
				t.Errorf("expected stderr '%s', got '%s'", tt.expectedStderr, stderr)
			}
		})
	}
}

func TestRunErrorCarriesStderr(t *testing.T) {
	client := newConnectedClient(t)

	_, _, err := client.Run(context.Background(), "echo boom >&2; exit 1", nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if transportErr.Op != "exec" {
		t.Errorf("expected op 'exec', got '%s'", transportErr.Op)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error message, got '%s'", err)
	}
}

func TestRunCancelled(t *testing.T) {
	client := newConnectedClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := client.Run(ctx, "sleep 5", nil)
	if err == nil {
		t.Fatal("expected error when context expires")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestExitCodeWithoutTransportError(t *testing.T) {
	if code := ExitCode(errors.New("plain")); code != -1 {
		t.Errorf("expected -1, got %d", code)
	}
}
