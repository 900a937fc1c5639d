package contexts

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/openfroyo/dotdee/pkg/transports/ssh"
	"github.com/openfroyo/dotdee/pkg/transports/ssh/sshtest"
)

func testSSHConfig(server *sshtest.Server) *ssh.Config {
	config := ssh.DefaultConfig(server.Host, sshtest.User)
	config.Port = server.Port
	config.AuthMethod = ssh.AuthMethodPassword
	config.Password = sshtest.Password
	config.StrictHostKeyChecking = false
	config.ConnectionTimeout = 5 * time.Second
	return config
}

// allContexts returns every context flavour that can run without root.
// The SSH server runs in-process, so all of them see the same file system.
func allContexts(t *testing.T) map[string]Context {
	t.Helper()

	server := sshtest.NewServer(t)
	ctx := context.Background()

	remote, err := New(ctx, Options{SSH: testSSHConfig(server)})
	if err != nil {
		t.Fatalf("failed to create remote context: %v", err)
	}
	t.Cleanup(func() { _ = remote.Close() })

	client, err := ssh.NewSSHClient(testSSHConfig(server))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	sshShell := NewShell(NewSSHRunner(client), false)
	t.Cleanup(func() { _ = sshShell.Close() })

	return map[string]Context{
		"local":     NewLocal(),
		"shell":     NewShell(&LocalRunner{}, false),
		"remote":    remote,
		"ssh-shell": sshShell,
	}
}

func TestContextOperations(t *testing.T) {
	for name, c := range allContexts(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			file := filepath.Join(dir, "plain file")
			if err := os.WriteFile(file, []byte("hello\n"), 0644); err != nil {
				t.Fatal(err)
			}
			script := filepath.Join(dir, "script.sh")
			if err := os.WriteFile(script, []byte("#!/bin/sh\necho generated\n"), 0755); err != nil {
				t.Fatal(err)
			}
			missing := filepath.Join(dir, "missing")

			checks := []struct {
				name string
				fn   func(context.Context, string) (bool, error)
				path string
				want bool
			}{
				{"IsFile(file)", c.IsFile, file, true},
				{"IsFile(dir)", c.IsFile, dir, false},
				{"IsFile(missing)", c.IsFile, missing, false},
				{"IsDirectory(dir)", c.IsDirectory, dir, true},
				{"IsDirectory(file)", c.IsDirectory, file, false},
				{"IsDirectory(missing)", c.IsDirectory, missing, false},
				{"IsExecutable(script)", c.IsExecutable, script, true},
				{"IsExecutable(file)", c.IsExecutable, file, false},
				{"IsExecutable(dir)", c.IsExecutable, dir, false},
				{"IsExecutable(missing)", c.IsExecutable, missing, false},
			}
			for _, check := range checks {
				got, err := check.fn(ctx, check.path)
				if err != nil {
					t.Errorf("%s: unexpected error: %v", check.name, err)
					continue
				}
				if got != check.want {
					t.Errorf("%s = %v, want %v", check.name, got, check.want)
				}
			}

			data, err := c.ReadFile(ctx, file)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(data) != "hello\n" {
				t.Errorf("ReadFile = %q, want %q", data, "hello\n")
			}

			nested := filepath.Join(dir, "a", "b", "c")
			if err := c.MakeDirs(ctx, nested); err != nil {
				t.Fatalf("MakeDirs: %v", err)
			}
			if err := c.MakeDirs(ctx, nested); err != nil {
				t.Fatalf("MakeDirs on existing directory: %v", err)
			}
			if info, err := os.Stat(nested); err != nil || !info.IsDir() {
				t.Fatalf("MakeDirs did not create %s", nested)
			}

			written := filepath.Join(nested, "out")
			if err := c.WriteFile(ctx, written, []byte("first version\n")); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if err := c.WriteFile(ctx, written, []byte("second\n")); err != nil {
				t.Fatalf("WriteFile (truncate): %v", err)
			}
			if got, _ := os.ReadFile(written); string(got) != "second\n" {
				t.Errorf("file contents = %q, want %q", got, "second\n")
			}

			empty := filepath.Join(nested, "empty")
			if err := c.WriteFile(ctx, empty, nil); err != nil {
				t.Fatalf("WriteFile (empty): %v", err)
			}
			if info, err := os.Stat(empty); err != nil || info.Size() != 0 {
				t.Errorf("expected empty file at %s", empty)
			}

			moved := filepath.Join(dir, "moved")
			if err := c.Rename(ctx, written, moved); err != nil {
				t.Fatalf("Rename: %v", err)
			}
			if _, err := os.Stat(written); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("source still exists after Rename")
			}

			entries, err := c.ListEntries(ctx, dir)
			if err != nil {
				t.Fatalf("ListEntries: %v", err)
			}
			sort.Strings(entries)
			want := []string{"a", "moved", "plain file", "script.sh"}
			if len(entries) != len(want) {
				t.Fatalf("ListEntries = %v, want %v", entries, want)
			}
			for i := range want {
				if entries[i] != want[i] {
					t.Errorf("ListEntries[%d] = %q, want %q", i, entries[i], want[i])
				}
			}

			out, err := c.Execute(ctx, script)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if string(out) != "generated\n" {
				t.Errorf("Execute = %q, want %q", out, "generated\n")
			}

			if c.String() == "" {
				t.Error("String() returned an empty description")
			}
		})
	}
}

func TestContextHiddenEntriesListed(t *testing.T) {
	for name, c := range allContexts(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range []string{".checksum", "visible", "two\nlines"} {
				if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
					t.Fatal(err)
				}
			}

			entries, err := c.ListEntries(context.Background(), dir)
			if err != nil {
				t.Fatalf("ListEntries: %v", err)
			}
			sort.Strings(entries)
			want := []string{".checksum", "two\nlines", "visible"}
			if strings.Join(entries, "|") != strings.Join(want, "|") {
				t.Errorf("ListEntries = %q, want %q", entries, want)
			}
		})
	}
}

func TestContextExecuteFailure(t *testing.T) {
	for name, c := range allContexts(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			script := filepath.Join(dir, "fail")
			body := "#!/bin/sh\necho partial\necho broken >&2\nexit 4\n"
			if err := os.WriteFile(script, []byte(body), 0755); err != nil {
				t.Fatal(err)
			}

			_, err := c.Execute(context.Background(), script)
			var execErr *ExecError
			if !errors.As(err, &execErr) {
				t.Fatalf("expected *ExecError, got %T: %v", err, err)
			}
			if execErr.ExitCode != 4 {
				t.Errorf("ExitCode = %d, want 4", execErr.ExitCode)
			}
			if !bytes.Contains(execErr.Stderr, []byte("broken")) {
				t.Errorf("Stderr = %q, want it to contain %q", execErr.Stderr, "broken")
			}
			if execErr.Path != script {
				t.Errorf("Path = %q, want %q", execErr.Path, script)
			}
		})
	}
}

func TestContextReadMissingFile(t *testing.T) {
	for name, c := range allContexts(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope"))
			if err == nil {
				t.Fatal("expected an error reading a missing file")
			}
		})
	}
}

func TestLocalContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewLocal()
	if _, err := c.IsFile(ctx, t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Errorf("IsFile error = %v, want context.Canceled", err)
	}
	if err := c.WriteFile(ctx, filepath.Join(t.TempDir(), "x"), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteFile error = %v, want context.Canceled", err)
	}
}

func TestExecErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ExecError
		want string
	}{
		{
			name: "exit code and stderr",
			err:  &ExecError{Path: "/x", ExitCode: 2, Stderr: []byte("oops\n")},
			want: "failed to execute /x (exit status 2): oops",
		},
		{
			name: "not started",
			err:  &ExecError{Path: "/x", ExitCode: -1, Err: errors.New("permission denied")},
			want: "failed to execute /x: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
