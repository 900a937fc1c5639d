package contexts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pkg/sftp"

	"github.com/openfroyo/dotdee/pkg/transports/ssh"
)

// RemoteContext operates on a remote host as the SSH login user. File
// operations go over SFTP; Execute runs the program in an SSH session.
type RemoteContext struct {
	transport ssh.Transport
	sftp      *sftp.Client
}

var _ Context = (*RemoteContext)(nil)

// NewRemote opens an SFTP session on a connected transport. Closing the
// context closes the session and disconnects the transport.
func NewRemote(transport ssh.Transport) (*RemoteContext, error) {
	client, err := transport.SFTP()
	if err != nil {
		return nil, err
	}
	return &RemoteContext{transport: transport, sftp: client}, nil
}

func (r *RemoteContext) stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	info, err := r.sftp.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s on %s: %w", path, r, err)
	}
	return info, nil
}

// IsFile reports whether path is a regular file.
func (r *RemoteContext) IsFile(ctx context.Context, path string) (bool, error) {
	info, err := r.stat(ctx, path)
	if err != nil || info == nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// IsDirectory reports whether path is a directory.
func (r *RemoteContext) IsDirectory(ctx context.Context, path string) (bool, error) {
	info, err := r.stat(ctx, path)
	if err != nil || info == nil {
		return false, err
	}
	return info.IsDir(), nil
}

// IsExecutable reports whether path is a regular file with any execute bit.
func (r *RemoteContext) IsExecutable(ctx context.Context, path string) (bool, error) {
	info, err := r.stat(ctx, path)
	if err != nil || info == nil {
		return false, err
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0, nil
}

// ListEntries returns the entry names of a directory.
func (r *RemoteContext) ListEntries(ctx context.Context, path string) ([]string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	infos, err := r.sftp.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s on %s: %w", path, r, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

// ReadFile reads a whole file over SFTP.
func (r *RemoteContext) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	f, err := r.sftp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s on %s: %w", path, r, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s on %s: %w", path, r, err)
	}
	return data, nil
}

// WriteFile creates or truncates path over SFTP.
func (r *RemoteContext) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	f, err := r.sftp.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s on %s: %w", path, r, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s on %s: %w", path, r, err)
	}
	return f.Close()
}

// MakeDirs creates path and any missing parents.
func (r *RemoteContext) MakeDirs(ctx context.Context, path string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := r.sftp.MkdirAll(path); err != nil {
		return fmt.Errorf("mkdir %s on %s: %w", path, r, err)
	}
	return nil
}

// Rename uses the posix-rename extension so that an existing dst is
// replaced, as mv(1) would.
func (r *RemoteContext) Rename(ctx context.Context, src, dst string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := r.sftp.PosixRename(src, dst); err != nil {
		return fmt.Errorf("rename %s to %s on %s: %w", src, dst, r, err)
	}
	return nil
}

// Execute runs path in an SSH session and returns its standard output.
func (r *RemoteContext) Execute(ctx context.Context, path string) ([]byte, error) {
	cmdline, err := quote(path)
	if err != nil {
		return nil, err
	}
	stdout, stderr, err := r.transport.Run(ctx, cmdline, nil)
	if err != nil {
		return stdout, &ExecError{
			Path:     path,
			ExitCode: ssh.ExitCode(err),
			Stderr:   stderr,
			Err:      err,
		}
	}
	return stdout, nil
}

// String returns the remote address as ssh://user@host:port.
func (r *RemoteContext) String() string {
	return hostString(r.transport.GetConnectionInfo())
}

// Close ends the SFTP session and disconnects.
func (r *RemoteContext) Close() error {
	return errors.Join(r.sftp.Close(), r.transport.Disconnect())
}

func hostString(info ssh.ConnectionInfo) string {
	return fmt.Sprintf("ssh://%s@%s:%d", info.User, info.Host, info.Port)
}
