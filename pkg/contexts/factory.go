package contexts

import (
	"context"
	"fmt"

	"github.com/openfroyo/dotdee/pkg/transports/ssh"
)

// Options selects an execution context.
type Options struct {
	// SSH, when set, targets a remote host.
	SSH *ssh.Config

	// Sudo runs every operation through "sudo -n sh -c".
	Sudo bool
}

// New builds the context described by opts:
//
//	no SSH, no sudo  -> LocalContext
//	no SSH, sudo     -> ShellContext over a LocalRunner
//	SSH, no sudo     -> RemoteContext (SFTP and SSH sessions)
//	SSH, sudo        -> ShellContext over an SSHRunner
//
// Remote contexts hold a live connection until Close is called.
func New(ctx context.Context, opts Options) (Context, error) {
	if opts.SSH == nil {
		if opts.Sudo {
			return NewShell(&LocalRunner{}, true), nil
		}
		return NewLocal(), nil
	}

	client, err := ssh.NewSSHClient(opts.SSH)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.SSH.Address(), err)
	}

	if opts.Sudo {
		return NewShell(NewSSHRunner(client), true), nil
	}

	remote, err := NewRemote(client)
	if err != nil {
		client.Disconnect()
		return nil, err
	}
	return remote, nil
}
