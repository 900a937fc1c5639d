package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

// writeTestKey writes a fresh ed25519 private key in OpenSSH format to path,
// encrypted when passphrase is not empty.
func writeTestKey(t *testing.T, path, passphrase string) ssh.PublicKey {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	}
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return sshPub
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("HOME", "/home/deploy")
	config := DefaultConfig("web1.example.com", "deploy")

	if config.Port != 22 || config.ProxyPort != 22 {
		t.Errorf("ports = %d/%d, want 22/22", config.Port, config.ProxyPort)
	}
	if config.AuthMethod != AuthMethodKey {
		t.Errorf("auth method = %q, want %q", config.AuthMethod, AuthMethodKey)
	}
	if !config.StrictHostKeyChecking {
		t.Error("host keys must be checked by default")
	}
	if config.KnownHostsPath != "/home/deploy/.ssh/known_hosts" {
		t.Errorf("known hosts = %q", config.KnownHostsPath)
	}
	if config.CommandTimeout != 0 {
		t.Errorf("remote commands must not time out by default, got %v", config.CommandTimeout)
	}
}

func TestConfigValidation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SSH_AUTH_SOCK", "")

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name: "password",
			modify: func(c *Config) {
				c.AuthMethod = AuthMethodPassword
				c.Password = "secret"
			},
		},
		{
			name:    "missing host",
			modify:  func(c *Config) { c.Host = "" },
			wantErr: "host is required",
		},
		{
			name:    "port out of range",
			modify:  func(c *Config) { c.Port = 70000 },
			wantErr: "invalid port: 70000",
		},
		{
			name:    "missing user",
			modify:  func(c *Config) { c.User = "" },
			wantErr: "user is required",
		},
		{
			name:    "password auth without password",
			modify:  func(c *Config) { c.AuthMethod = AuthMethodPassword },
			wantErr: "password is required",
		},
		{
			name:    "no identity and no default key",
			modify:  func(c *Config) {},
			wantErr: "no default key found",
		},
		{
			name:    "identity file missing",
			modify:  func(c *Config) { c.PrivateKeyPath = filepath.Join(home, "missing") },
			wantErr: "private key file not found",
		},
		{
			name:    "agent without socket",
			modify:  func(c *Config) { c.AuthMethod = AuthMethodAgent },
			wantErr: "SSH_AUTH_SOCK is not set",
		},
		{
			name:    "unknown auth method",
			modify:  func(c *Config) { c.AuthMethod = "kerberos" },
			wantErr: "unsupported auth method: kerberos",
		},
		{
			name: "negative command timeout",
			modify: func(c *Config) {
				c.AuthMethod = AuthMethodPassword
				c.Password = "secret"
				c.CommandTimeout = -time.Second
			},
			wantErr: "command timeout must not be negative",
		},
		{
			name: "jump host without user",
			modify: func(c *Config) {
				c.AuthMethod = AuthMethodPassword
				c.Password = "secret"
				c.ProxyHost = "bastion.example.com"
			},
			wantErr: "proxy user is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig("web1.example.com", "deploy")
			tt.modify(config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFindsDefaultIdentity(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	key := filepath.Join(home, ".ssh", "id_ed25519")
	writeTestKey(t, key, "")

	config := DefaultConfig("web1.example.com", "deploy")
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if config.PrivateKeyPath != key {
		t.Errorf("PrivateKeyPath = %q, want %q", config.PrivateKeyPath, key)
	}
}

func TestConfigAddresses(t *testing.T) {
	config := DefaultConfig("web1.example.com", "deploy")
	config.Port = 2222

	if got := config.Address(); got != "web1.example.com:2222" {
		t.Errorf("Address() = %q", got)
	}
	if config.IsProxyEnabled() || config.ProxyAddress() != "" {
		t.Error("no jump host was configured")
	}

	config.ProxyHost = "bastion.example.com"
	if !config.IsProxyEnabled() {
		t.Error("expected the jump host to be enabled")
	}
	if got := config.ProxyAddress(); got != "bastion.example.com:22" {
		t.Errorf("ProxyAddress() = %q", got)
	}
}

func TestBuildSSHClientConfig(t *testing.T) {
	t.Run("password offers keyboard-interactive too", func(t *testing.T) {
		config := DefaultConfig("web1.example.com", "deploy")
		config.AuthMethod = AuthMethodPassword
		config.Password = "secret"
		config.StrictHostKeyChecking = false

		clientConfig, err := config.BuildSSHClientConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clientConfig.User != "deploy" {
			t.Errorf("user = %q", clientConfig.User)
		}
		if len(clientConfig.Auth) != 2 {
			t.Errorf("expected password and keyboard-interactive, got %d auth methods", len(clientConfig.Auth))
		}
		if clientConfig.Timeout != 30*time.Second {
			t.Errorf("timeout = %v", clientConfig.Timeout)
		}
	})

	t.Run("encrypted identity", func(t *testing.T) {
		keyPath := filepath.Join(t.TempDir(), "id_ed25519")
		writeTestKey(t, keyPath, "hunter2")

		config := DefaultConfig("web1.example.com", "deploy")
		config.PrivateKeyPath = keyPath
		config.StrictHostKeyChecking = false

		if _, err := config.BuildSSHClientConfig(); err == nil {
			t.Error("expected an error without the passphrase")
		}

		config.PrivateKeyPassphrase = "hunter2"
		clientConfig, err := config.BuildSSHClientConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(clientConfig.Auth) != 1 {
			t.Errorf("expected 1 auth method, got %d", len(clientConfig.Auth))
		}
	})

	t.Run("agent socket unreachable", func(t *testing.T) {
		t.Setenv("SSH_AUTH_SOCK", filepath.Join(t.TempDir(), "missing.sock"))

		config := DefaultConfig("web1.example.com", "deploy")
		config.AuthMethod = AuthMethodAgent

		if _, err := config.BuildSSHClientConfig(); err == nil {
			t.Error("expected an error for an unreachable agent")
		}
	})
}

func TestHostKeyChecking(t *testing.T) {
	dir := t.TempDir()
	hostKey := writeTestKey(t, filepath.Join(dir, "host_key"), "")
	addr := &net.TCPAddr{IP: net.ParseIP("192.0.2.10"), Port: 22}

	knownHosts := filepath.Join(dir, "known_hosts")
	if err := os.WriteFile(knownHosts, nil, 0644); err != nil {
		t.Fatal(err)
	}

	config := DefaultConfig("web1.example.com", "deploy")
	config.AuthMethod = AuthMethodPassword
	config.Password = "secret"
	config.KnownHostsPath = knownHosts

	strict, err := config.BuildSSHClientConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := strict.HostKeyCallback("web1.example.com:22", addr, hostKey); err == nil {
		t.Error("an unknown host key must be rejected")
	}

	config.StrictHostKeyChecking = false
	relaxed, err := config.BuildSSHClientConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := relaxed.HostKeyCallback("web1.example.com:22", addr, hostKey); err != nil {
		t.Errorf("host key checking is disabled, got %v", err)
	}

	config.StrictHostKeyChecking = true
	config.KnownHostsPath = filepath.Join(dir, "absent")
	if _, err := config.BuildSSHClientConfig(); err == nil {
		t.Error("expected an error for a missing known_hosts file")
	}
}
