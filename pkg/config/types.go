package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openfroyo/dotdee/pkg/transports/ssh"
)

// Settings holds everything a settings file can set.
type Settings struct {
	// Force overwrites generated files that were edited by hand.
	Force bool `json:"force" yaml:"force"`

	// Sudo runs every file operation through sudo.
	Sudo bool `json:"sudo" yaml:"sudo"`

	Log LogSettings `json:"log" yaml:"log"`

	// MetricsTextfile enables metrics and names the file they are written
	// to after each run, for the node_exporter textfile collector.
	MetricsTextfile string `json:"metrics_textfile,omitempty" yaml:"metrics_textfile"`

	Tracing TracingSettings `json:"tracing" yaml:"tracing"`

	// SSH, when set, manages files on a remote host.
	SSH *SSHSettings `json:"ssh,omitempty" yaml:"ssh" validate:"omitempty"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level  string `json:"level,omitempty" yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format string `json:"format,omitempty" yaml:"format" validate:"omitempty,oneof=console json"`
}

// TracingSettings configures span export.
type TracingSettings struct {
	Exporter     string  `json:"exporter,omitempty" yaml:"exporter" validate:"omitempty,oneof=none stdout otlp"`
	Endpoint     string  `json:"endpoint,omitempty" yaml:"endpoint" validate:"required_if=Exporter otlp"`
	Insecure     bool    `json:"insecure" yaml:"insecure"`
	SamplingRate float64 `json:"sampling_rate,omitempty" yaml:"sampling_rate" validate:"gte=0,lte=1"`
}

// SSHSettings describes the remote host to manage.
type SSHSettings struct {
	Host string `json:"host" yaml:"host" validate:"required"`
	Port int    `json:"port,omitempty" yaml:"port" validate:"omitempty,min=1,max=65535"`
	User string `json:"user,omitempty" yaml:"user"`

	// Auth is one of password, key or agent. Defaults to key.
	Auth string `json:"auth,omitempty" yaml:"auth" validate:"omitempty,oneof=password key agent"`

	// PasswordEnv names the environment variable holding the password, so
	// that settings files never contain one.
	PasswordEnv string `json:"password_env,omitempty" yaml:"password_env" validate:"required_if=Auth password"`

	Identity   string `json:"identity,omitempty" yaml:"identity"`
	KnownHosts string `json:"known_hosts,omitempty" yaml:"known_hosts"`

	// StrictHostKeyChecking defaults to true.
	StrictHostKeyChecking *bool `json:"strict_host_key_checking,omitempty" yaml:"strict_host_key_checking"`

	// Timeout is a Go duration such as "10s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout"`

	ProxyHost string `json:"proxy_host,omitempty" yaml:"proxy_host"`
	ProxyPort int    `json:"proxy_port,omitempty" yaml:"proxy_port" validate:"omitempty,min=1,max=65535"`
	ProxyUser string `json:"proxy_user,omitempty" yaml:"proxy_user"`
}

// TransportConfig converts the settings into an SSH transport config.
// An empty user falls back to $USER.
func (s *SSHSettings) TransportConfig() (*ssh.Config, error) {
	user := s.User
	if user == "" {
		user = os.Getenv("USER")
	}

	cfg := ssh.DefaultConfig(s.Host, user)
	if s.Port != 0 {
		cfg.Port = s.Port
	}

	switch s.Auth {
	case "", "key":
		cfg.AuthMethod = ssh.AuthMethodKey
		if s.Identity != "" {
			cfg.PrivateKeyPath = expandHome(s.Identity)
		}
	case "password":
		cfg.AuthMethod = ssh.AuthMethodPassword
		cfg.Password = os.Getenv(s.PasswordEnv)
	case "agent":
		cfg.AuthMethod = ssh.AuthMethodAgent
	default:
		return nil, fmt.Errorf("unsupported ssh auth method: %s", s.Auth)
	}

	if s.KnownHosts != "" {
		cfg.KnownHostsPath = expandHome(s.KnownHosts)
	}
	if s.StrictHostKeyChecking != nil {
		cfg.StrictHostKeyChecking = *s.StrictHostKeyChecking
	}
	if s.Timeout != "" {
		timeout, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid ssh timeout %q: %w", s.Timeout, err)
		}
		cfg.ConnectionTimeout = timeout
	}

	if s.ProxyHost != "" {
		cfg.ProxyHost = s.ProxyHost
		if s.ProxyPort != 0 {
			cfg.ProxyPort = s.ProxyPort
		}
		cfg.ProxyUser = s.ProxyUser
		if cfg.ProxyUser == "" {
			cfg.ProxyUser = user
		}
		cfg.ProxyAuthMethod = cfg.AuthMethod
		cfg.ProxyPrivateKeyPath = cfg.PrivateKeyPath
		cfg.ProxyPassword = cfg.Password
	}

	return cfg, nil
}

// ValidationError is a problem found in a settings file.
type ValidationError struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&b, ":%d", e.Column)
			}
		}
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ParseError collects the validation errors of one or more files.
type ParseError struct {
	Errors []ValidationError
}

func (e *ParseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.String()
	}
	return "invalid settings: " + strings.Join(msgs, "; ")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
