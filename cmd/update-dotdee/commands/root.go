package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// rootOptions holds the flags of the root command.
type rootOptions struct {
	force           bool
	verbose         int
	quiet           int
	configPath      string
	host            string
	port            int
	user            string
	identity        string
	sudo            bool
	dryRun          bool
	metricsTextfile string
	traceExporter   string
	traceEndpoint   string

	// searchDirs overrides the settings search path in tests.
	searchDirs []string
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	return newRootCommandWithOptions(&rootOptions{}, version, commit, buildDate)
}

func newRootCommandWithOptions(opts *rootOptions, version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "update-dotdee [flags] FILENAME",
		Short: "Generate a file from the fragments in FILENAME.d",
		Long: `Generate a configuration file from the fragments in its ".d" directory.

The fragments in FILENAME.d are concatenated in natural order, separated by
blank lines. Fragments that are executable are run and their standard output
is used instead of their contents. Entries whose name starts with a dot are
ignored.

The first time a file is managed, its existing contents are moved to
FILENAME.d/local so that nothing is lost.

A checksum of the generated file is kept in FILENAME.d/.checksum. When the
generated file was edited by hand since it was last written, update-dotdee
refuses to overwrite it (exit status 2) unless --force is given.

Settings are read from /etc/update-dotdee.{yaml,cue},
~/.update-dotdee.{yaml,cue}, ~/.config/update-dotdee.{yaml,cue} and the
matching ".d" directories, or from the file given with --config.`,
		Example: `  # Regenerate /etc/hosts from /etc/hosts.d
  update-dotdee /etc/hosts

  # Overwrite manual changes
  update-dotdee --force /etc/hosts

  # Show what would be written
  update-dotdee --dry-run /etc/hosts

  # Manage a file on a remote host through sudo
  update-dotdee --host web1 --user deploy --sudo /etc/hosts`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch len(args) {
			case 0:
				return cmd.Help()
			case 1:
				return runUpdate(cmd, opts, version, args[0])
			default:
				return &UsageError{Message: "Expected a filename as the first and only argument!"}
			}
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.force, "force", "f", false, "overwrite the file even if it was modified by hand")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase logging verbosity (can be repeated)")
	flags.CountVarP(&opts.quiet, "quiet", "q", "decrease logging verbosity (can be repeated)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "settings file to load instead of searching for one")
	flags.StringVar(&opts.host, "host", "", "manage the file on this host over SSH")
	flags.IntVar(&opts.port, "port", 0, "SSH port (default 22)")
	flags.StringVar(&opts.user, "user", "", "SSH user (default $USER)")
	flags.StringVar(&opts.identity, "identity", "", "SSH private key file")
	flags.BoolVar(&opts.sudo, "sudo", false, "run all file operations through sudo")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the generated contents instead of writing them")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	flags.StringVar(&opts.traceExporter, "trace-exporter", "", "trace exporter: none, stdout or otlp")
	flags.StringVar(&opts.traceEndpoint, "trace-endpoint", "", "OTLP collector endpoint (host:port)")

	return rootCmd
}
