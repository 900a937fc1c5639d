package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/dotdee/pkg/config"
	"github.com/openfroyo/dotdee/pkg/contexts"
	"github.com/openfroyo/dotdee/pkg/dotdee"
	"github.com/openfroyo/dotdee/pkg/telemetry"
)

const programName = "update-dotdee"

func runUpdate(cmd *cobra.Command, opts *rootOptions, version, filename string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, files, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}

	tcfg := telemetryConfig(settings, opts, version)
	logger := telemetry.NewLoggerTo(cmd.ErrOrStderr(), tcfg.Logging)

	// The SSH transport logs through the global logger.
	log.Logger = *logger.NewComponentLogger("ssh").Zerolog()

	tel, err := telemetry.NewTelemetry(tcfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := tel.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			tel.Logger.WithError(shutdownErr).Warn("Failed to flush telemetry")
		}
	}()

	for _, file := range files {
		tel.Logger.Debugf("Loaded settings from %s", file)
	}

	execCtx, err := newContext(ctx, settings)
	if err != nil {
		return err
	}
	defer execCtx.Close()

	if err := checkTarget(ctx, execCtx, filename); err != nil {
		return err
	}

	updater, err := dotdee.New(dotdee.Options{
		Filename: filename,
		Force:    settings.Force,
		Context:  execCtx,
		Logger:   tel.Logger,
		Metrics:  tel.Metrics,
		Tracer:   tel.Tracer,
	})
	if err != nil {
		return err
	}

	if opts.dryRun {
		return render(ctx, cmd, updater, tel.Logger)
	}

	result, err := updater.UpdateFile(ctx, nil)
	if err != nil {
		return err
	}
	tel.Logger.Zerolog().Debug().
		Str("checksum", result.Checksum).
		Int("fragments", len(result.Fragments)).
		Bool("changed", result.Changed).
		Bool("bootstrapped", result.Bootstrapped).
		Msg("Update finished")
	return nil
}

// loadSettings loads the settings files and applies the flags that were
// given on top of them.
func loadSettings(cmd *cobra.Command, opts *rootOptions) (*config.Settings, []string, error) {
	loader := config.NewLoader(programName)
	loader.BaseDirectories = opts.searchDirs
	// The configured log level is only known once the settings are loaded.
	loader.Logger = telemetry.NewLoggerTo(cmd.ErrOrStderr(), telemetry.LoggingConfig{
		Level:  telemetry.VerbosityLevel("info", opts.verbose, opts.quiet),
		Format: "console",
	}).NewComponentLogger("config").Zerolog()
	if opts.configPath != "" {
		loader.Files = []string{opts.configPath}
	}

	settings, files, err := loader.Load(config.Settings{})
	if err != nil {
		return nil, files, err
	}

	flags := cmd.Flags()
	if flags.Changed("force") {
		settings.Force = opts.force
	}
	if flags.Changed("sudo") {
		settings.Sudo = opts.sudo
	}
	if flags.Changed("metrics-textfile") {
		settings.MetricsTextfile = opts.metricsTextfile
	}
	if flags.Changed("trace-exporter") {
		settings.Tracing.Exporter = opts.traceExporter
	}
	if flags.Changed("trace-endpoint") {
		settings.Tracing.Endpoint = opts.traceEndpoint
	}

	if flags.Changed("host") {
		if settings.SSH == nil || settings.SSH.Host != opts.host {
			settings.SSH = &config.SSHSettings{Host: opts.host}
		}
	}
	if settings.SSH != nil {
		if flags.Changed("port") {
			settings.SSH.Port = opts.port
		}
		if flags.Changed("user") {
			settings.SSH.User = opts.user
		}
		if flags.Changed("identity") {
			settings.SSH.Identity = opts.identity
			settings.SSH.Auth = "key"
		}
	} else if flags.Changed("port") || flags.Changed("user") || flags.Changed("identity") {
		return nil, files, &UsageError{Message: "The --port, --user and --identity options require --host!"}
	}

	return settings, files, nil
}

func telemetryConfig(settings *config.Settings, opts *rootOptions, version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version

	base := settings.Log.Level
	if base == "" {
		base = cfg.Logging.Level
	}
	cfg.Logging.Level = telemetry.VerbosityLevel(base, opts.verbose, opts.quiet)
	if settings.Log.Format != "" {
		cfg.Logging.Format = settings.Log.Format
	}

	if exporter := settings.Tracing.Exporter; exporter != "" && exporter != "none" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = exporter
		cfg.Tracing.Endpoint = settings.Tracing.Endpoint
		cfg.Tracing.Insecure = settings.Tracing.Insecure
		if settings.Tracing.SamplingRate > 0 {
			cfg.Tracing.SamplingRate = settings.Tracing.SamplingRate
		}
	}

	if settings.MetricsTextfile != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = settings.MetricsTextfile
	}

	return cfg
}

func newContext(ctx context.Context, settings *config.Settings) (contexts.Context, error) {
	opts := contexts.Options{Sudo: settings.Sudo}
	if settings.SSH != nil {
		sshConfig, err := settings.SSH.TransportConfig()
		if err != nil {
			return nil, err
		}
		opts.SSH = sshConfig
	}
	return contexts.New(ctx, opts)
}

// checkTarget accepts an existing file, or a file that is missing but
// already has a fragment directory to be regenerated from.
func checkTarget(ctx context.Context, execCtx contexts.Context, filename string) error {
	isFile, err := execCtx.IsFile(ctx, filename)
	if err != nil {
		return err
	}
	if isFile {
		return nil
	}
	isDir, err := execCtx.IsDirectory(ctx, filename+".d")
	if err != nil {
		return err
	}
	if isDir {
		return nil
	}
	return &UsageError{Message: "The given filename doesn't point to an existing file!"}
}

func render(ctx context.Context, cmd *cobra.Command, updater *dotdee.Updater, logger *telemetry.Logger) error {
	content, fragments, err := updater.Render(ctx)
	if err != nil {
		return err
	}
	for _, f := range fragments {
		logger.Infof("Would include %s fragment: %s", f.Kind, f.Path)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(content))
	return err
}
