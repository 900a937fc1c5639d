package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestVerbosityLevel(t *testing.T) {
	tests := []struct {
		base    string
		verbose int
		quiet   int
		want    string
	}{
		{"info", 0, 0, "info"},
		{"info", 1, 0, "debug"},
		{"info", 2, 0, "trace"},
		{"info", 5, 0, "trace"},
		{"info", 0, 1, "warn"},
		{"info", 0, 2, "error"},
		{"info", 0, 9, "fatal"},
		{"debug", 1, 1, "debug"},
		{"bogus", 0, 0, "info"},
	}

	for _, tt := range tests {
		got := VerbosityLevel(tt.base, tt.verbose, tt.quiet)
		if got != tt.want {
			t.Errorf("VerbosityLevel(%q, %d, %d) = %q, want %q", tt.base, tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Error("expected debug level")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Error("expected unknown level to map to info")
	}
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LoggingConfig{Level: "debug", Format: "json"})

	logger.NewComponentLogger("engine").WithRunID("run-1").WithTarget("/etc/foo").Infof("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}

	for key, want := range map[string]string{
		"component": "engine",
		"run_id":    "run-1",
		"target":    "/etc/foo",
		"message":   "hello",
		"level":     "info",
	} {
		if entry[key] != want {
			t.Errorf("expected %s=%q, got %v", key, want, entry[key])
		}
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LoggingConfig{Level: "warn", Format: "json"})

	logger.Infof("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info message to be filtered, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warning to be written, got %q", buf.String())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name       string
		modifyFunc func(*Config)
		errorMsg   string
	}{
		{
			name:       "default config",
			modifyFunc: func(c *Config) {},
		},
		{
			name:       "bad level",
			modifyFunc: func(c *Config) { c.Logging.Level = "loud" },
			errorMsg:   "invalid log level",
		},
		{
			name:       "bad format",
			modifyFunc: func(c *Config) { c.Logging.Format = "xml" },
			errorMsg:   "invalid log format",
		},
		{
			name: "otlp without endpoint",
			modifyFunc: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
			},
			errorMsg: "trace endpoint is required",
		},
		{
			name: "metrics without textfile",
			modifyFunc: func(c *Config) {
				c.Metrics.Enabled = true
			},
			errorMsg: "metrics textfile is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Fatalf("expected error containing %q, got %v", tt.errorMsg, err)
			}
		})
	}
}

func TestMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update_dotdee.prom")

	m, err := NewMetrics(MetricsConfig{Enabled: true, Textfile: path, Namespace: "update_dotdee"})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordFragment("static")
	m.RecordFragment("executable")
	m.RecordFragment("static")
	m.RecordUpdate(ResultRefused, 0)
	m.SetGeneratedBytes(42)

	if err := m.WriteTextfile(); err != nil {
		t.Fatalf("failed to write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}

	for _, want := range []string{
		`update_dotdee_fragments_total{kind="static"} 2`,
		`update_dotdee_fragments_total{kind="executable"} 1`,
		`update_dotdee_updates_total{result="refused"} 1`,
		`update_dotdee_generated_bytes 42`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected textfile to contain %q, got:\n%s", want, data)
		}
	}
}

func TestDisabledMetricsAreNoops(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordFragment("static")
	m.RecordUpdate(ResultUpdated, 0)
	if err := m.WriteTextfile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var nilMetrics *Metrics
	nilMetrics.RecordFragment("static")
}

func TestStdoutTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := newTracer(TracingConfig{
		Enabled:      true,
		Exporter:     "stdout",
		SamplingRate: 1.0,
	}, "update-dotdee", "test", &buf)
	if err != nil {
		t.Fatalf("failed to create tracer: %v", err)
	}

	ctx, span := tracer.StartSpan(context.Background(), "dotdee.update", AttrTarget.String("/etc/foo"))
	if TraceID(ctx) == "" {
		t.Error("expected a valid trace id")
	}
	RecordSuccess(span)
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("failed to shut down tracer: %v", err)
	}

	if !strings.Contains(buf.String(), "dotdee.update") {
		t.Errorf("expected exported span, got %q", buf.String())
	}
}

func TestNopTracer(t *testing.T) {
	ctx, span := NopTracer().StartSpan(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("expected no trace id from the nop tracer")
	}
}
