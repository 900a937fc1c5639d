package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Telemetry bundles the logger, tracer and metrics of one run.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Config  *Config

	// RunID identifies this invocation in logs and traces.
	RunID string
}

// NewTelemetry builds the tracer and metrics described by cfg and tags
// logger with a fresh run id.
func NewTelemetry(cfg *Config, logger *Logger) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()

	return &Telemetry{
		Logger:  logger.WithRunID(runID),
		Tracer:  tracer,
		Metrics: metrics,
		Config:  cfg,
		RunID:   runID,
	}, nil
}

// Shutdown flushes spans and writes the metrics textfile.
// Both steps run even when the first one fails.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Tracer.Shutdown(ctx),
		t.Metrics.WriteTextfile(),
	)
}
