// Package telemetry provides observability instrumentation for update-dotdee.
//
// It combines structured logging (zerolog), tracing of the update phases
// (OpenTelemetry) and Prometheus metrics.
//
// # Usage
//
// Initialize telemetry once in main:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Logging.Level = "debug"
//
//	logger := telemetry.NewLoggerTo(os.Stderr, cfg.Logging)
//	tel, err := telemetry.NewTelemetry(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// The logger, tracer and metrics are then handed to the engine explicitly;
// nothing in this package reads global state.
//
// # Metrics
//
// update-dotdee is not a daemon, so there is no metrics endpoint. Set
// Metrics.Textfile to a path inside the node_exporter textfile directory and
// the collected metrics are written there by Shutdown:
//
//	update_dotdee_updates_total{result="updated"} 1
//	update_dotdee_fragments_total{kind="executable"} 2
//
// # Tracing
//
// Each update produces one root span ("dotdee.update") with child spans for
// bootstrap, fragment materialization and write-back. The "stdout" exporter
// prints spans to stderr, "otlp" ships them to a collector over gRPC.
package telemetry
