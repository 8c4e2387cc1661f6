// Package observability installs the process-wide logging setup.
//
// The text and json formats write to stderr through the standard slog
// handlers. The otlp format routes slog records through the OpenTelemetry log
// SDK instead: records below the configured level are dropped by a minimum
// severity processor, batched, and exported over OTLP (gRPC or http/protobuf
// per OTEL_EXPORTER_OTLP_PROTOCOL). Without an OTLP endpoint configured the
// records go to a stdout exporter, which is handy for inspecting what would
// be shipped.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

const serviceName = "schwabctl"

// Instrument sets the default slog logger for the given level and format
// (text, json, or otlp). The returned shutdown flushes any pending export and
// must be called before process exit.
func Instrument(level slog.Level, format string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	switch format {
	case "", "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return noop, nil
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return noop, nil
	case "otlp":
		return instrumentOTLP(level)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

func instrumentOTLP(level slog.Level) (func(context.Context) error, error) {
	ctx := context.Background()

	exporter, err := newExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))),
		sdklog.WithResource(res),
	)

	slog.SetDefault(otelslog.NewLogger(serviceName, otelslog.WithLoggerProvider(provider)))

	return provider.Shutdown, nil
}

// newExporter picks the exporter from the standard OTEL environment:
// an OTLP endpoint when configured, stdout otherwise.
func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" &&
		os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT") == "" {
		return stdoutlog.New()
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc" {
		return otlploggrpc.New(ctx)
	}
	return otlploghttp.New(ctx)
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
