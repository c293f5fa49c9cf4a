package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"stock-insight-api/internal/trace"
)

var (
	globalLogger *slog.Logger
	eventLogger  *slog.Logger
	logLevel     slog.Level
	output       io.Writer = os.Stdout
)

// Init configures the global slog logger from LOG_LEVEL / LOG_FORMAT. The
// event logger carries no level gate so advisor verdicts always reach the
// log stream.
func Init() {
	logLevel = parseLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO"))

	globalLogger = slog.New(newHandler(&slog.HandlerOptions{Level: logLevel}))
	eventLogger = slog.New(newHandler(&slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(globalLogger)
}

func newHandler(opts *slog.HandlerOptions) slog.Handler {
	if getEnvOrDefault("LOG_FORMAT", "json") == "json" {
		return slog.NewJSONHandler(output, opts)
	}
	return slog.NewTextHandler(output, opts)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Debug(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelDebug, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, args...)
}

// ErrorWithErr logs an error message and records it on the active span.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	if trace.Enabled() {
		span := oteltrace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}

	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, allArgs...)
}

// Recommendation logs an advisor verdict (always logged regardless of level).
func Recommendation(ctx context.Context, symbol, action, producedBy string, confidence int, fields ...any) {
	if trace.Enabled() {
		span := oteltrace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			span.AddEvent("recommendation", oteltrace.WithAttributes(
				attribute.String("symbol", symbol),
				attribute.String("action", action),
				attribute.String("produced_by", producedBy),
				attribute.Int("confidence", confidence),
			))
		}
	}

	allFields := append([]any{
		"type", "RECOMMENDATION",
		"symbol", symbol,
		"action", action,
		"produced_by", producedBy,
		"confidence", confidence,
	}, fields...)
	if eventLogger == nil {
		Init()
	}
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		allFields = append([]any{"trace_id", traceID, "span_id", spanID}, allFields...)
	}
	eventLogger.Log(ctx, slog.LevelInfo, "Recommendation produced", allFields...)
}

func logWithTrace(ctx context.Context, level slog.Level, msg string, args ...any) {
	if globalLogger == nil {
		Init()
	}
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		args = append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}
	globalLogger.Log(ctx, level, msg, args...)
}
