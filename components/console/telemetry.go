package console

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/ettle/strcase"
)

// Telemetry records console events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// SlogTelemetry writes telemetry events as structured log records.
type SlogTelemetry struct {
	Logger *slog.Logger
	Level  slog.Level
}

// NewSlogTelemetry logs events at info level on logger.
func NewSlogTelemetry(logger *slog.Logger) *SlogTelemetry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTelemetry{Logger: logger, Level: slog.LevelInfo}
}

// Record implements Telemetry.
func (t *SlogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("event", event))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, payload[key]))
	}
	t.Logger.LogAttrs(ctx, t.Level, "telemetry", attrs...)
}

// EventName joins parts into a dotted snake_case event name, e.g.
// EventName("console", "update-access", "Success") is
// "console.update_access.success".
func EventName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strcase.ToSnake(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ".")
}
