package logging

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanLogger exports finished spans as debug log lines.
type spanLogger struct {
	log logrus.FieldLogger
}

func (e spanLogger) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := logrus.Fields{
			"span":     s.Name(),
			"duration": s.EndTime().Sub(s.StartTime()).String(),
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = attrValue(kv.Value)
		}
		entry := e.log.WithFields(fields)
		if st := s.Status(); st.Description != "" {
			entry = entry.WithField("error", st.Description)
		}
		entry.Debug("request")
	}
	return nil
}

func (spanLogger) Shutdown(context.Context) error { return nil }

func attrValue(v attribute.Value) any {
	switch v.Type() {
	case attribute.INT64:
		return v.AsInt64()
	case attribute.BOOL:
		return v.AsBool()
	default:
		return v.Emit()
	}
}

// NewTracerProvider returns a provider that writes each finished span to log.
// Callers should Shutdown it on exit.
func NewTracerProvider(log logrus.FieldLogger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(spanLogger{log: log})),
	)
}
