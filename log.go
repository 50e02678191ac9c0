package spanz

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// LogSink exports each span as one structured log entry.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging to logger at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Export logs every span, traces in trace ID order.
func (s *LogSink) Export(ctx context.Context, traces Traces) error {
	ids := make([]string, 0, len(traces))
	for id := range traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, span := range traces[id] {
			s.logger.Info("span", spanFields(span)...)
		}
	}
	return nil
}

// LogCompleted returns a handler that logs every span as it ends.
// Register it with OnSpanEnd or OnSpanEndAsync.
func LogCompleted(logger *zap.Logger) SpanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(span Span) {
		logger.Info("span completed", spanFields(span)...)
	}
}

func spanFields(span Span) []zap.Field {
	fields := []zap.Field{
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.String("name", span.Name),
		zap.String("status", string(span.Status)),
		zap.Time("start_time", span.StartTime),
	}
	if span.ParentSpanID != "" {
		fields = append(fields, zap.String("parent_span_id", span.ParentSpanID))
	}
	if span.EndTime != nil {
		fields = append(fields,
			zap.Time("end_time", *span.EndTime),
			zap.Duration("duration", span.Duration()),
		)
	}
	if len(span.Attributes) > 0 {
		fields = append(fields, zap.Any("attributes", span.Attributes))
	}
	return fields
}
