package spanz

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/multierr"
)

// Traces maps trace ID to its spans in creation order.
// It is the structure written by ExportTraces.
type Traces map[string][]Span

// SpanCount returns the total number of spans across all traces.
func (t Traces) SpanCount() int {
	n := 0
	for _, spans := range t {
		n += len(spans)
	}
	return n
}

// Sink receives exported traces.
type Sink interface {
	Export(ctx context.Context, traces Traces) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, traces Traces) error

// Export calls f.
func (f SinkFunc) Export(ctx context.Context, traces Traces) error {
	return f(ctx, traces)
}

// EncodeTraces returns the JSON form of traces.
func EncodeTraces(traces Traces, indent bool) ([]byte, error) {
	if traces == nil {
		traces = Traces{}
	}

	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(traces, "", "  ")
	} else {
		data, err = json.Marshal(traces)
	}
	if err != nil {
		return nil, &ExportError{Op: "encode", Err: err}
	}
	return data, nil
}

// DecodeTraces parses the JSON written by EncodeTraces.
func DecodeTraces(r io.Reader) (Traces, error) {
	var traces Traces
	if err := json.NewDecoder(r).Decode(&traces); err != nil {
		return nil, err
	}
	return traces, nil
}

// WriterSink writes each export as one JSON document followed by a newline.
type WriterSink struct {
	w      io.Writer
	mu     sync.Mutex
	indent bool
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer, indent bool) *WriterSink {
	return &WriterSink{w: w, indent: indent}
}

// Export encodes traces and writes them to the underlying writer.
func (s *WriterSink) Export(ctx context.Context, traces Traces) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeTraces(traces, s.indent)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return &ExportError{Op: "write", Err: err}
	}
	return nil
}

// MultiSink exports to every sink in order. All sinks are attempted;
// their errors are combined.
type MultiSink []Sink

// Export calls Export on each sink.
func (m MultiSink) Export(ctx context.Context, traces Traces) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Export(ctx, traces))
	}
	return err
}
