// Package spanz provides a minimal span registry for in-process tracing.
//
// spanz creates spans, groups them into traces by a shared trace ID and
// keeps every span for the lifetime of the Tracer so a whole trace can be
// queried or exported at once. It consumes nothing but a clock and a
// cryptographically secure random source.
//
// Core Components:
//   - Tracer: the span registry. Starts, ends, queries and exports spans.
//   - ActiveSpan: handle to a registered span, safe for concurrent use.
//   - Span: point-in-time record of a span, the exported form.
//   - Sink: destination for ExportTraces (writer, logger, fan-out).
//
// Basic Usage:
//
//	tracer := spanz.New("checkout")
//	defer tracer.Close()
//
//	root, err := tracer.StartSpan("handle-request")
//	if err != nil {
//		return err
//	}
//	child, err := tracer.StartSpan("db.query", spanz.WithParent(root.SpanID()))
//	if err != nil {
//		return err
//	}
//	_ = child.End(spanz.WithAttributes(map[string]string{"rows": "10"}))
//	_ = root.End()
//
//	spans := tracer.GetTrace(root.TraceID())
//
// Context Propagation:
//
// Start links the new span to the span carried by the context, if any.
// ContextWithSpan and SpanFromContext use an unexported key type, so no
// other package can collide with or forge the carried span.
//
// Error Handling:
//
// Starting a span under a parent the Tracer has never seen returns an
// *UnknownParentError and leaves the registry untouched. Ending a span twice
// returns ErrSpanEnded and keeps the first end time, status and attributes.
// Failure of the random source panics with an *EntropyError: identifiers
// are never derived from a weaker source.
//
// Thread Safety:
//
// Tracer and ActiveSpan are safe for concurrent use by multiple goroutines.
// Span values returned by GetTrace, Snapshot and handlers are copies and
// belong to the caller.
package spanz

// Key represents a span operation name.
type Key = string

// Attr represents a span attribute key.
type Attr = string
