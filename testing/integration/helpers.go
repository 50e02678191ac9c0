package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/spanz"
)

// TraceHarness wraps a tracer with a collector and assertion helpers.
type TraceHarness struct {
	*spanz.Tracer
	Collector *spanz.Collector
	t         *testing.T
}

// NewTraceHarness creates a tracer whose completed spans are collected.
// The tracer is closed when the test ends.
func NewTraceHarness(t *testing.T, service string) *TraceHarness {
	t.Helper()

	tracer := spanz.New(service)
	collector := spanz.NewCollector()
	tracer.OnSpanEnd(collector.Collect)
	t.Cleanup(tracer.Close)

	return &TraceHarness{Tracer: tracer, Collector: collector, t: t}
}

// MustStart starts a span and fails the test on error.
func (h *TraceHarness) MustStart(name string, opts ...spanz.StartOption) *spanz.ActiveSpan {
	h.t.Helper()
	span, err := h.StartSpan(name, opts...)
	require.NoError(h.t, err)
	return span
}

// MustEnd ends a span and fails the test on error.
func (h *TraceHarness) MustEnd(span *spanz.ActiveSpan, opts ...spanz.EndOption) {
	h.t.Helper()
	require.NoError(h.t, span.End(opts...))
}

// SpanNamed returns the first span named name in the trace.
func (h *TraceHarness) SpanNamed(traceID, name string) spanz.Span {
	h.t.Helper()
	for _, s := range h.GetTrace(traceID) {
		if s.Name == name {
			return s
		}
	}
	h.t.Fatalf("span %q not found in trace %s", name, traceID)
	return spanz.Span{}
}

// AssertParentChild verifies that child's parent is parent within one trace.
func (h *TraceHarness) AssertParentChild(traceID, parentName, childName string) {
	h.t.Helper()
	parent := h.SpanNamed(traceID, parentName)
	child := h.SpanNamed(traceID, childName)

	require.Equal(h.t, parent.SpanID, child.ParentSpanID, "%s should be the parent of %s", parentName, childName)
	require.Equal(h.t, parent.TraceID, child.TraceID)
}

// AssertTraceComplete verifies that every span in the trace has ended.
func (h *TraceHarness) AssertTraceComplete(traceID string) {
	h.t.Helper()
	spans := h.GetTrace(traceID)
	require.NotEmpty(h.t, spans)
	for _, s := range spans {
		require.True(h.t, s.Ended(), "span %s has not ended", s.Name)
	}
}

// AssertSingleRoot verifies the trace reconstructs to exactly one tree.
func (h *TraceHarness) AssertSingleRoot(traceID string) *spanz.TreeNode {
	h.t.Helper()
	roots := spanz.BuildTree(h.GetTrace(traceID))
	require.Len(h.t, roots, 1)
	return roots[0]
}
