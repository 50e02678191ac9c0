package spanz

import (
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestBuildTree(t *testing.T) {
	tracer := New("test-service")
	defer tracer.Close()

	root, _ := tracer.StartSpan("root")
	a, _ := tracer.StartSpan("a", WithParent(root.SpanID()))
	b, _ := tracer.StartSpan("b", WithParent(root.SpanID()))
	a1, _ := tracer.StartSpan("a1", WithParent(a.SpanID()))

	roots := BuildTree(tracer.GetTrace(root.TraceID()))
	if len(roots) != 1 {
		t.Fatalf("Expected 1 root, got %d", len(roots))
	}

	r := roots[0]
	if r.Span.SpanID != root.SpanID() {
		t.Errorf("Expected root node %s, got %s", root.SpanID(), r.Span.SpanID)
	}
	if len(r.Children) != 2 || r.Children[0].Span.SpanID != a.SpanID() || r.Children[1].Span.SpanID != b.SpanID() {
		t.Fatalf("Expected children [a, b] in creation order, got %d children", len(r.Children))
	}
	if len(r.Children[0].Children) != 1 || r.Children[0].Children[0].Span.SpanID != a1.SpanID() {
		t.Error("Expected a1 under a")
	}
	if len(r.Children[1].Children) != 0 {
		t.Error("Expected b to be a leaf")
	}
}

func TestBuildTreeOrphans(t *testing.T) {
	spans := []Span{
		{SpanID: "1", Name: "root"},
		{SpanID: "2", ParentSpanID: "missing", Name: "orphan"},
		{SpanID: "3", ParentSpanID: "2", Name: "orphan-child"},
		{SpanID: "4", ParentSpanID: "4", Name: "self"},
	}

	roots := BuildTree(spans)
	if len(roots) != 3 {
		t.Fatalf("Expected 3 roots, got %d", len(roots))
	}
	if roots[1].Span.Name != "orphan" || len(roots[1].Children) != 1 {
		t.Error("Expected orphan to become a root with its child")
	}
	if roots[2].Span.Name != "self" || len(roots[2].Children) != 0 {
		t.Error("Expected self-parented span to be a root without children")
	}
}

type countingVisitor struct {
	names []string
}

func (v *countingVisitor) Visit(n *TreeNode) Visitor {
	v.names = append(v.names, n.Span.Name)
	return v
}

func TestWalkDepthFirst(t *testing.T) {
	spans := []Span{
		{SpanID: "r", Name: "r"},
		{SpanID: "a", ParentSpanID: "r", Name: "a"},
		{SpanID: "b", ParentSpanID: "r", Name: "b"},
		{SpanID: "a1", ParentSpanID: "a", Name: "a1"},
	}

	v := &countingVisitor{}
	Walk(v, BuildTree(spans)[0])

	if got := strings.Join(v.names, ","); got != "r,a,a1,b" {
		t.Errorf("Expected depth-first order r,a,a1,b, got %s", got)
	}
}

func TestTreeString(t *testing.T) {
	clock := clockz.NewFakeClock()
	tracer := New("test-service").WithClock(clock)
	defer tracer.Close()

	root, _ := tracer.StartSpan("handle-request")
	child, _ := tracer.StartSpan("db.query", WithParent(root.SpanID()))
	clock.Advance(25 * time.Millisecond)
	_ = child.End(WithAttributes(map[string]string{"rows": "10"}))

	out := BuildTree(tracer.GetTrace(root.TraceID()))[0].String()

	for _, want := range []string{"handle-request [UNSET]", "db.query [OK] 25ms", "attributes", "rows: 10"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected tree to contain %q:\n%s", want, out)
		}
	}

	var nilNode *TreeNode
	if nilNode.String() != "" {
		t.Error("Expected empty string for nil node")
	}
}
