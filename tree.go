package spanz

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"
)

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result of Visit is not nil, Walk visits each of the children.
type Visitor interface {
	Visit(*TreeNode) Visitor
}

// TreeNode is one span in a reconstructed trace tree.
type TreeNode struct {
	Span     Span
	Children []*TreeNode
}

// BuildTree reconstructs parent/child structure from the ParentSpanID of
// each span. Roots and children keep the order of spans. A span whose
// parent is not in spans becomes a root.
func BuildTree(spans []Span) []*TreeNode {
	nodes := make(map[string]*TreeNode, len(spans))
	for i := range spans {
		nodes[spans[i].SpanID] = &TreeNode{Span: spans[i]}
	}

	var roots []*TreeNode
	for i := range spans {
		n := nodes[spans[i].SpanID]
		parent, ok := nodes[spans[i].ParentSpanID]
		if spans[i].ParentSpanID == "" || !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots
}

// Walk traverses the tree depth first, calling v.Visit for each node until
// completion or v.Visit returns nil.
func Walk(v Visitor, node *TreeNode) {
	if v = v.Visit(node); v == nil {
		return
	}

	for _, c := range node.Children {
		Walk(v, c)
	}
}

// String renders the subtree rooted at n.
func (n *TreeNode) String() string {
	if n == nil {
		return ""
	}
	tv := newTreeVisitor()
	Walk(tv, n)
	return tv.root.String()
}

type treeVisitor struct {
	root  treeprint.Tree
	trees []treeprint.Tree
}

func newTreeVisitor() *treeVisitor {
	t := treeprint.New()
	return &treeVisitor{root: t, trees: []treeprint.Tree{t}}
}

func (v *treeVisitor) Visit(n *TreeNode) Visitor {
	t := v.trees[len(v.trees)-1].AddBranch(nodeLabel(n.Span))
	v.trees = append(v.trees, t)

	if attrs := n.Span.Attributes; len(attrs) > 0 {
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		a := t.AddBranch("attributes")
		for _, k := range keys {
			a.AddNode(k + ": " + attrs[k])
		}
	}

	for _, cn := range n.Children {
		Walk(v, cn)
	}

	v.trees[len(v.trees)-1] = nil
	v.trees = v.trees[:len(v.trees)-1]

	return nil
}

func nodeLabel(s Span) string {
	if !s.Ended() {
		return fmt.Sprintf("%s [%s]", s.Name, s.Status)
	}
	return fmt.Sprintf("%s [%s] %s", s.Name, s.Status, s.Duration())
}
