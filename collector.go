package spanz

import (
	"sync"
)

// Collector buffers completed spans until they are drained.
// Register Collect as a span handler:
//
//	c := spanz.NewCollector()
//	tracer.OnSpanEnd(c.Collect)
//
// Safe for concurrent use by multiple goroutines.
type Collector struct {
	spans []Span
	mu    sync.Mutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		spans: make([]Span, 0, 8), // Start with small capacity.
	}
}

// Collect appends a copy of span to the buffer.
func (c *Collector) Collect(span Span) {
	s := span.clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, s)
}

// Drain returns all buffered spans in arrival order and empties the buffer.
// The returned slice belongs to the caller.
func (c *Collector) Drain() []Span {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.spans) == 0 {
		return nil
	}

	result := make([]Span, len(c.spans))
	copy(result, c.spans)

	// Shrink only when the buffer is very oversized to avoid allocation churn.
	if cap(c.spans) > 256 && len(c.spans) < cap(c.spans)/8 {
		newCap := cap(c.spans) / 4
		if newCap < 32 {
			newCap = 32
		}
		c.spans = make([]Span, 0, newCap)
	} else {
		clear(c.spans)
		c.spans = c.spans[:0]
	}

	return result
}

// Count returns the current number of buffered spans.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spans)
}

// Reset discards all buffered spans.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.spans)
	c.spans = c.spans[:0]
}
