package spanz

import (
	"sync"
	"time"
)

// Status is the outcome recorded when a span ends.
// Values other than the predefined ones are accepted verbatim.
type Status string

const (
	StatusUnset Status = "UNSET"
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Span is a point-in-time record of a span and the form used for export.
// A Span value is a copy; changing it does not affect the Tracer.
type Span struct {
	TraceID      string          `json:"traceId"`
	SpanID       string          `json:"spanId"`
	ParentSpanID string          `json:"parentSpanId,omitempty"`
	Name         string          `json:"name"`
	StartTime    time.Time       `json:"startTime"`
	EndTime      *time.Time      `json:"endTime,omitempty"`
	Attributes   map[Attr]string `json:"attributes"`
	Status       Status          `json:"status"`
}

// Ended reports whether the record was taken after the span ended.
func (s Span) Ended() bool {
	return s.EndTime != nil
}

// Duration returns the elapsed time of an ended span, or zero.
func (s Span) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s Span) clone() Span {
	out := s
	out.Attributes = make(map[Attr]string, len(s.Attributes))
	for k, v := range s.Attributes {
		out.Attributes[k] = v
	}
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	return out
}

// ActiveSpan is the handle to a span registered with a Tracer.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Identity fields first; they are immutable after StartSpan.
type ActiveSpan struct {
	tracer   *Tracer
	traceID  string
	spanID   string
	parentID string
	name     string
	start    time.Time

	mu     sync.Mutex // Protects everything below.
	ended  bool
	end    time.Time
	status Status
	attrs  map[Attr]string
}

// TraceID returns the trace ID of this span.
func (a *ActiveSpan) TraceID() string { return a.traceID }

// SpanID returns the span ID of this span.
func (a *ActiveSpan) SpanID() string { return a.spanID }

// ParentSpanID returns the parent's span ID, or "" for a root span.
func (a *ActiveSpan) ParentSpanID() string { return a.parentID }

// Name returns the operation name.
func (a *ActiveSpan) Name() string { return a.name }

// StartTime returns the time the span was started.
func (a *ActiveSpan) StartTime() time.Time { return a.start }

// Status returns the current status, StatusUnset until the span ends.
func (a *ActiveSpan) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Ended reports whether End has completed on this span.
func (a *ActiveSpan) Ended() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ended
}

// SetAttribute records a key-value pair on the span.
// No-op if the span has already ended.
func (a *ActiveSpan) SetAttribute(key Attr, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ended {
		return
	}
	a.attrs[key] = value
}

// Attribute returns the value recorded for key.
func (a *ActiveSpan) Attribute(key Attr) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.attrs[key]
	return v, ok
}

// End completes the span: it records the end time, sets the status
// (StatusOK unless WithStatus says otherwise) and merges any attributes
// given with WithAttributes over the ones already set.
//
// Ending a span twice returns ErrSpanEnded and changes nothing.
func (a *ActiveSpan) End(opts ...EndOption) error {
	if a == nil {
		return ErrNilSpan
	}

	cfg := endConfig{status: StatusOK}
	for _, opt := range opts {
		opt(&cfg)
	}

	a.mu.Lock()
	if a.ended {
		a.mu.Unlock()
		return ErrSpanEnded
	}

	end := a.tracer.clock.Now()
	if end.Before(a.start) {
		end = a.start
	}
	a.ended = true
	a.end = end
	a.status = cfg.status
	for k, v := range cfg.attrs {
		a.attrs[k] = v
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.tracer.spanEnded(snap)
	return nil
}

// Snapshot returns a copy of the span's current state.
func (a *ActiveSpan) Snapshot() Span {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *ActiveSpan) snapshotLocked() Span {
	s := Span{
		TraceID:      a.traceID,
		SpanID:       a.spanID,
		ParentSpanID: a.parentID,
		Name:         a.name,
		StartTime:    a.start,
		Attributes:   make(map[Attr]string, len(a.attrs)),
		Status:       a.status,
	}
	for k, v := range a.attrs {
		s.Attributes[k] = v
	}
	if a.ended {
		end := a.end
		s.EndTime = &end
	}
	return s
}

// EndOption configures End.
type EndOption func(*endConfig)

type endConfig struct {
	attrs  map[Attr]string
	status Status
}

// WithStatus sets the status recorded by End. An empty status or
// StatusUnset leaves the default, StatusOK, in place: an ended span never
// reports UNSET.
func WithStatus(status Status) EndOption {
	return func(c *endConfig) {
		if status == "" || status == StatusUnset {
			return
		}
		c.status = status
	}
}

// WithAttributes merges attrs into the span's attributes when it ends.
// Keys in attrs replace existing values. Repeated options merge in order.
func WithAttributes(attrs map[Attr]string) EndOption {
	return func(c *endConfig) {
		if len(attrs) == 0 {
			return
		}
		if c.attrs == nil {
			c.attrs = make(map[Attr]string, len(attrs))
		}
		for k, v := range attrs {
			c.attrs[k] = v
		}
	}
}
