package spanz

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SpanHandler is called with a copy of each span as it ends.
type SpanHandler func(span Span)

type handlerEntry struct {
	handler SpanHandler
	id      uint64
	async   bool
}

// Tracer is the span registry. It owns every span it starts, grouped by
// trace ID in creation order, for its whole lifetime.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for functionality over memory
type Tracer struct {
	traces map[string][]*ActiveSpan
	index  map[string]*ActiveSpan // span ID -> span
	order  []string               // trace IDs, first seen first
	mu     sync.RWMutex

	handlers     []handlerEntry
	panicHook    func(handlerID uint64, r interface{})
	async        errgroup.Group
	workers      chan struct{} // nil until EnableWorkerPool
	closed       bool
	handlersLock sync.RWMutex
	nextID       atomic.Uint64

	newID   func() string
	idPool  *IDPool
	clock   clockz.Clock
	logger  *zap.Logger
	metrics *Metrics
	sink    Sink
	service string
}

// New creates a tracer for the named service.
// Uses the real clock, crypto/rand, no logging, and exports to stdout.
func New(service string) *Tracer {
	return &Tracer{
		traces:  make(map[string][]*ActiveSpan),
		index:   make(map[string]*ActiveSpan),
		newID:   NewID,
		clock:   clockz.RealClock,
		logger:  zap.NewNop(),
		sink:    NewWriterSink(os.Stdout, true),
		service: service,
	}
}

// WithClock sets the clock used for start and end times.
// Enables clock injection for deterministic testing.
// The With methods configure a tracer before its first span.
func (t *Tracer) WithClock(clock clockz.Clock) *Tracer {
	t.clock = clock
	return t
}

// WithLogger sets the logger for span lifecycle events.
func (t *Tracer) WithLogger(logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t.logger = logger.With(zap.String("service", t.service))
	return t
}

// WithRandom sets the source of identifier bytes. r must be
// cryptographically secure; a read error panics with *EntropyError.
func (t *Tracer) WithRandom(r io.Reader) *Tracer {
	if r == nil {
		r = rand.Reader
	}
	t.newID = idFactory(r)
	if t.idPool != nil {
		t.WithIDPool(cap(t.idPool.ids))
	}
	return t
}

// WithIDPool pre-generates up to size identifiers in the background.
// A size of zero or less disables pooling.
func (t *Tracer) WithIDPool(size int) *Tracer {
	if t.idPool != nil {
		t.idPool.Close()
		t.idPool = nil
	}
	if size > 0 {
		t.idPool = NewIDPool(size, t.newID)
	}
	return t
}

// WithMetrics records span counters on m.
func (t *Tracer) WithMetrics(m *Metrics) *Tracer {
	t.metrics = m
	return t
}

// WithSink sets the destination used by ExportTraces.
func (t *Tracer) WithSink(sink Sink) *Tracer {
	t.sink = sink
	return t
}

// Service returns the service name the tracer was created with.
func (t *Tracer) Service() string {
	return t.service
}

// StartOption configures StartSpan.
type StartOption func(*startConfig)

type startConfig struct {
	parentSpanID string
}

// WithParent makes the new span a child of the registered span parentSpanID.
// An empty ID starts a root span.
func WithParent(parentSpanID string) StartOption {
	return func(c *startConfig) {
		c.parentSpanID = parentSpanID
	}
}

// StartSpan registers a new span. Without a parent it starts a new trace.
// With WithParent the span joins the parent's trace; a parent the tracer
// does not know yields an *UnknownParentError and nothing is registered.
func (t *Tracer) StartSpan(operation Key, opts ...StartOption) (*ActiveSpan, error) {
	var cfg startConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	span := &ActiveSpan{
		tracer:   t,
		spanID:   t.generateID(),
		parentID: cfg.parentSpanID,
		name:     operation,
		status:   StatusUnset,
		attrs:    make(map[Attr]string),
	}

	var traceID string
	if cfg.parentSpanID == "" {
		traceID = t.generateID()
	}

	t.mu.Lock()
	if cfg.parentSpanID != "" {
		parent, ok := t.index[cfg.parentSpanID]
		if !ok {
			t.mu.Unlock()
			return nil, &UnknownParentError{ParentSpanID: cfg.parentSpanID}
		}
		traceID = parent.traceID
	}
	span.traceID = traceID
	span.start = t.clock.Now()

	spans, known := t.traces[traceID]
	if !known {
		t.order = append(t.order, traceID)
	}
	t.traces[traceID] = append(spans, span)
	t.index[span.spanID] = span
	t.mu.Unlock()

	if !known {
		t.metrics.traceStarted()
	}
	t.metrics.spanStarted()
	t.logger.Debug("span started",
		zap.String("trace_id", span.traceID),
		zap.String("span_id", span.spanID),
		zap.String("parent_span_id", span.parentID),
		zap.String("name", span.name),
	)

	return span, nil
}

// Start is StartSpan with the parent taken from ctx. The returned context
// carries the new span. Options override the parent found in ctx.
func (t *Tracer) Start(ctx context.Context, operation Key, opts ...StartOption) (context.Context, *ActiveSpan, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if parent := SpanFromContext(ctx); parent != nil {
		opts = append([]StartOption{WithParent(parent.spanID)}, opts...)
	}

	span, err := t.StartSpan(operation, opts...)
	if err != nil {
		return ctx, nil, err
	}
	return ContextWithSpan(ctx, span), span, nil
}

// EndSpan ends span. See ActiveSpan.End.
func (t *Tracer) EndSpan(span *ActiveSpan, opts ...EndOption) error {
	if span == nil {
		return ErrNilSpan
	}
	return span.End(opts...)
}

// GetTrace returns copies of the spans recorded under traceID in the order
// they were started. Unknown trace IDs yield nil.
func (t *Tracer) GetTrace(traceID string) []Span {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return snapshotSpans(t.traces[traceID])
}

// TraceIDs returns every known trace ID in the order each trace started.
func (t *Tracer) TraceIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids
}

// SpanCount returns the number of spans registered.
func (t *Tracer) SpanCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.index)
}

// Snapshot returns a copy of the whole registry, keyed by trace ID.
// The registry lock is held for the duration of the copy.
func (t *Tracer) Snapshot() Traces {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(Traces, len(t.traces))
	for id, spans := range t.traces {
		out[id] = snapshotSpans(spans)
	}
	return out
}

func snapshotSpans(spans []*ActiveSpan) []Span {
	if len(spans) == 0 {
		return nil
	}
	out := make([]Span, len(spans))
	for i, s := range spans {
		out[i] = s.Snapshot()
	}
	return out
}

// ExportTraces writes a snapshot of every trace to the tracer's sink.
func (t *Tracer) ExportTraces(ctx context.Context) error {
	return t.ExportTo(ctx, t.sink)
}

// ExportTo writes a snapshot of every trace to sink. Registry state is not
// changed. Sink errors are returned as *ExportError.
func (t *Tracer) ExportTo(ctx context.Context, sink Sink) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if sink == nil {
		return &ExportError{Op: "write", Err: errors.New("no sink configured")}
	}

	traces := t.Snapshot()
	if err := sink.Export(ctx, traces); err != nil {
		var exportErr *ExportError
		if !errors.As(err, &exportErr) {
			err = &ExportError{Op: "write", Err: err}
		}
		t.metrics.exportFailed()
		return err
	}

	t.logger.Debug("traces exported", zap.Int("traces", len(traces)))
	return nil
}

// OnSpanEnd registers a handler called synchronously, on the goroutine
// that ends the span. Returns an ID for RemoveHandler.
func (t *Tracer) OnSpanEnd(handler SpanHandler) uint64 {
	return t.registerHandler(handler, false)
}

// OnSpanEndAsync registers a handler called on its own goroutine.
// Concurrency is bounded by EnableWorkerPool, if set. Handlers registered
// after Close are never called.
func (t *Tracer) OnSpanEndAsync(handler SpanHandler) uint64 {
	return t.registerHandler(handler, true)
}

func (t *Tracer) registerHandler(handler SpanHandler, async bool) uint64 {
	if handler == nil {
		return 0
	}

	id := t.nextID.Add(1)

	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	t.handlers = append(t.handlers, handlerEntry{
		id:      id,
		handler: handler,
		async:   async,
	})

	return id
}

// RemoveHandler removes a handler by ID.
func (t *Tracer) RemoveHandler(id uint64) {
	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	// Preserve order
	for i, h := range t.handlers {
		if h.id == id {
			copy(t.handlers[i:], t.handlers[i+1:])
			t.handlers = t.handlers[:len(t.handlers)-1]
			return
		}
	}
}

// HasHandlers reports whether any span handler is registered.
func (t *Tracer) HasHandlers() bool {
	t.handlersLock.RLock()
	defer t.handlersLock.RUnlock()
	return len(t.handlers) > 0
}

// SetPanicHook sets a function to be called when a handler panics.
func (t *Tracer) SetPanicHook(hook func(handlerID uint64, r interface{})) {
	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()
	t.panicHook = hook
}

// EnableWorkerPool bounds the number of async handlers running at once.
// Handlers over the bound wait for a free worker; End never blocks on them.
// Handlers already scheduled when the pool is enabled are not bounded.
func (t *Tracer) EnableWorkerPool(workers int) error {
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}

	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	if t.workers != nil {
		return errors.New("worker pool already enabled")
	}
	t.workers = make(chan struct{}, workers)
	return nil
}

// spanEnded runs after a span's End succeeds.
func (t *Tracer) spanEnded(span Span) {
	t.metrics.spanEnded(span.Status)
	t.logger.Debug("span ended",
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.String("status", string(span.Status)),
		zap.Duration("duration", span.Duration()),
	)
	t.executeHandlers(span)
}

// executeHandlers calls all registered handlers, each with its own copy.
// Async handlers are scheduled under handlersLock so Close cannot start
// waiting between the closed check and the schedule.
func (t *Tracer) executeHandlers(span Span) {
	t.handlersLock.RLock()
	if t.closed || len(t.handlers) == 0 {
		t.handlersLock.RUnlock()
		return
	}

	hook := t.panicHook
	sem := t.workers
	var syncHandlers []handlerEntry
	for _, h := range t.handlers {
		entry := h
		if !entry.async {
			syncHandlers = append(syncHandlers, entry)
			continue
		}
		s := span.clone()
		t.async.Go(func() error {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			safeCall(entry, s, hook)
			return nil
		})
	}
	t.handlersLock.RUnlock()

	for _, entry := range syncHandlers {
		safeCall(entry, span.clone(), hook)
	}
}

func safeCall(entry handlerEntry, span Span, hook func(uint64, interface{})) {
	defer func() {
		if r := recover(); r != nil {
			if hook != nil {
				hook(entry.id, r)
			}
		}
	}()
	entry.handler(span)
}

// Close removes all handlers, waits for in-flight async handlers and stops
// the ID pool. Spans ending after Close run no handlers. Spans remain
// queryable and exportable after Close.
func (t *Tracer) Close() {
	t.handlersLock.Lock()
	t.closed = true
	t.handlers = nil
	t.handlersLock.Unlock()

	_ = t.async.Wait()

	if t.idPool != nil {
		t.idPool.Close()
	}
}

// generateID returns a fresh identifier, from the pool when enabled.
func (t *Tracer) generateID() string {
	if t.idPool != nil {
		return t.idPool.Get()
	}
	return t.newID()
}
