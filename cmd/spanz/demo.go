package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/zoobzio/spanz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

type demoOptions struct {
	out         string
	logLevel    string
	requests    int
	concurrency int
	tree        bool
}

func newDemoCommand() *cobra.Command {
	var opts demoOptions

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Trace a simulated request workload and export it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&opts.requests, "requests", 10, "number of simulated requests")
	fs.IntVar(&opts.concurrency, "concurrency", 4, "requests traced at once")
	fs.StringVar(&opts.out, "out", "", "write the export to this file instead of stdout")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level; overrides SPANZ_LOG_LEVEL")
	fs.BoolVar(&opts.tree, "tree", true, "print each trace as a tree before exporting")
	return cmd
}

func runDemo(ctx context.Context, stdout, stderr io.Writer, opts demoOptions) error {
	if opts.requests < 0 || opts.concurrency <= 0 {
		return fmt.Errorf("requests must be >= 0 and concurrency > 0")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := spanz.LoadConfig()
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		var level zapcore.Level
		if err := level.Set(opts.logLevel); err != nil {
			return fmt.Errorf("unknown log level %q", opts.logLevel)
		}
		cfg.LogLevel = level
	}

	logger := newLogger(stderr, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	out := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	tracer, err := spanz.NewFromConfig(cfg, logger, out)
	if err != nil {
		return err
	}
	defer tracer.Close()

	reg := prometheus.NewRegistry()
	tracer.WithMetrics(spanz.NewMetrics(reg))

	collector := spanz.NewCollector()
	tracer.OnSpanEnd(collector.Collect)
	tracer.OnSpanEndAsync(spanz.LogCompleted(logger.Named("completed")))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i := 0; i < opts.requests; i++ {
		n := i
		g.Go(func() error {
			return handleRequest(gctx, tracer, n)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("workload complete",
		zap.Int("traces", len(tracer.TraceIDs())),
		zap.Int("spans", tracer.SpanCount()),
		zap.Int("completed", collector.Count()),
	)

	if err := logMetrics(logger, reg); err != nil {
		return err
	}

	if opts.tree {
		for _, id := range tracer.TraceIDs() {
			for _, root := range spanz.BuildTree(tracer.GetTrace(id)) {
				fmt.Fprintf(stderr, "trace %s\n%s", id, root)
			}
		}
	}

	return tracer.ExportTraces(ctx)
}

// logMetrics writes one debug line per counter series in reg.
func logMetrics(logger *zap.Logger, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName()), zap.Float64("value", m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			logger.Debug("metric", fields...)
		}
	}
	return nil
}
