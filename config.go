package spanz

import (
	"errors"
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds tracer settings read from the environment.
type Config struct {
	ServiceName    string        `env:"SPANZ_SERVICE_NAME"    envDefault:"spanz"`
	IDPoolSize     int           `env:"SPANZ_ID_POOL_SIZE"    envDefault:"0"`
	HandlerWorkers int           `env:"SPANZ_HANDLER_WORKERS" envDefault:"4"`
	LogLevel       zapcore.Level `env:"SPANZ_LOG_LEVEL"       envDefault:"info"`
	ExportIndent   bool          `env:"SPANZ_EXPORT_INDENT"   envDefault:"true"`
}

// LoadConfig reads Config from SPANZ_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("spanz: parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports settings no tracer can be built from.
func (c Config) Validate() error {
	if c.IDPoolSize < 0 {
		return errors.New("spanz: id pool size must be >= 0")
	}
	if c.HandlerWorkers < 0 {
		return errors.New("spanz: handler workers must be >= 0")
	}
	return nil
}

// NewFromConfig builds a tracer from cfg that exports JSON to out.
// A zero HandlerWorkers leaves async handlers unbounded.
func NewFromConfig(cfg Config, logger *zap.Logger, out io.Writer) (*Tracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := New(cfg.ServiceName).
		WithLogger(logger).
		WithIDPool(cfg.IDPoolSize).
		WithSink(NewWriterSink(out, cfg.ExportIndent))

	if cfg.HandlerWorkers > 0 {
		if err := t.EnableWorkerPool(cfg.HandlerWorkers); err != nil {
			t.Close()
			return nil, err
		}
	}
	return t, nil
}
