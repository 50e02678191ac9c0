package reliability

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings for the reliability suite.
type Config struct {
	Level         string        `env:"SPANZ_RELIABILITY_LEVEL"`
	Duration      time.Duration `env:"SPANZ_RELIABILITY_DURATION"       envDefault:"30s"`
	MaxGoroutines int           `env:"SPANZ_RELIABILITY_MAX_GOROUTINES" envDefault:"100"`
	MaxDepth      int           `env:"SPANZ_RELIABILITY_MAX_DEPTH"      envDefault:"64"`
}

func parseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadConfig reads the suite settings and fails t on malformed values.
func loadConfig(t testing.TB) Config {
	t.Helper()
	cfg, err := parseConfig()
	if err != nil {
		t.Fatalf("reliability config: %v", err)
	}
	return cfg
}

func (c Config) stressEnabled() bool { return c.Level == "stress" }

func (c Config) skip() bool { return c.Level == "" }
