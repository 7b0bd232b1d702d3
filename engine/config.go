package engine

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"embedscript/internal/optimizer"
)

// Config is the host-facing, serializable form of an Engine's
// compile/runtime limits,
// loadable from a YAML file so a deployment can tune limits without a
// rebuild. github.com/goccy/go-yaml does the decode.
type Config struct {
	OptimizationLevel string `yaml:"optimization_level"` // "none" | "simple" | "full"
	MaxCallDepth      int    `yaml:"max_call_depth"`
	OperationLimit    uint64 `yaml:"operation_limit"`
}

// LoadConfigFile reads and parses a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("engine: parsing config: %w", err)
	}
	return &cfg, nil
}

// Options converts the config into Engine constructor options.
func (c *Config) Options() ([]Option, error) {
	var opts []Option
	level, err := parseOptimizationLevel(c.OptimizationLevel)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithOptimizationLevel(level))
	if c.MaxCallDepth > 0 {
		opts = append(opts, WithMaxCallDepth(c.MaxCallDepth))
	}
	if c.OperationLimit > 0 {
		opts = append(opts, WithOperationLimit(c.OperationLimit))
	}
	return opts, nil
}

func parseOptimizationLevel(s string) (optimizer.Level, error) {
	switch s {
	case "", "simple":
		return optimizer.Simple, nil
	case "none":
		return optimizer.None, nil
	case "full":
		return optimizer.Full, nil
	default:
		return optimizer.None, fmt.Errorf("engine: unknown optimization_level %q", s)
	}
}

// NewFromConfig builds an Engine from a Config, layering any additional
// Options after the config-derived ones so callers can still override a
// specific setting.
func NewFromConfig(cfg *Config, opts ...Option) (*Engine, error) {
	fromCfg, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return New(append(fromCfg, opts...)...), nil
}
