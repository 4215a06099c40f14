package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BenchPath string   // HCL bench file
	Units     []string // explicit unit selection; empty means all discovered

	LogFormat  string
	LogLevel   string
	StatusPort int
	Workers    int  // overrides the bench's worker count when > 0
	FailFast   bool // overrides continue_on_error when set
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.BenchPath == "" {
		return nil, errors.New("BenchPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("Workers must not be negative")
	}

	return &cfg, nil
}
