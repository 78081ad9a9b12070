package session

import (
	"time"
)

const (
	DefaultDecodeTimeout = 50 * time.Millisecond
)

type Config struct {
	// DecodeTimeout is how long Decode waits for the decoder to produce
	// an output before giving up on the current chunk.
	DecodeTimeout time.Duration `yaml:"decode_timeout,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		DecodeTimeout: DefaultDecodeTimeout,
	}
}

func (cfg Config) withDefaults() Config {
	if cfg.DecodeTimeout <= 0 {
		cfg.DecodeTimeout = DefaultDecodeTimeout
	}
	return cfg
}
