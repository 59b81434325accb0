package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits is the explicit retry and throughput policy applied around the
// single provider-call boundary.
type Limits struct {
	MaxRetries     int             `yaml:"max_retries" validate:"min=0,max=10"`
	RequestTimeout time.Duration   `yaml:"request_timeout" validate:"min=10s,max=1h"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"min=1,max=600"`
	BurstSize         int `yaml:"burst_size" validate:"min=1,max=60"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxRetries:     3,
		RequestTimeout: 2 * time.Minute,
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         3,
		},
	}
}

// UnmarshalYAML accepts request_timeout as a duration string ("30s",
// "2m") rather than raw nanoseconds.
func (l *Limits) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxRetries     int             `yaml:"max_retries"`
		RequestTimeout string          `yaml:"request_timeout"`
		RateLimit      RateLimitConfig `yaml:"rate_limit"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	l.MaxRetries = raw.MaxRetries
	l.RateLimit = raw.RateLimit
	if raw.RequestTimeout != "" {
		d, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parsing request_timeout: %w", err)
		}
		l.RequestTimeout = d
	}
	return nil
}
