package reconcile

import "time"

// Config controls the reconciliation worker loop.
type Config struct {
	Interval time.Duration
	Enabled  bool
}

func DefaultConfig() Config {
	return Config{
		Interval: 15 * time.Minute,
		Enabled:  true,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	return c
}
