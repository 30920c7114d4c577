package editor

import "time"

type Config struct {
	// Debounce is the quiet period after the last edit before a full-list save starts.
	Debounce time.Duration
	// RetryBase is the first backoff delay; each further retry doubles it.
	RetryBase  time.Duration
	MaxRetries int
	// RequestTimeout bounds every individual remote call.
	RequestTimeout time.Duration
	HistoryLimit   int
}

func DefaultConfig() Config {
	return Config{
		Debounce:       2 * time.Second,
		RetryBase:      time.Second,
		MaxRetries:     3,
		RequestTimeout: 15 * time.Second,
		HistoryLimit:   50,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.RetryBase <= 0 {
		c.RetryBase = d.RetryBase
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	return c
}
