package dataflow

import "errors"

// Option configures the behavior of pipeline stages.
type Option func(*config)

type config struct {
	workers    int
	bufferSize int
	// errorHandler observes stage errors. In ForEach a true result swallows the error.
	errorHandler func(error) bool
}

var errSkip = errors.New("skip item")

func newConfig(opts []Option) *config {
	cfg := &config{
		workers:    1,
		bufferSize: 0,
	}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithWorkers sets the number of concurrent workers for a stage.
// Default is 1 (sequential).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBufferSize sets the buffer size for the output channel of a stage.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.bufferSize = n
		}
	}
}

// WithErrorHandler sets a custom error handler.
// Map always drops the failed item. ForEach continues when the handler returns true
// and otherwise reports the error once the stream is drained.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}
