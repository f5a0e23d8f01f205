package realtime

import "github.com/okian/tally/pkg/logger"

// Option applies a configuration option to the Broker.
type Option func(*Broker)

// WithBuffer sets the per-subscriber channel buffer.
func WithBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = int64(n)
		}
	}
}

// WithLogger sets a custom logger for the broker.
func WithLogger(log logger.Logger) Option {
	return func(b *Broker) {
		if log != nil {
			b.log = log
		}
	}
}
