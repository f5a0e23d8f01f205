package kiosk

import (
	"time"

	"github.com/okian/tally/pkg/logger"
)

// EngineOption applies a configuration option to the Engine.
type EngineOption func(*Engine)

// WithTransition sets the fixed slide transition duration.
func WithTransition(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.transition = d
		}
	}
}

// WithRefresh sets the deferred-refetch callback.
func WithRefresh(fn RefreshFunc) EngineOption {
	return func(e *Engine) {
		e.refresh = fn
	}
}

// WithOnShow sets the slide-visible callback.
func WithOnShow(fn ShowFunc) EngineOption {
	return func(e *Engine) {
		e.onShow = fn
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
