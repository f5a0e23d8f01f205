package kiosk

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Default engine timing constants.
const (
	defaultTransition     = 400 * time.Millisecond
	engineShutdownTimeout = 5 * time.Second
	pausePollInterval     = 100 * time.Millisecond
)

// RefreshFunc refetches entry data before the scoreboard slide becomes
// visible.
type RefreshFunc func(ctx context.Context) error

// ShowFunc observes each slide as it becomes visible.
type ShowFunc func(slide Slide, refreshed bool)

// Engine drives a Carousel with real timers: automatic advance after the
// per-slide duration, manual advance, pause/resume, and the PIN gate.
type Engine struct {
	car        *Carousel
	transition time.Duration
	refresh    RefreshFunc
	onShow     ShowFunc

	advanceCh chan struct{}
	unlockCh  chan struct{}
	shutdown  chan struct{}
	done      chan struct{}

	log logger.Logger
}

// NewEngine creates an engine over car with configuration options.
func NewEngine(car *Carousel, opts ...EngineOption) *Engine {
	e := &Engine{
		car:        car,
		transition: defaultTransition,
		advanceCh:  make(chan struct{}, 1),
		unlockCh:   make(chan struct{}, 1),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        logger.Get().Named("kiosk"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Advance requests a manual advance (keyboard/click).
func (e *Engine) Advance() {
	select {
	case e.advanceCh <- struct{}{}:
	default: // an advance is already queued
	}
}

// Unlock releases the PIN gate after a successful server-side verify.
func (e *Engine) Unlock() {
	e.car.Unlock()
	select {
	case e.unlockCh <- struct{}{}:
	default:
	}
}

// Pause suspends the automatic timer without resetting position.
func (e *Engine) Pause() { e.car.Pause() }

// Resume restarts the automatic timer at the current slide.
func (e *Engine) Resume() { e.car.Resume() }

// Run drives the carousel until ctx is cancelled or Shutdown is called.
// The first slide is shown immediately after the PIN gate (if any)
// clears.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	if e.car.Len() == 0 {
		e.log.Warn(ctx, "kiosk engine started with no slides")
		return
	}

	// PIN gate precedes all slide display.
	if e.car.Locked() {
		select {
		case <-ctx.Done():
			return
		case <-e.shutdown:
			return
		case <-e.unlockCh:
		}
	}

	if slide, _ := e.car.Current(); e.onShow != nil {
		e.onShow(slide, false)
	}

	for {
		slide, _ := e.car.Current()
		timer := time.NewTimer(slide.Duration)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-e.shutdown:
			timer.Stop()
			return
		case <-e.advanceCh:
			timer.Stop()
			if !e.step(ctx) {
				return
			}
		case <-timer.C:
			if e.car.Paused() {
				// Suspended: hold position until resumed or advanced.
				if !e.waitResume(ctx) {
					return
				}
				continue
			}
			if !e.step(ctx) {
				return
			}
		}
	}
}

// step performs one transition. Returns false when the engine should
// stop.
func (e *Engine) step(ctx context.Context) bool {
	next, needsRefresh := e.car.BeginAdvance()

	refreshed := false
	if needsRefresh && e.refresh != nil {
		// Refetch while the fade hides the slide so stale data is never
		// visible.
		if err := e.refresh(ctx); err != nil {
			e.log.Warn(ctx, "deferred refresh failed", logger.Error(err))
		} else {
			refreshed = true
			metrics.RecordKioskDeferredRefresh()
		}
	}

	select {
	case <-ctx.Done():
		return false
	case <-e.shutdown:
		return false
	case <-time.After(e.transition):
	}

	e.car.CompleteAdvance()
	metrics.RecordKioskTransition()
	if e.onShow != nil {
		e.onShow(next, refreshed)
	}
	return true
}

// waitResume blocks while paused, still honoring manual advance and
// shutdown. Returns false when the engine should stop.
func (e *Engine) waitResume(ctx context.Context) bool {
	ticker := time.NewTicker(pausePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-e.shutdown:
			return false
		case <-e.advanceCh:
			return e.step(ctx)
		case <-ticker.C:
			if !e.car.Paused() {
				return true
			}
		}
	}
}

// Shutdown gracefully stops the engine.
func (e *Engine) Shutdown(ctx context.Context) error {
	close(e.shutdown)
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kiosk shutdown timed out: %w", ctx.Err())
	case <-time.After(engineShutdownTimeout):
		return ErrShutdownTimeout
	}
}
