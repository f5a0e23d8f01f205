// Package kiosk drives the unauthenticated TV display: a cyclic carousel
// of image and scoreboard slides with an optional PIN gate.
package kiosk

import (
	"sync"
	"time"

	"github.com/okian/tally/internal/domain/model"
)

// State is the carousel's display state.
type State int

const (
	// StatePinLocked precedes all slide display when PIN protection is on.
	StatePinLocked State = iota
	// StateShowing displays the current slide.
	StateShowing
	// StateTransitioning is the fade between two slides.
	StateTransitioning
)

func (s State) String() string {
	switch s {
	case StatePinLocked:
		return "pin_locked"
	case StateShowing:
		return "showing"
	case StateTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// Slide is one carousel position with its resolved display duration.
type Slide struct {
	ID       string
	Kind     model.SlideKind
	ImageURL string
	Duration time.Duration
}

// ResolveSlides converts stored slides to carousel slides, applying the
// per-slide duration override or the config default.
func ResolveSlides(stored []model.KioskSlide, defaultDuration time.Duration) []Slide {
	out := make([]Slide, len(stored))
	for i, s := range stored {
		d := defaultDuration
		if s.DurationSec > 0 {
			d = time.Duration(s.DurationSec) * time.Second
		}
		out[i] = Slide{ID: s.ID, Kind: s.Kind, ImageURL: s.ImageURL, Duration: d}
	}
	return out
}

// Carousel is the pure state machine: cyclic, no terminal state, initial
// position is the first slide in stored order. It owns no timers; an
// Engine drives it.
type Carousel struct {
	mu             sync.Mutex
	slides         []Slide
	idx            int
	state          State
	paused         bool
	pendingRefresh bool
}

// NewCarousel creates a carousel over slides. locked starts the machine
// in StatePinLocked.
func NewCarousel(slides []Slide, locked bool) *Carousel {
	c := &Carousel{slides: slides, state: StateShowing}
	if locked {
		c.state = StatePinLocked
	}
	return c
}

// Current returns the current slide and state.
func (c *Carousel) Current() (Slide, State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 {
		return Slide{}, c.state
	}
	return c.slides[c.idx], c.state
}

// Unlock leaves the PIN gate. No-op when not locked.
func (c *Carousel) Unlock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePinLocked {
		c.state = StateShowing
	}
}

// Locked reports whether the PIN gate is still up.
func (c *Carousel) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StatePinLocked
}

// BeginAdvance starts the transition to the next slide (wrapping from
// last to first) and reports the upcoming slide plus whether a pending
// refresh must be applied before it becomes visible. The refresh flag is
// consumed only when the upcoming slide shows the scoreboard; an image
// slide leaves it set for later.
func (c *Carousel) BeginAdvance() (next Slide, needsRefresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 || c.state == StatePinLocked {
		return Slide{}, false
	}
	c.state = StateTransitioning
	c.idx = (c.idx + 1) % len(c.slides)
	next = c.slides[c.idx]
	if next.Kind == model.SlideScoreboard && c.pendingRefresh {
		c.pendingRefresh = false
		needsRefresh = true
	}
	return next, needsRefresh
}

// CompleteAdvance finishes the transition; the new slide is visible.
func (c *Carousel) CompleteAdvance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateTransitioning {
		c.state = StateShowing
	}
}

// Pause suspends automatic advancing without resetting position.
func (c *Carousel) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume re-enables automatic advancing.
func (c *Carousel) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// Paused reports whether automatic advancing is suspended.
func (c *Carousel) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// MarkRefreshPending records that entry data changed; the refetch is
// deferred until the scoreboard slide is next shown.
func (c *Carousel) MarkRefreshPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingRefresh = true
}

// RefreshPending reports whether a deferred refetch is queued.
func (c *Carousel) RefreshPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingRefresh
}

// Len returns the slide count.
func (c *Carousel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slides)
}
