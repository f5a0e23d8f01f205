package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tally/internal/adapters/realtime"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/ranking"
	"github.com/okian/tally/internal/domain/styles"
	"github.com/okian/tally/internal/kiosk"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// defaultKioskConfig fills in the service-wide defaults when a
// scoreboard has no stored kiosk configuration.
func (s *Service) defaultKioskConfig(scoreboardID string) *model.KioskConfig {
	return &model.KioskConfig{
		ScoreboardID:     scoreboardID,
		SlideDurationSec: int(s.kioskSlideDuration / time.Second),
		TransitionMS:     int(s.kioskTransition / time.Millisecond),
	}
}

// KioskState is a scoreboard's display configuration plus its slides
// and the style the embedded view renders with.
type KioskState struct {
	Config *model.KioskConfig `json:"config"`
	Slides []model.KioskSlide `json:"slides"`
	Style  model.StyleMap     `json:"style"`
}

// KioskState returns the display configuration and slide deck. Boards
// without stored configuration get the defaults; boards without slides
// get a single implicit scoreboard slide.
func (s *Service) KioskState(ctx context.Context, scoreboardID string) (*KioskState, error) {
	sb, err := s.store.GetScoreboard(ctx, scoreboardID)
	if err != nil {
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}
	cfg, err := s.store.GetKioskConfig(ctx, scoreboardID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		cfg = s.defaultKioskConfig(scoreboardID)
	case err != nil:
		return nil, fmt.Errorf("get kiosk config: %w", err)
	}
	slides, err := s.store.ListSlides(ctx, scoreboardID)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	if len(slides) == 0 {
		slides = []model.KioskSlide{{
			ID:           scoreboardID,
			ScoreboardID: scoreboardID,
			Kind:         model.SlideScoreboard,
		}}
	}
	return &KioskState{
		Config: cfg,
		Slides: slides,
		Style:  s.EffectiveStyle(sb, styles.ViewEmbed),
	}, nil
}

// KioskConfigInput carries the writable kiosk configuration. Pin, when
// non-nil and non-empty, replaces the stored PIN; an empty Pin with
// PinEnabled false clears protection.
type KioskConfigInput struct {
	SlideDurationSec int     `json:"slide_duration_sec"`
	TransitionMS     int     `json:"transition_ms"`
	PinEnabled       bool    `json:"pin_enabled"`
	Pin              *string `json:"pin"`
}

// UpdateKioskConfig replaces the scoreboard's display configuration and
// notifies metadata subscribers.
func (s *Service) UpdateKioskConfig(ctx context.Context, scoreboardID, ownerID string, admin bool, in KioskConfigInput) (*model.KioskConfig, error) {
	if _, err := s.ownedScoreboard(ctx, scoreboardID, ownerID, admin); err != nil {
		return nil, err
	}
	if in.SlideDurationSec < 0 || in.TransitionMS < 0 {
		return nil, fmt.Errorf("%w: durations cannot be negative", ErrValidation)
	}

	cfg, err := s.store.GetKioskConfig(ctx, scoreboardID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		cfg = s.defaultKioskConfig(scoreboardID)
	case err != nil:
		return nil, fmt.Errorf("get kiosk config: %w", err)
	}

	if in.SlideDurationSec > 0 {
		cfg.SlideDurationSec = in.SlideDurationSec
	}
	if in.TransitionMS > 0 {
		cfg.TransitionMS = in.TransitionMS
	}
	cfg.PinEnabled = in.PinEnabled
	if in.Pin != nil && *in.Pin != "" {
		cfg.PinHash = kiosk.HashPin(s.pinSecret, scoreboardID, *in.Pin)
	}
	if !in.PinEnabled && (in.Pin == nil || *in.Pin == "") {
		cfg.PinHash = ""
	}
	if cfg.PinEnabled && cfg.PinHash == "" {
		return nil, fmt.Errorf("%w: pin protection requires a pin", ErrValidation)
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := s.store.PutKioskConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("put kiosk config: %w", err)
	}
	s.broker.PublishMetaChanged(ctx, scoreboardID)
	return cfg, nil
}

// SlideInput carries the writable fields of a kiosk slide.
type SlideInput struct {
	Kind        model.SlideKind `json:"kind"`
	ImageURL    string          `json:"image_url"`
	Position    int             `json:"position"`
	DurationSec int             `json:"duration_sec"`
}

// AddSlide appends a slide to the scoreboard's kiosk deck.
func (s *Service) AddSlide(ctx context.Context, scoreboardID, ownerID string, admin bool, in SlideInput) (*model.KioskSlide, error) {
	if _, err := s.ownedScoreboard(ctx, scoreboardID, ownerID, admin); err != nil {
		return nil, err
	}
	if !model.ValidSlideKind(in.Kind) {
		return nil, fmt.Errorf("%w: unknown slide kind %q", ErrValidation, in.Kind)
	}
	if in.Kind == model.SlideImage && in.ImageURL == "" {
		return nil, fmt.Errorf("%w: image slide requires image_url", ErrValidation)
	}
	if in.DurationSec < 0 {
		return nil, fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	}

	sl := &model.KioskSlide{
		ID:           uuid.NewString(),
		ScoreboardID: scoreboardID,
		Kind:         in.Kind,
		ImageURL:     in.ImageURL,
		Position:     in.Position,
		DurationSec:  in.DurationSec,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateSlide(ctx, sl); err != nil {
		return nil, fmt.Errorf("create slide: %w", err)
	}
	s.broker.PublishMetaChanged(ctx, scoreboardID)
	return sl, nil
}

// RemoveSlide deletes a slide from the scoreboard's kiosk deck.
func (s *Service) RemoveSlide(ctx context.Context, scoreboardID, ownerID string, admin bool, slideID string) error {
	if _, err := s.ownedScoreboard(ctx, scoreboardID, ownerID, admin); err != nil {
		return err
	}
	slides, err := s.store.ListSlides(ctx, scoreboardID)
	if err != nil {
		return fmt.Errorf("list slides: %w", err)
	}
	for _, sl := range slides {
		if sl.ID == slideID {
			if err := s.store.DeleteSlide(ctx, slideID); err != nil {
				return fmt.Errorf("delete slide: %w", err)
			}
			s.broker.PublishMetaChanged(ctx, scoreboardID)
			return nil
		}
	}
	return fmt.Errorf("slide %s: %w", slideID, repository.ErrNotFound)
}

// VerifyKioskPin checks a submitted PIN against the stored hash.
func (s *Service) VerifyKioskPin(ctx context.Context, scoreboardID, pin string) error {
	cfg, err := s.store.GetKioskConfig(ctx, scoreboardID)
	if err != nil {
		return fmt.Errorf("get kiosk config: %w", err)
	}
	if !cfg.PinEnabled {
		return nil
	}
	if !kiosk.VerifyPin(s.pinSecret, scoreboardID, pin, cfg.PinHash) {
		metrics.RecordKioskPinFailure()
		return kiosk.ErrBadPin
	}
	return nil
}

// SlideEvent announces a slide becoming visible on a kiosk session.
// Refreshed reports whether entry data was refetched during the
// preceding transition.
type SlideEvent struct {
	SlideID   string          `json:"slide_id"`
	Kind      model.SlideKind `json:"kind"`
	ImageURL  string          `json:"image_url,omitempty"`
	Refreshed bool            `json:"refreshed"`
}

// KioskSession is one live TV display: a carousel engine fed by the
// entries stream through a debouncer, with a snapshot of ranked entries
// refreshed only while a transition hides the scoreboard slide.
type KioskSession struct {
	engine   *kiosk.Engine
	debounce *realtime.Debouncer
	events   chan SlideEvent
	cancel   context.CancelFunc

	mu      sync.RWMutex
	entries []ranking.Ranked
}

// OpenKioskSession builds and starts a kiosk session for scoreboardID.
// The session runs until Close or ctx cancellation.
func (s *Service) OpenKioskSession(ctx context.Context, scoreboardID string) (*KioskSession, error) {
	sb, err := s.store.GetScoreboard(ctx, scoreboardID)
	if err != nil {
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}
	state, err := s.KioskState(ctx, scoreboardID)
	if err != nil {
		return nil, err
	}

	slideDur := time.Duration(state.Config.SlideDurationSec) * time.Second
	if slideDur <= 0 {
		slideDur = s.kioskSlideDuration
	}
	transition := time.Duration(state.Config.TransitionMS) * time.Millisecond
	if transition <= 0 {
		transition = s.kioskTransition
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	car := kiosk.NewCarousel(kiosk.ResolveSlides(state.Slides, slideDur), state.Config.PinEnabled)

	ks := &KioskSession{
		events: make(chan SlideEvent, 8),
		cancel: cancel,
	}
	ks.debounce = realtime.NewDebouncer(s.entriesDebounce, car.MarkRefreshPending)

	if err := ks.loadEntries(sctx, s, sb); err != nil {
		cancel()
		return nil, err
	}

	notifications, err := s.broker.SubscribeEntries(sctx, scoreboardID)
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		for range notifications {
			ks.debounce.Trigger()
		}
	}()

	ks.engine = kiosk.NewEngine(car,
		kiosk.WithTransition(transition),
		kiosk.WithRefresh(func(ctx context.Context) error {
			return ks.loadEntries(ctx, s, sb)
		}),
		kiosk.WithOnShow(func(sl kiosk.Slide, refreshed bool) {
			ev := SlideEvent{SlideID: sl.ID, Kind: sl.Kind, ImageURL: sl.ImageURL, Refreshed: refreshed}
			select {
			case ks.events <- ev:
			default: // slow consumer; drop rather than stall the engine
			}
		}),
		kiosk.WithLogger(s.log.Named("kiosk")),
	)
	go ks.engine.Run(sctx)

	s.log.Info(ctx, "kiosk session opened",
		logger.String("scoreboard_id", scoreboardID),
		logger.Int("slides", car.Len()))
	return ks, nil
}

func (ks *KioskSession) loadEntries(ctx context.Context, s *Service, sb *model.Scoreboard) error {
	ranked, err := s.rankedFor(ctx, sb)
	if err != nil {
		return err
	}
	ks.mu.Lock()
	ks.entries = ranked
	ks.mu.Unlock()
	return nil
}

// Events streams slide-visible announcements.
func (ks *KioskSession) Events() <-chan SlideEvent { return ks.events }

// Entries returns the current ranked snapshot.
func (ks *KioskSession) Entries() []ranking.Ranked {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	out := make([]ranking.Ranked, len(ks.entries))
	copy(out, ks.entries)
	return out
}

// Unlock releases the PIN gate. The caller must have verified the PIN.
func (ks *KioskSession) Unlock() { ks.engine.Unlock() }

// Advance requests a manual slide advance.
func (ks *KioskSession) Advance() { ks.engine.Advance() }

// Pause suspends automatic advancing.
func (ks *KioskSession) Pause() { ks.engine.Pause() }

// Resume re-enables automatic advancing.
func (ks *KioskSession) Resume() { ks.engine.Resume() }

// Close stops the engine and releases the subscription.
func (ks *KioskSession) Close() {
	ks.debounce.Stop()
	ks.cancel()
}
