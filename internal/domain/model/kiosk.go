package model

import "time"

// SlideKind distinguishes kiosk slide content.
type SlideKind string

const (
	SlideImage      SlideKind = "image"
	SlideScoreboard SlideKind = "scoreboard"
)

// KioskConfig is the per-scoreboard TV display configuration.
type KioskConfig struct {
	ScoreboardID     string    `db:"scoreboard_id" json:"scoreboard_id"`
	SlideDurationSec int       `db:"slide_duration_sec" json:"slide_duration_sec"`
	TransitionMS     int       `db:"transition_ms" json:"transition_ms"`
	PinEnabled       bool      `db:"pin_enabled" json:"pin_enabled"`
	PinHash          string    `db:"pin_hash" json:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// KioskSlide is one carousel slide. DurationSec of zero falls back to the
// config's global slide duration.
type KioskSlide struct {
	ID           string    `db:"id" json:"id"`
	ScoreboardID string    `db:"scoreboard_id" json:"scoreboard_id"`
	Kind         SlideKind `db:"kind" json:"kind"`
	ImageURL     string    `db:"image_url" json:"image_url,omitempty"`
	Position     int       `db:"position" json:"position"`
	DurationSec  int       `db:"duration_sec" json:"duration_sec,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ValidSlideKind reports whether k is a known slide kind.
func ValidSlideKind(k SlideKind) bool { return k == SlideImage || k == SlideScoreboard }
