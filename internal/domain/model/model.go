// Package model contains domain models passed between layers.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SortOrder controls how entry scores are ranked.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// ScoreType selects how scores are entered and displayed.
type ScoreType string

const (
	ScoreNumber ScoreType = "number"
	ScoreTime   ScoreType = "time" // raw score stored as milliseconds
)

// Visibility gates public readability of a scoreboard.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// StyleScope selects which views a custom style applies to.
type StyleScope string

const (
	ScopeMain  StyleScope = "main"
	ScopeEmbed StyleScope = "embed"
	ScopeBoth  StyleScope = "both"
)

// StyleMap holds a scoreboard's custom style properties. Persisted as a
// JSON text column.
type StyleMap map[string]string

// Value implements driver.Valuer.
func (s StyleMap) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal style: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StyleMap) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported style column type %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("unmarshal style: %w", err)
	}
	return nil
}

// Scoreboard is a ranked list of named entries owned by a single user.
// Rank is never stored; it is derived from entries at read time.
type Scoreboard struct {
	ID          string     `db:"id" json:"id"`
	OwnerID     string     `db:"owner_id" json:"owner_id"`
	Title       string     `db:"title" json:"title"`
	Subtitle    string     `db:"subtitle" json:"subtitle,omitempty"`
	Description string     `db:"description" json:"description,omitempty"`
	SortOrder   SortOrder  `db:"sort_order" json:"sort_order"`
	Visibility  Visibility `db:"visibility" json:"visibility"`
	ScoreType   ScoreType  `db:"score_type" json:"score_type"`
	TimeFormat  string     `db:"time_format" json:"time_format,omitempty"`
	Style       StyleMap   `db:"style" json:"style,omitempty"`
	StyleScope  StyleScope `db:"style_scope" json:"style_scope"`
	Locked      bool       `db:"locked" json:"locked"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Entry is a single named, scored row belonging to a scoreboard.
type Entry struct {
	ID           string    `db:"id" json:"id"`
	ScoreboardID string    `db:"scoreboard_id" json:"scoreboard_id"`
	Name         string    `db:"name" json:"name"`
	Score        float64   `db:"score" json:"score"`
	Details      string    `db:"details" json:"details,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ValidSortOrder reports whether s is a known sort order.
func ValidSortOrder(s SortOrder) bool { return s == SortAsc || s == SortDesc }

// ValidScoreType reports whether t is a known score type.
func ValidScoreType(t ScoreType) bool { return t == ScoreNumber || t == ScoreTime }

// ValidVisibility reports whether v is a known visibility.
func ValidVisibility(v Visibility) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ValidStyleScope reports whether s is a known style scope.
func ValidStyleScope(s StyleScope) bool {
	return s == ScopeMain || s == ScopeEmbed || s == ScopeBoth
}
