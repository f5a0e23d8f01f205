// Package app wires the domain packages into the application service:
// scoreboard and entry lifecycle, derived ranking reads, deferred
// deletes, CSV export, kiosk sessions and billing webhook processing.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tally/internal/adapters/realtime"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/domain/billing"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/internal/domain/export"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/ranking"
	"github.com/okian/tally/internal/domain/styles"
	"github.com/okian/tally/internal/domain/timefmt"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Service defaults.
const (
	defaultPageSize           = 20
	defaultPendingDeleteDelay = 5 * time.Second
	defaultEntriesDebounce    = 2 * time.Second
	defaultSlideDuration      = 10 * time.Second
	defaultKioskTransition    = 400 * time.Millisecond
	defaultPinSecret          = "tally-kiosk"

	maxTitleLen   = 200
	maxNameLen    = 200
	maxDetailsLen = 1000
)

// IdentityDeleter removes a user from the external identity provider.
type IdentityDeleter interface {
	DeleteIdentity(ctx context.Context, userID string) error
}

// Service is the application facade the HTTP layer calls into.
type Service struct {
	store    repository.Store
	broker   *realtime.Broker
	pending  *PendingDeletes
	deduper  dedupe.Deduper
	variants billing.VariantTable
	identity IdentityDeleter

	pageSize           int
	pendingDelay       time.Duration
	webhookSecret      string
	pinSecret          string
	kioskSlideDuration time.Duration
	kioskTransition    time.Duration
	entriesDebounce    time.Duration

	log logger.Logger
}

// New creates a Service over store and broker with configuration
// options.
func New(store repository.Store, broker *realtime.Broker, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrValidation)
	}
	if broker == nil {
		return nil, fmt.Errorf("%w: nil broker", ErrValidation)
	}
	s := &Service{
		store:              store,
		broker:             broker,
		deduper:            dedupe.NewInMemoryDeduper(),
		variants:           billing.VariantTable{},
		pageSize:           defaultPageSize,
		pendingDelay:       defaultPendingDeleteDelay,
		pinSecret:          defaultPinSecret,
		kioskSlideDuration: defaultSlideDuration,
		kioskTransition:    defaultKioskTransition,
		entriesDebounce:    defaultEntriesDebounce,
		log:                logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pending = NewPendingDeletes(s.pendingDelay, s.log)
	return s, nil
}

// Stop cancels pending timers. Scheduled deletions that have not fired
// are abandoned, not executed.
func (s *Service) Stop() {
	s.pending.StopAll()
}

// CreateScoreboardInput carries the writable fields of a new scoreboard.
type CreateScoreboardInput struct {
	Title       string           `json:"title"`
	Subtitle    string           `json:"subtitle"`
	Description string           `json:"description"`
	SortOrder   model.SortOrder  `json:"sort_order"`
	Visibility  model.Visibility `json:"visibility"`
	ScoreType   model.ScoreType  `json:"score_type"`
	TimeFormat  string           `json:"time_format"`
	Style       model.StyleMap   `json:"style"`
	StyleScope  model.StyleScope `json:"style_scope"`
}

// CreateScoreboard validates input and persists a new scoreboard owned
// by ownerID. Sort order and score type are fixed for the board's
// lifetime.
func (s *Service) CreateScoreboard(ctx context.Context, ownerID string, in CreateScoreboardInput) (*model.Scoreboard, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing owner", ErrForbidden)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrValidation, maxTitleLen)
	}
	if in.SortOrder == "" {
		in.SortOrder = model.SortDesc
	}
	if !model.ValidSortOrder(in.SortOrder) {
		return nil, fmt.Errorf("%w: unknown sort order %q", ErrValidation, in.SortOrder)
	}
	if in.Visibility == "" {
		in.Visibility = model.VisibilityPrivate
	}
	if !model.ValidVisibility(in.Visibility) {
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrValidation, in.Visibility)
	}
	if in.ScoreType == "" {
		in.ScoreType = model.ScoreNumber
	}
	if !model.ValidScoreType(in.ScoreType) {
		return nil, fmt.Errorf("%w: unknown score type %q", ErrValidation, in.ScoreType)
	}
	if in.ScoreType == model.ScoreTime {
		if in.TimeFormat == "" {
			in.TimeFormat = timefmt.MinutesSecondsMs
		}
		if !timefmt.Valid(in.TimeFormat) {
			return nil, fmt.Errorf("%w: unknown time format %q", ErrValidation, in.TimeFormat)
		}
	} else {
		in.TimeFormat = ""
	}
	if in.StyleScope == "" {
		in.StyleScope = model.ScopeBoth
	}
	if !model.ValidStyleScope(in.StyleScope) {
		return nil, fmt.Errorf("%w: unknown style scope %q", ErrValidation, in.StyleScope)
	}

	now := time.Now().UTC()
	sb := &model.Scoreboard{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Subtitle:    strings.TrimSpace(in.Subtitle),
		Description: strings.TrimSpace(in.Description),
		SortOrder:   in.SortOrder,
		Visibility:  in.Visibility,
		ScoreType:   in.ScoreType,
		TimeFormat:  in.TimeFormat,
		Style:       in.Style,
		StyleScope:  in.StyleScope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateScoreboard(ctx, sb); err != nil {
		return nil, fmt.Errorf("create scoreboard: %w", err)
	}
	s.log.Info(ctx, "scoreboard created",
		logger.String("scoreboard_id", sb.ID), logger.String("owner_id", ownerID))
	return sb, nil
}

// Scoreboard fetches one scoreboard, enforcing visibility: private
// boards are readable only by their owner or an admin.
func (s *Service) Scoreboard(ctx context.Context, id, viewerID string, admin bool) (*model.Scoreboard, error) {
	sb, err := s.store.GetScoreboard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}
	if err := authorizeRead(sb, viewerID, admin); err != nil {
		return nil, err
	}
	return sb, nil
}

// EffectiveStyle returns the style map a view should render: the
// board's custom style resolved over its preset when the style scope
// covers the view, the bare default preset otherwise.
func (s *Service) EffectiveStyle(sb *model.Scoreboard, view styles.View) model.StyleMap {
	if !styles.AppliesTo(sb.StyleScope, view) {
		return styles.Resolve(nil)
	}
	return styles.Resolve(sb.Style)
}

func authorizeRead(sb *model.Scoreboard, viewerID string, admin bool) error {
	if sb.Visibility == model.VisibilityPublic || admin || sb.OwnerID == viewerID {
		return nil
	}
	return fmt.Errorf("%w: scoreboard is private", ErrForbidden)
}

func (s *Service) ownedScoreboard(ctx context.Context, id, ownerID string, admin bool) (*model.Scoreboard, error) {
	sb, err := s.store.GetScoreboard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}
	if !admin && sb.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: not the owner", ErrForbidden)
	}
	return sb, nil
}

// UpdateScoreboardInput carries optional scoreboard mutations. Nil
// fields stay unchanged. Sort order and score type are immutable.
type UpdateScoreboardInput struct {
	Title       *string           `json:"title"`
	Subtitle    *string           `json:"subtitle"`
	Description *string           `json:"description"`
	Visibility  *model.Visibility `json:"visibility"`
	TimeFormat  *string           `json:"time_format"`
	Style       *model.StyleMap   `json:"style"`
	StyleScope  *model.StyleScope `json:"style_scope"`
	Locked      *bool             `json:"locked"`
}

// UpdateScoreboard applies in to the scoreboard and notifies metadata
// subscribers.
func (s *Service) UpdateScoreboard(ctx context.Context, id, ownerID string, admin bool, in UpdateScoreboardInput) (*model.Scoreboard, error) {
	sb, err := s.ownedScoreboard(ctx, id, ownerID, admin)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" || len(t) > maxTitleLen {
			return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrValidation, maxTitleLen)
		}
		sb.Title = t
	}
	if in.Subtitle != nil {
		sb.Subtitle = strings.TrimSpace(*in.Subtitle)
	}
	if in.Description != nil {
		sb.Description = strings.TrimSpace(*in.Description)
	}
	if in.Visibility != nil {
		if !model.ValidVisibility(*in.Visibility) {
			return nil, fmt.Errorf("%w: unknown visibility %q", ErrValidation, *in.Visibility)
		}
		sb.Visibility = *in.Visibility
	}
	if in.TimeFormat != nil {
		if sb.ScoreType != model.ScoreTime {
			return nil, fmt.Errorf("%w: time format applies to time scoreboards only", ErrValidation)
		}
		if !timefmt.Valid(*in.TimeFormat) {
			return nil, fmt.Errorf("%w: unknown time format %q", ErrValidation, *in.TimeFormat)
		}
		sb.TimeFormat = *in.TimeFormat
	}
	if in.Style != nil {
		sb.Style = *in.Style
	}
	if in.StyleScope != nil {
		if !model.ValidStyleScope(*in.StyleScope) {
			return nil, fmt.Errorf("%w: unknown style scope %q", ErrValidation, *in.StyleScope)
		}
		sb.StyleScope = *in.StyleScope
	}
	if in.Locked != nil {
		sb.Locked = *in.Locked
	}
	sb.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateScoreboard(ctx, sb); err != nil {
		return nil, fmt.Errorf("update scoreboard: %w", err)
	}
	s.broker.PublishMetaChanged(ctx, sb.ID)
	return sb, nil
}

// ScheduleScoreboardDelete queues the scoreboard for deletion after the
// undo window and returns the cancellation id.
func (s *Service) ScheduleScoreboardDelete(ctx context.Context, id, ownerID string, admin bool) (string, error) {
	sb, err := s.ownedScoreboard(ctx, id, ownerID, admin)
	if err != nil {
		return "", err
	}
	opID := s.pending.Schedule(sb.ID, func(ctx context.Context) error {
		if err := s.store.DeleteScoreboard(ctx, sb.ID); err != nil {
			return fmt.Errorf("delete scoreboard: %w", err)
		}
		s.broker.PublishMetaChanged(ctx, sb.ID)
		return nil
	})
	return opID, nil
}

// CancelPendingDelete aborts a scheduled deletion before the window
// closes.
func (s *Service) CancelPendingDelete(_ context.Context, opID string) error {
	return s.pending.Cancel(opID)
}

// ListParams narrows and pages a scoreboard listing.
type ListParams struct {
	ViewerID string
	Admin    bool
	// Mine restricts to the viewer's own boards; otherwise only public
	// boards are listed (admins see everything).
	Mine   bool
	Search string
	Page   int
}

// ListResult is one page plus enough shape for pagination controls.
type ListResult struct {
	Items    []model.Scoreboard `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	HasMore  bool               `json:"has_more"`
}

// ListScoreboards returns one fixed-size page in stable creation order.
// The total is counted before paging so HasMore stays accurate.
func (s *Service) ListScoreboards(ctx context.Context, p ListParams) (*ListResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	f := repository.ListFilter{
		Search: strings.TrimSpace(p.Search),
		Limit:  s.pageSize,
		Offset: (p.Page - 1) * s.pageSize,
	}
	switch {
	case p.Mine:
		if p.ViewerID == "" {
			return nil, fmt.Errorf("%w: authentication required", ErrForbidden)
		}
		f.OwnerID = p.ViewerID
	case p.Admin:
		// Unfiltered.
	default:
		f.PublicOnly = true
	}

	total, err := s.store.CountScoreboards(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count scoreboards: %w", err)
	}
	items, err := s.store.ListScoreboards(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list scoreboards: %w", err)
	}
	return &ListResult{
		Items:    items,
		Total:    total,
		Page:     p.Page,
		PageSize: s.pageSize,
		HasMore:  p.Page*s.pageSize < total,
	}, nil
}

// RankedEntries fetches the scoreboard's entries with derived ranks.
// Rank is computed per read and never stored.
func (s *Service) RankedEntries(ctx context.Context, scoreboardID, viewerID string, admin bool) ([]ranking.Ranked, error) {
	sb, err := s.Scoreboard(ctx, scoreboardID, viewerID, admin)
	if err != nil {
		return nil, err
	}
	return s.rankedFor(ctx, sb)
}

func (s *Service) rankedFor(ctx context.Context, sb *model.Scoreboard) ([]ranking.Ranked, error) {
	entries, err := s.store.ListEntries(ctx, sb.ID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return ranking.Rank(entries, sb.SortOrder), nil
}

// EntryInput carries the writable fields of an entry. For time
// scoreboards either Score (raw milliseconds) or ScoreDisplay (a string
// in the board's time format) must be set; ScoreDisplay wins when both
// are present.
type EntryInput struct {
	Name         string   `json:"name"`
	Score        *float64 `json:"score"`
	ScoreDisplay string   `json:"score_display"`
	Details      string   `json:"details"`
}

func (s *Service) resolveScore(sb *model.Scoreboard, in EntryInput) (float64, error) {
	if sb.ScoreType == model.ScoreTime && in.ScoreDisplay != "" {
		ms, err := timefmt.Parse(sb.TimeFormat, in.ScoreDisplay)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return float64(ms), nil
	}
	if in.Score == nil {
		return 0, fmt.Errorf("%w: missing score", ErrValidation)
	}
	if sb.ScoreType == model.ScoreTime && *in.Score < 0 {
		return 0, fmt.Errorf("%w: time score cannot be negative", ErrValidation)
	}
	return *in.Score, nil
}

// AddEntry appends an entry to the scoreboard and notifies entry
// subscribers. Locked boards reject entry writes.
func (s *Service) AddEntry(ctx context.Context, scoreboardID, ownerID string, admin bool, in EntryInput) (*model.Entry, error) {
	sb, err := s.ownedScoreboard(ctx, scoreboardID, ownerID, admin)
	if err != nil {
		return nil, err
	}
	if sb.Locked {
		return nil, ErrLocked
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrValidation, maxNameLen)
	}
	if len(in.Details) > maxDetailsLen {
		return nil, fmt.Errorf("%w: details too long", ErrValidation)
	}
	score, err := s.resolveScore(sb, in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := &model.Entry{
		ID:           uuid.NewString(),
		ScoreboardID: sb.ID,
		Name:         name,
		Score:        score,
		Details:      strings.TrimSpace(in.Details),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	s.broker.PublishEntriesChanged(ctx, sb.ID)
	return e, nil
}

// UpdateEntry mutates an entry and notifies entry subscribers.
func (s *Service) UpdateEntry(ctx context.Context, entryID, ownerID string, admin bool, in EntryInput) (*model.Entry, error) {
	e, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	sb, err := s.ownedScoreboard(ctx, e.ScoreboardID, ownerID, admin)
	if err != nil {
		return nil, err
	}
	if sb.Locked {
		return nil, ErrLocked
	}

	if in.Name != "" {
		name := strings.TrimSpace(in.Name)
		if name == "" || len(name) > maxNameLen {
			return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrValidation, maxNameLen)
		}
		e.Name = name
	}
	if in.Score != nil || in.ScoreDisplay != "" {
		score, err := s.resolveScore(sb, in)
		if err != nil {
			return nil, err
		}
		e.Score = score
	}
	if in.Details != "" {
		if len(in.Details) > maxDetailsLen {
			return nil, fmt.Errorf("%w: details too long", ErrValidation)
		}
		e.Details = strings.TrimSpace(in.Details)
	}
	e.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	s.broker.PublishEntriesChanged(ctx, sb.ID)
	return e, nil
}

// ScheduleEntryDelete queues the entry for deletion after the undo
// window and returns the cancellation id.
func (s *Service) ScheduleEntryDelete(ctx context.Context, entryID, ownerID string, admin bool) (string, error) {
	e, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return "", fmt.Errorf("get entry: %w", err)
	}
	sb, err := s.ownedScoreboard(ctx, e.ScoreboardID, ownerID, admin)
	if err != nil {
		return "", err
	}
	opID := s.pending.Schedule(e.ID, func(ctx context.Context) error {
		if err := s.store.DeleteEntry(ctx, e.ID); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		s.broker.PublishEntriesChanged(ctx, sb.ID)
		return nil
	})
	return opID, nil
}

// ExportCSV writes the scoreboard and its ranked entries as CSV to w and
// returns the download filename. Visibility rules match Scoreboard.
func (s *Service) ExportCSV(ctx context.Context, scoreboardID, viewerID string, admin bool, w io.Writer) (string, error) {
	sb, err := s.Scoreboard(ctx, scoreboardID, viewerID, admin)
	if err != nil {
		return "", err
	}
	ranked, err := s.rankedFor(ctx, sb)
	if err != nil {
		return "", err
	}
	if err := export.WriteCSV(w, sb, ranked); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	metrics.RecordCSVExport()
	return export.SanitizeFilename(sb.Title) + ".csv", nil
}

// DeleteAccount removes all of the user's data and, when configured,
// the identity-provider record. Partial failure downgrades to warnings
// so data deletion always proceeds.
func (s *Service) DeleteAccount(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: authentication required", ErrForbidden)
	}
	if err := s.store.DeleteUserData(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete user data: %w", err)
	}

	var warnings []string
	if s.identity == nil {
		warnings = append(warnings, "identity record not removed: no identity delete credential configured")
	} else if err := s.identity.DeleteIdentity(ctx, userID); err != nil {
		s.log.Warn(ctx, "identity delete failed",
			logger.String("user_id", userID), logger.Error(err))
		warnings = append(warnings, "identity record not removed: provider call failed")
	}
	s.log.Info(ctx, "account deleted", logger.String("user_id", userID))
	return warnings, nil
}

// SubscribeMeta delivers metadata-changed notifications for a
// scoreboard until ctx is cancelled.
func (s *Service) SubscribeMeta(ctx context.Context, scoreboardID string) (<-chan realtime.Notification, error) {
	return s.broker.SubscribeMeta(ctx, scoreboardID)
}

// SubscribeEntries delivers entries-changed notifications for a
// scoreboard until ctx is cancelled.
func (s *Service) SubscribeEntries(ctx context.Context, scoreboardID string) (<-chan realtime.Notification, error) {
	return s.broker.SubscribeEntries(ctx, scoreboardID)
}

// IsNotFound reports whether err is the store's missing-row error.
// Convenience for the HTTP layer.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
