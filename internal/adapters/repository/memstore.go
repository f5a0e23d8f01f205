package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/tally/internal/domain/model"
)

// MemStore implements Store with plain maps. It backs tests and local
// development; ordering semantics match the SQL store.
type MemStore struct {
	mu sync.RWMutex

	scoreboards map[string]model.Scoreboard
	entries     map[string]model.Entry
	kiosks      map[string]model.KioskConfig // keyed by scoreboard id
	slides      map[string]model.KioskSlide
	subs        map[string]model.Subscription // keyed by provider sub id
	payments    []model.PaymentHistory
	invoices    []model.SubscriptionInvoice
	audits      []model.BillingAudit

	now func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		scoreboards: make(map[string]model.Scoreboard),
		entries:     make(map[string]model.Entry),
		kiosks:      make(map[string]model.KioskConfig),
		slides:      make(map[string]model.KioskSlide),
		subs:        make(map[string]model.Subscription),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithClock overrides the store clock, for deterministic tests.
func WithClock(now func() time.Time) MemOption {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *MemStore) CreateScoreboard(_ context.Context, sb *model.Scoreboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scoreboards[sb.ID]; ok {
		return fmt.Errorf("%w: scoreboard %s", ErrDuplicate, sb.ID)
	}
	ts := s.now()
	sb.CreatedAt, sb.UpdatedAt = ts, ts
	s.scoreboards[sb.ID] = *sb
	return nil
}

func (s *MemStore) GetScoreboard(_ context.Context, id string) (*model.Scoreboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sb, ok := s.scoreboards[id]
	if !ok {
		return nil, fmt.Errorf("%w: scoreboard %s", ErrNotFound, id)
	}
	return &sb, nil
}

func (s *MemStore) UpdateScoreboard(_ context.Context, sb *model.Scoreboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.scoreboards[sb.ID]
	if !ok {
		return fmt.Errorf("%w: scoreboard %s", ErrNotFound, sb.ID)
	}
	sb.CreatedAt = prev.CreatedAt
	sb.UpdatedAt = s.now()
	s.scoreboards[sb.ID] = *sb
	return nil
}

func (s *MemStore) DeleteScoreboard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scoreboards[id]; !ok {
		return fmt.Errorf("%w: scoreboard %s", ErrNotFound, id)
	}
	delete(s.scoreboards, id)
	delete(s.kiosks, id)
	for eid, e := range s.entries {
		if e.ScoreboardID == id {
			delete(s.entries, eid)
		}
	}
	for sid, sl := range s.slides {
		if sl.ScoreboardID == id {
			delete(s.slides, sid)
		}
	}
	return nil
}

func (s *MemStore) matchFilter(sb model.Scoreboard, f ListFilter) bool {
	if f.OwnerID != "" && sb.OwnerID != f.OwnerID {
		return false
	}
	if f.PublicOnly && sb.Visibility != model.VisibilityPublic {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(sb.Title), needle) &&
			!strings.Contains(strings.ToLower(sb.Subtitle), needle) {
			return false
		}
	}
	return true
}

func (s *MemStore) ListScoreboards(_ context.Context, f ListFilter) ([]model.Scoreboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []model.Scoreboard
	for _, sb := range s.scoreboards {
		if s.matchFilter(sb, f) {
			all = append(all, sb)
		}
	}
	// Stable creation order; any client-side resort happens after fetch.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if f.Offset >= len(all) {
		return []model.Scoreboard{}, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}

func (s *MemStore) CountScoreboards(_ context.Context, f ListFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sb := range s.scoreboards {
		if s.matchFilter(sb, f) {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) CreateEntry(_ context.Context, e *model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scoreboards[e.ScoreboardID]; !ok {
		return fmt.Errorf("%w: scoreboard %s", ErrNotFound, e.ScoreboardID)
	}
	if _, ok := s.entries[e.ID]; ok {
		return fmt.Errorf("%w: entry %s", ErrDuplicate, e.ID)
	}
	ts := s.now()
	e.CreatedAt, e.UpdatedAt = ts, ts
	s.entries[e.ID] = *e
	return nil
}

func (s *MemStore) GetEntry(_ context.Context, id string) (*model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	return &e, nil
}

func (s *MemStore) UpdateEntry(_ context.Context, e *model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.entries[e.ID]
	if !ok {
		return fmt.Errorf("%w: entry %s", ErrNotFound, e.ID)
	}
	e.ScoreboardID = prev.ScoreboardID
	e.CreatedAt = prev.CreatedAt
	e.UpdatedAt = s.now()
	s.entries[e.ID] = *e
	return nil
}

func (s *MemStore) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	delete(s.entries, id)
	return nil
}

func (s *MemStore) ListEntries(_ context.Context, scoreboardID string) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Entry
	for _, e := range s.entries {
		if e.ScoreboardID == scoreboardID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) GetKioskConfig(_ context.Context, scoreboardID string) (*model.KioskConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kc, ok := s.kiosks[scoreboardID]
	if !ok {
		return nil, fmt.Errorf("%w: kiosk config %s", ErrNotFound, scoreboardID)
	}
	return &kc, nil
}

func (s *MemStore) PutKioskConfig(_ context.Context, kc *model.KioskConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scoreboards[kc.ScoreboardID]; !ok {
		return fmt.Errorf("%w: scoreboard %s", ErrNotFound, kc.ScoreboardID)
	}
	kc.UpdatedAt = s.now()
	s.kiosks[kc.ScoreboardID] = *kc
	return nil
}

func (s *MemStore) ListSlides(_ context.Context, scoreboardID string) ([]model.KioskSlide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.KioskSlide
	for _, sl := range s.slides {
		if sl.ScoreboardID == scoreboardID {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) CreateSlide(_ context.Context, sl *model.KioskSlide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scoreboards[sl.ScoreboardID]; !ok {
		return fmt.Errorf("%w: scoreboard %s", ErrNotFound, sl.ScoreboardID)
	}
	if _, ok := s.slides[sl.ID]; ok {
		return fmt.Errorf("%w: slide %s", ErrDuplicate, sl.ID)
	}
	sl.CreatedAt = s.now()
	s.slides[sl.ID] = *sl
	return nil
}

func (s *MemStore) DeleteSlide(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slides[id]; !ok {
		return fmt.Errorf("%w: slide %s", ErrNotFound, id)
	}
	delete(s.slides, id)
	return nil
}

func (s *MemStore) UpsertSubscription(_ context.Context, sub *model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()
	if prev, ok := s.subs[sub.ProviderSubID]; ok {
		sub.ID = prev.ID
		sub.CreatedAt = prev.CreatedAt
		sub.FailedPayments = prev.FailedPayments
	} else {
		sub.CreatedAt = ts
	}
	sub.UpdatedAt = ts
	s.subs[sub.ProviderSubID] = *sub
	return nil
}

func (s *MemStore) GetSubscriptionByProviderID(_ context.Context, providerSubID string) (*model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[providerSubID]
	if !ok {
		return nil, fmt.Errorf("%w: subscription %s", ErrNotFound, providerSubID)
	}
	return &sub, nil
}

func (s *MemStore) GetActiveGift(_ context.Context, userID string) (*model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.IsGift && sub.Status == model.SubscriptionActive {
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("%w: active gift for user %s", ErrNotFound, userID)
}

func (s *MemStore) SetSubscriptionStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sub := range s.subs {
		if sub.ID == id {
			sub.Status = status
			sub.UpdatedAt = s.now()
			s.subs[key] = sub
			return nil
		}
	}
	return fmt.Errorf("%w: subscription %s", ErrNotFound, id)
}

func (s *MemStore) IncrementFailedPayments(_ context.Context, providerSubID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[providerSubID]
	if !ok {
		return 0, fmt.Errorf("%w: subscription %s", ErrNotFound, providerSubID)
	}
	sub.FailedPayments++
	sub.UpdatedAt = s.now()
	s.subs[providerSubID] = sub
	return sub.FailedPayments, nil
}

func (s *MemStore) ResetFailedPayments(_ context.Context, providerSubID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[providerSubID]
	if !ok {
		return fmt.Errorf("%w: subscription %s", ErrNotFound, providerSubID)
	}
	sub.FailedPayments = 0
	sub.UpdatedAt = s.now()
	s.subs[providerSubID] = sub
	return nil
}

func (s *MemStore) AddPaymentHistory(_ context.Context, p *model.PaymentHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = s.now()
	s.payments = append(s.payments, *p)
	return nil
}

func (s *MemStore) AddInvoice(_ context.Context, inv *model.SubscriptionInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.CreatedAt = s.now()
	s.invoices = append(s.invoices, *inv)
	return nil
}

func (s *MemStore) AddBillingAudit(_ context.Context, a *model.BillingAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.CreatedAt = s.now()
	s.audits = append(s.audits, *a)
	return nil
}

func (s *MemStore) DeleteUserData(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sb := range s.scoreboards {
		if sb.OwnerID != userID {
			continue
		}
		delete(s.scoreboards, id)
		delete(s.kiosks, id)
		for eid, e := range s.entries {
			if e.ScoreboardID == id {
				delete(s.entries, eid)
			}
		}
		for sid, sl := range s.slides {
			if sl.ScoreboardID == id {
				delete(s.slides, sid)
			}
		}
	}
	for key, sub := range s.subs {
		if sub.UserID == userID {
			delete(s.subs, key)
		}
	}
	s.payments = deleteByUser(s.payments, userID, func(p model.PaymentHistory) string { return p.UserID })
	s.invoices = deleteByUser(s.invoices, userID, func(i model.SubscriptionInvoice) string { return i.UserID })
	s.audits = deleteByUser(s.audits, userID, func(a model.BillingAudit) string { return a.UserID })
	return nil
}

func deleteByUser[T any](rows []T, userID string, owner func(T) string) []T {
	out := rows[:0]
	for _, r := range rows {
		if owner(r) != userID {
			out = append(out, r)
		}
	}
	return out
}

// Payments returns a copy of the payment history for user. Test helper.
func (s *MemStore) Payments(userID string) []model.PaymentHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PaymentHistory
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

// Invoices returns a copy of the invoices for user. Test helper.
func (s *MemStore) Invoices(userID string) []model.SubscriptionInvoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.SubscriptionInvoice
	for _, inv := range s.invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out
}

// Audits returns a copy of the billing audit log for user. Test helper.
func (s *MemStore) Audits(userID string) []model.BillingAudit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.BillingAudit
	for _, a := range s.audits {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}
