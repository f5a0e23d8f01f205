// Package repository defines the persistence contract and its
// implementations: an in-memory store for tests and local development,
// and a sqlx-backed store for Postgres or embedded sqlite.
package repository

import (
	"context"

	"github.com/okian/tally/internal/domain/model"
)

// ListFilter narrows scoreboard listings. Search is a case-insensitive
// substring match over title and subtitle. OwnerID restricts to one
// owner; PublicOnly restricts to publicly visible boards. Limit/Offset
// implement fixed-size offset pagination over stable creation order.
type ListFilter struct {
	OwnerID    string
	Search     string
	PublicOnly bool
	Limit      int
	Offset     int
}

// Store provides read/write access to all persisted state. Consistency
// for concurrent writes is the backing database's concern; no
// application-level locking or transactions beyond single statements.
type Store interface {
	// Scoreboards
	CreateScoreboard(ctx context.Context, sb *model.Scoreboard) error
	GetScoreboard(ctx context.Context, id string) (*model.Scoreboard, error)
	UpdateScoreboard(ctx context.Context, sb *model.Scoreboard) error
	DeleteScoreboard(ctx context.Context, id string) error
	ListScoreboards(ctx context.Context, f ListFilter) ([]model.Scoreboard, error)
	CountScoreboards(ctx context.Context, f ListFilter) (int, error)

	// Entries
	CreateEntry(ctx context.Context, e *model.Entry) error
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	UpdateEntry(ctx context.Context, e *model.Entry) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, scoreboardID string) ([]model.Entry, error)

	// Kiosk
	GetKioskConfig(ctx context.Context, scoreboardID string) (*model.KioskConfig, error)
	PutKioskConfig(ctx context.Context, kc *model.KioskConfig) error
	ListSlides(ctx context.Context, scoreboardID string) ([]model.KioskSlide, error)
	CreateSlide(ctx context.Context, s *model.KioskSlide) error
	DeleteSlide(ctx context.Context, id string) error

	// Billing
	UpsertSubscription(ctx context.Context, s *model.Subscription) error
	GetSubscriptionByProviderID(ctx context.Context, providerSubID string) (*model.Subscription, error)
	GetActiveGift(ctx context.Context, userID string) (*model.Subscription, error)
	SetSubscriptionStatus(ctx context.Context, id, status string) error
	IncrementFailedPayments(ctx context.Context, providerSubID string) (int, error)
	ResetFailedPayments(ctx context.Context, providerSubID string) error
	AddPaymentHistory(ctx context.Context, p *model.PaymentHistory) error
	AddInvoice(ctx context.Context, inv *model.SubscriptionInvoice) error
	AddBillingAudit(ctx context.Context, a *model.BillingAudit) error

	// Accounts
	DeleteUserData(ctx context.Context, userID string) error
}
