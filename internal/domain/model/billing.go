package model

import "time"

// Subscription statuses as reported by the billing provider.
const (
	SubscriptionActive    = "active"
	SubscriptionOnTrial   = "on_trial"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription is a billing record keyed by the provider's subscription id.
// Tier and interval are derived from the variant lookup table, never taken
// from the payload verbatim.
type Subscription struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	ProviderSubID  string     `db:"provider_sub_id" json:"provider_sub_id"`
	VariantID      string     `db:"variant_id" json:"variant_id"`
	Tier           string     `db:"tier" json:"tier"`
	Interval       string     `db:"billing_interval" json:"billing_interval"`
	Status         string     `db:"status" json:"status"`
	PriceCents     int        `db:"price_cents" json:"price_cents"`
	IsGift         bool       `db:"is_gift" json:"is_gift"`
	FailedPayments int        `db:"failed_payments" json:"failed_payments"`
	RenewsAt       *time.Time `db:"renews_at" json:"renews_at,omitempty"`
	EndsAt         *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// PaymentHistory is one provider order, kept for the user's billing page.
type PaymentHistory struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	ProviderOrderID string    `db:"provider_order_id" json:"provider_order_id"`
	AmountCents     int       `db:"amount_cents" json:"amount_cents"`
	Currency        string    `db:"currency" json:"currency"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// SubscriptionInvoice is one provider invoice attached to a subscription.
type SubscriptionInvoice struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	ProviderInvoiceID string    `db:"provider_invoice_id" json:"provider_invoice_id"`
	ProviderSubID     string    `db:"provider_sub_id" json:"provider_sub_id"`
	AmountCents       int       `db:"amount_cents" json:"amount_cents"`
	Status            string    `db:"status" json:"status"`
	BillingReason     string    `db:"billing_reason" json:"billing_reason"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// BillingAudit records payment failures, recoveries and fallback pricing
// decisions so provider drift stays observable.
type BillingAudit struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Event     string    `db:"event" json:"event"`
	Detail    string    `db:"detail" json:"detail"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
