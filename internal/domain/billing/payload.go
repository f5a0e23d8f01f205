// Package billing maps payment-provider webhook payloads to internal rows.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Provider event names carried in meta.event_name.
const (
	EventSubscriptionCreated = "subscription_created"
	EventSubscriptionUpdated = "subscription_updated"
	EventOrderCreated        = "order_created"
	EventPaymentSuccess      = "subscription_payment_success"
	EventPaymentFailed       = "subscription_payment_failed"
	EventPaymentRecovered    = "subscription_payment_recovered"
)

// ValidateEvent checks that name is an event this service processes.
// Unknown names wrap ErrUnknownEvent.
func ValidateEvent(name string) error {
	switch name {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventOrderCreated,
		EventPaymentSuccess, EventPaymentFailed, EventPaymentRecovered:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Payload is the provider's webhook envelope.
type Payload struct {
	Meta Meta `json:"meta"`
	Data Data `json:"data"`
}

// Meta carries the event name and pass-through checkout metadata.
type Meta struct {
	EventName  string     `json:"event_name"`
	EventID    string     `json:"event_id"`
	CustomData CustomData `json:"custom_data"`
}

// CustomData is metadata attached at checkout. UserID links the provider
// customer back to an internal account.
type CustomData struct {
	UserID string `json:"user_id"`
}

// Data holds the typed resource the event describes.
type Data struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes"`
}

// Attributes is the union of the resource fields this service reads.
// Numeric provider ids arrive as JSON numbers.
type Attributes struct {
	VariantID      json.Number `json:"variant_id"`
	SubscriptionID json.Number `json:"subscription_id"`
	Identifier     string      `json:"identifier"`
	Total          int         `json:"total"` // cents; zero when the provider omits price
	Currency       string      `json:"currency"`
	Status         string      `json:"status"`
	BillingReason  string      `json:"billing_reason"`
	RenewsAt       *time.Time  `json:"renews_at"`
	EndsAt         *time.Time  `json:"ends_at"`
}

// ParsePayload decodes and minimally validates a webhook body.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if p.Meta.EventName == "" {
		return nil, fmt.Errorf("%w: missing meta.event_name", ErrMalformedPayload)
	}
	if p.Data.Type == "" {
		return nil, fmt.Errorf("%w: missing data.type", ErrMalformedPayload)
	}
	return &p, nil
}

// VerifySignature checks a hex HMAC-SHA256 signature over the raw body.
// The comparison is constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign produces the hex signature the provider would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
