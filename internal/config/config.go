// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load() layers defaults, optional YAML file, and TALLY_* env vars.
// - External errors must be wrapped via this package's error helpers.
package config

// Variant describes a billing-provider product variant and the internal
// (tier, billing interval) pair it maps to. PriceCents is the fallback
// price used when a webhook payload omits the billed amount.
type Variant struct {
	Tier       string `koanf:"tier"`
	Interval   string `koanf:"interval"`
	PriceCents int    `koanf:"price_cents"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDSN selects the backing store. A postgres:// DSN uses the
	// Postgres driver; anything else is treated as a sqlite file path
	// (":memory:" included). Empty keeps the in-memory store.
	DatabaseDSN string `koanf:"database_dsn"`

	// JWTSecret verifies bearer tokens issued by the identity provider.
	JWTSecret string `koanf:"jwt_secret"`

	// WebhookSecret signs billing webhook payloads (HMAC-SHA256).
	WebhookSecret string `koanf:"webhook_secret"`

	// PinSecret salts kiosk PIN hashes.
	PinSecret string `koanf:"pin_secret"`

	// IdentityURL is the identity provider's admin API base URL.
	IdentityURL string `koanf:"identity_url"`

	// IdentityDeleteKey is the privileged credential for removing a user
	// from the identity provider during account deletion. When empty,
	// account deletion still removes data but reports a warning.
	IdentityDeleteKey string `koanf:"identity_delete_key"`

	// PageSize is the fixed page size for scoreboard listings.
	PageSize int `koanf:"page_size"`

	// PendingDeleteDelayMS is the undo window for deferred deletions.
	PendingDeleteDelayMS int `koanf:"pending_delete_delay_ms"`

	// EntriesDebounceMS bounds kiosk refetch frequency during bulk updates.
	EntriesDebounceMS int `koanf:"entries_debounce_ms"`

	// KioskSlideDurationSec is the default per-slide display duration.
	KioskSlideDurationSec int `koanf:"kiosk_slide_duration_sec"`

	// KioskTransitionMS is the fixed slide transition animation duration.
	KioskTransitionMS int `koanf:"kiosk_transition_ms"`

	// WebhookDedupeSize bounds the webhook event idempotency cache.
	WebhookDedupeSize int `koanf:"webhook_dedupe_size"`

	// Variants maps provider variant ids to (tier, interval, price).
	Variants map[string]Variant `koanf:"variants"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9090",
		DatabaseDSN:           "",
		JWTSecret:             "",
		WebhookSecret:         "",
		PinSecret:             "tally-kiosk",
		IdentityURL:           "",
		IdentityDeleteKey:     "",
		PageSize:              20,
		PendingDeleteDelayMS:  5000,
		EntriesDebounceMS:     2000,
		KioskSlideDurationSec: 10,
		KioskTransitionMS:     400,
		WebhookDedupeSize:     50_000,
		Variants: map[string]Variant{
			"10001": {Tier: "supporter", Interval: "monthly", PriceCents: 300},
			"10002": {Tier: "supporter", Interval: "yearly", PriceCents: 3000},
			"10003": {Tier: "champion", Interval: "monthly", PriceCents: 700},
			"10004": {Tier: "champion", Interval: "yearly", PriceCents: 7000},
		},
	}
}
