package repository

// schemaStatements bootstraps the schema on startup. Types are the
// lowest common denominator accepted by both Postgres and sqlite;
// TIMESTAMP columns scan into time.Time under either driver.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scoreboards (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		title       TEXT NOT NULL,
		subtitle    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		sort_order  TEXT NOT NULL,
		visibility  TEXT NOT NULL,
		score_type  TEXT NOT NULL,
		time_format TEXT NOT NULL DEFAULT '',
		style       TEXT,
		style_scope TEXT NOT NULL DEFAULT 'both',
		locked      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scoreboards_owner ON scoreboards (owner_id)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id            TEXT PRIMARY KEY,
		scoreboard_id TEXT NOT NULL,
		name          TEXT NOT NULL,
		score         DOUBLE PRECISION NOT NULL,
		details       TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_scoreboard ON entries (scoreboard_id)`,
	`CREATE TABLE IF NOT EXISTS kiosk_configs (
		scoreboard_id      TEXT PRIMARY KEY,
		slide_duration_sec INTEGER NOT NULL,
		transition_ms      INTEGER NOT NULL,
		pin_enabled        BOOLEAN NOT NULL DEFAULT FALSE,
		pin_hash           TEXT NOT NULL DEFAULT '',
		updated_at         TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS kiosk_slides (
		id            TEXT PRIMARY KEY,
		scoreboard_id TEXT NOT NULL,
		kind          TEXT NOT NULL,
		image_url     TEXT NOT NULL DEFAULT '',
		position      INTEGER NOT NULL,
		duration_sec  INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kiosk_slides_scoreboard ON kiosk_slides (scoreboard_id)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		provider_sub_id TEXT NOT NULL UNIQUE,
		variant_id      TEXT NOT NULL,
		tier            TEXT NOT NULL,
		billing_interval TEXT NOT NULL,
		status          TEXT NOT NULL,
		price_cents     INTEGER NOT NULL DEFAULT 0,
		is_gift         BOOLEAN NOT NULL DEFAULT FALSE,
		failed_payments INTEGER NOT NULL DEFAULT 0,
		renews_at       TIMESTAMP,
		ends_at         TIMESTAMP,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions (user_id)`,
	`CREATE TABLE IF NOT EXISTS payment_history (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL,
		provider_order_id TEXT NOT NULL,
		amount_cents      INTEGER NOT NULL,
		currency          TEXT NOT NULL,
		status            TEXT NOT NULL,
		created_at        TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscription_invoices (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		provider_invoice_id TEXT NOT NULL,
		provider_sub_id     TEXT NOT NULL,
		amount_cents        INTEGER NOT NULL,
		status              TEXT NOT NULL,
		billing_reason      TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS billing_audit (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		event      TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
}
