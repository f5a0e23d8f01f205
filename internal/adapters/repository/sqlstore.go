package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"        // postgres driver
	_ "modernc.org/sqlite"       // embedded sqlite driver

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/metrics"
)

// SQLStore implements Store over sqlx. The same statements run on
// Postgres (hosted deployments) and sqlite (single-binary and tests);
// queries are written with ? bindvars and rebound per driver.
type SQLStore struct {
	db *sqlx.DB
}

// Open connects to dsn and ensures the schema exists. A postgres:// or
// postgresql:// DSN selects the Postgres driver; anything else is a
// sqlite path (":memory:" included).
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	s := &SQLStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// observe records query latency; deferred at the top of each method.
func observe(start time.Time) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
}

func notFoundOr(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	metrics.RecordStoreError()
	return fmt.Errorf("%s %s: %w", what, id, err)
}

func (s *SQLStore) CreateScoreboard(ctx context.Context, sb *model.Scoreboard) error {
	defer observe(time.Now())
	ts := time.Now().UTC()
	sb.CreatedAt, sb.UpdatedAt = ts, ts
	q := s.db.Rebind(`INSERT INTO scoreboards
		(id, owner_id, title, subtitle, description, sort_order, visibility,
		 score_type, time_format, style, style_scope, locked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		sb.ID, sb.OwnerID, sb.Title, sb.Subtitle, sb.Description, sb.SortOrder,
		sb.Visibility, sb.ScoreType, sb.TimeFormat, sb.Style, sb.StyleScope,
		sb.Locked, sb.CreatedAt, sb.UpdatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("create scoreboard: %w", err)
	}
	return nil
}

func (s *SQLStore) GetScoreboard(ctx context.Context, id string) (*model.Scoreboard, error) {
	defer observe(time.Now())
	var sb model.Scoreboard
	q := s.db.Rebind(`SELECT * FROM scoreboards WHERE id = ?`)
	if err := s.db.GetContext(ctx, &sb, q, id); err != nil {
		return nil, notFoundOr(err, "scoreboard", id)
	}
	return &sb, nil
}

func (s *SQLStore) UpdateScoreboard(ctx context.Context, sb *model.Scoreboard) error {
	defer observe(time.Now())
	sb.UpdatedAt = time.Now().UTC()
	q := s.db.Rebind(`UPDATE scoreboards SET
		title = ?, subtitle = ?, description = ?, visibility = ?, time_format = ?,
		style = ?, style_scope = ?, locked = ?, updated_at = ?
		WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q,
		sb.Title, sb.Subtitle, sb.Description, sb.Visibility, sb.TimeFormat,
		sb.Style, sb.StyleScope, sb.Locked, sb.UpdatedAt, sb.ID)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("update scoreboard: %w", err)
	}
	return requireRow(res, "scoreboard", sb.ID)
}

func (s *SQLStore) DeleteScoreboard(ctx context.Context, id string) error {
	defer observe(time.Now())
	// Children first; no FK cascades so the same DDL works on both drivers.
	for _, stmt := range []string{
		`DELETE FROM entries WHERE scoreboard_id = ?`,
		`DELETE FROM kiosk_slides WHERE scoreboard_id = ?`,
		`DELETE FROM kiosk_configs WHERE scoreboard_id = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(stmt), id); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("delete scoreboard children: %w", err)
		}
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM scoreboards WHERE id = ?`), id)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("delete scoreboard: %w", err)
	}
	return requireRow(res, "scoreboard", id)
}

// listClauses builds the shared WHERE clause for listing and counting.
func listClauses(f ListFilter) (string, []any) {
	where := []string{"1 = 1"}
	var args []any
	if f.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.PublicOnly {
		where = append(where, "visibility = ?")
		args = append(args, model.VisibilityPublic)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(subtitle) LIKE ?)")
		needle := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, needle, needle)
	}
	return strings.Join(where, " AND "), args
}

func (s *SQLStore) ListScoreboards(ctx context.Context, f ListFilter) ([]model.Scoreboard, error) {
	defer observe(time.Now())
	where, args := listClauses(f)
	q := `SELECT * FROM scoreboards WHERE ` + where + ` ORDER BY created_at, id`
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET ?"
		args = append(args, f.Offset)
	}
	out := []model.Scoreboard{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list scoreboards: %w", err)
	}
	return out, nil
}

func (s *SQLStore) CountScoreboards(ctx context.Context, f ListFilter) (int, error) {
	defer observe(time.Now())
	where, args := listClauses(f)
	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM scoreboards WHERE ` + where)
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("count scoreboards: %w", err)
	}
	return n, nil
}

func (s *SQLStore) CreateEntry(ctx context.Context, e *model.Entry) error {
	defer observe(time.Now())
	if _, err := s.GetScoreboard(ctx, e.ScoreboardID); err != nil {
		return err
	}
	ts := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = ts, ts
	q := s.db.Rebind(`INSERT INTO entries
		(id, scoreboard_id, name, score, details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		e.ID, e.ScoreboardID, e.Name, e.Score, e.Details, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	defer observe(time.Now())
	var e model.Entry
	q := s.db.Rebind(`SELECT * FROM entries WHERE id = ?`)
	if err := s.db.GetContext(ctx, &e, q, id); err != nil {
		return nil, notFoundOr(err, "entry", id)
	}
	return &e, nil
}

func (s *SQLStore) UpdateEntry(ctx context.Context, e *model.Entry) error {
	defer observe(time.Now())
	e.UpdatedAt = time.Now().UTC()
	q := s.db.Rebind(`UPDATE entries SET name = ?, score = ?, details = ?, updated_at = ?
		WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, e.Name, e.Score, e.Details, e.UpdatedAt, e.ID)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res, "entry", e.ID)
}

func (s *SQLStore) DeleteEntry(ctx context.Context, id string) error {
	defer observe(time.Now())
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM entries WHERE id = ?`), id)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res, "entry", id)
}

func (s *SQLStore) ListEntries(ctx context.Context, scoreboardID string) ([]model.Entry, error) {
	defer observe(time.Now())
	out := []model.Entry{}
	q := s.db.Rebind(`SELECT * FROM entries WHERE scoreboard_id = ? ORDER BY created_at, id`)
	if err := s.db.SelectContext(ctx, &out, q, scoreboardID); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

func (s *SQLStore) GetKioskConfig(ctx context.Context, scoreboardID string) (*model.KioskConfig, error) {
	defer observe(time.Now())
	var kc model.KioskConfig
	q := s.db.Rebind(`SELECT * FROM kiosk_configs WHERE scoreboard_id = ?`)
	if err := s.db.GetContext(ctx, &kc, q, scoreboardID); err != nil {
		return nil, notFoundOr(err, "kiosk config", scoreboardID)
	}
	return &kc, nil
}

func (s *SQLStore) PutKioskConfig(ctx context.Context, kc *model.KioskConfig) error {
	defer observe(time.Now())
	if _, err := s.GetScoreboard(ctx, kc.ScoreboardID); err != nil {
		return err
	}
	kc.UpdatedAt = time.Now().UTC()
	q := s.db.Rebind(`INSERT INTO kiosk_configs
		(scoreboard_id, slide_duration_sec, transition_ms, pin_enabled, pin_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (scoreboard_id) DO UPDATE SET
		slide_duration_sec = excluded.slide_duration_sec,
		transition_ms = excluded.transition_ms,
		pin_enabled = excluded.pin_enabled,
		pin_hash = excluded.pin_hash,
		updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, q,
		kc.ScoreboardID, kc.SlideDurationSec, kc.TransitionMS, kc.PinEnabled, kc.PinHash, kc.UpdatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("put kiosk config: %w", err)
	}
	return nil
}

func (s *SQLStore) ListSlides(ctx context.Context, scoreboardID string) ([]model.KioskSlide, error) {
	defer observe(time.Now())
	out := []model.KioskSlide{}
	q := s.db.Rebind(`SELECT * FROM kiosk_slides WHERE scoreboard_id = ? ORDER BY position, id`)
	if err := s.db.SelectContext(ctx, &out, q, scoreboardID); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list slides: %w", err)
	}
	return out, nil
}

func (s *SQLStore) CreateSlide(ctx context.Context, sl *model.KioskSlide) error {
	defer observe(time.Now())
	if _, err := s.GetScoreboard(ctx, sl.ScoreboardID); err != nil {
		return err
	}
	sl.CreatedAt = time.Now().UTC()
	q := s.db.Rebind(`INSERT INTO kiosk_slides
		(id, scoreboard_id, kind, image_url, position, duration_sec, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		sl.ID, sl.ScoreboardID, sl.Kind, sl.ImageURL, sl.Position, sl.DurationSec, sl.CreatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("create slide: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteSlide(ctx context.Context, id string) error {
	defer observe(time.Now())
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kiosk_slides WHERE id = ?`), id)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("delete slide: %w", err)
	}
	return requireRow(res, "slide", id)
}

func (s *SQLStore) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	defer observe(time.Now())
	ts := time.Now().UTC()
	sub.CreatedAt, sub.UpdatedAt = ts, ts
	q := s.db.Rebind(`INSERT INTO subscriptions
		(id, user_id, provider_sub_id, variant_id, tier, billing_interval, status,
		 price_cents, is_gift, failed_payments, renews_at, ends_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider_sub_id) DO UPDATE SET
		user_id = excluded.user_id,
		variant_id = excluded.variant_id,
		tier = excluded.tier,
		billing_interval = excluded.billing_interval,
		status = excluded.status,
		price_cents = excluded.price_cents,
		is_gift = excluded.is_gift,
		renews_at = excluded.renews_at,
		ends_at = excluded.ends_at,
		updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, q,
		sub.ID, sub.UserID, sub.ProviderSubID, sub.VariantID, sub.Tier, sub.Interval,
		sub.Status, sub.PriceCents, sub.IsGift, sub.FailedPayments,
		sub.RenewsAt, sub.EndsAt, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *SQLStore) GetSubscriptionByProviderID(ctx context.Context, providerSubID string) (*model.Subscription, error) {
	defer observe(time.Now())
	var sub model.Subscription
	q := s.db.Rebind(`SELECT * FROM subscriptions WHERE provider_sub_id = ?`)
	if err := s.db.GetContext(ctx, &sub, q, providerSubID); err != nil {
		return nil, notFoundOr(err, "subscription", providerSubID)
	}
	return &sub, nil
}

func (s *SQLStore) GetActiveGift(ctx context.Context, userID string) (*model.Subscription, error) {
	defer observe(time.Now())
	var sub model.Subscription
	q := s.db.Rebind(`SELECT * FROM subscriptions
		WHERE user_id = ? AND is_gift AND status = ? ORDER BY created_at LIMIT 1`)
	if err := s.db.GetContext(ctx, &sub, q, userID, model.SubscriptionActive); err != nil {
		return nil, notFoundOr(err, "active gift for user", userID)
	}
	return &sub, nil
}

func (s *SQLStore) SetSubscriptionStatus(ctx context.Context, id, status string) error {
	defer observe(time.Now())
	q := s.db.Rebind(`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, status, time.Now().UTC(), id)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("set subscription status: %w", err)
	}
	return requireRow(res, "subscription", id)
}

func (s *SQLStore) IncrementFailedPayments(ctx context.Context, providerSubID string) (int, error) {
	defer observe(time.Now())
	q := s.db.Rebind(`UPDATE subscriptions
		SET failed_payments = failed_payments + 1, updated_at = ?
		WHERE provider_sub_id = ?`)
	res, err := s.db.ExecContext(ctx, q, time.Now().UTC(), providerSubID)
	if err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("increment failed payments: %w", err)
	}
	if err := requireRow(res, "subscription", providerSubID); err != nil {
		return 0, err
	}
	sub, err := s.GetSubscriptionByProviderID(ctx, providerSubID)
	if err != nil {
		return 0, err
	}
	return sub.FailedPayments, nil
}

func (s *SQLStore) ResetFailedPayments(ctx context.Context, providerSubID string) error {
	defer observe(time.Now())
	q := s.db.Rebind(`UPDATE subscriptions
		SET failed_payments = 0, updated_at = ? WHERE provider_sub_id = ?`)
	res, err := s.db.ExecContext(ctx, q, time.Now().UTC(), providerSubID)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("reset failed payments: %w", err)
	}
	return requireRow(res, "subscription", providerSubID)
}

func (s *SQLStore) AddPaymentHistory(ctx context.Context, p *model.PaymentHistory) error {
	defer observe(time.Now())
	p.CreatedAt = time.Now().UTC()
	q := s.db.Rebind(`INSERT INTO payment_history
		(id, user_id, provider_order_id, amount_cents, currency, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.UserID, p.ProviderOrderID, p.AmountCents, p.Currency, p.Status, p.CreatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("add payment history: %w", err)
	}
	return nil
}

func (s *SQLStore) AddInvoice(ctx context.Context, inv *model.SubscriptionInvoice) error {
	defer observe(time.Now())
	inv.CreatedAt = time.Now().UTC()
	q := s.db.Rebind(`INSERT INTO subscription_invoices
		(id, user_id, provider_invoice_id, provider_sub_id, amount_cents, status, billing_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		inv.ID, inv.UserID, inv.ProviderInvoiceID, inv.ProviderSubID,
		inv.AmountCents, inv.Status, inv.BillingReason, inv.CreatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("add invoice: %w", err)
	}
	return nil
}

func (s *SQLStore) AddBillingAudit(ctx context.Context, a *model.BillingAudit) error {
	defer observe(time.Now())
	a.CreatedAt = time.Now().UTC()
	q := s.db.Rebind(`INSERT INTO billing_audit (id, user_id, event, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q, a.ID, a.UserID, a.Event, a.Detail, a.CreatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("add billing audit: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteUserData(ctx context.Context, userID string) error {
	defer observe(time.Now())
	for _, stmt := range []string{
		`DELETE FROM entries WHERE scoreboard_id IN (SELECT id FROM scoreboards WHERE owner_id = ?)`,
		`DELETE FROM kiosk_slides WHERE scoreboard_id IN (SELECT id FROM scoreboards WHERE owner_id = ?)`,
		`DELETE FROM kiosk_configs WHERE scoreboard_id IN (SELECT id FROM scoreboards WHERE owner_id = ?)`,
		`DELETE FROM scoreboards WHERE owner_id = ?`,
		`DELETE FROM subscriptions WHERE user_id = ?`,
		`DELETE FROM payment_history WHERE user_id = ?`,
		`DELETE FROM subscription_invoices WHERE user_id = ?`,
		`DELETE FROM billing_audit WHERE user_id = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(stmt), userID); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("delete user data: %w", err)
		}
	}
	return nil
}

func requireRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return nil
}
