package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tally/internal/domain/billing"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// failedPaymentsBeforePastDue is the consecutive-failure threshold after
// which a subscription is marked past due.
const failedPaymentsBeforePastDue = 3

// ProcessWebhook verifies, parses and applies one billing provider
// webhook. The signature is checked over the raw body before anything
// else; unverified payloads never touch storage. Unknown event names are
// acknowledged and ignored; redelivered event ids are dropped.
func (s *Service) ProcessWebhook(ctx context.Context, body []byte, signature string) error {
	if !billing.VerifySignature(s.webhookSecret, body, signature) {
		metrics.RecordWebhookRejected("bad_signature")
		return ErrBadSignature
	}
	p, err := billing.ParsePayload(body)
	if err != nil {
		metrics.RecordWebhookRejected("malformed")
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	event := p.Meta.EventName
	if err := billing.ValidateEvent(event); err != nil {
		// Acknowledged so the provider stops retrying, but never applied.
		s.log.Info(ctx, "ignoring unhandled webhook event", logger.Error(err))
		return nil
	}

	if id := p.Meta.EventID; id != "" {
		if s.deduper.SeenAndRecord(ctx, id) {
			metrics.RecordWebhookDuplicate()
			s.log.Debug(ctx, "duplicate webhook event", logger.String("event_id", id))
			return nil
		}
		defer func() {
			if err != nil {
				// Processing failed; let the provider's retry through.
				s.deduper.Unrecord(ctx, id)
			}
		}()
	}

	switch event {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		err = s.applySubscription(ctx, p)
	case billing.EventOrderCreated:
		err = s.applyOrder(ctx, p)
	case billing.EventPaymentSuccess, billing.EventPaymentRecovered:
		err = s.applyPaymentSuccess(ctx, p)
	case billing.EventPaymentFailed:
		err = s.applyPaymentFailure(ctx, p)
	}
	if err != nil {
		return err
	}
	metrics.RecordWebhookEvent(event)
	return nil
}

// resolveUser returns the internal user id for a payload: the checkout
// custom data when present, otherwise the owner of the already-stored
// subscription row.
func (s *Service) resolveUser(ctx context.Context, p *billing.Payload, providerSubID string) (string, error) {
	if id := p.Meta.CustomData.UserID; id != "" {
		return id, nil
	}
	if providerSubID == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, billing.ErrMissingUser)
	}
	sub, err := s.store.GetSubscriptionByProviderID(ctx, providerSubID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, billing.ErrMissingUser)
	}
	return sub.UserID, nil
}

func (s *Service) applySubscription(ctx context.Context, p *billing.Payload) error {
	attrs := p.Data.Attributes
	providerSubID := p.Data.ID
	userID, err := s.resolveUser(ctx, p, providerSubID)
	if err != nil {
		return err
	}

	variant, err := s.variants.Resolve(attrs.VariantID.String())
	if err != nil {
		metrics.RecordWebhookRejected("unknown_variant")
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	// Tier and interval always come from the lookup table; the payload's
	// own naming is never trusted.
	price := attrs.Total
	if price == 0 {
		price = variant.PriceCents
		s.log.Warn(ctx, "webhook omitted price, using variant fallback",
			logger.String("variant_id", attrs.VariantID.String()),
			logger.Int("price_cents", price))
		s.audit(ctx, userID, "price_fallback",
			fmt.Sprintf("variant %s priced from config: %d cents", attrs.VariantID, price))
	}

	status := attrs.Status
	if status == "" {
		status = model.SubscriptionActive
	}
	now := time.Now().UTC()
	sub := &model.Subscription{
		ID:            uuid.NewString(),
		UserID:        userID,
		ProviderSubID: providerSubID,
		VariantID:     attrs.VariantID.String(),
		Tier:          variant.Tier,
		Interval:      variant.Interval,
		Status:        status,
		PriceCents:    price,
		RenewsAt:      attrs.RenewsAt,
		EndsAt:        attrs.EndsAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	if p.Meta.EventName == billing.EventSubscriptionCreated {
		s.deactivateGift(ctx, userID)
	}
	return nil
}

// deactivateGift expires any active gift subscription when a paid one
// arrives. Best effort: failure is logged, never propagated.
func (s *Service) deactivateGift(ctx context.Context, userID string) {
	gift, err := s.store.GetActiveGift(ctx, userID)
	if err != nil {
		return
	}
	if err := s.store.SetSubscriptionStatus(ctx, gift.ID, model.SubscriptionExpired); err != nil {
		s.log.Warn(ctx, "gift deactivation failed",
			logger.String("user_id", userID), logger.Error(err))
		return
	}
	s.audit(ctx, userID, "gift_deactivated", "superseded by paid subscription "+gift.ID)
}

func (s *Service) applyOrder(ctx context.Context, p *billing.Payload) error {
	attrs := p.Data.Attributes
	userID, err := s.resolveUser(ctx, p, attrs.SubscriptionID.String())
	if err != nil {
		return err
	}
	ph := &model.PaymentHistory{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProviderOrderID: p.Data.ID,
		AmountCents:     attrs.Total,
		Currency:        attrs.Currency,
		Status:          attrs.Status,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.AddPaymentHistory(ctx, ph); err != nil {
		return fmt.Errorf("add payment history: %w", err)
	}
	return nil
}

func (s *Service) applyPaymentSuccess(ctx context.Context, p *billing.Payload) error {
	attrs := p.Data.Attributes
	providerSubID := attrs.SubscriptionID.String()
	userID, err := s.resolveUser(ctx, p, providerSubID)
	if err != nil {
		return err
	}

	if err := s.store.ResetFailedPayments(ctx, providerSubID); err != nil {
		return fmt.Errorf("reset failed payments: %w", err)
	}
	if sub, err := s.store.GetSubscriptionByProviderID(ctx, providerSubID); err == nil &&
		sub.Status == model.SubscriptionPastDue {
		if err := s.store.SetSubscriptionStatus(ctx, sub.ID, model.SubscriptionActive); err != nil {
			return fmt.Errorf("reactivate subscription: %w", err)
		}
	}

	inv := &model.SubscriptionInvoice{
		ID:                uuid.NewString(),
		UserID:            userID,
		ProviderInvoiceID: p.Data.ID,
		ProviderSubID:     providerSubID,
		AmountCents:       attrs.Total,
		Status:            attrs.Status,
		BillingReason:     attrs.BillingReason,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.AddInvoice(ctx, inv); err != nil {
		return fmt.Errorf("add invoice: %w", err)
	}

	if p.Meta.EventName == billing.EventPaymentRecovered {
		s.audit(ctx, userID, "payment_recovered", "subscription "+providerSubID)
	}
	return nil
}

func (s *Service) applyPaymentFailure(ctx context.Context, p *billing.Payload) error {
	attrs := p.Data.Attributes
	providerSubID := attrs.SubscriptionID.String()
	userID, err := s.resolveUser(ctx, p, providerSubID)
	if err != nil {
		return err
	}

	failures, err := s.store.IncrementFailedPayments(ctx, providerSubID)
	if err != nil {
		return fmt.Errorf("increment failed payments: %w", err)
	}
	s.audit(ctx, userID, "payment_failed",
		fmt.Sprintf("subscription %s failure %d", providerSubID, failures))

	if failures >= failedPaymentsBeforePastDue {
		sub, err := s.store.GetSubscriptionByProviderID(ctx, providerSubID)
		if err != nil {
			return fmt.Errorf("get subscription: %w", err)
		}
		if err := s.store.SetSubscriptionStatus(ctx, sub.ID, model.SubscriptionPastDue); err != nil {
			return fmt.Errorf("mark past due: %w", err)
		}
	}
	return nil
}

// audit records a billing audit row. Best effort.
func (s *Service) audit(ctx context.Context, userID, event, detail string) {
	a := &model.BillingAudit{
		ID:        uuid.NewString(),
		UserID:    userID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddBillingAudit(ctx, a); err != nil {
		s.log.Warn(ctx, "billing audit write failed",
			logger.String("event", event), logger.Error(err))
	}
}
