package app

import (
	"time"

	"github.com/okian/tally/internal/domain/billing"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPageSize sets the fixed listing page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPendingDeleteDelay sets the undo window for deferred deletions.
func WithPendingDeleteDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pendingDelay = d
		}
	}
}

// WithWebhookSecret sets the billing webhook signing secret.
func WithWebhookSecret(secret string) Option {
	return func(s *Service) {
		s.webhookSecret = secret
	}
}

// WithVariants sets the billing variant lookup table.
func WithVariants(t billing.VariantTable) Option {
	return func(s *Service) {
		if t != nil {
			s.variants = t
		}
	}
}

// WithDeduper sets the webhook idempotency cache.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithPinSecret sets the salt for kiosk PIN hashes.
func WithPinSecret(secret string) Option {
	return func(s *Service) {
		if secret != "" {
			s.pinSecret = secret
		}
	}
}

// WithKioskDefaults sets the fallback slide duration and transition used
// when a scoreboard has no stored kiosk configuration.
func WithKioskDefaults(slide, transition time.Duration) Option {
	return func(s *Service) {
		if slide > 0 {
			s.kioskSlideDuration = slide
		}
		if transition > 0 {
			s.kioskTransition = transition
		}
	}
}

// WithEntriesDebounce bounds kiosk refetch frequency during bulk score
// updates.
func WithEntriesDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.entriesDebounce = d
		}
	}
}

// WithIdentityDeleter sets the identity-provider hook used during
// account deletion. Without one, deletion still removes data but the
// response carries a warning.
func WithIdentityDeleter(d IdentityDeleter) Option {
	return func(s *Service) {
		s.identity = d
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
