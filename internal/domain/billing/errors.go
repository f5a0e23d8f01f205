package billing

import "errors"

// Sentinel kinds for webhook processing errors.
var (
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrUnknownVariant   = errors.New("unknown variant id")
	ErrUnknownEvent     = errors.New("unknown event name")
	ErrMissingUser      = errors.New("cannot resolve user for webhook")
)
