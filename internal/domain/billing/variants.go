package billing

import "fmt"

// Variant is one provider product offering mapped to an internal
// (tier, billing interval) pair. PriceCents is the configured fallback
// used when the webhook omits the billed amount.
type Variant struct {
	Tier       string
	Interval   string
	PriceCents int
}

// VariantTable maps provider variant ids to internal variants.
type VariantTable map[string]Variant

// Resolve looks up a provider variant id. Unknown ids are an error so a
// misconfigured table rejects the webhook instead of writing a row with
// an unmapped tier.
func (t VariantTable) Resolve(variantID string) (Variant, error) {
	if variantID == "" {
		return Variant{}, fmt.Errorf("%w: empty variant id", ErrUnknownVariant)
	}
	v, ok := t[variantID]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, variantID)
	}
	return v, nil
}
