package billing_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/domain/billing"
)

func TestVerifySignature(t *testing.T) {
	Convey("Given a signing secret and a payload", t, func() {
		secret := "whsec-test"
		body := []byte(`{"meta":{"event_name":"order_created"}}`)

		Convey("When the signature was produced with the same secret", func() {
			sig := billing.Sign(secret, body)
			So(billing.VerifySignature(secret, body, sig), ShouldBeTrue)
		})

		Convey("When the body was tampered with", func() {
			sig := billing.Sign(secret, body)
			So(billing.VerifySignature(secret, append(body, 'x'), sig), ShouldBeFalse)
		})

		Convey("When the signature is not hex", func() {
			So(billing.VerifySignature(secret, body, "zz"), ShouldBeFalse)
		})

		Convey("When the secret or signature is empty", func() {
			So(billing.VerifySignature("", body, billing.Sign("", body)), ShouldBeFalse)
			So(billing.VerifySignature(secret, body, ""), ShouldBeFalse)
		})
	})
}

func TestParsePayload(t *testing.T) {
	Convey("Given webhook bodies", t, func() {
		Convey("When the body is a valid subscription event", func() {
			body := []byte(`{
				"meta": {"event_name": "subscription_created", "event_id": "ev-1",
				         "custom_data": {"user_id": "u1"}},
				"data": {"type": "subscriptions", "id": "sub-9",
				         "attributes": {"variant_id": 10001, "status": "active"}}
			}`)
			p, err := billing.ParsePayload(body)
			So(err, ShouldBeNil)
			So(p.Meta.EventName, ShouldEqual, "subscription_created")
			So(p.Meta.CustomData.UserID, ShouldEqual, "u1")
			So(p.Data.Attributes.VariantID.String(), ShouldEqual, "10001")
		})

		Convey("When the body is not JSON", func() {
			_, err := billing.ParsePayload([]byte("not json"))
			So(err, ShouldWrap, billing.ErrMalformedPayload)
		})

		Convey("When required fields are missing", func() {
			_, err := billing.ParsePayload([]byte(`{"data":{"type":"orders"}}`))
			So(err, ShouldWrap, billing.ErrMalformedPayload)

			_, err = billing.ParsePayload([]byte(`{"meta":{"event_name":"order_created"}}`))
			So(err, ShouldWrap, billing.ErrMalformedPayload)
		})
	})
}

func TestValidateEvent(t *testing.T) {
	Convey("Given provider event names", t, func() {
		for _, name := range []string{
			billing.EventSubscriptionCreated,
			billing.EventSubscriptionUpdated,
			billing.EventOrderCreated,
			billing.EventPaymentSuccess,
			billing.EventPaymentFailed,
			billing.EventPaymentRecovered,
		} {
			So(billing.ValidateEvent(name), ShouldBeNil)
		}
		So(billing.ValidateEvent("license_key_created"), ShouldWrap, billing.ErrUnknownEvent)
		So(billing.ValidateEvent(""), ShouldWrap, billing.ErrUnknownEvent)
	})
}

func TestVariantTable(t *testing.T) {
	Convey("Given a variant lookup table", t, func() {
		table := billing.VariantTable{
			"10001": {Tier: "supporter", Interval: "monthly", PriceCents: 300},
		}

		Convey("When resolving a known variant", func() {
			v, err := table.Resolve("10001")
			So(err, ShouldBeNil)
			So(v.Tier, ShouldEqual, "supporter")
			So(v.Interval, ShouldEqual, "monthly")
		})

		Convey("When resolving an unknown or empty variant", func() {
			_, err := table.Resolve("99999")
			So(err, ShouldWrap, billing.ErrUnknownVariant)

			_, err = table.Resolve("")
			So(err, ShouldWrap, billing.ErrUnknownVariant)
		})
	})
}
