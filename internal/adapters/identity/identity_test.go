package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/adapters/identity"
	"github.com/okian/tally/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestDeleteIdentity(t *testing.T) {
	ctx := context.Background()

	Convey("Given a provider admin API", t, func() {
		var gotPath, gotAuth string
		status := http.StatusNoContent
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(status)
		}))
		Reset(srv.Close)

		client := identity.New(srv.URL, "service-key")

		Convey("When deleting a user", func() {
			err := client.DeleteIdentity(ctx, "u1")

			Convey("Then the admin endpoint is called with the key", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/admin/users/u1")
				So(gotAuth, ShouldEqual, "Bearer service-key")
			})
		})

		Convey("When the user id needs escaping", func() {
			So(client.DeleteIdentity(ctx, "u/1"), ShouldBeNil)
			So(gotPath, ShouldEqual, "/admin/users/u%2F1")
		})

		Convey("When the user is already gone", func() {
			status = http.StatusNotFound
			So(client.DeleteIdentity(ctx, "u1"), ShouldBeNil)
		})

		Convey("When the provider errors", func() {
			status = http.StatusInternalServerError
			So(client.DeleteIdentity(ctx, "u1"), ShouldWrap, identity.ErrDeleteFailed)
		})
	})
}

func TestUnreachableProvider(t *testing.T) {
	Convey("Given an unreachable provider", t, func() {
		client := identity.New("http://127.0.0.1:1", "service-key")

		Convey("When deleting a user", func() {
			err := client.DeleteIdentity(context.Background(), "u1")
			So(err, ShouldWrap, identity.ErrDeleteFailed)
		})
	})
}
