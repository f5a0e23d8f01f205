package realtime_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/adapters/realtime"
	"github.com/okian/tally/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func waitNotification(ch <-chan realtime.Notification) (realtime.Notification, bool) {
	select {
	case n, ok := <-ch:
		return n, ok
	case <-time.After(2 * time.Second):
		return realtime.Notification{}, false
	}
}

func TestBroker(t *testing.T) {
	Convey("Given a broker and a subscribed consumer", t, func() {
		b := realtime.NewBroker()
		ctx, cancel := context.WithCancel(context.Background())

		Reset(func() {
			cancel()
			So(b.Close(), ShouldBeNil)
		})

		Convey("When a metadata change is published", func() {
			ch, err := b.SubscribeMeta(ctx, "sb1")
			So(err, ShouldBeNil)

			b.PublishMetaChanged(ctx, "sb1")

			Convey("Then the subscriber is notified without payload data", func() {
				n, ok := waitNotification(ch)
				So(ok, ShouldBeTrue)
				So(n.ScoreboardID, ShouldEqual, "sb1")
				So(n.Stream, ShouldEqual, realtime.StreamMeta)
			})
		})

		Convey("When an entries change is published", func() {
			meta, err := b.SubscribeMeta(ctx, "sb1")
			So(err, ShouldBeNil)
			entries, err := b.SubscribeEntries(ctx, "sb1")
			So(err, ShouldBeNil)

			b.PublishEntriesChanged(ctx, "sb1")

			Convey("Then only the entries stream fires", func() {
				n, ok := waitNotification(entries)
				So(ok, ShouldBeTrue)
				So(n.Stream, ShouldEqual, realtime.StreamEntries)

				select {
				case <-meta:
					So("meta notified", ShouldBeEmpty)
				case <-time.After(100 * time.Millisecond):
				}
			})
		})

		Convey("When publishing for a different scoreboard", func() {
			ch, err := b.SubscribeEntries(ctx, "sb1")
			So(err, ShouldBeNil)

			b.PublishEntriesChanged(ctx, "other")

			Convey("Then the subscriber stays quiet", func() {
				select {
				case <-ch:
					So("notified", ShouldBeEmpty)
				case <-time.After(100 * time.Millisecond):
				}
			})
		})

		Convey("When multiple consumers subscribe to one scoreboard", func() {
			a, err := b.SubscribeEntries(ctx, "sb1")
			So(err, ShouldBeNil)
			c, err := b.SubscribeEntries(ctx, "sb1")
			So(err, ShouldBeNil)

			b.PublishEntriesChanged(ctx, "sb1")

			Convey("Then every consumer receives the notification", func() {
				_, ok := waitNotification(a)
				So(ok, ShouldBeTrue)
				_, ok = waitNotification(c)
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestDebouncer(t *testing.T) {
	Convey("Given a debouncer with a short window", t, func() {
		var fired atomic.Int32
		d := realtime.NewDebouncer(50*time.Millisecond, func() { fired.Add(1) })

		Convey("When many triggers arrive inside one window", func() {
			for i := 0; i < 10; i++ {
				d.Trigger()
			}
			time.Sleep(150 * time.Millisecond)

			Convey("Then the callback fires exactly once", func() {
				So(fired.Load(), ShouldEqual, 1)
			})
		})

		Convey("When triggers arrive in separate windows", func() {
			d.Trigger()
			time.Sleep(100 * time.Millisecond)
			d.Trigger()
			time.Sleep(100 * time.Millisecond)

			Convey("Then each window yields one callback", func() {
				So(fired.Load(), ShouldEqual, 2)
			})
		})

		Convey("When stopped before the window elapses", func() {
			d.Trigger()
			d.Stop()
			time.Sleep(100 * time.Millisecond)

			Convey("Then the pending callback is cancelled", func() {
				So(fired.Load(), ShouldEqual, 0)
			})

			Convey("Then later triggers are rejected", func() {
				d.Trigger()
				time.Sleep(100 * time.Millisecond)
				So(fired.Load(), ShouldEqual, 0)
			})
		})
	})
}
