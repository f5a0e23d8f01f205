package app_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/adapters/realtime"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/timefmt"
	"github.com/okian/tally/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fixture struct {
	store  *repository.MemStore
	broker *realtime.Broker
	svc    *app.Service
}

func newFixture(opts ...app.Option) *fixture {
	store := repository.NewMemStore()
	broker := realtime.NewBroker()
	base := []app.Option{
		app.WithPageSize(2),
		app.WithPendingDeleteDelay(60 * time.Millisecond),
	}
	svc, err := app.New(store, broker, append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	return &fixture{store: store, broker: broker, svc: svc}
}

func (f *fixture) close() {
	f.svc.Stop()
	_ = f.broker.Close()
}

func (f *fixture) create(ctx context.Context, owner string, in app.CreateScoreboardInput) *model.Scoreboard {
	sb, err := f.svc.CreateScoreboard(ctx, owner, in)
	So(err, ShouldBeNil)
	return sb
}

func TestScoreboardLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given the service", t, func() {
		f := newFixture()
		Reset(f.close)

		Convey("When creating a scoreboard with defaults", func() {
			sb := f.create(ctx, "u1", app.CreateScoreboardInput{Title: "  Spring Cup  "})

			Convey("Then sensible defaults apply and the title is trimmed", func() {
				So(sb.Title, ShouldEqual, "Spring Cup")
				So(sb.SortOrder, ShouldEqual, model.SortDesc)
				So(sb.Visibility, ShouldEqual, model.VisibilityPrivate)
				So(sb.ScoreType, ShouldEqual, model.ScoreNumber)
				So(sb.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When creating with invalid input", func() {
			_, err := f.svc.CreateScoreboard(ctx, "u1", app.CreateScoreboardInput{Title: "   "})
			So(err, ShouldWrap, app.ErrValidation)

			_, err = f.svc.CreateScoreboard(ctx, "u1", app.CreateScoreboardInput{Title: "X", SortOrder: "sideways"})
			So(err, ShouldWrap, app.ErrValidation)

			_, err = f.svc.CreateScoreboard(ctx, "u1", app.CreateScoreboardInput{
				Title: "X", ScoreType: model.ScoreTime, TimeFormat: "ss:hh"})
			So(err, ShouldWrap, app.ErrValidation)

			_, err = f.svc.CreateScoreboard(ctx, "", app.CreateScoreboardInput{Title: "X"})
			So(err, ShouldWrap, app.ErrForbidden)
		})

		Convey("Given a private scoreboard", func() {
			sb := f.create(ctx, "u1", app.CreateScoreboardInput{Title: "Secret"})

			Convey("Then the owner and admins can read it", func() {
				_, err := f.svc.Scoreboard(ctx, sb.ID, "u1", false)
				So(err, ShouldBeNil)
				_, err = f.svc.Scoreboard(ctx, sb.ID, "someone", true)
				So(err, ShouldBeNil)
			})

			Convey("Then strangers cannot", func() {
				_, err := f.svc.Scoreboard(ctx, sb.ID, "u2", false)
				So(err, ShouldWrap, app.ErrForbidden)
				_, err = f.svc.Scoreboard(ctx, sb.ID, "", false)
				So(err, ShouldWrap, app.ErrForbidden)
			})
		})

		Convey("When updating", func() {
			sb := f.create(ctx, "u1", app.CreateScoreboardInput{Title: "Before"})
			meta, err := f.svc.SubscribeMeta(ctx, sb.ID)
			So(err, ShouldBeNil)

			title := "After"
			vis := model.VisibilityPublic
			got, err := f.svc.UpdateScoreboard(ctx, sb.ID, "u1", false, app.UpdateScoreboardInput{
				Title: &title, Visibility: &vis,
			})
			So(err, ShouldBeNil)

			Convey("Then the mutation sticks", func() {
				So(got.Title, ShouldEqual, "After")
				So(got.Visibility, ShouldEqual, model.VisibilityPublic)
			})

			Convey("Then metadata subscribers are notified", func() {
				select {
				case n := <-meta:
					So(n.ScoreboardID, ShouldEqual, sb.ID)
				case <-time.After(2 * time.Second):
					So("no notification", ShouldBeEmpty)
				}
			})

			Convey("Then non-owners are rejected", func() {
				_, err := f.svc.UpdateScoreboard(ctx, sb.ID, "u2", false, app.UpdateScoreboardInput{Title: &title})
				So(err, ShouldWrap, app.ErrForbidden)
			})

			Convey("Then time format cannot be set on a number board", func() {
				tf := timefmt.MinutesSeconds
				_, err := f.svc.UpdateScoreboard(ctx, sb.ID, "u1", false, app.UpdateScoreboardInput{TimeFormat: &tf})
				So(err, ShouldWrap, app.ErrValidation)
			})
		})
	})
}

func TestEntries(t *testing.T) {
	ctx := context.Background()

	Convey("Given a number scoreboard", t, func() {
		f := newFixture()
		Reset(f.close)
		sb := f.create(ctx, "u1", app.CreateScoreboardInput{Title: "Points"})

		score := func(v float64) *float64 { return &v }

		Convey("When adding entries", func() {
			entriesCh, err := f.svc.SubscribeEntries(ctx, sb.ID)
			So(err, ShouldBeNil)

			e, err := f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{Name: "Alice", Score: score(30)})
			So(err, ShouldBeNil)
			So(e.Score, ShouldEqual, 30)

			Convey("Then entry subscribers are notified", func() {
				select {
				case n := <-entriesCh:
					So(n.Stream, ShouldEqual, realtime.StreamEntries)
				case <-time.After(2 * time.Second):
					So("no notification", ShouldBeEmpty)
				}
			})
		})

		Convey("When reading ranked entries", func() {
			_, err := f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{Name: "Bob", Score: score(10)})
			So(err, ShouldBeNil)
			_, err = f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{Name: "Alice", Score: score(30)})
			So(err, ShouldBeNil)

			ranked, err := f.svc.RankedEntries(ctx, sb.ID, "u1", false)
			So(err, ShouldBeNil)

			Convey("Then ranks are derived per read", func() {
				So(ranked, ShouldHaveLength, 2)
				So(ranked[0].Name, ShouldEqual, "Alice")
				So(ranked[0].Rank, ShouldEqual, 1)
				So(ranked[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the board is locked", func() {
			locked := true
			_, err := f.svc.UpdateScoreboard(ctx, sb.ID, "u1", false, app.UpdateScoreboardInput{Locked: &locked})
			So(err, ShouldBeNil)

			_, err = f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{Name: "Late", Score: score(1)})
			So(err, ShouldWrap, app.ErrLocked)
		})

		Convey("When the score is missing", func() {
			_, err := f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{Name: "NoScore"})
			So(err, ShouldWrap, app.ErrValidation)
		})
	})

	Convey("Given a time scoreboard", t, func() {
		f := newFixture()
		Reset(f.close)
		sb := f.create(ctx, "u1", app.CreateScoreboardInput{
			Title: "Sprints", ScoreType: model.ScoreTime,
			TimeFormat: timefmt.MinutesSecondsMs, SortOrder: model.SortAsc,
		})

		Convey("When adding an entry by display string", func() {
			e, err := f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{
				Name: "Runner", ScoreDisplay: "2:05.000",
			})
			So(err, ShouldBeNil)

			Convey("Then the raw milliseconds are stored", func() {
				So(e.Score, ShouldEqual, 125000)
			})
		})

		Convey("When the display string is malformed", func() {
			_, err := f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{
				Name: "Runner", ScoreDisplay: "2:61.000",
			})
			So(err, ShouldWrap, app.ErrValidation)
		})
	})
}

func TestListing(t *testing.T) {
	ctx := context.Background()

	Convey("Given boards across owners and visibilities", t, func() {
		f := newFixture() // page size 2
		Reset(f.close)

		f.create(ctx, "u1", app.CreateScoreboardInput{Title: "Pub One", Visibility: model.VisibilityPublic})
		f.create(ctx, "u1", app.CreateScoreboardInput{Title: "Priv One"})
		f.create(ctx, "u2", app.CreateScoreboardInput{Title: "Pub Two", Visibility: model.VisibilityPublic})
		f.create(ctx, "u2", app.CreateScoreboardInput{Title: "Pub Three", Visibility: model.VisibilityPublic})

		Convey("When listing anonymously", func() {
			res, err := f.svc.ListScoreboards(ctx, app.ListParams{Page: 1})
			So(err, ShouldBeNil)

			Convey("Then only public boards appear, paged", func() {
				So(res.Total, ShouldEqual, 3)
				So(res.Items, ShouldHaveLength, 2)
				So(res.HasMore, ShouldBeTrue)
			})

			Convey("Then the last page has no more", func() {
				res, err := f.svc.ListScoreboards(ctx, app.ListParams{Page: 2})
				So(err, ShouldBeNil)
				So(res.Items, ShouldHaveLength, 1)
				So(res.HasMore, ShouldBeFalse)
			})
		})

		Convey("When listing own boards", func() {
			res, err := f.svc.ListScoreboards(ctx, app.ListParams{ViewerID: "u1", Mine: true})
			So(err, ShouldBeNil)

			Convey("Then private boards are included", func() {
				So(res.Total, ShouldEqual, 2)
			})
		})

		Convey("When listing own boards anonymously", func() {
			_, err := f.svc.ListScoreboards(ctx, app.ListParams{Mine: true})
			So(err, ShouldWrap, app.ErrForbidden)
		})

		Convey("When an admin lists everything", func() {
			res, err := f.svc.ListScoreboards(ctx, app.ListParams{ViewerID: "adm", Admin: true})
			So(err, ShouldBeNil)
			So(res.Total, ShouldEqual, 4)
		})

		Convey("When searching", func() {
			res, err := f.svc.ListScoreboards(ctx, app.ListParams{Search: "three"})
			So(err, ShouldBeNil)
			So(res.Total, ShouldEqual, 1)
			So(res.Items[0].Title, ShouldEqual, "Pub Three")
		})
	})
}

func TestPendingDeletes(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scoreboard", t, func() {
		f := newFixture() // 60ms undo window
		Reset(f.close)
		sb := f.create(ctx, "u1", app.CreateScoreboardInput{Title: "Doomed"})

		Convey("When deletion is scheduled and the window passes", func() {
			opID, err := f.svc.ScheduleScoreboardDelete(ctx, sb.ID, "u1", false)
			So(err, ShouldBeNil)
			So(opID, ShouldNotBeEmpty)

			// Still present inside the window.
			_, err = f.svc.Scoreboard(ctx, sb.ID, "u1", false)
			So(err, ShouldBeNil)

			time.Sleep(150 * time.Millisecond)

			Convey("Then the scoreboard is gone", func() {
				_, err := f.svc.Scoreboard(ctx, sb.ID, "u1", false)
				So(app.IsNotFound(err), ShouldBeTrue)
			})

			Convey("Then cancelling afterwards reports no pending op", func() {
				So(f.svc.CancelPendingDelete(ctx, opID), ShouldWrap, app.ErrNoPending)
			})
		})

		Convey("When deletion is cancelled inside the window", func() {
			opID, err := f.svc.ScheduleScoreboardDelete(ctx, sb.ID, "u1", false)
			So(err, ShouldBeNil)
			So(f.svc.CancelPendingDelete(ctx, opID), ShouldBeNil)

			time.Sleep(150 * time.Millisecond)

			Convey("Then the scoreboard survives", func() {
				_, err := f.svc.Scoreboard(ctx, sb.ID, "u1", false)
				So(err, ShouldBeNil)
			})
		})

		Convey("When deletion is re-triggered for the same board", func() {
			first, err := f.svc.ScheduleScoreboardDelete(ctx, sb.ID, "u1", false)
			So(err, ShouldBeNil)
			second, err := f.svc.ScheduleScoreboardDelete(ctx, sb.ID, "u1", false)
			So(err, ShouldBeNil)

			Convey("Then the first operation id is superseded", func() {
				So(first, ShouldNotEqual, second)
				So(f.svc.CancelPendingDelete(ctx, first), ShouldWrap, app.ErrNoPending)
				So(f.svc.CancelPendingDelete(ctx, second), ShouldBeNil)
			})
		})

		Convey("When a non-owner schedules deletion", func() {
			_, err := f.svc.ScheduleScoreboardDelete(ctx, sb.ID, "u2", false)
			So(err, ShouldWrap, app.ErrForbidden)
		})

		Convey("When an entry delete is scheduled", func() {
			v := 5.0
			e, err := f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{Name: "Row", Score: &v})
			So(err, ShouldBeNil)

			_, err = f.svc.ScheduleEntryDelete(ctx, e.ID, "u1", false)
			So(err, ShouldBeNil)
			time.Sleep(150 * time.Millisecond)

			Convey("Then the entry is removed after the window", func() {
				ranked, err := f.svc.RankedEntries(ctx, sb.ID, "u1", false)
				So(err, ShouldBeNil)
				So(ranked, ShouldBeEmpty)
			})
		})
	})
}

func TestExportAndAccount(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scoreboard with entries", t, func() {
		f := newFixture()
		Reset(f.close)
		sb := f.create(ctx, "u1", app.CreateScoreboardInput{
			Title: "Export Me", Visibility: model.VisibilityPublic,
		})
		v := 12.0
		_, err := f.svc.AddEntry(ctx, sb.ID, "u1", false, app.EntryInput{Name: "Alice", Score: &v})
		So(err, ShouldBeNil)

		Convey("When exporting as CSV", func() {
			var buf bytes.Buffer
			filename, err := f.svc.ExportCSV(ctx, sb.ID, "", false, &buf)
			So(err, ShouldBeNil)

			Convey("Then the filename derives from the title", func() {
				So(filename, ShouldEqual, "export-me.csv")
			})

			Convey("Then the body contains metadata and rows", func() {
				So(buf.String(), ShouldContainSubstring, "Scoreboard Title,Export Me")
				So(buf.String(), ShouldContainSubstring, "Alice,12")
			})
		})

		Convey("When deleting the account without an identity hook", func() {
			warnings, err := f.svc.DeleteAccount(ctx, "u1")
			So(err, ShouldBeNil)

			Convey("Then data is gone and a warning is reported", func() {
				So(warnings, ShouldHaveLength, 1)
				So(warnings[0], ShouldContainSubstring, "identity record not removed")
				_, err := f.svc.Scoreboard(ctx, sb.ID, "u1", false)
				So(app.IsNotFound(err), ShouldBeTrue)
			})
		})
	})
}

type fakeIdentity struct{ deleted []string }

func (f *fakeIdentity) DeleteIdentity(_ context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

func TestAccountIdentityHook(t *testing.T) {
	ctx := context.Background()

	Convey("Given an identity deleter", t, func() {
		ident := &fakeIdentity{}
		f := newFixture(app.WithIdentityDeleter(ident))
		Reset(f.close)
		f.create(ctx, "u1", app.CreateScoreboardInput{Title: "Mine"})

		Convey("When deleting the account", func() {
			warnings, err := f.svc.DeleteAccount(ctx, "u1")
			So(err, ShouldBeNil)

			Convey("Then the provider is called and no warning is raised", func() {
				So(warnings, ShouldBeEmpty)
				So(ident.deleted, ShouldResemble, []string{"u1"})
			})
		})
	})
}
