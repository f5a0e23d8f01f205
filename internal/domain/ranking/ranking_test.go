package ranking_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/ranking"
)

func entry(id, name string, score float64) model.Entry {
	return model.Entry{ID: id, Name: name, Score: score}
}

func TestRank(t *testing.T) {
	Convey("Given entries with distinct scores", t, func() {
		entries := []model.Entry{
			entry("e1", "Bob", 10),
			entry("e2", "Alice", 30),
			entry("e3", "Zoe", 20),
		}

		Convey("When ranking descending", func() {
			ranked := ranking.Rank(entries, model.SortDesc)

			Convey("Then higher scores rank first", func() {
				So(ranked, ShouldHaveLength, 3)
				So(ranked[0].Name, ShouldEqual, "Alice")
				So(ranked[0].Rank, ShouldEqual, 1)
				So(ranked[1].Name, ShouldEqual, "Zoe")
				So(ranked[1].Rank, ShouldEqual, 2)
				So(ranked[2].Name, ShouldEqual, "Bob")
				So(ranked[2].Rank, ShouldEqual, 3)
			})

			Convey("Then the input slice is untouched", func() {
				So(entries[0].Name, ShouldEqual, "Bob")
			})
		})

		Convey("When ranking ascending", func() {
			ranked := ranking.Rank(entries, model.SortAsc)

			Convey("Then lower scores rank first", func() {
				So(ranked[0].Name, ShouldEqual, "Bob")
				So(ranked[1].Name, ShouldEqual, "Zoe")
				So(ranked[2].Name, ShouldEqual, "Alice")
			})
		})
	})

	Convey("Given entries with tied scores", t, func() {
		entries := []model.Entry{
			entry("e1", "zeta", 50),
			entry("e2", "Alpha", 50),
			entry("e3", "beta", 50),
		}

		Convey("When ranking", func() {
			ranked := ranking.Rank(entries, model.SortDesc)

			Convey("Then ties break case-insensitively by name", func() {
				So(ranked[0].Name, ShouldEqual, "Alpha")
				So(ranked[1].Name, ShouldEqual, "beta")
				So(ranked[2].Name, ShouldEqual, "zeta")
			})

			Convey("Then ranks stay sequential with no gaps", func() {
				So(ranked[0].Rank, ShouldEqual, 1)
				So(ranked[1].Rank, ShouldEqual, 2)
				So(ranked[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When names also tie", func() {
			same := []model.Entry{
				entry("b", "Same", 10),
				entry("a", "Same", 10),
			}
			ranked := ranking.Rank(same, model.SortDesc)

			Convey("Then the id decides so order is deterministic", func() {
				So(ranked[0].ID, ShouldEqual, "a")
				So(ranked[1].ID, ShouldEqual, "b")
			})
		})
	})

	Convey("Given no entries", t, func() {
		Convey("When ranking", func() {
			ranked := ranking.Rank(nil, model.SortDesc)

			Convey("Then the result is empty", func() {
				So(ranked, ShouldHaveLength, 0)
			})
		})
	})

	Convey("Given ranking is a pure read", t, func() {
		entries := []model.Entry{
			entry("e1", "A", 1),
			entry("e2", "B", 2),
		}

		Convey("When ranking twice", func() {
			first := ranking.Rank(entries, model.SortAsc)
			second := ranking.Rank(entries, model.SortAsc)

			Convey("Then both reads agree", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}
