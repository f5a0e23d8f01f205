package export_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/domain/export"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/ranking"
	"github.com/okian/tally/internal/domain/timefmt"
)

func testBoard() *model.Scoreboard {
	return &model.Scoreboard{
		ID:         "sb1",
		Title:      `Scores, "Best" Team`,
		ScoreType:  model.ScoreNumber,
		SortOrder:  model.SortDesc,
		Visibility: model.VisibilityPublic,
		CreatedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteCSV(t *testing.T) {
	Convey("Given a scoreboard with a title needing quoting", t, func() {
		sb := testBoard()
		ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
		ranked := ranking.Rank([]model.Entry{
			{ID: "e1", Name: "Alice", Score: 30, Details: "comma, here", CreatedAt: ts, UpdatedAt: ts},
			{ID: "e2", Name: "Bob", Score: 10.5, CreatedAt: ts, UpdatedAt: ts},
		}, sb.SortOrder)

		Convey("When writing the export", func() {
			var buf bytes.Buffer
			err := export.WriteCSV(&buf, sb, ranked)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

			Convey("Then the title row is RFC4180-quoted", func() {
				So(lines[0], ShouldEqual, `Scoreboard Title,"Scores, ""Best"" Team"`)
			})

			Convey("Then the metadata block precedes a blank separator", func() {
				So(lines[1], ShouldEqual, "Description,")
				So(lines[6], ShouldEqual, "Created,2026-03-14")
				So(lines[7], ShouldEqual, "Total Entries,2")
				So(lines[8], ShouldEqual, "")
			})

			Convey("Then the entry table follows in rank order", func() {
				So(lines[9], ShouldEqual, "Name,Score,Details,Created At,Updated At")
				So(lines[10], ShouldEqual, `Alice,30,"comma, here",2026-03-14 15:09:26,2026-03-14 15:09:26`)
				So(lines[11], ShouldEqual, "Bob,10.5,,2026-03-14 15:09:26,2026-03-14 15:09:26")
			})
		})
	})

	Convey("Given a time scoreboard", t, func() {
		sb := testBoard()
		sb.ScoreType = model.ScoreTime
		sb.TimeFormat = timefmt.MinutesSecondsMs
		sb.SortOrder = model.SortAsc
		ranked := ranking.Rank([]model.Entry{
			{ID: "e1", Name: "Runner", Score: 125000},
		}, sb.SortOrder)

		Convey("When writing the export", func() {
			var buf bytes.Buffer
			So(export.WriteCSV(&buf, sb, ranked), ShouldBeNil)

			Convey("Then scores render in the display format", func() {
				So(buf.String(), ShouldContainSubstring, "Runner,2:05.000")
			})
		})
	})

	Convey("Given no entries", t, func() {
		sb := testBoard()

		Convey("When writing the export", func() {
			var buf bytes.Buffer
			So(export.WriteCSV(&buf, sb, nil), ShouldBeNil)

			Convey("Then the header row still appears with a zero count", func() {
				So(buf.String(), ShouldContainSubstring, "Total Entries,0")
				So(buf.String(), ShouldContainSubstring, "Name,Score,Details,Created At,Updated At")
			})
		})
	})
}

func TestSanitizeFilename(t *testing.T) {
	Convey("Given scoreboard titles", t, func() {
		Convey("When sanitizing typical titles", func() {
			So(export.SanitizeFilename("Spring Tournament 2026"), ShouldEqual, "spring-tournament-2026")
			So(export.SanitizeFilename(`Scores, "Best" Team`), ShouldEqual, "scores-best-team")
		})

		Convey("When the title has runs of punctuation", func() {
			So(export.SanitizeFilename("a -- b!!c"), ShouldEqual, "a-b-c")
		})

		Convey("When the title has no usable characters", func() {
			So(export.SanitizeFilename("!!!"), ShouldEqual, "scoreboard")
			So(export.SanitizeFilename(""), ShouldEqual, "scoreboard")
		})

		Convey("When the title is very long", func() {
			long := strings.Repeat("abcde ", 30)
			got := export.SanitizeFilename(long)
			So(len(got), ShouldBeLessThanOrEqualTo, 80)
			So(strings.HasSuffix(got, "-"), ShouldBeFalse)
		})
	})
}
