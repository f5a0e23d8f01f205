package timefmt_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/domain/timefmt"
)

func TestFormat(t *testing.T) {
	Convey("Given a raw score in milliseconds", t, func() {
		Convey("When formatting 125000ms", func() {
			cases := map[string]string{
				timefmt.MinutesSeconds:   "2:05",
				timefmt.MinutesSecondsDs: "2:05.0",
				timefmt.MinutesSecondsCs: "2:05.00",
				timefmt.MinutesSecondsMs: "2:05.000",
			}
			for format, want := range cases {
				got, err := timefmt.Format(format, 125000)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("When formatting with hour formats", func() {
			got, err := timefmt.Format(timefmt.HoursMinutesSeconds, 3*3600*1000+125000)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "3:02:05")

			got, err = timefmt.Format(timefmt.HoursMinutes, 3*3600*1000+125000)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "3:02")
		})

		Convey("When the leading component overflows its nominal width", func() {
			got, err := timefmt.Format(timefmt.MinutesSeconds, 125*60*1000)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "125:00")
		})

		Convey("When precision is below the stored value", func() {
			got, err := timefmt.Format(timefmt.MinutesSecondsDs, 125678)
			So(err, ShouldBeNil)

			Convey("Then the value truncates, never rounds", func() {
				So(got, ShouldEqual, "2:05.6")
			})
		})

		Convey("When the format is unknown", func() {
			_, err := timefmt.Format("ss:mm", 1000)
			So(err, ShouldWrap, timefmt.ErrUnknownFormat)
		})

		Convey("When milliseconds are negative", func() {
			_, err := timefmt.Format(timefmt.MinutesSeconds, -1)
			So(err, ShouldWrap, timefmt.ErrRange)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given display strings", t, func() {
		Convey("When parsing well-formed input", func() {
			ms, err := timefmt.Parse(timefmt.MinutesSecondsMs, "2:05.000")
			So(err, ShouldBeNil)
			So(ms, ShouldEqual, 125000)

			ms, err = timefmt.Parse(timefmt.HoursMinutesSeconds, "1:00:30")
			So(err, ShouldBeNil)
			So(ms, ShouldEqual, 3630000)
		})

		Convey("When seconds or minutes exceed 59", func() {
			_, err := timefmt.Parse(timefmt.MinutesSeconds, "2:61")
			So(err, ShouldWrap, timefmt.ErrMalformed)

			_, err = timefmt.Parse(timefmt.HoursMinutes, "1:60")
			So(err, ShouldWrap, timefmt.ErrMalformed)
		})

		Convey("When the fractional width does not match the format", func() {
			_, err := timefmt.Parse(timefmt.MinutesSecondsMs, "2:05.0")
			So(err, ShouldWrap, timefmt.ErrMalformed)

			_, err = timefmt.Parse(timefmt.MinutesSecondsDs, "2:05.00")
			So(err, ShouldWrap, timefmt.ErrMalformed)
		})

		Convey("When input is garbage", func() {
			for _, bad := range []string{"", ":", "abc", "2:5", "-1:00", "2.05"} {
				_, err := timefmt.Parse(timefmt.MinutesSeconds, bad)
				So(err, ShouldWrap, timefmt.ErrMalformed)
			}
		})

		Convey("When the format is unknown", func() {
			_, err := timefmt.Parse("hh", "2:05")
			So(err, ShouldWrap, timefmt.ErrUnknownFormat)
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Given every supported format", t, func() {
		Convey("When formatting then parsing at the format's precision", func() {
			// Values chosen to be exactly representable in each format.
			perFormat := map[string][]int64{
				timefmt.HoursMinutes:        {0, 60000, 3600000, 5460000},
				timefmt.HoursMinutesSeconds: {0, 1000, 3661000},
				timefmt.MinutesSeconds:      {0, 1000, 125000, 7500000},
				timefmt.MinutesSecondsDs:    {0, 100, 125600},
				timefmt.MinutesSecondsCs:    {0, 10, 125670},
				timefmt.MinutesSecondsMs:    {0, 1, 125678},
			}
			for format, values := range perFormat {
				for _, ms := range values {
					s, err := timefmt.Format(format, ms)
					So(err, ShouldBeNil)
					back, err := timefmt.Parse(format, s)
					So(err, ShouldBeNil)
					So(back, ShouldEqual, ms)
				}
			}
		})
	})
}
