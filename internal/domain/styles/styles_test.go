package styles_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/styles"
)

func TestResolve(t *testing.T) {
	Convey("Given custom style properties", t, func() {
		Convey("When no preset is named", func() {
			got := styles.Resolve(model.StyleMap{"accent": "#ff0000"})

			Convey("Then the default preset is the base", func() {
				So(got["background"], ShouldEqual, "#ffffff")
				So(got["accent"], ShouldEqual, "#ff0000")
			})
		})

		Convey("When a preset is named", func() {
			got := styles.Resolve(model.StyleMap{"preset": "midnight"})

			Convey("Then that preset's properties apply", func() {
				So(got["background"], ShouldEqual, "#0f172a")
			})

			Convey("Then the reserved preset key is not emitted", func() {
				_, ok := got["preset"]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the named preset is unknown", func() {
			got := styles.Resolve(model.StyleMap{"preset": "neon"})

			Convey("Then resolution falls back to the default", func() {
				So(got["background"], ShouldEqual, "#ffffff")
			})
		})

		Convey("When custom properties shadow the preset", func() {
			custom := model.StyleMap{"preset": "stadium", "font": "serif"}
			got := styles.Resolve(custom)

			Convey("Then custom wins", func() {
				So(got["font"], ShouldEqual, "serif")
				So(got["accent"], ShouldEqual, "#facc15")
			})

			Convey("Then the input map is unchanged", func() {
				So(custom, ShouldResemble, model.StyleMap{"preset": "stadium", "font": "serif"})
			})
		})

		Convey("When custom is nil", func() {
			got := styles.Resolve(nil)
			So(got, ShouldResemble, styles.Resolve(model.StyleMap{}))
		})
	})
}

func TestAppliesTo(t *testing.T) {
	Convey("Given the three style scopes", t, func() {
		Convey("Then both applies everywhere", func() {
			So(styles.AppliesTo(model.ScopeBoth, styles.ViewMain), ShouldBeTrue)
			So(styles.AppliesTo(model.ScopeBoth, styles.ViewEmbed), ShouldBeTrue)
		})

		Convey("Then main and embed apply only to their view", func() {
			So(styles.AppliesTo(model.ScopeMain, styles.ViewMain), ShouldBeTrue)
			So(styles.AppliesTo(model.ScopeMain, styles.ViewEmbed), ShouldBeFalse)
			So(styles.AppliesTo(model.ScopeEmbed, styles.ViewEmbed), ShouldBeTrue)
			So(styles.AppliesTo(model.ScopeEmbed, styles.ViewMain), ShouldBeFalse)
		})

		Convey("Then an unknown scope applies nowhere", func() {
			So(styles.AppliesTo(model.StyleScope("banner"), styles.ViewMain), ShouldBeFalse)
		})
	})
}

func TestKnownPreset(t *testing.T) {
	Convey("Given the preset table", t, func() {
		So(styles.KnownPreset("classic"), ShouldBeTrue)
		So(styles.KnownPreset("midnight"), ShouldBeTrue)
		So(styles.KnownPreset("stadium"), ShouldBeTrue)
		So(styles.KnownPreset("neon"), ShouldBeFalse)
		So(len(styles.Presets()), ShouldEqual, 3)
	})
}
