package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/config"
)

func TestDefaults(t *testing.T) {
	Convey("Given a fresh Config", t, func() {
		cfg := config.New()

		Convey("Then service defaults are set", func() {
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.PageSize, ShouldEqual, 20)
			So(cfg.PendingDeleteDelayMS, ShouldEqual, 5000)
			So(cfg.EntriesDebounceMS, ShouldEqual, 2000)
			So(cfg.KioskSlideDurationSec, ShouldEqual, 10)
			So(cfg.KioskTransitionMS, ShouldEqual, 400)
		})

		Convey("Then the variant table covers both tiers and intervals", func() {
			So(cfg.Variants, ShouldHaveLength, 4)
			So(cfg.Variants["10003"].Tier, ShouldEqual, "champion")
			So(cfg.Variants["10002"].Interval, ShouldEqual, "yearly")
		})
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no environment overrides", t, func() {
		cfg, err := config.Load(ctx)

		Convey("Then defaults survive the load", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.PageSize, ShouldEqual, 20)
		})
	})
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TALLY_ADDR", ":7070")
	t.Setenv("TALLY_PAGE_SIZE", "5")
	t.Setenv("TALLY_LOG_LEVEL", "debug")

	Convey("Given TALLY_ environment variables", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.PageSize, ShouldEqual, 5)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tally.yaml")
	yaml := "addr: \":6060\"\npage_size: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TALLY_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then file values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.PageSize, ShouldEqual, 3)
		})
	})

	Convey("Given an env override on top of the file", t, func() {
		t.Setenv("TALLY_ADDR", ":6061")
		cfg, err := config.Load(context.Background())

		Convey("Then env beats file", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6061")
		})
	})
}

func TestValidation(t *testing.T) {
	Convey("Given invalid environment values", t, func() {
		t.Setenv("TALLY_PAGE_SIZE", "0")

		Convey("When loading", func() {
			_, err := config.Load(context.Background())

			Convey("Then validation rejects the config", func() {
				So(err, ShouldWrap, config.ErrInvalidConfig)
			})
		})
	})
}
