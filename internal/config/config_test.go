package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/t20score/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StatsSource, convey.ShouldEqual, config.StatsSourceCSV)
			convey.So(cfg.ModelTimeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.BreakerOpenTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.PredictionCacheTTL(), convey.ShouldEqual, time.Minute)
			convey.So(config.Validate(cfg), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When neither a model file nor a model server is set", func() {
			cfg.ModelPath = ""
			err := config.Validate(cfg)

			convey.Convey("Then validation names the missing key", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "model_path must not be empty")
			})
		})

		convey.Convey("When only a model server is set", func() {
			cfg.ModelPath = ""
			cfg.ModelURL = "http://model:5001"
			convey.So(config.Validate(cfg), convey.ShouldBeNil)
		})

		convey.Convey("When the model server URL is malformed", func() {
			cfg.ModelURL = "not a url"
			err := config.Validate(cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "model_url must be a valid URL")
		})

		convey.Convey("When postgres is selected without a DSN", func() {
			cfg.StatsSource = config.StatsSourcePostgres
			err := config.Validate(cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "postgres_dsn must not be empty")

			convey.Convey("And the CSV path is no longer required", func() {
				cfg.PostgresDSN = "postgres://localhost/t20"
				cfg.PlayerStatsPath = ""
				convey.So(config.Validate(cfg), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the stats source is unknown", func() {
			cfg.StatsSource = "parquet"
			err := config.Validate(cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "stats_source must be one of")
		})

		convey.Convey("When rate limiting has no burst", func() {
			cfg.PredictRateBurst = 0
			err := config.Validate(cfg)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "predict_rate_burst")

			convey.Convey("Then disabling the limit makes it valid", func() {
				cfg.PredictRateLimit = 0
				convey.So(config.Validate(cfg), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the breaker reopens faster than a call can time out", func() {
			cfg.BreakerOpenTimeoutMS = 100
			err := config.Validate(cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "breaker_open_timeout_ms")
		})

		convey.Convey("When the model timeout is zero", func() {
			cfg.ModelTimeoutMS = 0
			err := config.Validate(cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "model_timeout_ms must be gt 0")
		})
	})
}
