package config_test

import (
	"context"
	"os"
	"runtime"
	"testing"

	"github.com/okian/k0sqa/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "events.jsonl")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.V0CosPA, convey.ShouldEqual, 0.995)
				convey.So(cfg.MaxRapidity, convey.ShouldEqual, 0.5)
				convey.So(cfg.MaxTPCNSigmaPi, convey.ShouldEqual, 10.0)
				convey.So(cfg.EventSelection, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("K0SQA_INPUT", "run42.jsonl.gz")
			_ = os.Setenv("K0SQA_QUEUE_SIZE", "500")
			_ = os.Setenv("K0SQA_WORKER_COUNT", "2")
			_ = os.Setenv("K0SQA_V0_COS_PA", "0.99")
			_ = os.Setenv("K0SQA_MAX_RAPIDITY", "0.8")
			_ = os.Setenv("K0SQA_MAX_TPC_NSIGMA_PI", "5")
			_ = os.Setenv("K0SQA_EVENT_SELECTION", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "run42.jsonl.gz")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.V0CosPA, convey.ShouldEqual, 0.99)
				convey.So(cfg.MaxRapidity, convey.ShouldEqual, 0.8)
				convey.So(cfg.MaxTPCNSigmaPi, convey.ShouldEqual, 5.0)
				convey.So(cfg.EventSelection, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with an out-of-range cosPA", func() {
			clearConfigEnvVars()
			_ = os.Setenv("K0SQA_V0_COS_PA", "1.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty input", func() {
			clearConfigEnvVars()

			tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
			convey.So(err, convey.ShouldBeNil)
			_, err = tmp.WriteString("input: \"\"\n")
			convey.So(err, convey.ShouldBeNil)
			convey.So(tmp.Close(), convey.ShouldBeNil)
			_ = os.Setenv("K0SQA_CONFIG", tmp.Name())
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	vars := []string{
		"K0SQA_CONFIG",
		"K0SQA_INPUT",
		"K0SQA_OUTPUT_DB",
		"K0SQA_REPORT",
		"K0SQA_METRICS_ADDR",
		"K0SQA_QUEUE_SIZE",
		"K0SQA_WORKER_COUNT",
		"K0SQA_V0_COS_PA",
		"K0SQA_MAX_RAPIDITY",
		"K0SQA_MAX_TPC_NSIGMA_PI",
		"K0SQA_EVENT_SELECTION",
		"K0SQA_LOG_LEVEL",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}
