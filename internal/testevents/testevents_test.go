package testevents_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/k0sqa/internal/domain/model"
	"github.com/okian/k0sqa/internal/domain/selection"
	"github.com/okian/k0sqa/internal/reader"
	"github.com/okian/k0sqa/internal/testevents"
	"github.com/okian/k0sqa/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func readAll(t *testing.T, path string) []model.EventRecord {
	t.Helper()
	r, err := reader.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	var recs []model.EventRecord
	for {
		rec, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return recs
		}
		if err != nil {
			t.Fatal(err)
		}
		recs = append(recs, rec)
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a generator configuration", t, func() {
		ctx := context.Background()
		cfg := &testevents.Config{
			NumEvents:    50,
			SignalPerEvt: 2,
			BkgPerEvt:    1,
			Sel8Fraction: 0.9,
			Seed:         42,
		}

		Convey("When a sample is generated", func() {
			cfg.OutputFile = filepath.Join(t.TempDir(), "events.jsonl")
			So(testevents.Run(ctx, cfg), ShouldBeNil)

			recs := readAll(t, cfg.OutputFile)

			Convey("Then every event carries the configured candidates", func() {
				So(len(recs), ShouldEqual, 50)
				for _, rec := range recs {
					So(len(rec.V0s), ShouldEqual, 3)
					So(len(rec.Tracks), ShouldEqual, 6)
				}
			})

			Convey("Then every daughter reference resolves", func() {
				for _, rec := range recs {
					for _, v0 := range rec.V0s {
						_, ok := rec.TrackByID(v0.PosTrackID)
						So(ok, ShouldBeTrue)
						_, ok = rec.TrackByID(v0.NegTrackID)
						So(ok, ShouldBeTrue)
					}
				}
			})

			Convey("Then signal candidates survive the default cuts", func() {
				sel := selection.New()
				accepted := 0
				for _, rec := range recs {
					for _, v0 := range rec.V0s {
						pos, _ := rec.TrackByID(v0.PosTrackID)
						neg, _ := rec.TrackByID(v0.NegTrackID)
						if sel.AcceptV0(v0, pos, neg, rec.Collision) {
							accepted++
						}
					}
				}
				So(accepted, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the sample is rebuilt with the same seed", func() {
			first := filepath.Join(t.TempDir(), "a.jsonl")
			second := filepath.Join(t.TempDir(), "b.jsonl")

			cfg.OutputFile = first
			So(testevents.Run(ctx, cfg), ShouldBeNil)
			cfg.OutputFile = second
			So(testevents.Run(ctx, cfg), ShouldBeNil)

			Convey("Then the kinematics repeat", func() {
				a := readAll(t, first)
				b := readAll(t, second)
				So(len(a), ShouldEqual, len(b))
				So(a[0].Collision.Z, ShouldAlmostEqual, b[0].Collision.Z, 1e-12)
				So(a[0].V0s[0].MK0Short, ShouldAlmostEqual, b[0].V0s[0].MK0Short, 1e-12)
			})
		})

		Convey("When the output path ends in .gz", func() {
			cfg.NumEvents = 10
			cfg.OutputFile = filepath.Join(t.TempDir(), "events.jsonl.gz")
			So(testevents.Run(ctx, cfg), ShouldBeNil)

			recs := readAll(t, cfg.OutputFile)
			So(len(recs), ShouldEqual, 10)
		})

		Convey("When no output path is set", func() {
			cfg.OutputFile = ""
			So(testevents.Run(ctx, cfg), ShouldNotBeNil)
		})
	})
}
