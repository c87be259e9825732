package model_test

import (
	"testing"

	"github.com/okian/k0sqa/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestV0Kinematics(t *testing.T) {
	Convey("Given a V0 candidate", t, func() {
		Convey("When the momentum points along the flight line", func() {
			v0 := model.V0{
				X: 3, Y: 4, Z: 0,
				Px: 0.6, Py: 0.8, Pz: 0,
			}

			Convey("Then cosPA from the origin is 1", func() {
				So(v0.CosPA(0, 0, 0), ShouldAlmostEqual, 1.0, 1e-12)
			})

			Convey("Then the decay radius is the transverse distance", func() {
				So(v0.Radius(), ShouldAlmostEqual, 5.0, 1e-12)
			})

			Convey("Then pT is the transverse momentum", func() {
				So(v0.Pt(), ShouldAlmostEqual, 1.0, 1e-12)
			})
		})

		Convey("When the momentum points opposite to the flight line", func() {
			v0 := model.V0{
				X: 1, Y: 0, Z: 0,
				Px: -1, Py: 0, Pz: 0,
			}

			Convey("Then cosPA from the origin is -1", func() {
				So(v0.CosPA(0, 0, 0), ShouldAlmostEqual, -1.0, 1e-12)
			})
		})

		Convey("When the candidate is degenerate", func() {
			Convey("And the momentum is zero", func() {
				v0 := model.V0{X: 1, Y: 1, Z: 1}
				So(v0.CosPA(0, 0, 0), ShouldEqual, -1)
			})

			Convey("And the decay vertex coincides with the primary vertex", func() {
				v0 := model.V0{X: 0.5, Y: 0.5, Z: 0.5, Px: 1}
				So(v0.CosPA(0.5, 0.5, 0.5), ShouldEqual, -1)
			})
		})

		Convey("When computing rapidity under the K0s hypothesis", func() {
			Convey("And pz is zero", func() {
				v0 := model.V0{Px: 1, Py: 0, Pz: 0}
				So(v0.RapidityK0Short(), ShouldAlmostEqual, 0.0, 1e-12)
			})

			Convey("And pz is positive", func() {
				v0 := model.V0{Px: 0.1, Py: 0, Pz: 2}
				y := v0.RapidityK0Short()
				So(y, ShouldBeGreaterThan, 0)

				// Sign flips with pz.
				flipped := model.V0{Px: 0.1, Py: 0, Pz: -2}
				So(flipped.RapidityK0Short(), ShouldAlmostEqual, -y, 1e-12)
			})
		})
	})
}

func TestEventRecordTrackByID(t *testing.T) {
	Convey("Given an event record with tracks", t, func() {
		rec := model.EventRecord{
			Tracks: []model.Track{
				{ID: "t1", HasTPC: true},
				{ID: "t2", HasITS: true},
			},
		}

		Convey("When resolving an existing id", func() {
			trk, ok := rec.TrackByID("t2")
			So(ok, ShouldBeTrue)
			So(trk.HasITS, ShouldBeTrue)
		})

		Convey("When resolving a missing id", func() {
			_, ok := rec.TrackByID("nope")
			So(ok, ShouldBeFalse)
		})
	})
}
