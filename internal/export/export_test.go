package export_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/okian/k0sqa/internal/export"
	"github.com/okian/k0sqa/internal/histogram"
	"github.com/okian/k0sqa/internal/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func filledRegistry(t *testing.T) *histogram.Registry {
	t.Helper()
	reg := histogram.NewRegistry()
	if err := reg.Book1D("Test/h_mass", histogram.Axis{Bins: 200, Min: 0.4, Max: 0.6, Title: "mass"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.BookSparse("h5", histogram.Axis{Bins: 10, Min: 0, Max: 10}, histogram.Axis{Bins: 2, Min: -0.5, Max: 1.5}); err != nil {
		t.Fatal(err)
	}
	if err := reg.BookCounter("h_EventCounter", "Total", "Selected"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := reg.Fill1("Test/h_mass", 0.4976); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.FillN("h5", 2.5, 1.0); err != nil {
		t.Fatal(err)
	}
	if err := reg.FillLabel("h_EventCounter", "Total"); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestSQLiteExport(t *testing.T) {
	Convey("Given a filled registry and a fresh database", t, func() {
		reg := filledRegistry(t)
		path := filepath.Join(t.TempDir(), "results.db")

		db, err := export.NewDB(path)
		So(err, ShouldBeNil)
		defer func() { _ = db.Close() }()

		runID := uuid.NewString()

		Convey("When the run and histograms are written", func() {
			snap, err := reg.Histogram1D("Test/h_mass")
			So(err, ShouldBeNil)
			mass := stats.SummarizeMass(snap, stats.DefaultWindowLo, stats.DefaultWindowHi)

			So(db.RecordRun(export.RunRecord{
				RunID:       runID,
				Input:       "events.jsonl",
				EventsTotal: 1,
				Mass:        mass,
			}), ShouldBeNil)
			So(db.WriteHistograms(runID, reg), ShouldBeNil)

			Convey("Then the run row is readable back", func() {
				var input string
				var mean float64
				err := db.QueryRow(`SELECT input, mass_mean FROM runs WHERE run_id = ?`, runID).
					Scan(&input, &mean)
				So(err, ShouldBeNil)
				So(input, ShouldEqual, "events.jsonl")
				So(mean, ShouldAlmostEqual, mass.Mean, 1e-9)
			})

			Convey("Then only the populated bin is stored", func() {
				var bins int
				var total float64
				err := db.QueryRow(
					`SELECT COUNT(*), SUM(count) FROM h1_bins WHERE run_id = ? AND histogram = ?`,
					runID, "Test/h_mass",
				).Scan(&bins, &total)
				So(err, ShouldBeNil)
				So(bins, ShouldEqual, 1)
				So(total, ShouldAlmostEqual, 5)
			})

			Convey("Then the sparse cell keeps its bin tuple", func() {
				var binsKey string
				var weight float64
				err := db.QueryRow(
					`SELECT bins, weight FROM sparse_cells WHERE run_id = ? AND histogram = ?`,
					runID, "h5",
				).Scan(&binsKey, &weight)
				So(err, ShouldBeNil)
				So(binsKey, ShouldEqual, "2,1")
				So(weight, ShouldAlmostEqual, 1)
			})

			Convey("Then every counter label is stored", func() {
				var labels int
				err := db.QueryRow(
					`SELECT COUNT(*) FROM counters WHERE run_id = ? AND histogram = ?`,
					runID, "h_EventCounter",
				).Scan(&labels)
				So(err, ShouldBeNil)
				So(labels, ShouldEqual, 2)
			})
		})
	})
}

func TestWriteReport(t *testing.T) {
	Convey("Given a filled registry", t, func() {
		reg := filledRegistry(t)
		snap, err := reg.Histogram1D("Test/h_mass")
		So(err, ShouldBeNil)
		mass := stats.SummarizeMass(snap, stats.DefaultWindowLo, stats.DefaultWindowHi)

		Convey("When the HTML report is rendered", func() {
			path := filepath.Join(t.TempDir(), "report.html")
			So(export.WriteReport(path, reg, mass), ShouldBeNil)

			Convey("Then the page names every chart", func() {
				b, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				html := string(b)
				So(strings.Contains(html, "Test/h_mass"), ShouldBeTrue)
				So(strings.Contains(html, "h_EventCounter"), ShouldBeTrue)
			})
		})
	})
}
