package reader_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/okian/k0sqa/internal/domain/model"
	"github.com/okian/k0sqa/internal/reader"
	. "github.com/smartystreets/goconvey/convey"
)

func writeLines(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeGzippedLines(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	for _, l := range lines {
		if _, err := gz.Write([]byte(l + "\n")); err != nil {
			t.Fatal(err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func recordLine(t *testing.T, rec model.EventRecord) string {
	t.Helper()
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func sampleRecord() model.EventRecord {
	return model.EventRecord{
		Collision: model.Collision{X: 0.01, Y: -0.02, Z: 1.5, Sel8: true},
		Tracks: []model.Track{
			{ID: "p1", HasTPC: true, HasITS: true, ITSClusterMap: 7, TPCNSigmaPi: 0.5},
			{ID: "n1", HasTPC: true, TPCNSigmaPi: -0.2},
		},
		V0s: []model.V0{
			{PosTrackID: "p1", NegTrackID: "n1", X: 2, Y: 1, Px: 2, Py: 1, MK0Short: 0.49},
		},
	}
}

func TestReader(t *testing.T) {
	Convey("Given a JSONL event file", t, func() {
		ctx := context.Background()

		Convey("When reading well-formed records", func() {
			rec := sampleRecord()
			path := writeLines(t, "events.jsonl", recordLine(t, rec), recordLine(t, rec))

			r, err := reader.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = r.Close() }()

			first, err := r.Next(ctx)
			So(err, ShouldBeNil)
			So(first.Collision.Sel8, ShouldBeTrue)
			So(len(first.Tracks), ShouldEqual, 2)
			So(len(first.V0s), ShouldEqual, 1)

			_, err = r.Next(ctx)
			So(err, ShouldBeNil)

			Convey("Then the stream ends with io.EOF", func() {
				_, err := r.Next(ctx)
				So(errors.Is(err, io.EOF), ShouldBeTrue)
				So(r.Line(), ShouldEqual, 2)
			})
		})

		Convey("When the file is gzip-compressed", func() {
			rec := sampleRecord()
			path := writeGzippedLines(t, "events.jsonl.gz", recordLine(t, rec))

			r, err := reader.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = r.Close() }()

			got, err := r.Next(ctx)
			So(err, ShouldBeNil)
			So(len(got.V0s), ShouldEqual, 1)

			_, err = r.Next(ctx)
			So(errors.Is(err, io.EOF), ShouldBeTrue)
		})

		Convey("When a record references a missing daughter track", func() {
			rec := sampleRecord()
			rec.V0s[0].NegTrackID = "missing"
			path := writeLines(t, "events.jsonl", recordLine(t, rec))

			r, err := reader.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = r.Close() }()

			got, err := r.Next(ctx)

			Convey("Then the V0 is dropped fail-closed", func() {
				So(err, ShouldBeNil)
				So(len(got.V0s), ShouldEqual, 0)
				So(len(got.Tracks), ShouldEqual, 2)
			})
		})

		Convey("When a line is not valid JSON", func() {
			path := writeLines(t, "events.jsonl", "{not json")

			r, err := reader.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = r.Close() }()

			_, err = r.Next(ctx)
			So(errors.Is(err, reader.ErrMalformedRecord), ShouldBeTrue)
		})

		Convey("When blank lines are interleaved", func() {
			rec := sampleRecord()
			path := writeLines(t, "events.jsonl", "", recordLine(t, rec), "")

			r, err := reader.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = r.Close() }()

			_, err = r.Next(ctx)
			So(err, ShouldBeNil)

			_, err = r.Next(ctx)
			So(errors.Is(err, io.EOF), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := reader.Open(filepath.Join(t.TempDir(), "nope.jsonl"))
			So(errors.Is(err, reader.ErrOpenInput), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			rec := sampleRecord()
			path := writeLines(t, "events.jsonl", recordLine(t, rec))

			r, err := reader.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = r.Close() }()

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err = r.Next(cancelled)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
