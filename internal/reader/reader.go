// Package reader streams event records from JSON-lines files, optionally
// gzip-compressed, and validates the V0-to-track references of each record.
package reader

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/okian/k0sqa/internal/domain/model"
	"github.com/okian/k0sqa/pkg/logger"
	"github.com/okian/k0sqa/pkg/metrics"
)

// maxLineBytes bounds a single event record on the wire. Events with many
// tracks stay well below this.
const maxLineBytes = 16 << 20

// Reader streams EventRecords from a file.
type Reader struct {
	f    *os.File
	gz   *gzip.Reader
	sc   *bufio.Scanner
	line int
	log  logger.Logger
}

// Open opens the event file at path. Files ending in .gz are transparently
// decompressed.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenInput, err)
	}

	r := &Reader{f: f}
	for _, opt := range opts {
		opt(r)
	}

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %v", ErrOpenInput, err)
		}
		r.gz = gz
		src = gz
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	r.sc = sc
	return r, nil
}

// Next returns the next event record. It returns io.EOF at the end of the
// input. V0 candidates whose daughter tracks do not resolve within the record
// are dropped fail-closed and counted in metrics.
func (r *Reader) Next(ctx context.Context) (model.EventRecord, error) {
	for {
		select {
		case <-ctx.Done():
			return model.EventRecord{}, ctx.Err()
		default:
		}

		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				metrics.RecordReaderError()
				return model.EventRecord{}, fmt.Errorf("%w: line %d: %v", ErrReadInput, r.line+1, err)
			}
			return model.EventRecord{}, io.EOF
		}
		r.line++

		raw := strings.TrimSpace(r.sc.Text())
		if raw == "" {
			continue
		}

		var rec model.EventRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			metrics.RecordReaderError()
			return model.EventRecord{}, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, r.line, err)
		}

		return r.validate(ctx, rec), nil
	}
}

// validate drops V0s with unresolvable daughter references.
func (r *Reader) validate(ctx context.Context, rec model.EventRecord) model.EventRecord {
	kept := rec.V0s[:0]
	for _, v0 := range rec.V0s {
		_, okPos := rec.TrackByID(v0.PosTrackID)
		_, okNeg := rec.TrackByID(v0.NegTrackID)
		if !okPos || !okNeg {
			metrics.RecordDaughterUnresolved()
			if r.log != nil {
				r.log.Warn(ctx, "dropping V0 with unresolved daughter",
					logger.Int("line", r.line),
					logger.String("pos", v0.PosTrackID),
					logger.String("neg", v0.NegTrackID),
				)
			}
			continue
		}
		kept = append(kept, v0)
	}
	rec.V0s = kept
	return rec
}

// Line returns the number of input lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying file handles.
func (r *Reader) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			_ = r.f.Close()
			return err
		}
	}
	return r.f.Close()
}
