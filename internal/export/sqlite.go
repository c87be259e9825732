// Package export writes accumulated histograms to SQLite and renders an
// HTML report of the one-dimensional distributions.
package export

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/k0sqa/internal/histogram"
	"github.com/okian/k0sqa/internal/stats"
)

// DB wraps the SQLite handle the results are written to.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the results database at path and
// bootstraps the schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDB, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id           TEXT PRIMARY KEY,
			input            TEXT,
			events_total     DOUBLE,
			events_selected  DOUBLE,
			mass_mean        DOUBLE,
			mass_stddev      DOUBLE,
			signal_fraction  DOUBLE,
			created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS h1_bins (
			run_id           TEXT,
			histogram        TEXT,
			bin              BIGINT,
			lo               DOUBLE,
			hi               DOUBLE,
			count            DOUBLE
		);
		CREATE TABLE IF NOT EXISTS h1_overflow (
			run_id           TEXT,
			histogram        TEXT,
			underflow        DOUBLE,
			overflow         DOUBLE,
			entries          BIGINT
		);
		CREATE TABLE IF NOT EXISTS sparse_cells (
			run_id           TEXT,
			histogram        TEXT,
			bins             TEXT,
			weight           DOUBLE
		);
		CREATE TABLE IF NOT EXISTS counters (
			run_id           TEXT,
			histogram        TEXT,
			label            TEXT,
			count            DOUBLE
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	return &DB{db}, nil
}

// RunRecord is the per-run metadata row.
type RunRecord struct {
	RunID          string
	Input          string
	EventsTotal    float64
	EventsSelected float64
	Mass           stats.MassSummary
	CreatedAt      time.Time
}

// RecordRun inserts the run metadata row.
func (db *DB) RecordRun(rec RunRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO runs (run_id, input, events_total, events_selected, mass_mean, mass_stddev, signal_fraction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Input, rec.EventsTotal, rec.EventsSelected,
		rec.Mass.Mean, rec.Mass.StdDev, rec.Mass.SignalFraction, created,
	)
	if err != nil {
		return fmt.Errorf("%w: runs: %v", ErrWrite, err)
	}
	return nil
}

// WriteHistograms dumps every booked bucket of the registry under the given
// run id, inside one transaction. Empty bins are skipped.
func (db *DB) WriteHistograms(runID string, reg *histogram.Registry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range reg.Names1D() {
		snap, err := reg.Histogram1D(name)
		if err != nil {
			return err
		}
		for i, c := range snap.Counts {
			if c == 0 {
				continue
			}
			lo, hi := snap.Axis.BinEdges(i)
			if _, err := tx.Exec(
				`INSERT INTO h1_bins (run_id, histogram, bin, lo, hi, count) VALUES (?, ?, ?, ?, ?, ?)`,
				runID, name, i, lo, hi, c,
			); err != nil {
				return fmt.Errorf("%w: h1_bins: %v", ErrWrite, err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO h1_overflow (run_id, histogram, underflow, overflow, entries) VALUES (?, ?, ?, ?, ?)`,
			runID, name, snap.Under, snap.Over, snap.Entries,
		); err != nil {
			return fmt.Errorf("%w: h1_overflow: %v", ErrWrite, err)
		}
	}

	for _, name := range reg.NamesSparse() {
		snap, err := reg.Sparse(name)
		if err != nil {
			return err
		}
		for _, cell := range snap.Cells {
			if _, err := tx.Exec(
				`INSERT INTO sparse_cells (run_id, histogram, bins, weight) VALUES (?, ?, ?, ?)`,
				runID, name, encodeBins(cell.Bins), cell.Weight,
			); err != nil {
				return fmt.Errorf("%w: sparse_cells: %v", ErrWrite, err)
			}
		}
	}

	for _, name := range reg.NamesCounter() {
		snap, err := reg.Counter(name)
		if err != nil {
			return err
		}
		for _, label := range snap.Labels {
			if _, err := tx.Exec(
				`INSERT INTO counters (run_id, histogram, label, count) VALUES (?, ?, ?, ?)`,
				runID, name, label, snap.Counts[label],
			); err != nil {
				return fmt.Errorf("%w: counters: %v", ErrWrite, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrWrite, err)
	}
	return nil
}

// encodeBins renders a bin tuple as "i,j,k,...".
func encodeBins(bins []int) string {
	parts := make([]string, len(bins))
	for i, b := range bins {
		parts[i] = strconv.Itoa(b)
	}
	return strings.Join(parts, ",")
}
