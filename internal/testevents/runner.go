// Package testevents generates synthetic collision-event samples for
// exercising the analysis pipeline end to end.
package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/okian/k0sqa/pkg/logger"
)

// Run generates the configured sample and writes it as JSON lines.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.NumEvents <= 0 {
		cfg.NumEvents = DefaultNumEvents
	}
	if cfg.OutputFile == "" {
		return fmt.Errorf("output file is required")
	}

	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "generating event sample",
		logger.Int("events", cfg.NumEvents),
		logger.Int("signal_per_event", cfg.SignalPerEvt),
		logger.Int("background_per_event", cfg.BkgPerEvt),
		logger.Float64("sel8_fraction", cfg.Sel8Fraction),
		logger.String("output", cfg.OutputFile),
	)

	f, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = f.Close() }()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(cfg.OutputFile, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	gen := newGenerator(cfg.Seed)
	enc := json.NewEncoder(w)
	for i := 0; i < cfg.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := enc.Encode(gen.event(cfg, stats)); err != nil {
			return fmt.Errorf("write event %d: %w", i, err)
		}
		stats.EventsGenerated++
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logger.Get().Info(ctx, "sample written",
		logger.Int("events", stats.EventsGenerated),
		logger.Int("signal_v0s", stats.SignalV0s),
		logger.Int("background_v0s", stats.BackgroundV0s),
		logger.Int("tracks", stats.TracksGenerated),
		logger.String("duration", stats.Duration.String()),
	)
	return nil
}
