package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/k0sqa/internal/testevents"
	"github.com/okian/k0sqa/pkg/logger"
)

const defaultTimeout = 10 * time.Minute

func main() {
	var (
		numEvents    = flag.Int("events", testevents.DefaultNumEvents, "Number of collision events to generate")
		signalPerEvt = flag.Int("signal", testevents.DefaultSignalPerEvt, "K0s-like candidates per event")
		bkgPerEvt    = flag.Int("background", testevents.DefaultBkgPerEvt, "Background candidates per event")
		sel8Fraction = flag.Float64("sel8", testevents.DefaultSel8Fraction, "Fraction of events passing the quality selection")
		seed         = flag.Uint64("seed", 1, "Seed for reproducible samples")
		output       = flag.String("output", "events.jsonl", "Output file (a .gz suffix enables compression)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := &testevents.Config{
		NumEvents:    *numEvents,
		SignalPerEvt: *signalPerEvt,
		BkgPerEvt:    *bkgPerEvt,
		Sel8Fraction: *sel8Fraction,
		Seed:         *seed,
		OutputFile:   *output,
	}

	if err := testevents.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
