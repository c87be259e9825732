package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/k0sqa/internal/app"
	"github.com/okian/k0sqa/internal/config"
	"github.com/okian/k0sqa/internal/domain/selection"
	"github.com/okian/k0sqa/internal/export"
	"github.com/okian/k0sqa/pkg/logger"
	"github.com/okian/k0sqa/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("k0sqa: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Initialize logging
	if err := logger.Init(); err != nil {
		return err
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optional Prometheus listener for the duration of the run.
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, log)
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.EventQueueSize),
		service.WithEventSelection(cfg.EventSelection),
		service.WithSelector(selection.New(
			selection.WithMinCosPA(cfg.V0CosPA),
			selection.WithMaxRapidity(cfg.MaxRapidity),
			selection.WithMaxTPCNSigmaPi(cfg.MaxTPCNSigmaPi),
		)),
	)

	res, err := svc.Run(ctx, cfg.Input)
	if err != nil {
		return err
	}

	log.Info(ctx, "mass summary",
		logger.Int64("entries", res.Mass.Entries),
		logger.Float64("mean", res.Mass.Mean),
		logger.Float64("stddev", res.Mass.StdDev),
		logger.Float64("signal_fraction", res.Mass.SignalFraction),
	)

	runID := uuid.NewString()

	if cfg.OutputDB != "" {
		db, err := export.NewDB(cfg.OutputDB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := db.RecordRun(export.RunRecord{
			RunID:          runID,
			Input:          cfg.Input,
			EventsTotal:    res.EventsTotal,
			EventsSelected: res.EventsSelected,
			Mass:           res.Mass,
		}); err != nil {
			return err
		}
		if err := db.WriteHistograms(runID, res.Registry); err != nil {
			return err
		}
		log.Info(ctx, "histograms written", logger.String("db", cfg.OutputDB), logger.String("run_id", runID))
	}

	if cfg.Report != "" {
		if err := export.WriteReport(cfg.Report, res.Registry, res.Mass); err != nil {
			return err
		}
		log.Info(ctx, "report written", logger.String("report", cfg.Report))
	}

	return nil
}

// serveMetrics exposes the custom Prometheus registry until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "metrics listener started", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics listener failed", logger.Error(err))
	}
}
