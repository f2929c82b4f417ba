// Command processvideos builds the landmark dataset for a labeled video corpus.
// It is configured through SIGNPREP_* environment variables.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ayusman/signprep/internal/augment"
	"github.com/ayusman/signprep/internal/batch"
	"github.com/ayusman/signprep/internal/config"
	"github.com/ayusman/signprep/internal/detector"
	"github.com/ayusman/signprep/internal/extract"
	"github.com/ayusman/signprep/internal/logger"
	"github.com/ayusman/signprep/internal/manifest"
	"github.com/ayusman/signprep/internal/metrics"
	"github.com/ayusman/signprep/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Error("batch failed", zap.Error(err))
		zl.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}
	zl.Info("manifest loaded",
		zap.String("path", cfg.ManifestPath),
		zap.Int("entries", len(entries)),
		zap.Int("glosses", len(manifest.Glosses(entries))),
		zap.Int("augment_count", cfg.AugmentCount),
	)

	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			zl.Warn("failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}()

	det, err := detector.NewMediaPipeDetector(cfg.Detector())
	if err != nil {
		return fmt.Errorf("start detector: %w", err)
	}
	defer det.Close()

	runner := batch.New(batch.Config{
		VideoDir:     cfg.VideoDir,
		OutputDir:    cfg.OutputDir,
		VideoExt:     cfg.VideoExt,
		AugmentCount: cfg.AugmentCount,
		TempVideo:    cfg.TempVideo,
		Progress:     cfg.Progress,
	},
		extract.New(det, zl.Named("extract"), m),
		augment.New(augment.DefaultBounds(), nil, zl.Named("augment")),
		zl.Named("batch"),
		m,
	)

	var (
		catalog *store.Store
		runRec  *store.Run
	)
	if cfg.CatalogDB != "" {
		catalog, err = store.New(cfg.CatalogDB)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer catalog.Close()

		runRec, err = catalog.Runs().Create(cfg.ManifestPath, cfg.AugmentCount)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		runner.SetCatalog(catalog.Tables(), runRec.ID)
		zl.Info("run recorded", zap.String("run_id", runRec.ID), zap.String("catalog", cfg.CatalogDB))
	}

	sum, runErr := runner.Run(ctx, entries)

	if catalog != nil {
		if err := catalog.Runs().Finish(runRec.ID, sum.Entries, sum.Tables); err != nil {
			zl.Warn("failed to finish run", zap.String("run_id", runRec.ID), zap.Error(err))
		}
	}

	return runErr
}
