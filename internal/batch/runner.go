// Package batch builds a landmark dataset from a labeled video corpus.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/ayusman/signprep/internal/augment"
	"github.com/ayusman/signprep/internal/dataset"
	"github.com/ayusman/signprep/internal/extract"
	"github.com/ayusman/signprep/internal/manifest"
	"github.com/ayusman/signprep/internal/metrics"
	"github.com/ayusman/signprep/internal/store"
)

// Skip reasons, as used in the tables_skipped label.
const (
	SkipEmptyTable    = "empty_table"
	SkipEmptySequence = "empty_sequence"
)

// Extractor turns one video into one landmark table.
type Extractor interface {
	Extract(ctx context.Context, in, out string) (extract.Result, error)
}

// Augmenter writes a randomly transformed copy of a video.
type Augmenter interface {
	AugmentFile(ctx context.Context, in, out string) (augment.Params, int, error)
}

// Catalog records written tables.
type Catalog interface {
	Create(t *store.LandmarkTable) error
}

// Config controls a batch run.
type Config struct {
	VideoDir     string
	OutputDir    string
	VideoExt     string
	AugmentCount int
	TempVideo    string
	Progress     bool
}

// Summary counts the work done by a run.
type Summary struct {
	Entries int
	Tables  int
	Skipped int
}

// Runner processes corpus entries one at a time.
type Runner struct {
	cfg       Config
	extractor Extractor
	augmenter Augmenter
	catalog   Catalog
	runID     string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New creates a Runner. aug may be nil when cfg.AugmentCount is zero.
func New(cfg Config, ex Extractor, aug Augmenter, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if cfg.VideoExt == "" {
		cfg.VideoExt = ".mp4"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		extractor: ex,
		augmenter: aug,
		logger:    logger,
		metrics:   m,
	}
}

// SetCatalog records every written table under runID.
func (r *Runner) SetCatalog(c Catalog, runID string) {
	r.catalog = c
	r.runID = runID
}

// Stem returns file without its directory and without the ext suffix.
func Stem(file, ext string) string {
	return strings.TrimSuffix(filepath.Base(file), ext)
}

// TablePath returns <out>/<gloss>/<stem>.npy for variant store.OriginalVariant
// and <out>/<gloss>/<stem>_<variant>.npy otherwise.
func TablePath(out, gloss, stem string, variant int) string {
	name := stem
	if variant != store.OriginalVariant {
		name = fmt.Sprintf("%s_%d", stem, variant)
	}
	return filepath.Join(out, gloss, name+dataset.Ext)
}

// Run writes the tables of every entry in order. Empty outputs are skipped;
// any other error stops the batch. The temporary video is removed on return.
func (r *Runner) Run(ctx context.Context, entries []manifest.Entry) (Summary, error) {
	var sum Summary

	if r.cfg.AugmentCount > 0 && r.augmenter == nil {
		return sum, errors.New("augmentation requested without an augmenter")
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0755); err != nil {
		return sum, fmt.Errorf("create output directory: %w", err)
	}
	if r.cfg.AugmentCount > 0 {
		defer r.removeTemp()
	}

	bar := r.newProgressBar(len(entries))
	defer bar.Finish()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		bar.Set("prefix", e.Gloss)
		if err := r.processEntry(ctx, e, &sum); err != nil {
			return sum, fmt.Errorf("entry %d (%s/%s): %w", e.Index, e.Gloss, e.File, err)
		}
		sum.Entries++
		bar.Increment()
	}

	r.logger.Info("batch finished",
		zap.Int("entries", sum.Entries),
		zap.Int("tables", sum.Tables),
		zap.Int("skipped", sum.Skipped),
	)

	return sum, nil
}

func (r *Runner) processEntry(ctx context.Context, e manifest.Entry, sum *Summary) error {
	if err := os.MkdirAll(filepath.Join(r.cfg.OutputDir, e.Gloss), 0755); err != nil {
		return fmt.Errorf("create label directory: %w", err)
	}

	in := filepath.Join(r.cfg.VideoDir, e.File)
	stem := Stem(e.File, r.cfg.VideoExt)

	if err := r.extract(ctx, e, in, stem, store.OriginalVariant, sum); err != nil {
		return err
	}

	for k := 0; k < r.cfg.AugmentCount; k++ {
		p, _, err := r.augmenter.AugmentFile(ctx, in, r.cfg.TempVideo)
		if errors.Is(err, augment.ErrEmptySequence) {
			r.logger.Warn("augmented video is empty, skipping variant",
				zap.String("file", e.File),
				zap.Int("variant", k),
				zap.Stringer("params", p),
			)
			r.metrics.TableSkipped(SkipEmptySequence)
			sum.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("augment variant %d: %w", k, err)
		}

		if err := r.extract(ctx, e, r.cfg.TempVideo, stem, k, sum); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) extract(ctx context.Context, e manifest.Entry, in, stem string, variant int, sum *Summary) error {
	out := TablePath(r.cfg.OutputDir, e.Gloss, stem, variant)

	kind := metrics.KindAugmented
	if variant == store.OriginalVariant {
		kind = metrics.KindOriginal
	}
	r.metrics.Video(kind)

	res, err := r.extractor.Extract(ctx, in, out)
	if errors.Is(err, dataset.ErrEmptyTable) {
		r.logger.Warn("video produced no frames, skipping table",
			zap.String("input", in),
			zap.String("output", out),
		)
		r.metrics.TableSkipped(SkipEmptyTable)
		sum.Skipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", in, err)
	}
	sum.Tables++

	r.logger.Debug("table written",
		zap.String("gloss", e.Gloss),
		zap.String("output", out),
		zap.Int("rows", res.Rows),
		zap.Int("pose_absent", res.PoseAbsent),
	)

	if r.catalog == nil {
		return nil
	}
	if err := r.catalog.Create(&store.LandmarkTable{
		RunID:      r.runID,
		Gloss:      e.Gloss,
		SourceFile: e.File,
		Variant:    variant,
		Path:       out,
		Rows:       res.Rows,
	}); err != nil {
		return fmt.Errorf("catalog %s: %w", out, err)
	}
	return nil
}

func (r *Runner) removeTemp() {
	err := os.Remove(r.cfg.TempVideo)
	if err != nil && !os.IsNotExist(err) {
		r.logger.Warn("failed to remove temporary video",
			zap.String("path", r.cfg.TempVideo),
			zap.Error(err),
		)
	}
}

func (r *Runner) newProgressBar(total int) *pb.ProgressBar {
	template := `{{ string . "prefix" }} {{counters . }} {{bar . }} {{percent . }} {{etime . "%s elapsed"}} {{rtime . "%s remain"}}`

	bar := pb.ProgressBarTemplate(template).New(total)
	if r.cfg.Progress {
		bar.Start()
	}
	return bar
}
