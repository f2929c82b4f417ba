// Command getlandmarks extracts holistic landmarks from a video file or camera
// into a (frames, 169) .npy table, optionally showing the annotated video.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/annotate"
	"github.com/ayusman/signprep/internal/capture"
	"github.com/ayusman/signprep/internal/dataset"
	"github.com/ayusman/signprep/internal/detector"
	"github.com/ayusman/signprep/internal/extract"
	"github.com/ayusman/signprep/internal/logger"
	"github.com/ayusman/signprep/internal/server"
)

func main() {
	fileIn := flag.String("file_in", "0", "video file, or camera index for live capture")
	fileOut := flag.String("file_out", "", "output .npy path; landmarks are discarded when empty")
	display := flag.Bool("display", true, "show the annotated video")
	noDisplay := flag.Bool("no-display", false, "do not show the annotated video")
	serve := flag.String("serve", "", "serve the annotated preview on this address, e.g. :8080")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	zl, err := logger.New(*logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if err := run(zl, *fileIn, *fileOut, *display && !*noDisplay, *serve); err != nil {
		zl.Error("extraction failed", zap.Error(err))
		zl.Sync()
		os.Exit(1)
	}
}

func run(zl *zap.Logger, in, out string, show bool, serveAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		return fmt.Errorf("start detector: %w", err)
	}
	defer det.Close()

	// The window draws on the frame in place, so the preview goes first.
	var displays multiDisplay
	if serveAddr != "" {
		preview := server.NewPreview()
		defer preview.Close()
		displays = append(displays, preview)

		srv := &http.Server{Addr: serveAddr, Handler: server.New(server.Config{Preview: preview, Logger: zl})}
		go func() {
			zl.Info("serving preview", zap.String("addr", serveAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Error("preview server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	if show {
		w := annotate.NewWindow()
		defer w.Close()
		displays = append(displays, w)
	}

	// Ctrl-C keeps what was captured, like pressing q.
	opts := extract.Options{OutPath: out, FinalizeOnCancel: true}
	if len(displays) > 0 {
		opts.Display = displays
	}

	res, err := extract.New(det, zl, nil).Run(ctx, capture.NewSource(in), opts)
	if errors.Is(err, dataset.ErrEmptyTable) {
		zl.Warn("no frames read, nothing written", zap.String("input", in))
		return nil
	}
	if err != nil {
		return err
	}

	zl.Info("extraction finished",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("frames", res.Frames),
		zap.Bool("written", res.Written),
		zap.Bool("stopped", res.Stopped),
		zap.Int("pose_absent", res.PoseAbsent),
		zap.Int("left_hand_absent", res.LeftHandAbsent),
		zap.Int("right_hand_absent", res.RightHandAbsent),
	)
	return nil
}

// multiDisplay shows every frame on each display and stops when any asks to.
type multiDisplay []extract.Display

func (m multiDisplay) Show(frame *gocv.Mat, set *detector.LandmarkSet) bool {
	stop := false
	for _, d := range m {
		if d.Show(frame, set) {
			stop = true
		}
	}
	return stop
}

func (m multiDisplay) Close() error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.Close())
	}
	return errors.Join(errs...)
}
