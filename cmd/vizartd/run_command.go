package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vizart/internal/artifacts"
	"vizart/internal/engine"
	"vizart/internal/jobs"
	"vizart/internal/logging"
	"vizart/internal/pipeline"
	"vizart/internal/vision"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the processing daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(ctx)
		},
	}
}

func runDaemonProcess(ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "vizartd.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return errors.New("another vizartd instance is already running")
	}
	defer lock.Unlock()

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	pose := vision.NewPoseSession(vision.PoseOptions{
		ForegroundThreshold: uint8(cfg.Vision.ForegroundThreshold),
		MinCoverage:         cfg.Vision.MinForegroundCoverage,
	})
	segmenter := vision.NewSegmentSession(uint8(cfg.Vision.ForegroundThreshold))
	eng := engine.New(pose, segmenter, engine.Options{
		SegmentationConfidence: cfg.Vision.SegmentationConfidence,
		Logger:                 logger,
	})

	uploads := artifacts.NewUploadStore(cfg.Paths.UploadDir, cfg.Processing.MaxUploadBytes)
	results := artifacts.NewResultStore(cfg.Paths.ResultsDir, cfg.Processing.JPEGQuality)

	orchestrator := pipeline.NewFromConfig(cfg, store, eng, uploads, results, logger)
	if err := orchestrator.Start(signalCtx); err != nil {
		logger.Error("orchestrator start", logging.Error(err))
		return err
	}

	logger.Info("vizartd started",
		logging.String("lock", lockPath),
		logging.String("db", store.Path()),
	)

	<-signalCtx.Done()
	logger.Info("vizartd shutting down")
	orchestrator.Close()
	return nil
}
