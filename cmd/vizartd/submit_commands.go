package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vizart/internal/artifacts"
	"vizart/internal/config"
	"vizart/internal/engine"
	"vizart/internal/jobs"
	"vizart/internal/pipeline"
	"vizart/internal/vision"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit processing jobs",
	}

	submitCmd.AddCommand(newSubmitTryOnCommand(ctx))
	submitCmd.AddCommand(newSubmitTryOffCommand(ctx))

	return submitCmd
}

func newSubmitTryOnCommand(ctx *commandContext) *cobra.Command {
	var (
		garmentType        string
		preserveBackground bool
		adjustSize         bool
	)

	cmd := &cobra.Command{
		Use:   "try-on <model-image> <garment-image>",
		Short: "Queue a virtual try-on job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := map[string]any{
				"garment_type":        garmentType,
				"preserve_background": preserveBackground,
				"adjust_size":         adjustSize,
			}
			if _, err := jobs.DecodeTryOnOptions(options); err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				uploads := artifacts.NewUploadStore(cfg.Paths.UploadDir, cfg.Processing.MaxUploadBytes)
				modelPath, err := stageFile(uploads, args[0])
				if err != nil {
					return err
				}
				garmentPath, err := stageFile(uploads, args[1])
				if err != nil {
					return err
				}
				job, err := store.Create(cmd.Context(), jobs.TypeTryOn, modelPath, garmentPath, options)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued try-on job %s\n", job.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&garmentType, "garment-type", "upper", "Garment placement (upper, lower, full)")
	cmd.Flags().BoolVar(&preserveBackground, "preserve-background", false, "Keep the model image background")
	cmd.Flags().BoolVar(&adjustSize, "adjust-size", true, "Resize the garment to fit the composite")
	return cmd
}

func newSubmitTryOffCommand(ctx *commandContext) *cobra.Command {
	var (
		garmentTypes []string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "try-off <model-image>",
		Short: "Queue a garment extraction job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := map[string]any{
				"garment_types": garmentTypes,
				"output_format": outputFormat,
			}
			if _, err := jobs.DecodeTryOffOptions(options); err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				uploads := artifacts.NewUploadStore(cfg.Paths.UploadDir, cfg.Processing.MaxUploadBytes)
				modelPath, err := stageFile(uploads, args[0])
				if err != nil {
					return err
				}
				job, err := store.Create(cmd.Context(), jobs.TypeTryOff, modelPath, "", options)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued try-off job %s\n", job.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&garmentTypes, "garment-types", []string{"upper", "lower", "full"}, "Garment types to extract")
	cmd.Flags().StringVar(&outputFormat, "output-format", "png", "Extraction output format (png, jpg, webp)")
	return cmd
}

func stageFile(uploads *artifacts.UploadStore, source string) (string, error) {
	f, err := os.Open(source)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", source, err)
	}
	defer f.Close()
	return uploads.Save(f, filepath.Base(source))
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var garmentSource string

	cmd := &cobra.Command{
		Use:   "preview <try-on|try-off> <model-image>",
		Short: "Render a synchronous preview without creating a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobType, ok := jobs.ParseType(args[0])
			if !ok {
				return fmt.Errorf("unknown job type %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				orchestrator := buildOrchestrator(cfg, store)
				preview, err := orchestrator.GeneratePreview(cmd.Context(), jobType, args[1], garmentSource)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Preview:  %s\n", preview.URL)
				fmt.Fprintf(out, "Estimate: %s\n", preview.Estimate)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&garmentSource, "garment", "", "Garment image (required for try-on previews)")
	return cmd
}

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show the processing capability descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				orchestrator := buildOrchestrator(cfg, store)
				encoded, err := json.MarshalIndent(orchestrator.AvailableModels(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
				return nil
			})
		},
	}
}

// buildOrchestrator assembles an in-process orchestrator for synchronous
// operations. It is never started, so no background polling happens.
func buildOrchestrator(cfg *config.Config, store *jobs.Store) *pipeline.Orchestrator {
	pose := vision.NewPoseSession(vision.PoseOptions{
		ForegroundThreshold: uint8(cfg.Vision.ForegroundThreshold),
		MinCoverage:         cfg.Vision.MinForegroundCoverage,
	})
	segmenter := vision.NewSegmentSession(uint8(cfg.Vision.ForegroundThreshold))
	eng := engine.New(pose, segmenter, engine.Options{
		SegmentationConfidence: cfg.Vision.SegmentationConfidence,
	})
	uploads := artifacts.NewUploadStore(cfg.Paths.UploadDir, cfg.Processing.MaxUploadBytes)
	results := artifacts.NewResultStore(cfg.Paths.ResultsDir, cfg.Processing.JPEGQuality)
	return pipeline.NewFromConfig(cfg, store, eng, uploads, results, nil)
}
