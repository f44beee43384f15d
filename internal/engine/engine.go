package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"vizart/internal/logging"
	"vizart/internal/media"
	"vizart/internal/vision"
)

// Engine executes the stateless-per-call image operations of the processing
// pipeline. The pose and segmentation sessions are constructed once at
// process start and held for the engine's lifetime; they are never
// reinitialized per call.
type Engine struct {
	pose          vision.PoseSession
	segmenter     vision.SegmentSession
	segConfidence float64
	logger        *slog.Logger
}

// Options configures engine construction.
type Options struct {
	// SegmentationConfidence is the cutoff applied to session confidence
	// masks when deriving binary foreground masks.
	SegmentationConfidence float64
	Logger                 *slog.Logger
}

// New constructs a stage engine around the injected model sessions.
func New(pose vision.PoseSession, segmenter vision.SegmentSession, opts Options) *Engine {
	if opts.SegmentationConfidence <= 0 || opts.SegmentationConfidence >= 1 {
		opts.SegmentationConfidence = 0.5
	}
	return &Engine{
		pose:          pose,
		segmenter:     segmenter,
		segConfidence: opts.SegmentationConfidence,
		logger:        logging.NewComponentLogger(opts.Logger, "stage-engine"),
	}
}

// DetectPose runs the pose model once over img. A result with Success=false
// means no landmarks were found; callers treat that as a stage failure.
func (e *Engine) DetectPose(ctx context.Context, img image.Image) (vision.PoseResult, error) {
	result, err := e.pose.Detect(ctx, img)
	if err != nil {
		return vision.PoseResult{}, fmt.Errorf("pose detection: %w", err)
	}
	return result, nil
}

// RemoveBackground segments the foreground of the image at path and returns a
// binary mask cut at the configured segmentation confidence. The session falls
// back to grayscale thresholding when its input carries no alpha information.
func (e *Engine) RemoveBackground(ctx context.Context, imagePath string) (*image.Gray, error) {
	img, err := media.Load(imagePath)
	if err != nil {
		return nil, err
	}
	soft, err := e.segmenter.Segment(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("background removal: %w", err)
	}
	return media.Binarize(soft, e.confidenceCutoff()), nil
}

// confidenceCutoff maps the configured segmentation confidence onto the 0-255
// scale of the session confidence masks.
func (e *Engine) confidenceCutoff() uint8 {
	return uint8(e.segConfidence * 255)
}

// modelMask derives the binary person mask used when stripping a model
// background: the pose segmentation mask when present, then the background
// remover, and finally an all-foreground mask so blending can still proceed.
// A confidence mask that binarizes to nothing gives no usable signal and
// falls through to the next source.
func (e *Engine) modelMask(ctx context.Context, img image.Image, pose vision.PoseResult) *image.Gray {
	cutoff := e.confidenceCutoff()
	if pose.Mask != nil {
		if mask := media.Binarize(pose.Mask, cutoff); media.Coverage(mask) > 0 {
			return mask
		}
	}
	soft, err := e.segmenter.Segment(ctx, img)
	if err == nil && soft != nil {
		if mask := media.Binarize(soft, cutoff); media.Coverage(mask) > 0 {
			return mask
		}
	}
	if err != nil {
		e.logger.Warn("background removal fallback failed, keeping full frame",
			logging.Error(err),
			logging.String(logging.FieldEventType, "model_mask_fallback"),
		)
	}
	return media.FullMask(img.Bounds())
}
