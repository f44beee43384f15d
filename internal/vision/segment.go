package vision

import (
	"context"
	"image"
	"sync"

	"vizart/internal/media"
)

// SegmentSession separates image foreground from background. Implementations
// hold expensive model state constructed once per process.
type SegmentSession interface {
	// Segment returns a foreground confidence mask aligned with img bounds.
	// Each pixel holds a 0-255 confidence score; callers decide the cutoff.
	Segment(ctx context.Context, img image.Image) (*image.Gray, error)
}

// thresholdSegmenter is the built-in background remover. When the input
// carries alpha information the mask follows the alpha channel; otherwise it
// falls back to grayscale thresholding against a light background.
type thresholdSegmenter struct {
	mu        sync.Mutex
	threshold uint8
}

// NewSegmentSession constructs the built-in segmentation session. Construct
// once per process and inject into the stage engine.
func NewSegmentSession(threshold uint8) SegmentSession {
	if threshold == 0 {
		threshold = 240
	}
	return &thresholdSegmenter{threshold: threshold}
}

func (s *thresholdSegmenter) Segment(ctx context.Context, img image.Image) (*image.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rgba, ok := alphaCarrier(img); ok {
		return media.SoftAlphaMask(rgba), nil
	}
	return media.SoftThresholdInv(media.Grayscale(img), s.threshold), nil
}

// alphaCarrier reports whether img carries a meaningful alpha channel,
// returning an RGBA view when it does. An image whose every pixel is fully
// opaque gives no segmentation signal and falls through to thresholding.
func alphaCarrier(img image.Image) (*image.RGBA, bool) {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
	default:
		return nil, false
	}
	rgba := media.ToRGBA(img)
	bounds := rgba.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if rgba.RGBAAt(x, y).A < 255 {
				return rgba, true
			}
		}
	}
	return nil, false
}
