package vision

import (
	"context"
	"image"
	"sync"

	"vizart/internal/media"
)

// PoseSession detects human poses in still images. Implementations hold
// expensive model state constructed once per process.
type PoseSession interface {
	Detect(ctx context.Context, img image.Image) (PoseResult, error)
}

// PoseOptions configures the built-in pose session.
type PoseOptions struct {
	// ForegroundThreshold is the grayscale cutoff separating subject from a
	// light background.
	ForegroundThreshold uint8
	// MinCoverage is the foreground fraction below which no person is
	// reported.
	MinCoverage float64
}

// foregroundPose is the built-in pose session. Landmarks come from a
// canonical body template scaled into the foreground bounding box; per-point
// visibility is the local mask coverage around each landmark. The session is
// shared across concurrently running jobs, so calls are serialized; a real
// inference runtime plugged in behind PoseSession keeps the same contract.
type foregroundPose struct {
	mu   sync.Mutex
	opts PoseOptions
}

// NewPoseSession constructs the built-in pose session. Construct once per
// process and inject into the stage engine.
func NewPoseSession(opts PoseOptions) PoseSession {
	if opts.ForegroundThreshold == 0 {
		opts.ForegroundThreshold = 240
	}
	if opts.MinCoverage <= 0 {
		opts.MinCoverage = 0.02
	}
	return &foregroundPose{opts: opts}
}

func (p *foregroundPose) Detect(ctx context.Context, img image.Image) (PoseResult, error) {
	if err := ctx.Err(); err != nil {
		return PoseResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	mask := media.SoftThresholdInv(media.Grayscale(img), p.opts.ForegroundThreshold)
	if media.Coverage(mask) < p.opts.MinCoverage {
		return PoseResult{Success: false, Message: "No human pose detected"}, nil
	}

	body, ok := media.ForegroundBounds(mask)
	if !ok {
		return PoseResult{Success: false, Message: "No human pose detected"}, nil
	}

	bounds := img.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	landmarks := make([]Landmark, LandmarkCount)
	for i, tp := range bodyTemplate {
		px := float64(body.Min.X) + tp.x*float64(body.Dx())
		py := float64(body.Min.Y) + tp.y*float64(body.Dy())
		landmarks[i] = Landmark{
			X:          px / width,
			Y:          py / height,
			Z:          0,
			Visibility: localCoverage(mask, int(px), int(py), windowRadius(body)),
		}
	}

	return PoseResult{
		Success:    true,
		Landmarks:  landmarks,
		Confidence: MeanVisibility(landmarks),
		Mask:       mask,
	}, nil
}

// windowRadius sizes the visibility sampling window to the subject, not the
// frame, so small figures keep meaningful per-point scores.
func windowRadius(body image.Rectangle) int {
	r := body.Dx()
	if body.Dy() < r {
		r = body.Dy()
	}
	r /= 20
	if r < 2 {
		r = 2
	}
	return r
}

func localCoverage(mask *image.Gray, cx, cy, radius int) float64 {
	window := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1).Intersect(mask.Bounds())
	total := window.Dx() * window.Dy()
	if total == 0 {
		return 0
	}
	var fg int
	for y := window.Min.Y; y < window.Max.Y; y++ {
		for x := window.Min.X; x < window.Max.X; x++ {
			if mask.GrayAt(x, y).Y > 0 {
				fg++
			}
		}
	}
	return float64(fg) / float64(total)
}
