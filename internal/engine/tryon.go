package engine

import (
	"context"
	"fmt"
	"image"

	"vizart/internal/jobs"
	"vizart/internal/media"
	"vizart/internal/vision"
)

const blendAlpha = 0.8

// garmentLandmarks maps a garment type to the body landmark indices that
// anchor it on the model.
func garmentLandmarks(garmentType jobs.GarmentType) []int {
	switch garmentType {
	case jobs.GarmentLower:
		return []int{vision.LandmarkLeftHip, vision.LandmarkRightHip, vision.LandmarkLeftKnee, vision.LandmarkRightKnee}
	case jobs.GarmentFull:
		indices := make([]int, 0, vision.LandmarkRightKnee-vision.LandmarkLeftShoulder+1)
		for i := vision.LandmarkLeftShoulder; i <= vision.LandmarkRightKnee; i++ {
			indices = append(indices, i)
		}
		return indices
	default:
		return []int{vision.LandmarkLeftShoulder, vision.LandmarkRightShoulder, vision.LandmarkLeftHip, vision.LandmarkRightHip}
	}
}

// WarpToPose aligns the garment image with the detected pose. Geometric
// warping is not implemented yet; the garment mask is applied so only garment
// pixels survive into the blend, and the anchor landmarks are validated so a
// truncated pose result fails here instead of mid-composite.
func (e *Engine) WarpToPose(ctx context.Context, garment image.Image, mask *image.Gray, pose vision.PoseResult, opts jobs.TryOnOptions) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, idx := range garmentLandmarks(opts.GarmentType) {
		if idx >= len(pose.Landmarks) {
			return nil, fmt.Errorf("pose result missing landmark %d for garment type %q", idx, opts.GarmentType)
		}
	}
	if mask == nil {
		return media.ToRGBA(garment), nil
	}
	return media.ApplyMask(garment, mask), nil
}

// Blend composites the warped garment onto the model image. The garment is
// centered on the frame, resized to the clipped target region, and mixed at a
// fixed alpha. With preserve_background disabled the model background is
// stripped first using the person mask.
func (e *Engine) Blend(ctx context.Context, model image.Image, warped *image.RGBA, pose vision.PoseResult, opts jobs.TryOnOptions) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *image.RGBA
	if opts.PreserveBackground {
		result = media.Clone(media.ToRGBA(model))
	} else {
		result = media.ApplyMask(model, e.modelMask(ctx, model, pose))
	}

	bounds := result.Bounds()
	gb := warped.Bounds()
	startX := bounds.Min.X + (bounds.Dx()-gb.Dx())/2
	startY := bounds.Min.Y + (bounds.Dy()-gb.Dy())/2
	target := image.Rect(startX, startY, startX+gb.Dx(), startY+gb.Dy()).Intersect(bounds)
	if target.Empty() {
		return result, nil
	}

	resized := warped
	if target.Dx() != gb.Dx() || target.Dy() != gb.Dy() {
		resized = media.Resize(warped, target.Dx(), target.Dy())
	}
	media.BlendInto(result, resized, target.Min, blendAlpha)
	return result, nil
}
