package engine

import (
	"context"
	"fmt"
	"image"

	"vizart/internal/jobs"
	"vizart/internal/media"
	"vizart/internal/vision"
)

// bboxPadding widens each garment bounding box before cropping so sleeve and
// hem pixels at the landmark edge are not cut off.
const bboxPadding = 20

// Extraction is one garment region lifted from a model image.
type Extraction struct {
	Type       jobs.GarmentType
	Image      *image.RGBA
	Mask       *image.Gray
	BBox       image.Rectangle
	Confidence float64
}

// ExtractGarments crops one region per requested garment type from the model
// image using the detected landmarks. The report callback, when non-nil, is
// invoked before each extraction so progress can advance per garment type.
func (e *Engine) ExtractGarments(ctx context.Context, model image.Image, pose vision.PoseResult, opts jobs.TryOffOptions, report func(garmentType jobs.GarmentType)) ([]Extraction, error) {
	frame := model.Bounds()
	mask := e.modelMask(ctx, model, pose)

	extractions := make([]Extraction, 0, len(opts.GarmentTypes))
	for _, garmentType := range opts.GarmentTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if report != nil {
			report(garmentType)
		}
		bbox, err := garmentBBox(garmentType, pose, frame)
		if err != nil {
			return nil, err
		}
		if bbox.Empty() {
			continue
		}
		extractions = append(extractions, Extraction{
			Type:       garmentType,
			Image:      media.Crop(model, bbox),
			Mask:       media.CropGray(mask, bbox),
			BBox:       bbox,
			Confidence: pose.Confidence,
		})
	}
	if len(extractions) == 0 {
		return nil, fmt.Errorf("no garment regions could be extracted")
	}
	return extractions, nil
}

// garmentBBox computes the padded, frame-clipped bounding box for one garment
// type. Full-body extraction uses the whole frame rather than a landmark box.
func garmentBBox(garmentType jobs.GarmentType, pose vision.PoseResult, frame image.Rectangle) (image.Rectangle, error) {
	if garmentType == jobs.GarmentFull {
		return frame, nil
	}
	indices := garmentLandmarks(garmentType)
	minX, minY := 1.0, 1.0
	maxX, maxY := 0.0, 0.0
	for _, idx := range indices {
		if idx >= len(pose.Landmarks) {
			return image.Rectangle{}, fmt.Errorf("pose result missing landmark %d for garment type %q", idx, garmentType)
		}
		lm := pose.Landmarks[idx]
		minX = min(minX, lm.X)
		maxX = max(maxX, lm.X)
		minY = min(minY, lm.Y)
		maxY = max(maxY, lm.Y)
	}
	w := float64(frame.Dx())
	h := float64(frame.Dy())
	box := image.Rect(
		int(minX*w)-bboxPadding,
		int(minY*h)-bboxPadding,
		int(maxX*w)+bboxPadding,
		int(maxY*h)+bboxPadding,
	)
	return box.Intersect(frame), nil
}
