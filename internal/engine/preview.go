package engine

import (
	"context"
	"image"
	"image/color"

	"vizart/internal/media"
)

const (
	tryOnPreviewHeight  = 300
	tryOffPreviewHeight = 400
)

// PreviewTryOn renders a quick side-by-side of the model and garment inputs,
// both resized to a common height.
func (e *Engine) PreviewTryOn(ctx context.Context, modelPath, garmentPath string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := media.Load(modelPath)
	if err != nil {
		return nil, err
	}
	garment, err := media.Load(garmentPath)
	if err != nil {
		return nil, err
	}
	return media.HStack(
		media.ResizeToHeight(model, tryOnPreviewHeight),
		media.ResizeToHeight(garment, tryOnPreviewHeight),
	), nil
}

// PreviewTryOff renders the model input resized for display with a
// segmentation banner overlaid.
func (e *Engine) PreviewTryOff(ctx context.Context, modelPath string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := media.Load(modelPath)
	if err != nil {
		return nil, err
	}
	preview := media.ResizeToHeight(model, tryOffPreviewHeight)
	media.DrawLabel(preview, "SEGMENTATION PREVIEW", image.Pt(50, 50), color.RGBA{G: 255, A: 255})
	return preview, nil
}
