package media_test

import (
	"image"
	"image/color"
	"testing"

	"vizart/internal/media"
)

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestResizeToHeightPreservesAspect(t *testing.T) {
	img := solidImage(400, 200, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	resized := media.ResizeToHeight(img, 100)
	if resized.Bounds().Dy() != 100 {
		t.Fatalf("expected height 100, got %d", resized.Bounds().Dy())
	}
	if resized.Bounds().Dx() != 200 {
		t.Fatalf("expected width 200, got %d", resized.Bounds().Dx())
	}
}

func TestHStackDimensions(t *testing.T) {
	a := solidImage(30, 50, color.RGBA{R: 255, A: 255})
	b := solidImage(20, 40, color.RGBA{G: 255, A: 255})
	stacked := media.HStack(a, b)
	if stacked.Bounds().Dx() != 50 {
		t.Fatalf("expected combined width 50, got %d", stacked.Bounds().Dx())
	}
	if stacked.Bounds().Dy() != 50 {
		t.Fatalf("expected height of taller input, got %d", stacked.Bounds().Dy())
	}
	if got := stacked.RGBAAt(10, 10); got.R != 255 {
		t.Fatalf("left half should come from a, got %#v", got)
	}
	if got := stacked.RGBAAt(40, 10); got.G != 255 {
		t.Fatalf("right half should come from b, got %#v", got)
	}
}

func TestCropClipsToBounds(t *testing.T) {
	img := solidImage(40, 40, color.RGBA{B: 255, A: 255})
	cropped := media.Crop(img, image.Rect(30, 30, 60, 60))
	if cropped.Bounds().Dx() != 10 || cropped.Bounds().Dy() != 10 {
		t.Fatalf("expected clipped 10x10 crop, got %v", cropped.Bounds())
	}
}

func TestBlendIntoMixesChannels(t *testing.T) {
	dst := solidImage(10, 10, color.RGBA{A: 255})
	src := solidImage(10, 10, color.RGBA{R: 100, A: 255})
	media.BlendInto(dst, src, image.Pt(0, 0), 0.8)
	got := dst.RGBAAt(5, 5)
	if got.R != 80 {
		t.Fatalf("expected blended red 80, got %d", got.R)
	}
}

func TestBlendIntoClipsOffset(t *testing.T) {
	dst := solidImage(10, 10, color.RGBA{A: 255})
	src := solidImage(10, 10, color.RGBA{R: 200, A: 255})
	media.BlendInto(dst, src, image.Pt(8, 8), 1.0)
	if got := dst.RGBAAt(9, 9); got.R != 200 {
		t.Fatalf("expected blended pixel inside overlap, got %#v", got)
	}
	if got := dst.RGBAAt(0, 0); got.R != 0 {
		t.Fatalf("pixel outside overlap should be untouched, got %#v", got)
	}
}

func TestSoftThresholdInvSeparatesForeground(t *testing.T) {
	img := solidImage(20, 20, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	mask := media.SoftThresholdInv(media.Grayscale(img), 240)
	if mask.GrayAt(10, 10).Y == 0 {
		t.Fatal("dark pixel should be foreground")
	}
	if mask.GrayAt(0, 0).Y != 0 {
		t.Fatal("light pixel should be background")
	}

	coverage := media.Coverage(mask)
	if coverage < 0.2 || coverage > 0.3 {
		t.Fatalf("expected coverage near 0.25, got %f", coverage)
	}

	bounds, ok := media.ForegroundBounds(mask)
	if !ok {
		t.Fatal("expected foreground bounds")
	}
	if bounds.Min.X != 5 || bounds.Min.Y != 5 || bounds.Max.X != 15 || bounds.Max.Y != 15 {
		t.Fatalf("unexpected bounds %v", bounds)
	}
}

func TestSoftThresholdInvGradesConfidence(t *testing.T) {
	img := solidImage(10, 10, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	img.SetRGBA(2, 2, color.RGBA{A: 255})
	img.SetRGBA(3, 3, color.RGBA{R: 120, G: 120, B: 120, A: 255})
	mask := media.SoftThresholdInv(media.Grayscale(img), 240)
	if mask.GrayAt(2, 2).Y != 255 {
		t.Fatalf("black pixel should score full confidence, got %d", mask.GrayAt(2, 2).Y)
	}
	mid := mask.GrayAt(3, 3).Y
	if mid == 0 || mid >= 200 {
		t.Fatalf("mid-gray pixel should score partial confidence, got %d", mid)
	}
	if mask.GrayAt(0, 0).Y != 0 {
		t.Fatal("near-white pixel should score zero")
	}
}

func TestBinarizeAppliesCutoff(t *testing.T) {
	soft := image.NewGray(image.Rect(0, 0, 4, 1))
	soft.SetGray(0, 0, color.Gray{Y: 30})
	soft.SetGray(1, 0, color.Gray{Y: 130})
	soft.SetGray(2, 0, color.Gray{Y: 250})

	mask := media.Binarize(soft, 128)
	if mask.GrayAt(0, 0).Y != 0 {
		t.Fatal("score below cutoff should be background")
	}
	if mask.GrayAt(1, 0).Y != 255 || mask.GrayAt(2, 0).Y != 255 {
		t.Fatal("scores at or above cutoff should be foreground")
	}
	if mask.GrayAt(3, 0).Y != 0 {
		t.Fatal("zero score should stay background")
	}

	// A zero cutoff still never promotes zero-confidence pixels.
	loose := media.Binarize(soft, 0)
	if loose.GrayAt(3, 0).Y != 0 {
		t.Fatal("zero score should stay background at cutoff 0")
	}
	if loose.GrayAt(0, 0).Y != 255 {
		t.Fatal("any positive score should pass cutoff 0")
	}
}

func TestSoftAlphaMaskKeepsPartialTransparency(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 50, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 50, A: 120})
	mask := media.SoftAlphaMask(img)
	if mask.GrayAt(0, 0).Y != 255 || mask.GrayAt(1, 0).Y != 120 || mask.GrayAt(2, 0).Y != 0 {
		t.Fatalf("alpha values should carry through, got %d %d %d",
			mask.GrayAt(0, 0).Y, mask.GrayAt(1, 0).Y, mask.GrayAt(2, 0).Y)
	}
}

func TestForegroundBoundsEmptyMask(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	if _, ok := media.ForegroundBounds(mask); ok {
		t.Fatal("expected no bounds for all-background mask")
	}
}

func TestApplyMaskZeroesBackground(t *testing.T) {
	img := solidImage(10, 10, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	out := media.ApplyMask(img, mask)
	if got := out.RGBAAt(3, 3); got.R != 100 {
		t.Fatalf("foreground pixel should survive, got %#v", got)
	}
	if got := out.RGBAAt(3, 8); got.R != 0 || got.A != 0 {
		t.Fatalf("background pixel should be zeroed, got %#v", got)
	}
}

func TestCropGray(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 20, 20))
	mask.SetGray(12, 12, color.Gray{Y: 255})
	cropped := media.CropGray(mask, image.Rect(10, 10, 30, 30))
	if cropped.Bounds().Dx() != 10 || cropped.Bounds().Dy() != 10 {
		t.Fatalf("expected clipped 10x10 crop, got %v", cropped.Bounds())
	}
	if cropped.GrayAt(2, 2).Y != 255 {
		t.Fatal("expected translated foreground pixel")
	}
}

func TestFullMaskCoversEverything(t *testing.T) {
	mask := media.FullMask(image.Rect(0, 0, 8, 8))
	if media.Coverage(mask) != 1 {
		t.Fatal("full mask should have coverage 1")
	}
}
