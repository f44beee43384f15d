package testsupport

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"vizart/internal/media"
)

// WritePersonImage writes a JPEG test image containing a dark figure on a
// near-white background, sized width x height. The dark region is what the
// built-in foreground sessions latch onto.
func WritePersonImage(t testing.TB, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
		}
	}
	// Dark block roughly where a standing person would be.
	for y := height / 10; y < height*9/10; y++ {
		for x := width * 3 / 8; x < width*5/8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}
	mustSaveJPEG(t, img, path)
}

// WriteBlankImage writes a uniform near-white JPEG with no foreground.
func WriteBlankImage(t testing.TB, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 252, G: 252, B: 252, A: 255})
		}
	}
	mustSaveJPEG(t, img, path)
}

// WriteGarmentImage writes a JPEG of a solid colored garment patch on a
// near-white background.
func WriteGarmentImage(t testing.TB, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
		}
	}
	for y := height / 5; y < height*4/5; y++ {
		for x := width / 5; x < width*4/5; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 160, G: 30, B: 30, A: 255})
		}
	}
	mustSaveJPEG(t, img, path)
}

func mustSaveJPEG(t testing.TB, img image.Image, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := media.SaveJPEG(img, path, 95); err != nil {
		t.Fatalf("write image %s: %v", path, err)
	}
}
