package media

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	// Registered decoders for Load.
	_ "image/gif"

	_ "golang.org/x/image/webp"
)

// Load reads and decodes an image from disk. JPEG, PNG, GIF, and WebP inputs
// are supported.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// SaveJPEG writes an image as JPEG with the given quality.
func SaveJPEG(img image.Image, path string, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg %s: %w", path, err)
	}
	return nil
}

// SavePNG writes an image as PNG.
func SavePNG(img image.Image, path string) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode png %s: %w", path, err)
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure directory for %s: %w", path, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create image %s: %w", path, err)
	}
	return file, nil
}
