package media

import (
	"image"
	"image/color"
)

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// SoftThresholdInv produces a confidence mask from luminance. Pixels at or
// above threshold score zero; darker pixels score proportionally higher, so
// every foreground pixel carries a non-zero confidence. Bright, near-white
// pixels are treated as background.
func SoftThresholdInv(gray *image.Gray, threshold uint8) *image.Gray {
	bounds := gray.Bounds()
	mask := image.NewGray(bounds)
	if threshold == 0 {
		return mask
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v >= threshold {
				continue
			}
			score := (int(threshold)-int(v))*255 / int(threshold)
			if score < 1 {
				score = 1
			}
			mask.SetGray(x, y, color.Gray{Y: uint8(score)})
		}
	}
	return mask
}

// SoftAlphaMask copies the alpha channel of an RGBA image into a confidence
// mask, keeping partial transparency as partial confidence.
func SoftAlphaMask(img *image.RGBA) *image.Gray {
	bounds := img.Bounds()
	mask := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			mask.SetGray(x, y, color.Gray{Y: img.RGBAAt(x, y).A})
		}
	}
	return mask
}

// Binarize turns a confidence mask into a binary one: foreground wherever the
// confidence is non-zero and reaches cutoff.
func Binarize(soft *image.Gray, cutoff uint8) *image.Gray {
	bounds := soft.Bounds()
	mask := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := soft.GrayAt(x, y).Y
			if v > 0 && v >= cutoff {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return mask
}

// FullMask returns an all-foreground mask covering bounds.
func FullMask(bounds image.Rectangle) *image.Gray {
	mask := image.NewGray(bounds)
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	return mask
}

// ApplyMask zeroes every pixel of img where the mask is background. Mask and
// image coordinates are aligned by bounds; pixels outside the mask count as
// background.
func ApplyMask(img image.Image, mask *image.Gray) *image.RGBA {
	out := Clone(img)
	bounds := out.Bounds()
	maskBounds := mask.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			inMask := image.Pt(x, y).In(maskBounds) && mask.GrayAt(x, y).Y > 0
			if !inMask {
				out.SetRGBA(x, y, color.RGBA{})
			}
		}
	}
	return out
}

// CropGray extracts rect from mask into a zero-origin mask. The rectangle is
// clipped to the mask bounds.
func CropGray(mask *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(mask.Bounds())
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.SetGray(x, y, mask.GrayAt(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}

// Coverage returns the fraction of mask pixels that are foreground.
func Coverage(mask *image.Gray) float64 {
	if mask == nil || len(mask.Pix) == 0 {
		return 0
	}
	bounds := mask.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	var fg int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.GrayAt(x, y).Y > 0 {
				fg++
			}
		}
	}
	return float64(fg) / float64(total)
}

// ForegroundBounds returns the tight bounding rectangle of foreground pixels.
// The second return value is false when the mask has no foreground at all.
func ForegroundBounds(mask *image.Gray) (image.Rectangle, bool) {
	bounds := mask.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X, bounds.Min.Y
	found := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.GrayAt(x, y).Y == 0 {
				continue
			}
			found = true
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x+1 > maxX {
				maxX = x + 1
			}
			if y+1 > maxY {
				maxY = y + 1
			}
		}
	}
	if !found {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX, maxY), true
}
