package media

import (
	"image"
	stddraw "image/draw"

	"golang.org/x/image/draw"
)

// ToRGBA returns img as *image.RGBA, copying only when necessary.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	stddraw.Draw(rgba, bounds, img, bounds.Min, stddraw.Src)
	return rgba
}

// Clone returns an independent RGBA copy of img.
func Clone(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	stddraw.Draw(out, bounds, img, bounds.Min, stddraw.Src)
	return out
}

// Resize scales img to exactly width x height using Catmull-Rom resampling.
func Resize(img image.Image, width, height int) *image.RGBA {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Over, nil)
	return out
}

// ResizeToHeight scales img to the target height preserving aspect ratio.
func ResizeToHeight(img image.Image, height int) *image.RGBA {
	bounds := img.Bounds()
	if bounds.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, height))
	}
	width := bounds.Dx() * height / bounds.Dy()
	return Resize(img, width, height)
}

// Crop returns a copy of the region rect of img, clipped to img bounds.
func Crop(img image.Image, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	stddraw.Draw(out, out.Bounds(), img, rect.Min, stddraw.Src)
	return out
}

// HStack places a and b side by side on a shared canvas. The canvas height is
// the taller of the two inputs.
func HStack(a, b image.Image) *image.RGBA {
	ab, bb := a.Bounds(), b.Bounds()
	height := ab.Dy()
	if bb.Dy() > height {
		height = bb.Dy()
	}
	out := image.NewRGBA(image.Rect(0, 0, ab.Dx()+bb.Dx(), height))
	stddraw.Draw(out, image.Rect(0, 0, ab.Dx(), ab.Dy()), a, ab.Min, stddraw.Src)
	stddraw.Draw(out, image.Rect(ab.Dx(), 0, ab.Dx()+bb.Dx(), bb.Dy()), b, bb.Min, stddraw.Src)
	return out
}

// BlendInto linearly blends src over the dst region anchored at offset with
// the given alpha, clipped to dst bounds. dst is modified in place.
func BlendInto(dst *image.RGBA, src image.Image, offset image.Point, alpha float64) {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	srcBounds := src.Bounds()
	region := image.Rect(
		offset.X,
		offset.Y,
		offset.X+srcBounds.Dx(),
		offset.Y+srcBounds.Dy(),
	).Intersect(dst.Bounds())

	srcRGBA := ToRGBA(src)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			sx := srcBounds.Min.X + (x - offset.X)
			sy := srcBounds.Min.Y + (y - offset.Y)
			d := dst.RGBAAt(x, y)
			s := srcRGBA.RGBAAt(sx, sy)
			d.R = blendChannel(d.R, s.R, alpha)
			d.G = blendChannel(d.G, s.G, alpha)
			d.B = blendChannel(d.B, s.B, alpha)
			dst.SetRGBA(x, y, d)
		}
	}
}

func blendChannel(dst, src uint8, alpha float64) uint8 {
	v := float64(dst)*(1-alpha) + float64(src)*alpha
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
