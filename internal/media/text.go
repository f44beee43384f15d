package media

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawLabel renders text onto img at the given anchor point.
func DrawLabel(img *image.RGBA, text string, at image.Point, col color.Color) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(at.X),
			Y: fixed.I(at.Y),
		},
	}
	drawer.DrawString(text)
}
