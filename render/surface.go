package render

import (
	"image"
	"image/color"
)

// Surface is the result of one Render call.
type Surface struct {
	// Image holds the rendered pixels, origin at the canvas top-left.
	Image *image.RGBA

	// Density is the density the surface was rendered at.
	Density float64

	// Scale is the number of pixels per canvas unit.
	Scale float64

	// ContentHeight is the rendered height in canvas units. It is at
	// least the canvas height and grows with overflowing text.
	ContentHeight float64
}

// Width returns the pixel width.
func (s *Surface) Width() int {
	if s == nil || s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the pixel height.
func (s *Surface) Height() int {
	if s == nil || s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// Empty reports whether the surface has no pixels.
func (s *Surface) Empty() bool {
	return s.Width() == 0 || s.Height() == 0
}

// At returns the color at canvas point (x, y).
func (s *Surface) At(x, y float64) color.Color {
	return s.Image.At(int(x*s.Scale), int(y*s.Scale))
}

// ToCanvas converts a pixel position to canvas units.
func (s *Surface) ToCanvas(px, py float64) (x, y float64) {
	return px / s.Scale, py / s.Scale
}
